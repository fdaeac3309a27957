package signal

import "time"

// Action 为交易信号类型。
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Record 表示一次融合计算产出的信号记录，创建后不可变。
// 持久化与展示由外围服务负责。
type Record struct {
	Signal         Action    `json:"signal"`
	Confidence     float64   `json:"confidence"`
	CompositeScore float64   `json:"composite_score"`
	TechnicalScore float64   `json:"technical_score"`
	SentimentScore float64   `json:"sentiment_score"`
	Reasoning      string    `json:"reasoning"`
	Price          float64   `json:"price"`
	Timestamp      time.Time `json:"timestamp"`
}
