package signal

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/indicator"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/market"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/sentiment"
)

// volatilityDamping 控制高波动对技术分值的最大压制幅度。
const volatilityDamping = 0.5

// Fuser 将技术指标与新闻情绪融合为单一交易信号。
type Fuser struct {
	calc   *indicator.Calculator
	agg    *sentiment.Aggregator
	logger *zap.Logger
}

// NewFuser 创建信号融合器。
func NewFuser(calc *indicator.Calculator, agg *sentiment.Aggregator, logger *zap.Logger) *Fuser {
	if calc == nil {
		calc = indicator.NewCalculator()
	}
	if agg == nil {
		agg = sentiment.NewAggregator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fuser{
		calc:   calc,
		agg:    agg,
		logger: logger,
	}
}

// Generate 对给定的价格序列与情绪观测生成信号记录。
// 价格序列为空时返回 market.ErrInsufficientData；参数非法时返回 market.ErrInvalidParameters。
func (f *Fuser) Generate(series market.PriceSeries, observations []sentiment.Observation, params Parameters, asOf time.Time) (Record, error) {
	if err := params.Validate(); err != nil {
		return Record{}, err
	}
	if series.Len() == 0 {
		return Record{}, fmt.Errorf("生成信号失败, 价格序列为空: %w", market.ErrInsufficientData)
	}

	snapshot, err := f.calc.Compute(series, params.Windows())
	if err != nil {
		return Record{}, err
	}

	aggregate := f.agg.Aggregate(observations, asOf)

	record := f.Fuse(snapshot, aggregate, params, asOf)

	f.logger.Debug("信号生成完成",
		zap.String("signal", string(record.Signal)),
		zap.Float64("composite_score", record.CompositeScore),
		zap.Float64("technical_score", record.TechnicalScore),
		zap.Float64("sentiment_score", record.SentimentScore),
		zap.Float64("confidence", record.Confidence),
	)

	return record, nil
}

// Fuse 为纯函数：由指标快照、情绪聚合与参数计算信号记录。
func (f *Fuser) Fuse(snapshot indicator.Snapshot, aggregate sentiment.Aggregate, params Parameters, asOf time.Time) Record {
	technical := technicalScore(snapshot)
	composite := params.TechnicalWeight*technical + params.SentimentWeight*aggregate.Score

	action := ActionHold
	switch {
	case composite >= params.BuyThreshold:
		action = ActionBuy
	case composite <= params.SellThreshold:
		action = ActionSell
	}

	confidence := indicator.Clamp(abs(composite), 0, 1)
	if aggregate.Count > 0 {
		// 情绪参与时按聚合置信度折算最终信心。
		confidence *= 0.5 + 0.5*aggregate.Confidence
	}

	return Record{
		Signal:         action,
		Confidence:     indicator.Clamp(confidence, 0, 1),
		CompositeScore: indicator.Clamp(composite, -1, 1),
		TechnicalScore: technical,
		SentimentScore: aggregate.Score,
		Reasoning:      buildReasoning(action, snapshot, aggregate, technical, composite),
		Price:          snapshot.Close,
		Timestamp:      asOf,
	}
}

// technicalScore 为已定义方向指标的简单均值，并按波动率幅度做压制。
// 没有任何指标可用时返回0（中性）。
func technicalScore(snapshot indicator.Snapshot) float64 {
	scores := snapshot.DirectionalScores()
	if len(scores) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	mean := sum / float64(len(scores))

	if indicator.Defined(snapshot.Volatility) {
		mean *= 1 - volatilityDamping*snapshot.Volatility
	}

	return indicator.Clamp(mean, -1, 1)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
