package signal

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/indicator"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/sentiment"
)

const reasoningTemplate = `技术面分值 {{printf "%.3f" .Technical}}{{if .NoIndicators}}（无可用指标, 按中性处理）{{end}}{{range .Details}}; {{.}}{{end}}; 情绪面分值 {{printf "%.3f" .SentimentScore}}（{{.Count}} 条新闻观测）; 综合分值 {{printf "%.3f" .Composite}} → {{.Conclusion}}`

var reasoningTmpl = template.Must(template.New("reasoning").Parse(reasoningTemplate))

type reasoningContext struct {
	Technical      float64
	NoIndicators   bool
	Details        []string
	SentimentScore float64
	Count          int
	Composite      float64
	Conclusion     string
}

// buildReasoning 基于计算结果生成确定性的结构化说明文本。
func buildReasoning(action Action, snapshot indicator.Snapshot, aggregate sentiment.Aggregate, technical, composite float64) string {
	details := indicatorDetails(snapshot)

	conclusion := "建议观望"
	switch action {
	case ActionBuy:
		conclusion = "建议买入"
	case ActionSell:
		conclusion = "建议卖出"
	}

	ctx := reasoningContext{
		Technical:      technical,
		NoIndicators:   len(snapshot.DirectionalScores()) == 0,
		Details:        details,
		SentimentScore: aggregate.Score,
		Count:          aggregate.Count,
		Composite:      composite,
		Conclusion:     conclusion,
	}

	var buf bytes.Buffer
	if err := reasoningTmpl.Execute(&buf, ctx); err != nil {
		// 模板字段固定，渲染不应失败；兜底返回摘要。
		return fmt.Sprintf("综合分值 %.3f → %s", composite, conclusion)
	}
	return buf.String()
}

func indicatorDetails(snapshot indicator.Snapshot) []string {
	details := make([]string, 0, 4)

	if indicator.Defined(snapshot.RSI) {
		switch {
		case snapshot.RSI > 70:
			details = append(details, fmt.Sprintf("RSI %.1f 超买", snapshot.RSI))
		case snapshot.RSI < 30:
			details = append(details, fmt.Sprintf("RSI %.1f 超卖", snapshot.RSI))
		default:
			details = append(details, fmt.Sprintf("RSI %.1f 中性", snapshot.RSI))
		}
	}

	if v, ok := snapshot.MomentumScore(); ok {
		switch {
		case v > 0.2:
			details = append(details, fmt.Sprintf("动量偏多 (%.3f)", v))
		case v < -0.2:
			details = append(details, fmt.Sprintf("动量偏空 (%.3f)", v))
		}
	}

	if v, ok := snapshot.TrendScore(); ok {
		switch {
		case v > 0.2:
			details = append(details, fmt.Sprintf("价格高于均线趋势 (%.3f)", v))
		case v < -0.2:
			details = append(details, fmt.Sprintf("价格低于均线趋势 (%.3f)", v))
		}
	}

	if indicator.Defined(snapshot.Volatility) && snapshot.Volatility > 0.5 {
		details = append(details, fmt.Sprintf("波动率偏高 (%.2f), 技术分值已压制", snapshot.Volatility))
	}

	return details
}
