package sentiment

import (
	"time"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/indicator"
)

const (
	defaultRecencyWindow   = 24 * time.Hour
	defaultSaturationCount = 10
)

// Observation 表示单篇新闻的情绪观测，由采集侧预先计算。
type Observation struct {
	// Score 为情绪分值，位于 [-1,1]。
	Score float64
	// Relevance 为与汇率主题的相关度，位于 [0,1]，用作加权权重。
	Relevance float64
	Timestamp time.Time
}

// Aggregate 的输出：市场整体情绪分值与置信度。
type Aggregate struct {
	Score      float64
	Confidence float64
	Count      int
}

// Aggregator 将一组情绪观测归并为单一市场情绪。
type Aggregator struct {
	// RecencyWindow 之外的旧观测会在聚合前被剔除。
	RecencyWindow time.Duration
	// SaturationCount 为置信度达到1所需的观测数量。
	SaturationCount int
}

// NewAggregator 创建使用默认参数的聚合器。
func NewAggregator() *Aggregator {
	return &Aggregator{
		RecencyWindow:   defaultRecencyWindow,
		SaturationCount: defaultSaturationCount,
	}
}

// Aggregate 以 asOf 为基准时刻做时效过滤后聚合观测。
// 无可用观测时返回中性 (0, 0)。分值为相关度加权均值，
// 置信度随观测数量单调不减并在饱和数量处封顶为1。
func (a *Aggregator) Aggregate(observations []Observation, asOf time.Time) Aggregate {
	recency := a.RecencyWindow
	if recency <= 0 {
		recency = defaultRecencyWindow
	}
	saturation := a.SaturationCount
	if saturation <= 0 {
		saturation = defaultSaturationCount
	}

	cutoff := asOf.Add(-recency)

	var weightSum, scoreSum float64
	count := 0
	for _, obs := range observations {
		if obs.Timestamp.After(asOf) || obs.Timestamp.Before(cutoff) {
			continue
		}
		count++
		weight := indicator.Clamp(obs.Relevance, 0, 1)
		weightSum += weight
		scoreSum += indicator.Clamp(obs.Score, -1, 1) * weight
	}

	if count == 0 || weightSum == 0 {
		return Aggregate{}
	}

	confidence := float64(count) / float64(saturation)
	if confidence > 1 {
		confidence = 1
	}

	return Aggregate{
		Score:      indicator.Clamp(scoreSum/weightSum, -1, 1),
		Confidence: confidence,
		Count:      count,
	}
}
