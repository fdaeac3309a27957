package optimizer

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/signal"
)

// ErrEmptySearchSpace 表示搜索空间配置缺少候选值。
var ErrEmptySearchSpace = errors.New("empty search space")

// Space 为显式枚举的参数搜索空间。搜索范围必须有限且由调用方给定。
// 技术权重不单独枚举，始终由 1-情绪权重 推导。
type Space struct {
	SentimentWeights []float64 `json:"sentiment_weights" mapstructure:"sentiment_weights"`
	BuyThresholds    []float64 `json:"buy_thresholds" mapstructure:"buy_thresholds"`
	SellThresholds   []float64 `json:"sell_thresholds" mapstructure:"sell_thresholds"`
}

// DefaultSpace 返回默认网格，对应原始策略的调参范围。
func DefaultSpace() Space {
	return Space{
		SentimentWeights: []float64{0.2, 0.3, 0.4, 0.5, 0.6},
		BuyThresholds:    []float64{0.2, 0.25, 0.3, 0.35, 0.4},
		SellThresholds:   []float64{-0.2, -0.25, -0.3, -0.35, -0.4},
	}
}

// Validate 校验每个参数的候选集合均非空。
func (s Space) Validate() error {
	var err error

	if len(s.SentimentWeights) == 0 {
		err = multierr.Append(err, errors.New("sentiment_weights 候选集合为空"))
	}
	if len(s.BuyThresholds) == 0 {
		err = multierr.Append(err, errors.New("buy_thresholds 候选集合为空"))
	}
	if len(s.SellThresholds) == 0 {
		err = multierr.Append(err, errors.New("sell_thresholds 候选集合为空"))
	}

	if err != nil {
		return fmt.Errorf("搜索空间校验失败: %w", multierr.Append(ErrEmptySearchSpace, err))
	}

	return nil
}

// Size 返回笛卡尔积的组合数。
func (s Space) Size() int {
	return len(s.SentimentWeights) * len(s.BuyThresholds) * len(s.SellThresholds)
}

// Combinations 以 base 为模板枚举笛卡尔积下的全部参数组合，顺序确定。
func (s Space) Combinations(base signal.Parameters) []signal.Parameters {
	combos := make([]signal.Parameters, 0, s.Size())
	for _, sw := range s.SentimentWeights {
		for _, buy := range s.BuyThresholds {
			for _, sell := range s.SellThresholds {
				params := base
				params.SentimentWeight = sw
				params.TechnicalWeight = 1 - sw
				params.BuyThreshold = buy
				params.SellThreshold = sell
				combos = append(combos, params)
			}
		}
	}
	return combos
}
