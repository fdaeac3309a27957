package signal

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/indicator"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/market"
)

const weightTolerance = 1e-9

// Parameters 为一次信号计算的算法参数快照。
// 参数在调用间不可变：修改只对后续调用生效，不会影响进行中的计算。
type Parameters struct {
	SentimentWeight  float64 `json:"sentiment_weight" mapstructure:"sentiment_weight"`
	TechnicalWeight  float64 `json:"technical_weight" mapstructure:"technical_weight"`
	BuyThreshold     float64 `json:"buy_threshold" mapstructure:"buy_threshold"`
	SellThreshold    float64 `json:"sell_threshold" mapstructure:"sell_threshold"`
	RSIWindow        int     `json:"rsi_window" mapstructure:"rsi_window"`
	MomentumWindow   int     `json:"momentum_window" mapstructure:"momentum_window"`
	TrendWindow      int     `json:"trend_window" mapstructure:"trend_window"`
	VolatilityWindow int     `json:"volatility_window" mapstructure:"volatility_window"`
	ChangeBars       int     `json:"change_bars" mapstructure:"change_bars"`
	// TypicalVolatility 为波动率归一化参考值，<=0 时指标层使用内置默认值。
	TypicalVolatility float64 `json:"typical_volatility" mapstructure:"typical_volatility"`
}

// DefaultParameters 返回默认参数：情绪0.4/技术0.6，阈值±0.3，窗口 14/10/50/20。
func DefaultParameters() Parameters {
	return Parameters{
		SentimentWeight:   0.4,
		TechnicalWeight:   0.6,
		BuyThreshold:      0.3,
		SellThreshold:     -0.3,
		RSIWindow:         14,
		MomentumWindow:    10,
		TrendWindow:       50,
		VolatilityWindow:  20,
		ChangeBars:        1,
		TypicalVolatility: 0.005,
	}
}

// Windows 导出指标层所需的窗口配置。
func (p Parameters) Windows() indicator.Windows {
	return indicator.Windows{
		RSI:               p.RSIWindow,
		Momentum:          p.MomentumWindow,
		Trend:             p.TrendWindow,
		Volatility:        p.VolatilityWindow,
		ChangeBars:        p.ChangeBars,
		TypicalVolatility: p.TypicalVolatility,
	}
}

// MaxWindow 返回参数中的最大窗口。
func (p Parameters) MaxWindow() int {
	return p.Windows().Max()
}

// Validate 校验参数约束，违反时返回包装 market.ErrInvalidParameters 的聚合错误。
func (p Parameters) Validate() error {
	var err error

	if p.SentimentWeight < 0 || p.SentimentWeight > 1 {
		err = multierr.Append(err, errors.New("sentiment_weight 必须位于 [0,1]"))
	}
	if p.TechnicalWeight < 0 || p.TechnicalWeight > 1 {
		err = multierr.Append(err, errors.New("technical_weight 必须位于 [0,1]"))
	}
	if math.Abs(p.SentimentWeight+p.TechnicalWeight-1) > weightTolerance {
		err = multierr.Append(err, errors.New("sentiment_weight 与 technical_weight 之和必须等于1"))
	}
	if p.BuyThreshold <= 0 {
		err = multierr.Append(err, errors.New("buy_threshold 必须大于0"))
	}
	if p.SellThreshold >= 0 {
		err = multierr.Append(err, errors.New("sell_threshold 必须小于0"))
	}
	if p.RSIWindow <= 0 {
		err = multierr.Append(err, errors.New("rsi_window 必须大于0"))
	}
	if p.MomentumWindow <= 0 {
		err = multierr.Append(err, errors.New("momentum_window 必须大于0"))
	}
	if p.TrendWindow <= 0 {
		err = multierr.Append(err, errors.New("trend_window 必须大于0"))
	}
	if p.VolatilityWindow <= 0 {
		err = multierr.Append(err, errors.New("volatility_window 必须大于0"))
	}
	if p.ChangeBars <= 0 || p.ChangeBars > 3 {
		err = multierr.Append(err, errors.New("change_bars 必须位于 [1,3]"))
	}

	if err != nil {
		return fmt.Errorf("算法参数校验失败: %w", multierr.Append(market.ErrInvalidParameters, err))
	}

	return nil
}
