package backtest

import "math"

// Config 定义回测行为参数。
type Config struct {
	// AllowShort 为 false 时，空仓状态下的 SELL 信号不做任何操作。
	AllowShort bool `mapstructure:"allow_short"`
	// Annualization 为夏普比率的年化系数，<=0 时按日线数据取 sqrt(252)。
	Annualization float64 `mapstructure:"annualization"`
}

// DefaultConfig 返回默认回测配置。
func DefaultConfig() Config {
	return Config{
		AllowShort:    true,
		Annualization: math.Sqrt(252),
	}
}

func (c Config) normalize() Config {
	if c.Annualization <= 0 {
		c.Annualization = math.Sqrt(252)
	}
	return c
}
