package optimizer

import "github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/backtest"

// Objective 对一次回测结果打分，值越大越好。
type Objective func(backtest.Result) float64

// DefaultObjective 为默认绩效目标：
// 0.4*总收益 + 0.3*胜率 + 0.2*夏普 - 0.1*最大回撤。
func DefaultObjective(result backtest.Result) float64 {
	return result.TotalReturn*0.4 +
		result.WinRate*0.3 +
		result.SharpeRatio*0.2 -
		result.MaxDrawdown*0.1
}
