package backtest

import "math"

// calculateMetrics 基于逐笔交易计算绩效指标。
// 总收益为各笔交易收益率的简单加和（非复利），回撤与夏普均在该加和口径下计算。
func calculateMetrics(trades []Trade, annualization float64) Result {
	result := Result{
		Trades:      trades,
		TotalTrades: len(trades),
	}
	if len(trades) == 0 {
		return result
	}

	returns := make([]float64, len(trades))
	wins := 0
	for i, trade := range trades {
		returns[i] = trade.Return
		result.TotalReturn += trade.Return
		if trade.PnL > 0 {
			wins++
		}
	}

	result.WinRate = float64(wins) / float64(len(trades))
	result.MaxDrawdown = computeDrawdown(returns)
	result.SharpeRatio = computeSharpe(returns, annualization)

	return result
}

// computeDrawdown 计算累计收益曲线的最大峰谷回撤（非负值）。
func computeDrawdown(returns []float64) float64 {
	var cumulative, peak, maxDD float64
	for _, r := range returns {
		cumulative += r
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// computeSharpe 以逐笔收益率的均值/样本标准差计算夏普比率并按配置年化。
func computeSharpe(returns []float64, annualization float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns) - 1)

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	return (mean / std) * annualization
}
