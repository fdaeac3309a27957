package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/market"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/signal"
)

func TestRun_InsufficientData(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil, nil)

	_, err := engine.Run(context.Background(), geometricSeries(10, 100, 1.01), nil, signal.DefaultParameters())
	if !errors.Is(err, market.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for short series, got %v", err)
	}
}

func TestRun_InvalidParameters(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil, nil)
	params := signal.DefaultParameters()
	params.BuyThreshold = -1

	_, err := engine.Run(context.Background(), geometricSeries(60, 100, 1.01), nil, params)
	if !errors.Is(err, market.ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, geometricSeries(20, 100, 1.01), nil, fastParameters())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_RisingSeriesOpensLongAndForceCloses(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil, nil)
	series := geometricSeries(20, 100, 1.01)
	params := fastParameters()

	result, err := engine.Run(context.Background(), series, nil, params)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	wantSignals := series.Len() - params.MaxWindow()
	if result.SignalCount != wantSignals {
		t.Errorf("expected %d evaluated signals, got %d", wantSignals, result.SignalCount)
	}

	if result.TotalTrades != 1 {
		t.Fatalf("expected a single long trade on a monotone rally, got %d", result.TotalTrades)
	}

	trade := result.Trades[0]
	if trade.Direction != DirectionLong {
		t.Errorf("expected LONG trade, got %s", trade.Direction)
	}
	if !trade.ExitTime.Equal(series.Last().Timestamp) {
		t.Errorf("expected open position force-closed on final bar, got exit at %s", trade.ExitTime)
	}
	if trade.Return <= 0 {
		t.Errorf("expected profitable long on a rally, got return=%f", trade.Return)
	}
	if result.WinRate != 1 {
		t.Errorf("expected win rate 1, got %f", result.WinRate)
	}
	if diff := math.Abs(result.TotalReturn - trade.Return); diff > 1e-12 {
		t.Errorf("total return must equal the sum of trade returns: %f vs %f", result.TotalReturn, trade.Return)
	}
}

func TestRun_FallingSeriesShortsOnlyWhenAllowed(t *testing.T) {
	series := geometricSeries(20, 100, 0.99)
	params := fastParameters()

	withShort, err := NewEngine(Config{AllowShort: true}, nil, nil).
		Run(context.Background(), series, nil, params)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if withShort.TotalTrades != 1 {
		t.Fatalf("expected a single short trade on a monotone decline, got %d", withShort.TotalTrades)
	}
	if withShort.Trades[0].Direction != DirectionShort {
		t.Errorf("expected SHORT trade, got %s", withShort.Trades[0].Direction)
	}
	if withShort.Trades[0].Return <= 0 {
		t.Errorf("expected profitable short on a decline, got return=%f", withShort.Trades[0].Return)
	}

	longOnly, err := NewEngine(Config{AllowShort: false}, nil, nil).
		Run(context.Background(), series, nil, params)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if longOnly.TotalTrades != 0 {
		t.Errorf("expected no trades with shorting disabled, got %d", longOnly.TotalTrades)
	}
}

func TestRun_UpDownCycleProducesSingleRoundTrip(t *testing.T) {
	engine := NewEngine(Config{AllowShort: false}, nil, nil)
	series := upDownCycle(120, 5.00, 5.60)
	params := signal.DefaultParameters()

	result, err := engine.Run(context.Background(), series, nil, params)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.TotalTrades != 1 {
		t.Fatalf("expected exactly one round trip over a clean up-down cycle, got %d", result.TotalTrades)
	}

	trade := result.Trades[0]
	if trade.Direction != DirectionLong {
		t.Errorf("expected LONG trade, got %s", trade.Direction)
	}
	// 上涨段首个决策K线即触发买入。
	if !trade.EntryTime.Equal(series[params.MaxWindow()].Timestamp) {
		t.Errorf("expected entry on the first evaluated bar, got %s", trade.EntryTime)
	}
	if !trade.ExitTime.After(series[60].Timestamp) {
		t.Errorf("expected exit in the falling leg, got %s", trade.ExitTime)
	}
}

func TestRun_NoLookahead(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil, nil)
	params := fastParameters()

	short := geometricSeries(12, 100, 1.01)
	extended := geometricSeries(20, 100, 1.01)

	shortResult, err := engine.Run(context.Background(), short, nil, params)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	extendedResult, err := engine.Run(context.Background(), extended, nil, params)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// 后续K线不得影响此前的开仓决策。
	if len(shortResult.Trades) == 0 || len(extendedResult.Trades) == 0 {
		t.Fatalf("expected trades from both runs")
	}
	if !shortResult.Trades[0].EntryTime.Equal(extendedResult.Trades[0].EntryTime) {
		t.Errorf("entry time changed when future bars were appended: %s vs %s",
			shortResult.Trades[0].EntryTime, extendedResult.Trades[0].EntryTime)
	}
	if shortResult.Trades[0].EntryPrice != extendedResult.Trades[0].EntryPrice {
		t.Errorf("entry price changed when future bars were appended: %f vs %f",
			shortResult.Trades[0].EntryPrice, extendedResult.Trades[0].EntryPrice)
	}
}

func TestCalculateMetrics(t *testing.T) {
	trades := []Trade{
		{PnL: 10, Return: 0.10},
		{PnL: -5, Return: -0.05},
	}

	result := calculateMetrics(trades, 1)

	if result.TotalTrades != 2 {
		t.Errorf("expected 2 trades, got %d", result.TotalTrades)
	}
	if diff := math.Abs(result.TotalReturn - 0.05); diff > 1e-12 {
		t.Errorf("expected total return 0.05, got %f", result.TotalReturn)
	}
	if result.WinRate != 0.5 {
		t.Errorf("expected win rate 0.5, got %f", result.WinRate)
	}
	if diff := math.Abs(result.MaxDrawdown - 0.05); diff > 1e-12 {
		t.Errorf("expected max drawdown 0.05, got %f", result.MaxDrawdown)
	}

	// 均值0.025，样本标准差 0.075*sqrt(2)
	wantSharpe := 0.025 / (0.075 * math.Sqrt2)
	if diff := math.Abs(result.SharpeRatio - wantSharpe); diff > 1e-9 {
		t.Errorf("expected sharpe %f, got %f", wantSharpe, result.SharpeRatio)
	}
}

func TestCalculateMetrics_NoTrades(t *testing.T) {
	result := calculateMetrics(nil, 1)
	if result.TotalTrades != 0 || result.TotalReturn != 0 || result.SharpeRatio != 0 || result.MaxDrawdown != 0 {
		t.Errorf("expected zero metrics without trades, got %+v", result)
	}
}

// fastParameters 使用小窗口与纯技术面权重，便于短序列回放。
func fastParameters() signal.Parameters {
	return signal.Parameters{
		SentimentWeight:   0,
		TechnicalWeight:   1,
		BuyThreshold:      0.1,
		SellThreshold:     -0.1,
		RSIWindow:         2,
		MomentumWindow:    2,
		TrendWindow:       2,
		VolatilityWindow:  2,
		ChangeBars:        1,
		TypicalVolatility: 1,
	}
}

// upDownCycle 生成先等差上涨至峰值、再等差回落的完整周期日线序列。
func upDownCycle(n int, low, high float64) market.PriceSeries {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	half := n / 2
	step := (high - low) / float64(half-1)

	series := make(market.PriceSeries, 0, n)
	for i := 0; i < half; i++ {
		series = append(series, market.PricePoint{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Price:     low + step*float64(i),
		})
	}
	for i := half; i < n; i++ {
		series = append(series, market.PricePoint{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Price:     high - step*float64(i-half+1),
		})
	}
	return series
}

func geometricSeries(n int, start, ratio float64) market.PriceSeries {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(market.PriceSeries, 0, n)
	price := start
	for i := 0; i < n; i++ {
		series = append(series, market.PricePoint{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Price:     price,
		})
		price *= ratio
	}
	return series
}
