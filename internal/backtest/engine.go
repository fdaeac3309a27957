package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/market"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/sentiment"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/signal"
)

// Direction 为持仓方向。
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Trade 记录一笔完整的开平仓。
type Trade struct {
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Direction  Direction `json:"direction"`
	PnL        float64   `json:"pnl"`
	Return     float64   `json:"return"`
}

// Result 汇总回测结果，产出后不再修改。
type Result struct {
	Trades      []Trade `json:"trades"`
	TotalTrades int     `json:"total_trades"`
	WinRate     float64 `json:"win_rate"`
	TotalReturn float64 `json:"total_return"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
	SignalCount int     `json:"signal_count"`
}

// Engine 逐K线回放信号融合逻辑并模拟单仓位开平。
type Engine struct {
	cfg    Config
	fuser  *signal.Fuser
	logger *zap.Logger
}

// NewEngine 构建回测引擎。
func NewEngine(cfg Config, fuser *signal.Fuser, logger *zap.Logger) *Engine {
	if fuser == nil {
		fuser = signal.NewFuser(nil, nil, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg.normalize(),
		fuser:  fuser,
		logger: logger,
	}
}

// Run 执行完整回测。
// 每根K线只使用自身及更早的价格与情绪数据（严格禁止未来数据）；
// 从首个全部指标可计算的位置（最大窗口处）开始决策；结束时强制平掉未平仓位。
// 序列长度不足最大窗口+1时返回 market.ErrInsufficientData。
func (e *Engine) Run(ctx context.Context, series market.PriceSeries, observations []sentiment.Observation, params signal.Parameters) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}

	minBars := params.MaxWindow() + 1
	if series.Len() < minBars {
		return Result{}, fmt.Errorf("回测需要至少 %d 个价格点, 当前 %d: %w", minBars, series.Len(), market.ErrInsufficientData)
	}

	var (
		trades      []Trade
		direction   Direction
		entryPrice  float64
		entryTime   time.Time
		signalCount int
	)

	open := func(d Direction, bar market.PricePoint) {
		direction = d
		entryPrice = bar.Price
		entryTime = bar.Timestamp
	}

	closePosition := func(bar market.PricePoint) {
		trades = append(trades, closeTrade(direction, entryPrice, entryTime, bar))
		direction = ""
		entryPrice = 0
		entryTime = time.Time{}
	}

	start := params.MaxWindow()
	for i := start; i < series.Len(); i++ {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		bar := series[i]
		history := series.Truncate(bar.Timestamp)

		record, err := e.fuser.Generate(history, observations, params, bar.Timestamp)
		if err != nil {
			return Result{}, fmt.Errorf("回放第 %d 根K线失败: %w", i, err)
		}
		signalCount++

		switch record.Signal {
		case signal.ActionBuy:
			if direction == DirectionShort {
				closePosition(bar)
			}
			if direction == "" {
				open(DirectionLong, bar)
			}
		case signal.ActionSell:
			if direction == DirectionLong {
				closePosition(bar)
			}
			if direction == "" && e.cfg.AllowShort {
				open(DirectionShort, bar)
			}
		}
	}

	if direction != "" {
		closePosition(series.Last())
	}

	result := calculateMetrics(trades, e.cfg.Annualization)
	result.SignalCount = signalCount

	e.logger.Debug("回测完成",
		zap.Int("bars", series.Len()),
		zap.Int("signals", signalCount),
		zap.Int("trades", result.TotalTrades),
		zap.Float64("total_return", result.TotalReturn),
	)

	return result, nil
}

func closeTrade(direction Direction, entryPrice float64, entryTime time.Time, bar market.PricePoint) Trade {
	pnl := bar.Price - entryPrice
	if direction == DirectionShort {
		pnl = entryPrice - bar.Price
	}

	ret := 0.0
	if entryPrice != 0 {
		ret = pnl / entryPrice
	}

	return Trade{
		EntryTime:  entryTime,
		ExitTime:   bar.Timestamp,
		EntryPrice: entryPrice,
		ExitPrice:  bar.Price,
		Direction:  direction,
		PnL:        pnl,
		Return:     ret,
	}
}
