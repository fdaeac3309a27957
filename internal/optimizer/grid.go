package optimizer

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/backtest"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/market"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/sentiment"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/signal"
)

// Best 为网格搜索的胜出组合及其回测结果。
type Best struct {
	Parameters signal.Parameters `json:"parameters"`
	Result     backtest.Result   `json:"result"`
	Objective  float64           `json:"objective"`
}

// Optimizer 在显式枚举的参数网格上做穷举搜索。
type Optimizer struct {
	engine  *backtest.Engine
	workers int
	logger  *zap.Logger
}

// NewOptimizer 创建优化器，workers<=0 时使用 GOMAXPROCS。
func NewOptimizer(engine *backtest.Engine, workers int, logger *zap.Logger) *Optimizer {
	if engine == nil {
		engine = backtest.NewEngine(backtest.DefaultConfig(), nil, nil)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{
		engine:  engine,
		workers: workers,
		logger:  logger,
	}
}

// Optimize 对搜索空间内的每个组合各跑一次回测，返回目标值最高的组合。
// 各组合的回测互不依赖，在有界的 worker 池上并发执行；归并阶段串行且结果确定：
// 目标值相同时优先选交易笔数更少的组合，仍相同时取枚举序更靠前者。
func (o *Optimizer) Optimize(ctx context.Context, series market.PriceSeries, observations []sentiment.Observation, base signal.Parameters, space Space, objective Objective) (Best, error) {
	if err := space.Validate(); err != nil {
		return Best{}, err
	}
	if objective == nil {
		objective = DefaultObjective
	}

	combos := space.Combinations(base)
	results := make([]backtest.Result, len(combos))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.workers)

	for i, params := range combos {
		i, params := i, params
		group.Go(func() error {
			result, err := o.engine.Run(groupCtx, series, observations, params)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return Best{}, err
	}

	best := Best{Objective: 0}
	bestIdx := -1
	for i, result := range results {
		score := objective(result)
		switch {
		case bestIdx == -1,
			score > best.Objective,
			score == best.Objective && result.TotalTrades < best.Result.TotalTrades:
			best = Best{Parameters: combos[i], Result: result, Objective: score}
			bestIdx = i
		}
	}

	o.logger.Info("参数寻优完成",
		zap.Int("combinations", len(combos)),
		zap.Float64("best_objective", best.Objective),
		zap.Float64("sentiment_weight", best.Parameters.SentimentWeight),
		zap.Float64("buy_threshold", best.Parameters.BuyThreshold),
		zap.Float64("sell_threshold", best.Parameters.SellThreshold),
	)

	return best, nil
}
