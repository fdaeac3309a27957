package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/backtest"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/config"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/optimizer"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 启动采集与信号主循环，阻塞直至 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("交易系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("symbol", a.cfg.App.Symbol),
	)

	repo, err := store.NewRepository(a.store, a.logger)
	if err != nil {
		return err
	}

	orch, err := newOrchestrator(a.cfg, a.logger, repo)
	if err != nil {
		return err
	}

	if a.cfg.Monitor.Enabled {
		engine := backtest.NewEngine(a.cfg.Backtest, orch.fuser, a.logger)
		api := &apiServer{
			cfg:       a.cfg,
			logger:    a.logger,
			repo:      repo,
			engine:    engine,
			optimizer: optimizer.NewOptimizer(engine, a.cfg.Optimizer.Workers, a.logger),
		}
		if err := startAPIServer(ctx, api, a.cfg.Monitor.Port, a.logger); err != nil {
			return err
		}
	}

	loopInterval := a.cfg.Scheduler.RateInterval
	if loopInterval <= 0 {
		loopInterval = 5 * time.Minute
	}

	if err = orch.Tick(ctx); err != nil {
		a.logger.Error("首次执行失败", zap.Error(err))
	}

	ticker := time.NewTicker(loopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("系统异常退出: %w", err)
			}
			a.logger.Info("系统收到退出信号，正在停止")
			return nil
		case <-ticker.C:
			if err = orch.Tick(ctx); err != nil {
				a.logger.Error("执行调度失败", zap.Error(err))
			}
		}
	}
}
