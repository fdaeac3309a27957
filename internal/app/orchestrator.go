package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/ai"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/collector"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/config"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/indicator"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/market"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/news"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/sentiment"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/signal"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/store"
)

// orchestrator 串联采集、情绪打分、信号融合与持久化。
type orchestrator struct {
	cfg      *config.Config
	logger   *zap.Logger
	repo     *store.Repository
	rates    *collector.Service
	scraper  *news.Scraper
	analyzer *sentiment.Analyzer
	aiClient *ai.Client
	fuser    *signal.Fuser

	lastNewsAt time.Time
}

func newOrchestrator(cfg *config.Config, logger *zap.Logger, repo *store.Repository) (*orchestrator, error) {
	if repo == nil {
		return nil, errors.New("orchestrator: repository 不能为空")
	}

	aggregator := &sentiment.Aggregator{
		RecencyWindow:   cfg.Sentiment.RecencyWindow,
		SaturationCount: cfg.Sentiment.SaturationCount,
	}
	fuser := signal.NewFuser(indicator.NewCalculator(), aggregator, logger)

	var aiClient *ai.Client
	if cfg.OpenAI.Enabled() {
		client, err := ai.NewClient(cfg.OpenAI, logger)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: 初始化AI客户端失败: %w", err)
		}
		aiClient = client
	}

	return &orchestrator{
		cfg:      cfg,
		logger:   logger,
		repo:     repo,
		rates:    collector.NewService(cfg.Collector, cfg.App.Symbol, logger),
		scraper:  news.NewScraper(cfg.News, logger),
		analyzer: sentiment.NewAnalyzer(),
		aiClient: aiClient,
		fuser:    fuser,
	}, nil
}

// Tick 执行一轮采集与信号生成。
func (o *orchestrator) Tick(ctx context.Context) error {
	rate, err := o.rates.FetchRate(ctx)
	if err != nil {
		return err
	}
	if err := o.repo.SaveRate(ctx, rate); err != nil {
		return err
	}
	o.logger.Info("汇率采集完成",
		zap.String("symbol", rate.Symbol),
		zap.Float64("price", rate.Price),
		zap.String("source", rate.Source),
	)

	if time.Since(o.lastNewsAt) >= o.cfg.Scheduler.NewsInterval {
		if err := o.collectNews(ctx); err != nil {
			o.logger.Warn("新闻采集失败", zap.Error(err))
		} else {
			o.lastNewsAt = time.Now()
		}
	}

	return o.generateSignal(ctx)
}

func (o *orchestrator) collectNews(ctx context.Context) error {
	articles, err := o.scraper.Collect(ctx)
	if err != nil {
		return err
	}

	for _, article := range articles {
		obs := o.scoreArticle(ctx, article)
		if err := o.repo.SaveArticle(ctx, article, obs); err != nil {
			o.logger.Warn("写入新闻失败",
				zap.String("title", article.Title),
				zap.Error(err),
			)
		}
	}

	return nil
}

// scoreArticle 优先使用大模型打分，失败或未启用时回退到关键词分析。
func (o *orchestrator) scoreArticle(ctx context.Context, article news.Article) sentiment.Observation {
	if o.aiClient != nil {
		score, err := o.aiClient.ScoreArticle(ctx, article)
		if err == nil {
			return sentiment.Observation{
				Score:     score.Sentiment,
				Relevance: score.Relevance,
				Timestamp: article.PublishedAt,
			}
		}
		o.logger.Warn("AI打分失败, 回退到关键词分析",
			zap.String("title", article.Title),
			zap.Error(err),
		)
	}

	return o.analyzer.Analyze(article.Title, article.Content, article.PublishedAt)
}

func (o *orchestrator) generateSignal(ctx context.Context) error {
	now := time.Now().UTC()

	series, err := o.repo.ListRatesSince(ctx, now.Add(-o.cfg.Scheduler.HistoryWindow))
	if err != nil {
		return err
	}
	observations, err := o.repo.ListObservationsSince(ctx, now.Add(-o.cfg.Sentiment.RecencyWindow))
	if err != nil {
		return err
	}

	record, err := o.fuser.Generate(series, observations, o.cfg.Algorithm, now)
	if err != nil {
		if errors.Is(err, market.ErrInsufficientData) {
			o.logger.Warn("历史数据不足, 暂不生成信号", zap.Int("bars", series.Len()))
			return nil
		}
		return err
	}

	if err := o.repo.SaveSignal(ctx, record); err != nil {
		return err
	}

	o.logger.Info("交易信号已生成",
		zap.String("signal", string(record.Signal)),
		zap.Float64("confidence", record.Confidence),
		zap.Float64("composite_score", record.CompositeScore),
		zap.String("reasoning", record.Reasoning),
	)

	return nil
}
