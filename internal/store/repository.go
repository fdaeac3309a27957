package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/collector"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/market"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/news"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/sentiment"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/signal"
)

// ErrNotFound 表示查询对象不存在。
var ErrNotFound = errors.New("record not found")

// Repository 负责汇率、新闻与信号记录的持久化。
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRepository 初始化仓储并创建所需表结构。
func NewRepository(store *Store, logger *zap.Logger) (*Repository, error) {
	if store == nil {
		return nil, errors.New("repository: store 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Repository{
		db:     store.DB(),
		logger: logger,
	}

	if err := r.initSchema(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Repository) initSchema() error {
	stmt := `
CREATE TABLE IF NOT EXISTS currency_rates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	price REAL NOT NULL,
	source TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_currency_rates_created ON currency_rates(created_at);

CREATE TABLE IF NOT EXISTS news_articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT,
	url TEXT,
	source TEXT NOT NULL,
	published_at TEXT NOT NULL,
	sentiment_score REAL NOT NULL,
	relevance REAL NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_news_articles_published ON news_articles(published_at);

CREATE TABLE IF NOT EXISTS trading_signals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	signal TEXT NOT NULL,
	confidence REAL NOT NULL,
	composite_score REAL NOT NULL,
	technical_score REAL NOT NULL,
	sentiment_score REAL NOT NULL,
	price REAL NOT NULL,
	reasoning TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trading_signals_created ON trading_signals(created_at);
`
	if _, err := r.db.Exec(stmt); err != nil {
		return fmt.Errorf("repository: 初始化表失败: %w", err)
	}
	return nil
}

// SaveRate 写入一次汇率采样。
func (r *Repository) SaveRate(ctx context.Context, rate collector.Rate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO currency_rates (symbol, price, source, created_at) VALUES (?, ?, ?, ?)`,
		rate.Symbol, rate.Price, rate.Source, rate.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("repository: 写入汇率失败: %w", err)
	}
	return nil
}

// ListRatesSince 返回 since 之后的汇率序列，按时间升序。
func (r *Repository) ListRatesSince(ctx context.Context, since time.Time) (market.PriceSeries, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT price, created_at FROM currency_rates WHERE created_at >= ? ORDER BY created_at ASC`,
		since.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("repository: 查询汇率失败: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var series market.PriceSeries
	for rows.Next() {
		var price float64
		var createdAt string
		if err := rows.Scan(&price, &createdAt); err != nil {
			return nil, fmt.Errorf("repository: 扫描汇率行失败: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("repository: 解析汇率时间戳失败: %w", err)
		}
		series = append(series, market.PricePoint{Timestamp: ts, Price: price})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: 遍历汇率行失败: %w", err)
	}

	return series, nil
}

// SaveArticle 写入一篇已打分的新闻。
func (r *Repository) SaveArticle(ctx context.Context, article news.Article, obs sentiment.Observation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO news_articles (title, content, url, source, published_at, sentiment_score, relevance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		article.Title, article.Content, article.URL, article.Source,
		article.PublishedAt.UTC().Format(time.RFC3339Nano),
		obs.Score, obs.Relevance,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("repository: 写入新闻失败: %w", err)
	}
	return nil
}

// ListObservationsSince 返回 since 之后发布的新闻情绪观测。
func (r *Repository) ListObservationsSince(ctx context.Context, since time.Time) ([]sentiment.Observation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sentiment_score, relevance, published_at FROM news_articles WHERE published_at >= ? ORDER BY published_at ASC`,
		since.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("repository: 查询新闻观测失败: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var observations []sentiment.Observation
	for rows.Next() {
		var obs sentiment.Observation
		var publishedAt string
		if err := rows.Scan(&obs.Score, &obs.Relevance, &publishedAt); err != nil {
			return nil, fmt.Errorf("repository: 扫描新闻行失败: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, publishedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: 解析新闻时间戳失败: %w", err)
		}
		obs.Timestamp = ts
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: 遍历新闻行失败: %w", err)
	}

	return observations, nil
}

// SaveSignal 写入一条信号记录。
func (r *Repository) SaveSignal(ctx context.Context, record signal.Record) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO trading_signals (signal, confidence, composite_score, technical_score, sentiment_score, price, reasoning, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(record.Signal), record.Confidence, record.CompositeScore,
		record.TechnicalScore, record.SentimentScore, record.Price,
		record.Reasoning, record.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("repository: 写入信号失败: %w", err)
	}
	return nil
}

// ListSignals 返回最近的信号记录，按时间倒序。
func (r *Repository) ListSignals(ctx context.Context, limit int) ([]signal.Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT signal, confidence, composite_score, technical_score, sentiment_score, price, reasoning, created_at
		 FROM trading_signals ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: 查询信号失败: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []signal.Record
	for rows.Next() {
		record, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: 遍历信号行失败: %w", err)
	}

	return records, nil
}

// LatestSignal 返回最新的一条信号记录，不存在时返回 ErrNotFound。
func (r *Repository) LatestSignal(ctx context.Context) (signal.Record, error) {
	records, err := r.ListSignals(ctx, 1)
	if err != nil {
		return signal.Record{}, err
	}
	if len(records) == 0 {
		return signal.Record{}, ErrNotFound
	}
	return records[0], nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSignal(row rowScanner) (signal.Record, error) {
	var record signal.Record
	var action, createdAt string
	if err := row.Scan(&action, &record.Confidence, &record.CompositeScore,
		&record.TechnicalScore, &record.SentimentScore, &record.Price,
		&record.Reasoning, &createdAt); err != nil {
		return signal.Record{}, fmt.Errorf("repository: 扫描信号行失败: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return signal.Record{}, fmt.Errorf("repository: 解析信号时间戳失败: %w", err)
	}

	record.Signal = signal.Action(action)
	record.Timestamp = ts
	return record, nil
}
