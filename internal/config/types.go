package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/backtest"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/signal"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App       AppConfig         `mapstructure:"app"`
	Algorithm signal.Parameters `mapstructure:"algorithm"`
	Sentiment SentimentConfig   `mapstructure:"sentiment"`
	Backtest  backtest.Config   `mapstructure:"backtest"`
	Optimizer OptimizerConfig   `mapstructure:"optimizer"`
	Collector CollectorConfig   `mapstructure:"collector"`
	News      NewsConfig        `mapstructure:"news"`
	OpenAI    OpenAIConfig      `mapstructure:"openai"`
	Database  DatabaseConfig    `mapstructure:"database"`
	Logging   LoggingConfig     `mapstructure:"logging"`
	Scheduler SchedulerConfig   `mapstructure:"scheduler"`
	Monitor   MonitorConfig     `mapstructure:"monitor"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
	Symbol      string `mapstructure:"symbol"`
}

// SentimentConfig 控制情绪聚合行为。
type SentimentConfig struct {
	RecencyWindow   time.Duration `mapstructure:"recency_window"`
	SaturationCount int           `mapstructure:"saturation_count"`
}

// OptimizerConfig 控制参数寻优。
type OptimizerConfig struct {
	Workers int `mapstructure:"workers"`
}

// RetryConfig 统一控制重试机制。
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// CollectorConfig 描述汇率采集行为。
type CollectorConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Retry   RetryConfig   `mapstructure:"retry"`
}

// NewsConfig 控制新闻抓取。
type NewsConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   time.Duration `mapstructure:"rate_limit"`
	MaxArticles int           `mapstructure:"max_articles"`
}

// OpenAIConfig 描述可选的大模型情绪打分参数，api_key 为空时使用内置词表分析。
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Enabled 判断是否启用大模型打分。
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// SchedulerConfig 控制主循环节奏。
type SchedulerConfig struct {
	RateInterval  time.Duration `mapstructure:"rate_interval"`
	NewsInterval  time.Duration `mapstructure:"news_interval"`
	HistoryWindow time.Duration `mapstructure:"history_window"`
}

// MonitorConfig 控制监控HTTP服务。
type MonitorConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.App.Symbol == "" {
		err = multierr.Append(err, errors.New("app.symbol 不能为空"))
	}
	if algoErr := c.Algorithm.Validate(); algoErr != nil {
		err = multierr.Append(err, algoErr)
	}
	if c.Sentiment.RecencyWindow <= 0 {
		err = multierr.Append(err, errors.New("sentiment.recency_window 必须大于0"))
	}
	if c.Sentiment.SaturationCount <= 0 {
		err = multierr.Append(err, errors.New("sentiment.saturation_count 必须大于0"))
	}
	if c.Optimizer.Workers < 0 {
		err = multierr.Append(err, errors.New("optimizer.workers 不能为负"))
	}
	if c.Collector.Timeout <= 0 {
		err = multierr.Append(err, errors.New("collector.timeout 必须大于0"))
	}
	if c.Collector.Retry.MaxAttempts <= 0 {
		err = multierr.Append(err, errors.New("collector.retry.max_attempts 必须大于0"))
	}
	if c.Collector.Retry.MinDelay <= 0 || c.Collector.Retry.MaxDelay <= 0 {
		err = multierr.Append(err, errors.New("collector.retry.delay 必须为正"))
	}
	if c.Collector.Retry.MinDelay > c.Collector.Retry.MaxDelay {
		err = multierr.Append(err, errors.New("collector.retry.min_delay 不能大于 max_delay"))
	}
	if c.News.Timeout <= 0 {
		err = multierr.Append(err, errors.New("news.timeout 必须大于0"))
	}
	if c.News.MaxArticles <= 0 {
		err = multierr.Append(err, errors.New("news.max_articles 必须大于0"))
	}
	if c.OpenAI.Enabled() {
		if c.OpenAI.Model == "" {
			err = multierr.Append(err, errors.New("openai.model 不能为空"))
		}
		if c.OpenAI.Timeout <= 0 {
			err = multierr.Append(err, errors.New("openai.timeout 必须大于0"))
		}
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}
	if c.Scheduler.RateInterval <= 0 {
		err = multierr.Append(err, errors.New("scheduler.rate_interval 必须大于0"))
	}
	if c.Scheduler.NewsInterval < c.Scheduler.RateInterval {
		err = multierr.Append(err, errors.New("scheduler.news_interval 不应小于 rate_interval"))
	}
	if c.Scheduler.HistoryWindow <= 0 {
		err = multierr.Append(err, errors.New("scheduler.history_window 必须大于0"))
	}
	if c.Monitor.Enabled && (c.Monitor.Port <= 0 || c.Monitor.Port > 65535) {
		err = multierr.Append(err, errors.New("monitor.port 必须位于 [1,65535]"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
