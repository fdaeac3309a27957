package config

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "minidollar"
)

// Load 读取配置文件并结合环境变量返回 Config。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.symbol", "USD/BRL")

	v.SetDefault("algorithm.sentiment_weight", 0.4)
	v.SetDefault("algorithm.technical_weight", 0.6)
	v.SetDefault("algorithm.buy_threshold", 0.3)
	v.SetDefault("algorithm.sell_threshold", -0.3)
	v.SetDefault("algorithm.rsi_window", 14)
	v.SetDefault("algorithm.momentum_window", 10)
	v.SetDefault("algorithm.trend_window", 50)
	v.SetDefault("algorithm.volatility_window", 20)
	v.SetDefault("algorithm.change_bars", 1)
	v.SetDefault("algorithm.typical_volatility", 0.005)

	v.SetDefault("sentiment.recency_window", "24h")
	v.SetDefault("sentiment.saturation_count", 10)

	v.SetDefault("backtest.allow_short", true)
	v.SetDefault("backtest.annualization", 15.874507866387544) // sqrt(252)

	v.SetDefault("optimizer.workers", 0)

	v.SetDefault("collector.timeout", "10s")
	v.SetDefault("collector.retry.max_attempts", 3)
	v.SetDefault("collector.retry.min_delay", "500ms")
	v.SetDefault("collector.retry.max_delay", "5s")

	v.SetDefault("news.timeout", "15s")
	v.SetDefault("news.rate_limit", "2s")
	v.SetDefault("news.max_articles", 30)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4.1-mini")
	v.SetDefault("openai.timeout", "15s")

	v.SetDefault("database.path", "data/minidollar.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})

	v.SetDefault("scheduler.rate_interval", "5m")
	v.SetDefault("scheduler.news_interval", "30m")
	v.SetDefault("scheduler.history_window", "168h")

	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.port", 8080)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
