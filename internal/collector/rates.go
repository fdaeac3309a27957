package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/config"
)

// ErrAllSourcesFailed 表示全部行情源均不可用。
var ErrAllSourcesFailed = errors.New("all rate sources failed")

// Rate 表示一次 USD/BRL 汇率采样及其来源。
type Rate struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// Source 描述一个汇率数据源及其响应解析方式。
type Source struct {
	Name  string
	URL   string
	Parse func([]byte) (float64, error)
}

// Service 按优先级从多个免费行情源获取汇率，单源失败时依次回退。
type Service struct {
	client  *http.Client
	sources []Source
	retry   config.RetryConfig
	symbol  string
	logger  *zap.Logger
}

// NewService 创建汇率采集服务，使用内置的默认数据源顺序。
func NewService(cfg config.CollectorConfig, symbol string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		client:  &http.Client{Timeout: timeout},
		sources: defaultSources(),
		retry:   cfg.Retry,
		symbol:  symbol,
		logger:  logger,
	}
}

func defaultSources() []Source {
	return []Source{
		{
			Name:  "awesomeapi",
			URL:   "https://economia.awesomeapi.com.br/json/last/USD-BRL",
			Parse: parseAwesomeAPI,
		},
		{
			Name:  "exchangerate-api",
			URL:   "https://api.exchangerate-api.com/v4/latest/USD",
			Parse: parseRatesBRL,
		},
		{
			Name:  "open-er-api",
			URL:   "https://open.er-api.com/v6/latest/USD",
			Parse: parseRatesBRL,
		},
	}
}

// FetchRate 依次尝试各数据源（每个源带重试），返回首个成功的报价。
func (s *Service) FetchRate(ctx context.Context) (Rate, error) {
	var errs error

	for _, source := range s.sources {
		price, err := s.fetchWithRetry(ctx, source)
		if err != nil {
			s.logger.Warn("行情源获取失败, 尝试下一个",
				zap.String("source", source.Name),
				zap.Error(err),
			)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", source.Name, err))
			continue
		}

		return Rate{
			Symbol:    s.symbol,
			Price:     price,
			Source:    source.Name,
			Timestamp: time.Now().UTC(),
		}, nil
	}

	return Rate{}, fmt.Errorf("获取汇率失败: %w: %v", ErrAllSourcesFailed, errs)
}

func (s *Service) fetchWithRetry(ctx context.Context, source Source) (float64, error) {
	attempts := s.retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	delay := s.retry.MinDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		price, err := s.fetchOnce(ctx, source)
		if err == nil {
			return price, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if s.retry.MaxDelay > 0 && delay > s.retry.MaxDelay {
			delay = s.retry.MaxDelay
		}
	}

	return 0, lastErr
}

func (s *Service) fetchOnce(ctx context.Context, source Source) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("构造请求失败: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("请求失败: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("响应状态码异常: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("读取响应失败: %w", err)
	}

	price, err := source.Parse(body)
	if err != nil {
		return 0, err
	}
	if price <= 0 {
		return 0, fmt.Errorf("解析到非法价格: %f", price)
	}

	return price, nil
}

func parseAwesomeAPI(body []byte) (float64, error) {
	var payload map[string]struct {
		Bid string `json:"bid"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("解析响应失败: %w", err)
	}

	quote, ok := payload["USDBRL"]
	if !ok {
		return 0, errors.New("响应缺少 USDBRL 字段")
	}

	price, err := strconv.ParseFloat(quote.Bid, 64)
	if err != nil {
		return 0, fmt.Errorf("解析 bid 价格失败: %w", err)
	}
	return price, nil
}

func parseRatesBRL(body []byte) (float64, error) {
	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("解析响应失败: %w", err)
	}

	price, ok := payload.Rates["BRL"]
	if !ok {
		return 0, errors.New("响应缺少 BRL 汇率")
	}
	return price, nil
}
