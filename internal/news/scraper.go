package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/config"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Article 表示一篇抓取到的财经新闻。
type Article struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// Selectors 定义从页面提取文章字段的CSS选择器。
type Selectors struct {
	Container string
	Title     string
	Link      string
	Content   string
}

// SourceConfig 描述一个新闻源。
type SourceConfig struct {
	Name      string
	BaseURL   string
	Path      string
	Selectors Selectors
}

// Scraper 基于 colly 从多个财经站点抓取美元/汇率相关新闻。
type Scraper struct {
	sources     []SourceConfig
	timeout     time.Duration
	rateLimit   time.Duration
	maxArticles int
	logger      *zap.Logger
}

// NewScraper 创建使用内置默认源的抓取器。
func NewScraper(cfg config.NewsConfig, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxArticles := cfg.MaxArticles
	if maxArticles <= 0 {
		maxArticles = 30
	}
	return &Scraper{
		sources:     defaultSources(),
		timeout:     timeout,
		rateLimit:   cfg.RateLimit,
		maxArticles: maxArticles,
		logger:      logger,
	}
}

func defaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:    "investing-br",
			BaseURL: "https://br.investing.com",
			Path:    "/news/forex-news",
			Selectors: Selectors{
				Container: "article",
				Title:     "a.title, h3 a",
				Link:      "a.title, h3 a",
				Content:   "p",
			},
		},
		{
			Name:    "yahoo-finance",
			BaseURL: "https://finance.yahoo.com",
			Path:    "/topic/currencies",
			Selectors: Selectors{
				Container: "li.js-stream-content, div.content",
				Title:     "h3 a, h3",
				Link:      "h3 a, a",
				Content:   "p",
			},
		},
	}
}

// Collect 从全部新闻源抓取文章，单个源失败只记录日志并继续。
func (s *Scraper) Collect(ctx context.Context) ([]Article, error) {
	perSource := s.maxArticles / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	var articles []Article
	for _, source := range s.sources {
		select {
		case <-ctx.Done():
			return articles, ctx.Err()
		default:
		}

		batch, err := s.scrapeSource(source, perSource)
		if err != nil {
			s.logger.Warn("抓取新闻源失败",
				zap.String("source", source.Name),
				zap.Error(err),
			)
			continue
		}
		articles = append(articles, batch...)

		if s.rateLimit > 0 {
			select {
			case <-ctx.Done():
				return articles, ctx.Err()
			case <-time.After(s.rateLimit):
			}
		}
	}

	s.logger.Info("新闻抓取完成", zap.Int("articles", len(articles)))
	return articles, nil
}

func (s *Scraper) scrapeSource(source SourceConfig, limit int) ([]Article, error) {
	domain, err := hostOf(source.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("新闻源 %s 的 base_url 非法: %w", source.Name, err)
	}

	c := colly.NewCollector(
		colly.AllowedDomains(domain),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", userAgent)
	})

	now := time.Now().UTC()
	var articles []Article

	c.OnHTML(source.Selectors.Container, func(e *colly.HTMLElement) {
		if len(articles) >= limit {
			return
		}

		title := strings.TrimSpace(e.ChildText(source.Selectors.Title))
		if title == "" {
			return
		}

		link := e.ChildAttr(source.Selectors.Link, "href")
		if link != "" && !strings.HasPrefix(link, "http") {
			link = source.BaseURL + link
		}

		articles = append(articles, Article{
			Title:       title,
			Content:     strings.TrimSpace(e.ChildText(source.Selectors.Content)),
			URL:         link,
			Source:      source.Name,
			PublishedAt: now,
		})
	})

	if err := c.Visit(source.BaseURL + source.Path); err != nil {
		return nil, fmt.Errorf("访问 %s 失败: %w", source.BaseURL+source.Path, err)
	}
	c.Wait()

	return articles, nil
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}
