package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/config"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/news"
)

// Client 封装 OpenAI 调用逻辑，用于对新闻做情绪打分。
type Client struct {
	cfg    config.OpenAIConfig
	logger *zap.Logger
	sdk    *openai.Client
}

// NewClient 使用给定配置创建 AI 客户端。
func NewClient(cfg config.OpenAIConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api_key 不能为空")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sdkConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		sdkConfig.BaseURL = cfg.BaseURL
	}
	sdkConfig.HTTPClient = &http.Client{
		Timeout: cfg.Timeout + 5*time.Second,
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		sdk:    openai.NewClientWithConfig(sdkConfig),
	}, nil
}

// ScoreArticle 请求模型评估单篇新闻的情绪与相关度。
func (c *Client) ScoreArticle(ctx context.Context, article news.Article) (Score, error) {
	if c.cfg.Model == "" {
		return Score{}, errors.New("openai model 不能为空")
	}

	prompt, err := BuildPrompt(article)
	if err != nil {
		return Score{}, err
	}

	response, err := c.sdk.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0,
	})
	if err != nil {
		return Score{}, fmt.Errorf("调用OpenAI失败: %w", err)
	}

	if len(response.Choices) == 0 {
		return Score{}, errors.New("OpenAI 返回结果为空")
	}

	rawContent := strings.TrimSpace(response.Choices[0].Message.Content)
	if rawContent == "" {
		return Score{}, errors.New("OpenAI 返回内容为空")
	}

	score, err := parseScore(rawContent)
	if err != nil {
		c.logger.Error("解析模型评分失败",
			zap.Error(err),
			zap.String("raw_content", rawContent),
		)
		return Score{}, err
	}

	if err := score.Validate(); err != nil {
		return Score{}, err
	}

	c.logger.Debug("新闻情绪评分完成",
		zap.String("title", article.Title),
		zap.Float64("sentiment", score.Sentiment),
		zap.Float64("relevance", score.Relevance),
	)

	return score, nil
}

func parseScore(content string) (Score, error) {
	payload, err := extractJSON(content)
	if err != nil {
		return Score{}, err
	}

	var score Score
	if err = json.Unmarshal(payload, &score); err != nil {
		return Score{}, fmt.Errorf("解析评分JSON失败: %w", err)
	}

	return score, nil
}

func extractJSON(content string) ([]byte, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")

	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("模型输出未找到有效JSON: %s", content)
	}

	return []byte(content[start : end+1]), nil
}
