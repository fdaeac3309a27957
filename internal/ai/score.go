package ai

import (
	"errors"
	"fmt"
)

// Score 表示大模型对单篇新闻的情绪评估。
type Score struct {
	Sentiment float64 `json:"sentiment"`
	Relevance float64 `json:"relevance"`
	Summary   string  `json:"summary"`
}

// Validate 校验评估字段合法性。
func (s Score) Validate() error {
	if s.Sentiment < -1 || s.Sentiment > 1 {
		return fmt.Errorf("sentiment 必须位于 [-1,1]，当前为 %f", s.Sentiment)
	}
	if s.Relevance < 0 || s.Relevance > 1 {
		return fmt.Errorf("relevance 必须位于 [0,1]，当前为 %f", s.Relevance)
	}
	if s.Summary == "" {
		return errors.New("summary 不能为空")
	}
	return nil
}
