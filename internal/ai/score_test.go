package ai

import (
	"strings"
	"testing"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/news"
)

func TestParseScore_PlainJSON(t *testing.T) {
	score, err := parseScore(`{"sentiment":0.4,"relevance":0.9,"summary":"美元走强"}`)
	if err != nil {
		t.Fatalf("parseScore returned error: %v", err)
	}
	if score.Sentiment != 0.4 || score.Relevance != 0.9 {
		t.Errorf("unexpected score: %+v", score)
	}
	if err := score.Validate(); err != nil {
		t.Errorf("expected valid score, got %v", err)
	}
}

func TestParseScore_JSONWithSurroundingText(t *testing.T) {
	content := "评估结果如下：\n```json\n{\"sentiment\":-0.2,\"relevance\":0.5,\"summary\":\"偏空\"}\n```\n以上。"

	score, err := parseScore(content)
	if err != nil {
		t.Fatalf("parseScore returned error: %v", err)
	}
	if score.Sentiment != -0.2 {
		t.Errorf("expected sentiment=-0.2, got %f", score.Sentiment)
	}
}

func TestParseScore_NoJSON(t *testing.T) {
	if _, err := parseScore("抱歉，无法评估。"); err == nil {
		t.Fatalf("expected error when no JSON object present")
	}
}

func TestScoreValidate(t *testing.T) {
	cases := []struct {
		name  string
		score Score
		ok    bool
	}{
		{"valid", Score{Sentiment: 0.5, Relevance: 0.8, Summary: "ok"}, true},
		{"sentiment out of range", Score{Sentiment: 1.5, Relevance: 0.8, Summary: "ok"}, false},
		{"relevance out of range", Score{Sentiment: 0.5, Relevance: -0.1, Summary: "ok"}, false},
		{"empty summary", Score{Sentiment: 0.5, Relevance: 0.8}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.score.Validate()
			if tc.ok && err != nil {
				t.Errorf("expected valid score, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := BuildPrompt(news.Article{
		Title:   "Dólar dispara",
		Content: "Mercado em alerta.",
		Source:  "investing-br",
	})
	if err != nil {
		t.Fatalf("BuildPrompt returned error: %v", err)
	}

	for _, fragment := range []string{"Dólar dispara", "Mercado em alerta.", "investing-br", "USD/BRL"} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("expected prompt to contain %q", fragment)
		}
	}
}
