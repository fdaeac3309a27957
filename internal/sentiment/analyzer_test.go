package sentiment

import (
	"testing"
	"time"
)

func TestAnalyze_PositiveCurrencyNews(t *testing.T) {
	analyzer := NewAnalyzer()
	publishedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	obs := analyzer.Analyze(
		"Dólar em alta com otimismo no mercado",
		"Analistas apontam crescimento e recuperação da moeda americana.",
		publishedAt,
	)

	if obs.Score <= 0 {
		t.Errorf("expected positive score for bullish text, got %f", obs.Score)
	}
	if obs.Relevance != 1 {
		t.Errorf("expected full relevance for currency news, got %f", obs.Relevance)
	}
	if !obs.Timestamp.Equal(publishedAt) {
		t.Errorf("expected observation timestamp to match publish time")
	}
}

func TestAnalyze_NegativeGenericNews(t *testing.T) {
	analyzer := NewAnalyzer()

	obs := analyzer.Analyze(
		"Market crash deepens",
		"Heavy losses and recession fears drive a broad decline.",
		time.Now(),
	)

	if obs.Score >= 0 {
		t.Errorf("expected negative score for bearish text, got %f", obs.Score)
	}
	if obs.Relevance != 0.3 {
		t.Errorf("expected generic relevance 0.3 without currency keywords, got %f", obs.Relevance)
	}
}

func TestAnalyze_EmptyText(t *testing.T) {
	analyzer := NewAnalyzer()

	obs := analyzer.Analyze("", "   ", time.Now())
	if obs.Score != 0 || obs.Relevance != 0 {
		t.Errorf("expected zero observation for empty text, got %+v", obs)
	}
}

func TestAnalyze_StripsURLs(t *testing.T) {
	analyzer := NewAnalyzer()

	// 链接中的 "bull" 不应参与关键词计数。
	obs := analyzer.Analyze("Sem novidades", "veja https://example.com/bull-market", time.Now())
	if obs.Score != 0 {
		t.Errorf("expected neutral score when keywords only appear inside URLs, got %f", obs.Score)
	}
}
