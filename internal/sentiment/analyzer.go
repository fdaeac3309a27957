package sentiment

import (
	"regexp"
	"strings"
	"time"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/indicator"
)

const (
	relevanceCurrency = 1.0
	relevanceGeneric  = 0.3
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Analyzer 基于财经关键词为新闻文本打分，作为无需外部服务的保底方案。
type Analyzer struct {
	positive []string
	negative []string
	currency []string
}

// NewAnalyzer 创建使用内置葡英双语词表的分析器。
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		positive: []string{
			"alta", "subir", "crescimento", "lucro", "ganho", "valorização", "otimismo",
			"compra", "recomendação de compra", "recuperação",
			"bull", "bullish", "rally", "gain", "profit", "growth", "rise", "increase",
			"positive", "strong", "robust", "recovery", "boom", "surge", "soar",
			"upgrade", "outperform", "buy",
		},
		negative: []string{
			"queda", "baixa", "perda", "prejuízo", "desvalorização", "pessimismo",
			"venda", "recomendação de venda", "crise",
			"bear", "bearish", "crash", "loss", "decline", "fall", "drop", "decrease",
			"negative", "weak", "recession", "crisis", "plunge", "tumble", "slump",
			"downgrade", "underperform", "sell",
		},
		currency: []string{
			"dólar", "dollar", "usd", "real", "brl", "câmbio", "exchange", "forex",
			"moeda", "currency", "taxa de câmbio", "exchange rate", "mini dólar",
			"futuro", "futures", "b3", "bovespa",
		},
	}
}

// Analyze 对标题与正文打分并生成情绪观测。
// 分值来自正负关键词计数的归一化差值；与汇率相关的文本获得更高相关度权重。
func (a *Analyzer) Analyze(title, content string, publishedAt time.Time) Observation {
	text := cleanText(title + " " + content)
	if text == "" {
		return Observation{Relevance: 0, Timestamp: publishedAt}
	}

	lower := strings.ToLower(text)

	positive := countKeywords(lower, a.positive)
	negative := countKeywords(lower, a.negative)

	score := 0.0
	if total := positive + negative; total > 0 {
		score = float64(positive-negative) / float64(total)
	}

	relevance := relevanceGeneric
	if containsAny(lower, a.currency) {
		relevance = relevanceCurrency
	}

	return Observation{
		Score:     indicator.Clamp(score, -1, 1),
		Relevance: relevance,
		Timestamp: publishedAt,
	}
}

func cleanText(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func countKeywords(text string, keywords []string) int {
	count := 0
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			count++
		}
	}
	return count
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
