package ai

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/news"
)

const scoreTemplate = `
你是一个专业的外汇市场分析师。请评估下面这篇新闻对 USD/BRL（美元兑巴西雷亚尔）汇率的情绪影响。

新闻来源: {{ .Source }}
标题: {{ .Title }}
正文:
{{ .Content }}

评估要求：
1. sentiment 表示该新闻对美元相对雷亚尔走强（正）或走弱（负）的倾向；
2. relevance 表示新闻与汇率主题的相关程度，与汇率无关的新闻请给低相关度；
3. 不确定时倾向中性，不要夸大。

请严格输出唯一的 JSON 对象，格式如下：
{
  "sentiment": -1.0-1.0,   // 情绪分值
  "relevance": 0.0-1.0,    // 汇率相关度
  "summary": "..."        // 一句话结论
}
`

var scoreTmpl = template.Must(template.New("score").Parse(scoreTemplate))

// BuildPrompt 将新闻内容渲染成提示词字符串。
func BuildPrompt(article news.Article) (string, error) {
	var buf bytes.Buffer
	if err := scoreTmpl.Execute(&buf, article); err != nil {
		return "", fmt.Errorf("渲染提示词失败: %w", err)
	}
	return buf.String(), nil
}
