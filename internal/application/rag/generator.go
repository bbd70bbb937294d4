package rag

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"scripture-qa-api/internal/application/rag/prompt"
	"scripture-qa-api/internal/domain/entity"
	"scripture-qa-api/pkg/metrics"
)

// GeneratorConfig 答案生成配置
type GeneratorConfig struct {
	// Provider LLM 提供商名称，空值使用默认提供商
	Provider string
	// Model 指标标签使用的模型名
	Model string
	// Temperature 生成调用的采样温度
	Temperature float64
	// MaxTokens 生成上限
	MaxTokens int
}

// Generator 基于检索段落与会话历史生成答案。
// 有段落时系统提示携带段落与引用规范，无段落时使用中性提示。
// 输出原样返回，不做引用校验。
type Generator struct {
	factory ChatModelFactory
	prompts *prompt.Registry
	cfg     GeneratorConfig
}

func NewGenerator(factory ChatModelFactory, prompts *prompt.Registry, cfg GeneratorConfig) *Generator {
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	return &Generator{factory: factory, prompts: prompts, cfg: cfg}
}

// Generate 生成一轮回答
func (g *Generator) Generate(ctx context.Context, query string, passages []entity.RetrievedPassage, history []HistoryMessage) (string, error) {
	if g.factory == nil {
		return "", fmt.Errorf("llm factory not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	system, err := g.systemMessage(ctx, passages)
	if err != nil {
		return "", err
	}

	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, system)
	for _, m := range history {
		switch m.Role {
		case string(entity.RoleAssistant):
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		default:
			msgs = append(msgs, schema.UserMessage(m.Content))
		}
	}
	msgs = append(msgs, schema.UserMessage(query))

	chatModel, err := g.factory.Get(ctx, g.cfg.Provider)
	if err != nil {
		return "", err
	}

	start := time.Now()
	outMsg, err := chatModel.Generate(ctx, msgs,
		model.WithTemperature(float32(g.cfg.Temperature)),
		model.WithMaxTokens(g.cfg.MaxTokens),
	)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LLMCallTotal.WithLabelValues(g.cfg.Provider, g.cfg.Model, status).Inc()
	metrics.LLMCallDuration.WithLabelValues(g.cfg.Provider, g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return "", fmt.Errorf("empty llm response")
	}
	if outMsg.ResponseMeta != nil && outMsg.ResponseMeta.Usage != nil {
		metrics.LLMTokensUsed.WithLabelValues(g.cfg.Provider, g.cfg.Model, "prompt").Add(float64(outMsg.ResponseMeta.Usage.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(g.cfg.Provider, g.cfg.Model, "completion").Add(float64(outMsg.ResponseMeta.Usage.CompletionTokens))
	}
	return outMsg.Content, nil
}

func (g *Generator) systemMessage(ctx context.Context, passages []entity.RetrievedPassage) (*schema.Message, error) {
	if len(passages) == 0 {
		tpl, err := g.prompts.ChatTemplate(prompt.PromptAnswerPlainV1)
		if err != nil {
			return nil, err
		}
		msgs, err := tpl.Format(ctx, map[string]any{})
		if err != nil {
			return nil, err
		}
		return msgs[0], nil
	}

	tpl, err := g.prompts.ChatTemplate(prompt.PromptAnswerGroundedV1)
	if err != nil {
		return nil, err
	}
	msgs, err := tpl.Format(ctx, map[string]any{
		"passages": formatPassages(passages),
	})
	if err != nil {
		return nil, err
	}
	return msgs[0], nil
}

// formatPassages 将段落渲染为 "Book chapter:verse - content" 块
func formatPassages(passages []entity.RetrievedPassage) string {
	blocks := make([]string, 0, len(passages))
	for _, p := range passages {
		blocks = append(blocks, fmt.Sprintf("%s %s:%s - %s", capitalize(p.Book), p.Chapter, p.Verse, p.Content))
	}
	return strings.Join(blocks, "\n\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
