package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"scripture-qa-api/internal/application/rag/prompt"
	"scripture-qa-api/pkg/logger"
	"scripture-qa-api/pkg/metrics"
)

const analyzerMaxTokens = 200

// AnalyzerConfig 查询分析配置
type AnalyzerConfig struct {
	// Enabled 关闭时所有查询原样放行
	Enabled bool
	// Provider LLM 提供商名称，空值使用默认提供商
	Provider string
	// ContextMessages 携带的最近消息条数
	ContextMessages int
	// Temperature 分析调用的采样温度
	Temperature float64
}

// Analyzer 判定查询是否需要检索，并将其改写为独立可检索的问题。
// 任何调用或解析失败都按需要检索处理（fail open），不会中断当前轮次。
type Analyzer struct {
	factory ChatModelFactory
	prompts *prompt.Registry
	cfg     AnalyzerConfig
}

func NewAnalyzer(factory ChatModelFactory, prompts *prompt.Registry, cfg AnalyzerConfig) *Analyzer {
	if cfg.ContextMessages <= 0 {
		cfg.ContextMessages = 5
	}
	return &Analyzer{factory: factory, prompts: prompts, cfg: cfg}
}

// analysisResult 模型输出的 JSON 结构
type analysisResult struct {
	NeedsRetrieval bool    `json:"needs_retrieval"`
	RewrittenQuery *string `json:"rewritten_query"`
	Reasoning      string  `json:"reasoning"`
}

// Analyze 分析当前查询，结论带来源标记
func (a *Analyzer) Analyze(ctx context.Context, query string, history []HistoryMessage) QueryDecision {
	query = strings.TrimSpace(query)

	if !a.cfg.Enabled {
		return a.record(QueryDecision{
			NeedsRetrieval: true,
			RewrittenQuery: query,
			Reasoning:      "query rewriting disabled",
			Source:         DecisionSourcePassthrough,
		})
	}

	decision, err := a.analyzeWithModel(ctx, query, history)
	if err != nil {
		logger.Warn(ctx, "query analysis failed, falling back to retrieval",
			"error", err.Error(),
		)
		return a.record(QueryDecision{
			NeedsRetrieval: true,
			RewrittenQuery: query,
			Reasoning:      fmt.Sprintf("analysis error: %v", err),
			Source:         DecisionSourceFallback,
		})
	}
	return a.record(decision)
}

func (a *Analyzer) analyzeWithModel(ctx context.Context, query string, history []HistoryMessage) (QueryDecision, error) {
	if a.factory == nil {
		return QueryDecision{}, fmt.Errorf("llm factory not configured")
	}

	tpl, err := a.prompts.ChatTemplate(prompt.PromptQueryAnalysisV1)
	if err != nil {
		return QueryDecision{}, err
	}
	msgs, err := tpl.Format(ctx, map[string]any{
		"context": buildTranscript(history, a.cfg.ContextMessages),
		"query":   query,
	})
	if err != nil {
		return QueryDecision{}, err
	}

	chatModel, err := a.factory.Get(ctx, a.cfg.Provider)
	if err != nil {
		return QueryDecision{}, err
	}

	outMsg, err := chatModel.Generate(ctx, msgs, a.modelOptions(true)...)
	if err != nil && isResponseFormatUnsupportedError(err) {
		logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
			"provider", a.cfg.Provider,
			"error", err.Error(),
		)
		outMsg, err = chatModel.Generate(ctx, msgs, a.modelOptions(false)...)
	}
	if err != nil {
		return QueryDecision{}, err
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return QueryDecision{}, fmt.Errorf("empty llm response")
	}

	var result analysisResult
	if err := json.Unmarshal([]byte(extractJSONObject(outMsg.Content)), &result); err != nil {
		return QueryDecision{}, fmt.Errorf("parse analysis output: %w", err)
	}

	rewritten := query
	if result.RewrittenQuery != nil && strings.TrimSpace(*result.RewrittenQuery) != "" {
		rewritten = strings.TrimSpace(*result.RewrittenQuery)
	}
	return QueryDecision{
		NeedsRetrieval: result.NeedsRetrieval,
		RewrittenQuery: rewritten,
		Reasoning:      strings.TrimSpace(result.Reasoning),
		Source:         DecisionSourceModel,
	}, nil
}

func (a *Analyzer) modelOptions(enableSchema bool) []model.Option {
	temp := float32(a.cfg.Temperature)
	opts := []model.Option{
		model.WithTemperature(temp),
		model.WithMaxTokens(analyzerMaxTokens),
	}
	if enableSchema {
		// 优先使用 response_format=json_schema 强约束，不支持时降级为纯 Prompt 约束
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "query_analysis",
					"strict": false,
					"schema": analysisJSONSchema(),
				},
			},
		}))
	}
	return opts
}

func analysisJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"needs_retrieval": map[string]any{"type": "boolean"},
			"rewritten_query": map[string]any{"type": []string{"string", "null"}},
			"reasoning":       map[string]any{"type": "string"},
		},
		"required": []string{"needs_retrieval", "reasoning"},
	}
}

// buildTranscript 将最近 limit 条消息拼接为 "role: content" 文本
func buildTranscript(history []HistoryMessage, limit int) string {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	if len(history) == 0 {
		return "No previous context"
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func (a *Analyzer) record(d QueryDecision) QueryDecision {
	metrics.QueryDecisionTotal.WithLabelValues(string(d.Source), fmt.Sprintf("%t", d.NeedsRetrieval)).Inc()
	return d
}
