// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"scripture-qa-api/internal/application/chat"
	"scripture-qa-api/internal/application/rag"
	"scripture-qa-api/internal/domain/entity"
)

// ChatRequest 问答请求
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message" binding:"required"`
}

// PassageResponse 检索命中的经文段落
type PassageResponse struct {
	Book    string  `json:"book"`
	Chapter string  `json:"chapter"`
	Verse   string  `json:"verse"`
	Content string  `json:"content"`
	Context string  `json:"context,omitempty"`
	Score   float64 `json:"score"`
}

// DecisionResponse 查询分析结论
type DecisionResponse struct {
	NeedsRetrieval bool   `json:"needs_retrieval"`
	RewrittenQuery string `json:"rewritten_query"`
	Reasoning      string `json:"reasoning,omitempty"`
	Source         string `json:"source"`
}

// ChatResponse 问答响应
type ChatResponse struct {
	ConversationID string            `json:"conversation_id"`
	Answer         string            `json:"answer"`
	Passages       []PassageResponse `json:"passages"`
	Decision       DecisionResponse  `json:"decision"`
}

// ToChatResponse 构建问答响应
func ToChatResponse(out *chat.Output) ChatResponse {
	return ChatResponse{
		ConversationID: out.ConversationID,
		Answer:         out.Answer.Content,
		Passages:       ToPassageResponses(out.Passages),
		Decision:       toDecisionResponse(out.Decision),
	}
}

// ToPassageResponses 转换检索段落列表
func ToPassageResponses(passages []entity.RetrievedPassage) []PassageResponse {
	out := make([]PassageResponse, 0, len(passages))
	for _, p := range passages {
		out = append(out, PassageResponse{
			Book:    p.Book,
			Chapter: p.Chapter,
			Verse:   p.Verse,
			Content: p.Content,
			Context: p.Context,
			Score:   p.Score,
		})
	}
	return out
}

func toDecisionResponse(d rag.QueryDecision) DecisionResponse {
	return DecisionResponse{
		NeedsRetrieval: d.NeedsRetrieval,
		RewrittenQuery: d.RewrittenQuery,
		Reasoning:      d.Reasoning,
		Source:         string(d.Source),
	}
}
