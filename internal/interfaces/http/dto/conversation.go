// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"encoding/json"
	"time"

	"scripture-qa-api/internal/domain/entity"
)

// ConversationResponse 会话响应
type ConversationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ConversationListResponse 会话列表响应
type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}

// TurnResponse 会话消息响应
type TurnResponse struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Passages  json.RawMessage `json:"passages,omitempty"`
	CitedRefs []string        `json:"cited_refs,omitempty"`
	CreatedAt string          `json:"created_at"`
}

// ConversationDetailResponse 会话详情响应
type ConversationDetailResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Turns        []TurnResponse       `json:"turns"`
}

// RenameConversationRequest 会话改名请求
type RenameConversationRequest struct {
	Title string `json:"title" binding:"required"`
}

// ToConversationResponse 转换会话实体
func ToConversationResponse(c *entity.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

// ToConversationListResponse 转换会话列表
func ToConversationListResponse(items []*entity.Conversation) ConversationListResponse {
	out := make([]ConversationResponse, 0, len(items))
	for _, c := range items {
		out = append(out, ToConversationResponse(c))
	}
	return ConversationListResponse{Conversations: out}
}

// ToTurnResponses 转换会话消息列表
func ToTurnResponses(turns []*entity.ConversationTurn) []TurnResponse {
	out := make([]TurnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, TurnResponse{
			ID:        t.ID,
			Role:      string(t.Role),
			Content:   t.Content,
			Passages:  t.Passages,
			CitedRefs: t.CitedRefs,
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}
