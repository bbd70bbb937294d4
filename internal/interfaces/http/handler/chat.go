// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"scripture-qa-api/internal/application/chat"
	"scripture-qa-api/internal/infrastructure/persistence/redis"
	"scripture-qa-api/internal/interfaces/http/dto"
	"scripture-qa-api/pkg/logger"
)

// ChatHandler 问答处理器
type ChatHandler struct {
	chatService *chat.Service
	cache       *redis.Cache
}

// NewChatHandler 创建问答处理器
func NewChatHandler(chatService *chat.Service, cache *redis.Cache) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		cache:       cache,
	}
}

// Chat 单轮问答
// @Summary 单轮问答
// @Description 在会话中提问，检索相关经文并生成回答
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body dto.ChatRequest true "问答请求"
// @Success 200 {object} dto.Response[dto.ChatResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	out, err := h.chatService.Chat(ctx, chat.Input{
		ConversationID: req.ConversationID,
		Message:        req.Message,
	})
	if err != nil {
		respondError(c, err, "chat failed")
		return
	}

	if h.cache != nil {
		if err := h.cache.InvalidateConversation(ctx, out.ConversationID); err != nil {
			logger.Warn(ctx, "conversation cache invalidation failed", "error", err.Error())
		}
	}

	dto.Success(c, dto.ToChatResponse(out))
}
