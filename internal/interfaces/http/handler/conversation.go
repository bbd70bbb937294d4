// Package handler 提供 HTTP 请求处理器
package handler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"scripture-qa-api/internal/application/chat"
	"scripture-qa-api/internal/domain/repository"
	"scripture-qa-api/internal/infrastructure/persistence/redis"
	"scripture-qa-api/internal/interfaces/http/dto"
	"scripture-qa-api/pkg/logger"
)

const conversationCacheTTL = 60 * time.Second

// ConversationHandler 会话处理器
type ConversationHandler struct {
	chatService *chat.Service
	cache       *redis.Cache
}

// NewConversationHandler 创建会话处理器
func NewConversationHandler(chatService *chat.Service, cache *redis.Cache) *ConversationHandler {
	return &ConversationHandler{
		chatService: chatService,
		cache:       cache,
	}
}

// List 获取会话列表
// @Summary 获取会话列表
// @Tags Conversations
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.ConversationListResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	pageReq := dto.BindPage(c)
	pagination := repository.NewPagination(pageReq.Page, pageReq.PageSize)

	type listPayload struct {
		List dto.ConversationListResponse `json:"list"`
		Meta *dto.PageMeta                `json:"meta"`
	}

	load := func() (interface{}, error) {
		result, err := h.chatService.ListConversations(ctx, pagination)
		if err != nil {
			return nil, err
		}
		return listPayload{
			List: dto.ToConversationListResponse(result.Items),
			Meta: dto.NewPageMeta(pagination.Page, pagination.PageSize, int(result.Total)),
		}, nil
	}

	var payload listPayload
	if h.cache != nil {
		key := fmt.Sprintf("conversations:list:%d:%d", pagination.Page, pagination.PageSize)
		raw, err := h.cache.GetOrLoadSafe(ctx, key, conversationCacheTTL, load)
		if err == nil && json.Unmarshal(raw, &payload) == nil {
			dto.SuccessWithPage(c, payload.List, payload.Meta)
			return
		}
		if err != nil {
			logger.Warn(ctx, "conversation list cache path failed", "error", err.Error())
		}
	}

	data, err := load()
	if err != nil {
		respondError(c, err, "failed to list conversations")
		return
	}
	payload = data.(listPayload)
	dto.SuccessWithPage(c, payload.List, payload.Meta)
}

// Get 获取会话详情
// @Summary 获取会话详情
// @Description 获取会话及其全部消息
// @Tags Conversations
// @Produce json
// @Param cid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.ConversationDetailResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/conversations/{cid} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	conversationID := dto.BindConversationID(c)
	pageReq := dto.BindPage(c)

	conversation, turns, err := h.chatService.GetConversation(ctx, conversationID,
		repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		respondError(c, err, "failed to get conversation")
		return
	}

	resp := dto.ConversationDetailResponse{
		Conversation: dto.ToConversationResponse(conversation),
		Turns:        dto.ToTurnResponses(turns.Items),
	}
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(turns.Total))
	dto.SuccessWithPage(c, resp, meta)
}

// Delete 删除会话
// @Summary 删除会话
// @Description 删除会话及其全部消息
// @Tags Conversations
// @Produce json
// @Param cid path string true "会话 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/conversations/{cid} [delete]
func (h *ConversationHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	conversationID := dto.BindConversationID(c)

	if err := h.chatService.DeleteConversation(ctx, conversationID); err != nil {
		respondError(c, err, "failed to delete conversation")
		return
	}

	h.invalidate(c, conversationID)
	dto.NoContent(c)
}

// Rename 更新会话标题
// @Summary 更新会话标题
// @Tags Conversations
// @Accept json
// @Produce json
// @Param cid path string true "会话 ID"
// @Param body body dto.RenameConversationRequest true "标题"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/conversations/{cid} [patch]
func (h *ConversationHandler) Rename(c *gin.Context) {
	ctx := c.Request.Context()
	conversationID := dto.BindConversationID(c)

	var req dto.RenameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.chatService.RenameConversation(ctx, conversationID, req.Title); err != nil {
		respondError(c, err, "failed to rename conversation")
		return
	}

	h.invalidate(c, conversationID)
	dto.NoContent(c)
}

func (h *ConversationHandler) invalidate(c *gin.Context, conversationID string) {
	if h.cache == nil {
		return
	}
	ctx := c.Request.Context()
	if err := h.cache.InvalidateConversation(ctx, conversationID); err != nil {
		logger.Warn(ctx, "conversation cache invalidation failed", "error", err.Error())
	}
}
