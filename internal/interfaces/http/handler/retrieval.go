// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"scripture-qa-api/internal/application/rag"
	"scripture-qa-api/internal/interfaces/http/dto"
)

// RetrievalHandler 检索调试处理器
type RetrievalHandler struct {
	retriever *rag.Retriever
}

// NewRetrievalHandler 创建检索调试处理器
func NewRetrievalHandler(retriever *rag.Retriever) *RetrievalHandler {
	return &RetrievalHandler{
		retriever: retriever,
	}
}

// Search 检索经文
// @Summary 检索经文
// @Description 绕过问答流程，直接按语义相似度检索经文
// @Tags Retrieval
// @Accept json
// @Produce json
// @Param body body dto.SearchRequest true "检索请求"
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/retrieval/search [post]
func (h *RetrievalHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	passages, err := h.retriever.RetrieveTopK(ctx, req.Query, req.TopK)
	if err != nil {
		switch {
		case errors.Is(err, rag.ErrIndexNotReady):
			dto.ServiceUnavailable(c, "vector index not ready")
		case errors.Is(err, rag.ErrEmptyQuery):
			dto.BadRequest(c, "query is empty")
		default:
			respondError(c, err, "retrieval failed")
		}
		return
	}

	dto.Success(c, dto.SearchResponse{
		Query:    req.Query,
		Passages: dto.ToPassageResponses(passages),
		Count:    len(passages),
	})
}
