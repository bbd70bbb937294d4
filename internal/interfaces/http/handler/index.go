// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"scripture-qa-api/internal/application/indexing"
	"scripture-qa-api/internal/interfaces/http/dto"
)

// IndexHandler 索引管理处理器
type IndexHandler struct {
	indexing *indexing.Service
}

// NewIndexHandler 创建索引管理处理器
func NewIndexHandler(indexingService *indexing.Service) *IndexHandler {
	return &IndexHandler{
		indexing: indexingService,
	}
}

// Status 获取索引状态
// @Summary 获取索引状态
// @Tags Index
// @Produce json
// @Success 200 {object} dto.Response[dto.IndexStatusResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/admin/index [get]
func (h *IndexHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	status, err := h.indexing.Status(ctx)
	if err != nil {
		respondError(c, err, "failed to read index status")
		return
	}

	dto.Success(c, dto.IndexStatusResponse{
		Collection: status.Collection,
		State:      status.State.String(),
		Verses:     status.Verses,
		Ready:      status.Ready,
	})
}

// Rebuild 重建索引
// @Summary 重建索引
// @Description 从语料重建向量索引，force 为 false 时已有索引直接复用
// @Tags Index
// @Accept json
// @Produce json
// @Param body body dto.RebuildRequest false "重建选项"
// @Success 200 {object} dto.Response[dto.RebuildResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/admin/index/rebuild [post]
func (h *IndexHandler) Rebuild(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.indexing.Rebuild(ctx, req.Force)
	if err != nil {
		respondError(c, err, "index rebuild failed")
		return
	}

	dto.Success(c, dto.RebuildResponse{
		Collection: result.Collection,
		Indexed:    result.Indexed,
		Reused:     result.Reused,
	})
}
