// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"scripture-qa-api/internal/interfaces/http/dto"
	"scripture-qa-api/pkg/errors"
	"scripture-qa-api/pkg/logger"
)

// respondError 按 AppError 映射 HTTP 状态码，未知错误统一 500
func respondError(c *gin.Context, err error, fallback string) {
	if errors.IsAppError(err) {
		appErr := errors.AsAppError(err)
		dto.Error(c, appErr.HTTPStatus, appErr.Message)
		return
	}
	logger.Error(c.Request.Context(), fallback, err)
	dto.InternalError(c, fallback)
}
