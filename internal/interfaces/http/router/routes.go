// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"scripture-qa-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	chatHandler *handler.ChatHandler,
	conversationHandler *handler.ConversationHandler,
	retrievalHandler *handler.RetrievalHandler,
	indexHandler *handler.IndexHandler,
) {
	// 问答
	v1.POST("/chat", chatHandler.Chat)

	// 会话管理
	conversations := v1.Group("/conversations")
	{
		conversations.GET("", conversationHandler.List)
		conversations.GET("/:cid", conversationHandler.Get)
		conversations.DELETE("/:cid", conversationHandler.Delete)
		conversations.PATCH("/:cid", conversationHandler.Rename)
	}

	// 检索调试
	retrieval := v1.Group("/retrieval")
	{
		retrieval.POST("/search", retrievalHandler.Search)
	}

	// 索引管理
	admin := v1.Group("/admin")
	{
		admin.GET("/index", indexHandler.Status)
		admin.POST("/index/rebuild", indexHandler.Rebuild)
	}
}
