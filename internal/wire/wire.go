//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"scripture-qa-api/internal/application/rag"
	"scripture-qa-api/internal/config"
	"scripture-qa-api/internal/domain/repository"
	"scripture-qa-api/internal/infrastructure/llm"
	"scripture-qa-api/internal/infrastructure/persistence/milvus"
	"scripture-qa-api/internal/infrastructure/persistence/postgres"
	"scripture-qa-api/internal/infrastructure/persistence/redis"
	"scripture-qa-api/internal/interfaces/http/handler"
	"scripture-qa-api/internal/interfaces/http/router"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MilvusSet,
		RAGSet,
		RouterSet,
		ProvideChatService,
		ProvideIndexingService,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewConversationRepository,
	postgres.NewConversationTurnRepository,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.ConversationRepository), new(*postgres.ConversationRepository)),
	wire.Bind(new(repository.ConversationTurnRepository), new(*postgres.ConversationTurnRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	ProvideRateLimitMiddleware,
)

// MilvusSet Milvus 提供者集合
var MilvusSet = wire.NewSet(
	ProvideMilvusClient,
	ProvideVectorStore,
	wire.Bind(new(rag.VectorStore), new(*milvus.Store)),
)

// RAGSet 检索问答管线提供者集合
var RAGSet = wire.NewSet(
	ProvideEmbedder,
	ProvidePromptRegistry,
	llm.NewEinoFactory,
	wire.Bind(new(rag.ChatModelFactory), new(*llm.EinoFactory)),
	ProvideAnalyzer,
	ProvideRetriever,
	ProvideGenerator,
	ProvideIndexManager,
	ProvideCorpusLoader,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewHealthHandler,
	handler.NewChatHandler,
	handler.NewConversationHandler,
	handler.NewRetrievalHandler,
	handler.NewIndexHandler,
	router.New,
)
