// Package wire 提供依赖注入配置
package wire

import (
	"context"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/gin-gonic/gin"

	"scripture-qa-api/internal/application/chat"
	"scripture-qa-api/internal/application/corpus"
	"scripture-qa-api/internal/application/indexing"
	"scripture-qa-api/internal/application/rag"
	ragprompt "scripture-qa-api/internal/application/rag/prompt"
	"scripture-qa-api/internal/config"
	"scripture-qa-api/internal/domain/repository"
	infraembedding "scripture-qa-api/internal/infrastructure/embedding"
	"scripture-qa-api/internal/infrastructure/persistence/milvus"
	"scripture-qa-api/internal/infrastructure/persistence/postgres"
	"scripture-qa-api/internal/infrastructure/persistence/redis"
	"scripture-qa-api/internal/interfaces/http/middleware"
	"scripture-qa-api/internal/interfaces/http/router"
)

// App 应用依赖容器
type App struct {
	Router   *router.Router
	PgClient *postgres.Client
	Indexing *indexing.Service
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideMilvusClient 提供 Milvus 客户端
func ProvideMilvusClient(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideVectorStore 提供向量存储
func ProvideVectorStore(client *milvus.Client, cfg *config.Config) *milvus.Store {
	return milvus.NewStore(client, cfg.Embedding.Dimension)
}

// ProvideRateLimitMiddleware 提供限流中间件
func ProvideRateLimitMiddleware(cfg *config.Config, redisClient *redis.Client) gin.HandlerFunc {
	return middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:           cfg.Security.RateLimit.Enabled,
		RequestsPerSecond: cfg.Security.RateLimit.RequestsPerSecond,
		Burst:             cfg.Security.RateLimit.Burst,
	}, redis.NewRateLimiter(redisClient))
}

// ProvideEmbedder 提供向量化客户端
func ProvideEmbedder(ctx context.Context, cfg *config.Config) (einoembedding.Embedder, error) {
	return infraembedding.NewEinoEmbedder(ctx, &cfg.Embedding)
}

// ProvidePromptRegistry 提供提示词注册表
func ProvidePromptRegistry() *ragprompt.Registry {
	return ragprompt.NewRegistry()
}

// ProvideAnalyzer 提供查询分析器
func ProvideAnalyzer(factory rag.ChatModelFactory, prompts *ragprompt.Registry, cfg *config.Config) *rag.Analyzer {
	return rag.NewAnalyzer(factory, prompts, rag.AnalyzerConfig{
		Enabled:         cfg.RAG.RewriteEnabled,
		Provider:        cfg.LLM.DefaultProvider,
		ContextMessages: cfg.RAG.RewriteContextMessages,
		Temperature:     cfg.RAG.RewriteTemperature,
	})
}

// ProvideRetriever 提供检索器
func ProvideRetriever(embedder einoembedding.Embedder, store rag.VectorStore, cfg *config.Config) *rag.Retriever {
	return rag.NewRetriever(embedder, store, cfg.RAG.TopK)
}

// ProvideGenerator 提供答案生成器
func ProvideGenerator(factory rag.ChatModelFactory, prompts *ragprompt.Registry, cfg *config.Config) *rag.Generator {
	gen := rag.GeneratorConfig{Provider: cfg.LLM.DefaultProvider}
	if p, ok := cfg.LLM.Providers[cfg.LLM.DefaultProvider]; ok {
		gen.Model = p.Model
		gen.Temperature = p.Temperature
		gen.MaxTokens = p.MaxTokens
	}
	return rag.NewGenerator(factory, prompts, gen)
}

// ProvideIndexManager 提供索引构建器
func ProvideIndexManager(embedder einoembedding.Embedder, store rag.VectorStore, cfg *config.Config) *rag.IndexManager {
	return rag.NewIndexManager(embedder, store, cfg.Vector.Milvus.Collection, cfg.RAG.InsertBatchSize, cfg.Embedding.BatchSize)
}

// ProvideCorpusLoader 提供语料加载器
func ProvideCorpusLoader(cfg *config.Config) *corpus.Loader {
	return corpus.NewLoader(cfg.Corpus.Path, cfg.Corpus.Source)
}

// ProvideIndexingService 提供索引装配服务
func ProvideIndexingService(
	loader *corpus.Loader,
	manager *rag.IndexManager,
	store rag.VectorStore,
	retriever *rag.Retriever,
	cfg *config.Config,
) *indexing.Service {
	return indexing.NewService(loader, manager, store, retriever, cfg.Vector.Milvus.Collection, cfg.RAG.ContextWindowSize)
}

// ProvideChatService 提供问答服务
func ProvideChatService(
	conversations repository.ConversationRepository,
	turns repository.ConversationTurnRepository,
	transactor repository.Transactor,
	analyzer *rag.Analyzer,
	retriever *rag.Retriever,
	generator *rag.Generator,
	cfg *config.Config,
) *chat.Service {
	return chat.NewService(conversations, turns, transactor, analyzer, retriever, generator, cfg.RAG.HistoryLimit)
}
