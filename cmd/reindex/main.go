// Package main 离线重建向量索引的命令行工具
package main

import (
	"context"
	"fmt"
	"os"

	"scripture-qa-api/internal/config"
	"scripture-qa-api/internal/wire"
	"scripture-qa-api/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting reindex", "collection", cfg.Vector.Milvus.Collection)

	app, cleanup, err := wire.InitializeApp(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize app", err)
	}
	defer cleanup()

	// 无条件全量重建
	result, err := app.Indexing.Rebuild(ctx, true)
	if err != nil {
		logger.Fatal(ctx, "failed to rebuild vector index", err)
	}

	log.Info("reindex finished",
		"collection", result.Collection,
		"indexed", result.Indexed,
	)
}
