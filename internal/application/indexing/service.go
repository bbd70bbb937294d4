// Package indexing 负责语料到向量索引的装配流程
package indexing

import (
	"context"
	"fmt"

	"scripture-qa-api/internal/application/corpus"
	"scripture-qa-api/internal/application/rag"
	"scripture-qa-api/pkg/logger"
)

// Service 串联语料加载、窗口构建与索引管理。
// 启动引导与管理端重建共用同一条路径。
type Service struct {
	loader    *corpus.Loader
	manager   *rag.IndexManager
	store     rag.VectorStore
	retriever *rag.Retriever

	collection string
	window     int
}

// Status 索引状态快照
type Status struct {
	Collection string
	State      rag.IndexState
	Verses     int64
	Ready      bool
}

// Result 一次装配的结果
type Result struct {
	Collection string
	Indexed    int
	Reused     bool
}

func NewService(
	loader *corpus.Loader,
	manager *rag.IndexManager,
	store rag.VectorStore,
	retriever *rag.Retriever,
	collection string,
	window int,
) *Service {
	return &Service{
		loader:     loader,
		manager:    manager,
		store:      store,
		retriever:  retriever,
		collection: collection,
		window:     window,
	}
}

// Bootstrap 启动时装配索引：已有数据直接复用，否则全量重建。
// 成功后标记检索器可用。
func (s *Service) Bootstrap(ctx context.Context, force bool) (*Result, error) {
	state, err := s.manager.Probe(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe index: %w", err)
	}

	if state == rag.IndexReady && !force {
		s.retriever.MarkReady()
		count, countErr := s.store.Count(ctx)
		if countErr != nil {
			logger.Warn(ctx, "index row count unavailable", "error", countErr.Error())
		}
		logger.Info(ctx, "vector index reused",
			"collection", s.collection,
			"verses", count,
		)
		return &Result{Collection: s.collection, Indexed: int(count), Reused: true}, nil
	}

	return s.rebuild(ctx)
}

// Rebuild 从语料全量重建索引。force 为 false 且索引已就绪时复用。
func (s *Service) Rebuild(ctx context.Context, force bool) (*Result, error) {
	return s.Bootstrap(ctx, force)
}

// Status 返回索引当前状态
func (s *Service) Status(ctx context.Context) (*Status, error) {
	state, err := s.manager.Probe(ctx)
	if err != nil {
		return nil, err
	}

	var count int64
	if state != rag.IndexAbsent {
		if count, err = s.store.Count(ctx); err != nil {
			return nil, err
		}
	}

	return &Status{
		Collection: s.collection,
		State:      state,
		Verses:     count,
		Ready:      s.retriever.Ready(),
	}, nil
}

func (s *Service) rebuild(ctx context.Context) (*Result, error) {
	verses, err := s.loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	contexts, err := corpus.BuildContexts(verses, s.window)
	if err != nil {
		return nil, fmt.Errorf("build verse contexts: %w", err)
	}

	if err := s.manager.Rebuild(ctx, contexts); err != nil {
		return nil, err
	}

	s.retriever.MarkReady()
	return &Result{Collection: s.collection, Indexed: len(contexts)}, nil
}
