package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"scripture-qa-api/internal/domain/entity"
	"scripture-qa-api/pkg/logger"
	"scripture-qa-api/pkg/metrics"
)

const (
	defaultInsertBatch    = 100
	defaultEmbeddingBatch = 32
)

// IndexManager 管理向量集合的生命周期：探测、重建、写入。
// 重建流程为删除旧集合、新建集合与索引、逐批嵌入并写入；
// 流程不具备事务性，中途失败会留下部分索引，恢复方式是再次强制重建。
type IndexManager struct {
	embedder embedding.Embedder
	store    VectorStore

	collection         string
	insertBatchSize    int
	embeddingBatchSize int
}

func NewIndexManager(embedder embedding.Embedder, store VectorStore, collection string, insertBatchSize, embeddingBatchSize int) *IndexManager {
	if insertBatchSize <= 0 {
		insertBatchSize = defaultInsertBatch
	}
	if embeddingBatchSize <= 0 {
		embeddingBatchSize = defaultEmbeddingBatch
	}
	return &IndexManager{
		embedder:           embedder,
		store:              store,
		collection:         collection,
		insertBatchSize:    insertBatchSize,
		embeddingBatchSize: embeddingBatchSize,
	}
}

// Probe 返回集合当前状态
func (m *IndexManager) Probe(ctx context.Context) (IndexState, error) {
	if m.store == nil {
		return IndexAbsent, fmt.Errorf("vector store not configured")
	}
	return m.store.Probe(ctx)
}

// EnsureIndex 启动引导：存在且非空时直接复用，否则从语料重建。
// force 为 true 时无条件重建。
func (m *IndexManager) EnsureIndex(ctx context.Context, contexts []entity.VerseContext, force bool) error {
	state, err := m.Probe(ctx)
	if err != nil {
		return err
	}

	if state == IndexReady && !force {
		logger.Info(ctx, "vector index reused", "collection", m.collection, "state", state.String())
		return nil
	}

	logger.Info(ctx, "rebuilding vector index",
		"collection", m.collection,
		"state", state.String(),
		"force", force,
		"verses", len(contexts),
	)
	return m.Rebuild(ctx, contexts)
}

// Rebuild 全量重建集合并写入全部经文
func (m *IndexManager) Rebuild(ctx context.Context, contexts []entity.VerseContext) error {
	if m.embedder == nil {
		return ErrEmbedderDisabled
	}
	if m.store == nil {
		return fmt.Errorf("vector store not configured")
	}

	start := time.Now()
	status := "success"
	defer func() {
		metrics.IndexRebuildTotal.WithLabelValues(m.collection, status).Inc()
		metrics.IndexRebuildDuration.WithLabelValues(m.collection).Observe(time.Since(start).Seconds())
	}()

	if err := m.store.Reset(ctx); err != nil {
		status = "error"
		return fmt.Errorf("reset collection: %w", err)
	}

	for batchStart := 0; batchStart < len(contexts); batchStart += m.insertBatchSize {
		batchEnd := batchStart + m.insertBatchSize
		if batchEnd > len(contexts) {
			batchEnd = len(contexts)
		}
		batch := contexts[batchStart:batchEnd]

		records, err := m.buildRecords(ctx, batch)
		if err != nil {
			status = "error"
			return err
		}
		if err := m.store.Insert(ctx, records); err != nil {
			status = "error"
			return fmt.Errorf("insert batch at %d: %w", batchStart, err)
		}

		logger.Info(ctx, "indexed verse batch",
			"collection", m.collection,
			"done", batchEnd,
			"total", len(contexts),
		)
	}

	if err := m.store.Finalize(ctx); err != nil {
		status = "error"
		return fmt.Errorf("finalize collection: %w", err)
	}

	metrics.IndexedVerses.WithLabelValues(m.collection).Set(float64(len(contexts)))
	logger.Info(ctx, "vector index rebuilt",
		"collection", m.collection,
		"verses", len(contexts),
		"elapsed", time.Since(start).String(),
	)
	return nil
}

// buildRecords 嵌入一批经文的 Context 字段并组装写入记录
func (m *IndexManager) buildRecords(ctx context.Context, batch []entity.VerseContext) ([]*VerseRecord, error) {
	texts := make([]string, 0, len(batch))
	for _, vc := range batch {
		// 嵌入窗口文本而非单节正文，检索时能携带上下文语义
		texts = append(texts, vc.Context)
	}

	vectors, err := m.embedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(batch))
	}

	records := make([]*VerseRecord, 0, len(batch))
	for i, vc := range batch {
		records = append(records, &VerseRecord{
			ID:      vc.ID(),
			Book:    vc.Book,
			Chapter: vc.Chapter,
			Verse:   vc.Verse,
			Content: vc.Content,
			Context: vc.Context,
			Vector:  vectors[i],
		})
	}
	return records, nil
}

func (m *IndexManager) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += m.embeddingBatchSize {
		end := start + m.embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		v64, err := m.embedder.EmbedStrings(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		for _, vec := range v64 {
			f32 := make([]float32, 0, len(vec))
			for _, x := range vec {
				f32 = append(f32, float32(x))
			}
			out = append(out, f32)
		}
	}
	return out, nil
}
