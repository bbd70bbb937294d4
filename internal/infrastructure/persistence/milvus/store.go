// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"scripture-qa-api/internal/application/rag"
	"scripture-qa-api/pkg/metrics"
)

const searchEf = 128

// Store 经文向量仓储，实现 rag.VectorStore
type Store struct {
	client     *Client
	collection string
	dimension  int
	metric     entity.MetricType
	hnswM      int
	hnswEf     int
}

// NewStore 创建经文向量仓储
func NewStore(client *Client, dimension int) *Store {
	cfg := client.config
	return &Store{
		client:     client,
		collection: cfg.Collection,
		dimension:  dimension,
		metric:     MetricType(cfg.MetricType),
		hnswM:      cfg.HNSWM,
		hnswEf:     cfg.HNSWEfConstruction,
	}
}

// Probe 探测集合状态；已有数据的集合顺带加载，保证可检索
func (s *Store) Probe(ctx context.Context) (rag.IndexState, error) {
	if s == nil || s.client == nil || s.client.milvus == nil {
		return rag.IndexAbsent, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Probe",
		trace.WithAttributes(attribute.String("collection", s.collection)))
	defer span.End()

	has, err := s.client.milvus.HasCollection(ctx, s.collection)
	if err != nil {
		span.RecordError(err)
		return rag.IndexAbsent, fmt.Errorf("failed to check collection: %w", err)
	}
	if !has {
		return rag.IndexAbsent, nil
	}

	count, err := s.rowCount(ctx)
	if err != nil {
		span.RecordError(err)
		return rag.IndexAbsent, err
	}
	if count == 0 {
		return rag.IndexEmpty, nil
	}

	if err := s.client.milvus.LoadCollection(ctx, s.collection, false); err != nil {
		span.RecordError(err)
		return rag.IndexAbsent, fmt.Errorf("failed to load collection: %w", err)
	}
	return rag.IndexReady, nil
}

// Reset 删除既有集合后重建空集合与索引，集合不存在时删除静默跳过
func (s *Store) Reset(ctx context.Context) error {
	if s == nil || s.client == nil || s.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Reset",
		trace.WithAttributes(attribute.String("collection", s.collection)))
	defer span.End()

	has, err := s.client.milvus.HasCollection(ctx, s.collection)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		if err := s.client.milvus.DropCollection(ctx, s.collection); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}

	schema := VerseSchema(s.collection, s.dimension)
	if err := s.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexHNSW(s.metric, s.hnswM, s.hnswEf)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to build index definition: %w", err)
	}
	if err := s.client.milvus.CreateIndex(ctx, s.collection, "vector", idx, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Insert 批量写入经文记录
func (s *Store) Insert(ctx context.Context, records []*rag.VerseRecord) error {
	if s == nil || s.client == nil || s.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	if len(records) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "milvus.Insert",
		trace.WithAttributes(
			attribute.String("collection", s.collection),
			attribute.Int("count", len(records)),
		))
	defer span.End()

	ids := make([]string, len(records))
	vectors := make([][]float32, len(records))
	books := make([]string, len(records))
	chapters := make([]string, len(records))
	verses := make([]string, len(records))
	contents := make([]string, len(records))
	contexts := make([]string, len(records))

	for i, rec := range records {
		ids[i] = rec.ID
		vectors[i] = rec.Vector
		books[i] = rec.Book
		chapters[i] = rec.Chapter
		verses[i] = rec.Verse
		contents[i] = rec.Content
		contexts[i] = rec.Context
	}

	idCol := entity.NewColumnVarChar("id", ids)
	vectorCol := entity.NewColumnFloatVector("vector", s.dimension, vectors)
	bookCol := entity.NewColumnVarChar("book", books)
	chapterCol := entity.NewColumnVarChar("chapter", chapters)
	verseCol := entity.NewColumnVarChar("verse", verses)
	contentCol := entity.NewColumnVarChar("content", contents)
	contextCol := entity.NewColumnVarChar("context", contexts)

	_, err := s.client.milvus.Insert(ctx, s.collection, "",
		idCol, vectorCol, bookCol, chapterCol, verseCol, contentCol, contextCol)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert verses: %w", err)
	}

	return nil
}

// Finalize 刷写缓冲并加载集合，使新写入的数据可检索
func (s *Store) Finalize(ctx context.Context) error {
	if s == nil || s.client == nil || s.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Finalize",
		trace.WithAttributes(attribute.String("collection", s.collection)))
	defer span.End()

	if err := s.client.milvus.Flush(ctx, s.collection, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	if err := s.client.milvus.LoadCollection(ctx, s.collection, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to load collection: %w", err)
	}
	return nil
}

// Search 按向量相似度检索经文
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]*rag.SearchHit, error) {
	if s == nil || s.client == nil || s.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(
			attribute.String("collection", s.collection),
			attribute.Int("top_k", topK),
		))
	defer span.End()

	start := time.Now()

	sp, err := entity.NewIndexHNSWSearchParam(searchEf)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	results, err := s.client.milvus.Search(ctx,
		s.collection,
		nil,
		"",
		[]string{"book", "chapter", "verse", "content", "context"},
		[]entity.Vector{entity.FloatVector(vector)},
		"vector",
		s.metric,
		topK,
		sp,
	)
	metrics.MilvusSearchDuration.WithLabelValues(s.collection).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MilvusSearchTotal.WithLabelValues(s.collection, "error").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	metrics.MilvusSearchTotal.WithLabelValues(s.collection, "success").Inc()

	var hits []*rag.SearchHit
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			hit := &rag.SearchHit{
				Distance: result.Scores[i],
			}
			if col, ok := result.Fields.GetColumn("book").(*entity.ColumnVarChar); ok {
				hit.Book = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("chapter").(*entity.ColumnVarChar); ok {
				hit.Chapter = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("verse").(*entity.ColumnVarChar); ok {
				hit.Verse = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("content").(*entity.ColumnVarChar); ok {
				hit.Content = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("context").(*entity.ColumnVarChar); ok {
				hit.Context = col.Data()[i]
			}
			hits = append(hits, hit)
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(hits)))
	return hits, nil
}

// Count 返回集合当前的记录数
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s == nil || s.client == nil || s.client.milvus == nil {
		return 0, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Count",
		trace.WithAttributes(attribute.String("collection", s.collection)))
	defer span.End()

	count, err := s.rowCount(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return count, nil
}

func (s *Store) rowCount(ctx context.Context) (int64, error) {
	stats, err := s.client.milvus.GetCollectionStatistics(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to read collection statistics: %w", err)
	}
	raw, ok := stats["row_count"]
	if !ok {
		return 0, nil
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse row count %q: %w", raw, err)
	}
	return count, nil
}

var _ rag.VectorStore = (*Store)(nil)
