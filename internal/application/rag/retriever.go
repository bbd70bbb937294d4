package rag

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/cloudwego/eino/components/embedding"

	"scripture-qa-api/internal/domain/entity"
	"scripture-qa-api/pkg/logger"
)

const defaultTopK = 5

// Retriever 将查询嵌入后在向量存储中做 kNN 检索。
// 必须先通过 MarkReady（由索引管理器在探测/重建成功后调用）才能检索，
// 未就绪时检索返回 ErrIndexNotReady，属于调用方用法错误。
type Retriever struct {
	embedder embedding.Embedder
	store    VectorStore
	topK     int

	ready atomic.Bool
}

func NewRetriever(embedder embedding.Embedder, store VectorStore, topK int) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
	}
}

// MarkReady 标记索引可用
func (r *Retriever) MarkReady() {
	r.ready.Store(true)
}

// Ready 返回索引是否可用
func (r *Retriever) Ready() bool {
	return r.ready.Load()
}

// Retrieve 返回至多 topK 条相关段落，按相似度由高到低。
// 相似度 score = 1/(1+distance)，距离非负时落在 (0,1]。
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]entity.RetrievedPassage, error) {
	return r.RetrieveTopK(ctx, query, r.topK)
}

// RetrieveTopK 与 Retrieve 相同，但允许调用方覆盖 topK
func (r *Retriever) RetrieveTopK(ctx context.Context, query string, topK int) ([]entity.RetrievedPassage, error) {
	if !r.ready.Load() {
		return nil, ErrIndexNotReady
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = r.topK
	}

	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := r.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, err
	}

	passages := make([]entity.RetrievedPassage, 0, len(hits))
	for _, h := range hits {
		if h == nil {
			continue
		}
		passages = append(passages, entity.RetrievedPassage{
			Book:    h.Book,
			Chapter: h.Chapter,
			Verse:   h.Verse,
			Content: h.Content,
			Context: h.Context,
			Score:   1 / (1 + float64(h.Distance)),
		})
	}

	logger.Debug(ctx, "retrieved passages", "query", query, "count", len(passages))
	return passages, nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if r.embedder == nil {
		return nil, ErrEmbedderDisabled
	}
	v64, err := r.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(v64) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	vec := v64[0]
	out := make([]float32, 0, len(vec))
	for _, x := range vec {
		out = append(out, float32(x))
	}
	return out, nil
}
