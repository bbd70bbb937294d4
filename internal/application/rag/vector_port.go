package rag

import "context"

// VectorStore 定义应用层对向量存储的最小依赖（port）
// 由基础设施层提供具体实现（例如 Milvus）
type VectorStore interface {
	// Probe 探测集合状态：不存在 / 存在但为空 / 存在且有数据
	Probe(ctx context.Context) (IndexState, error)
	// Reset 删除并重建集合与索引，集合不存在时删除步骤静默跳过
	Reset(ctx context.Context) error
	// Insert 批量写入记录，由调用方控制批大小
	Insert(ctx context.Context, records []*VerseRecord) error
	// Finalize 在全部写入后刷新并加载集合
	Finalize(ctx context.Context) error
	// Search 按向量检索至多 topK 条命中，按距离升序返回
	Search(ctx context.Context, vector []float32, topK int) ([]*SearchHit, error)
	// Count 返回集合当前记录数
	Count(ctx context.Context) (int64, error)
}
