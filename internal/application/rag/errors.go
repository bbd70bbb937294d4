package rag

import "errors"

var (
	// ErrIndexNotReady 表示向量索引尚未探测或尚未就绪，检索属于调用方用法错误
	ErrIndexNotReady = errors.New("vector index not ready")
	// ErrEmbedderDisabled 表示 Embedder 未配置
	ErrEmbedderDisabled = errors.New("embedder is not configured")
	// ErrEmptyQuery 表示检索查询为空
	ErrEmptyQuery = errors.New("query is empty")
)
