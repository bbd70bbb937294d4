// Package rag 实现检索增强问答管线：查询分析、向量检索、答案生成与索引构建
package rag

// IndexState 向量集合探测结果
type IndexState int

const (
	// IndexAbsent 集合不存在
	IndexAbsent IndexState = iota
	// IndexEmpty 集合存在但没有任何记录
	IndexEmpty
	// IndexReady 集合存在且包含记录，可直接复用
	IndexReady
)

func (s IndexState) String() string {
	switch s {
	case IndexAbsent:
		return "absent"
	case IndexEmpty:
		return "empty"
	case IndexReady:
		return "ready"
	default:
		return "unknown"
	}
}

// DecisionSource 标记查询分析结论的来源
type DecisionSource string

const (
	// DecisionSourcePassthrough 改写功能关闭，原样放行
	DecisionSourcePassthrough DecisionSource = "passthrough"
	// DecisionSourceModel 模型输出解析成功
	DecisionSourceModel DecisionSource = "model"
	// DecisionSourceFallback 模型调用或解析失败后的兜底放行
	DecisionSourceFallback DecisionSource = "fallback"
)

// QueryDecision 查询分析结论
type QueryDecision struct {
	NeedsRetrieval bool           `json:"needs_retrieval"`
	RewrittenQuery string         `json:"rewritten_query"`
	Reasoning      string         `json:"reasoning"`
	Source         DecisionSource `json:"source"`
}

// VerseRecord 待写入向量存储的一条经文记录
type VerseRecord struct {
	ID      string
	Book    string
	Chapter string
	Verse   string
	Content string
	Context string
	Vector  []float32
}

// SearchHit 向量存储返回的原始命中，Distance 为度量距离（L2 下非负）
type SearchHit struct {
	Book     string
	Chapter  string
	Verse    string
	Content  string
	Context  string
	Distance float32
}

// HistoryMessage 会话历史中的一条消息
type HistoryMessage struct {
	Role    string
	Content string
}
