// Package dto 提供 HTTP 层数据传输对象
package dto

// SearchRequest 检索调试请求
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchResponse 检索调试响应
type SearchResponse struct {
	Query    string            `json:"query"`
	Passages []PassageResponse `json:"passages"`
	Count    int               `json:"count"`
}

// IndexStatusResponse 索引状态响应
type IndexStatusResponse struct {
	Collection string `json:"collection"`
	State      string `json:"state"`
	Verses     int64  `json:"verses"`
	Ready      bool   `json:"ready"`
}

// RebuildRequest 索引重建请求
type RebuildRequest struct {
	Force bool `json:"force,omitempty"`
}

// RebuildResponse 索引重建响应
type RebuildResponse struct {
	Collection string `json:"collection"`
	Indexed    int    `json:"indexed"`
	Reused     bool   `json:"reused"`
}
