// Package entity 定义领域实体
package entity

import "fmt"

// Verse 语料中的一节经文
// 身份由 (Book, Chapter, Verse) 三元组决定
type Verse struct {
	Source  string `json:"source"`
	Book    string `json:"book"`
	Chapter string `json:"chapter"`
	Verse   string `json:"verse"`
	Content string `json:"content"`
}

// ID 返回索引记录主键 <book>_<chapter>_<verse>
// 重复身份的经文写入同一主键，后写覆盖先写
func (v Verse) ID() string {
	return fmt.Sprintf("%s_%s_%s", v.Book, v.Chapter, v.Verse)
}

// Reference 返回 "Book chapter:verse" 形式的引用
func (v Verse) Reference() string {
	return fmt.Sprintf("%s %s:%s", v.Book, v.Chapter, v.Verse)
}

// VerseContext 带上下文窗口的经文，仅在索引构建期间存在
// Context 为同章内窗口经文正文按顺序以空格连接的文本
type VerseContext struct {
	Book    string `json:"book"`
	Chapter string `json:"chapter"`
	Verse   string `json:"verse"`
	Content string `json:"content"`
	Context string `json:"context"`
}

// ID 返回索引记录主键 <book>_<chapter>_<verse>
func (v VerseContext) ID() string {
	return fmt.Sprintf("%s_%s_%s", v.Book, v.Chapter, v.Verse)
}

// RetrievedPassage 检索命中的段落
// Score = 1/(1+distance)，距离非负时落在 (0,1]
type RetrievedPassage struct {
	Book    string  `json:"book"`
	Chapter string  `json:"chapter"`
	Verse   string  `json:"verse"`
	Content string  `json:"content"`
	Context string  `json:"context"`
	Score   float64 `json:"score"`
}

// Reference 返回 "Book chapter:verse" 形式的引用
func (p RetrievedPassage) Reference() string {
	return fmt.Sprintf("%s %s:%s", p.Book, p.Chapter, p.Verse)
}
