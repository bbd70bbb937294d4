// Package corpus 提供语料加载与上下文窗口构建
package corpus

import (
	"encoding/json"
	"fmt"
	"os"

	"scripture-qa-api/internal/domain/entity"
)

// Loader 从 JSON 文件加载经文语料
type Loader struct {
	path   string
	source string
}

// NewLoader 创建语料加载器
func NewLoader(path, source string) *Loader {
	return &Loader{path: path, source: source}
}

// Load 读取并解析语料文件
// 文件为经文对象数组；文件缺失或格式非法时返回错误
func (l *Loader) Load() ([]entity.Verse, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file %s: %w", l.path, err)
	}

	var verses []entity.Verse
	if err := json.Unmarshal(raw, &verses); err != nil {
		return nil, fmt.Errorf("parse corpus file %s: %w", l.path, err)
	}

	for i := range verses {
		if verses[i].Source == "" {
			verses[i].Source = l.source
		}
		if verses[i].Book == "" || verses[i].Chapter == "" || verses[i].Verse == "" {
			return nil, fmt.Errorf("corpus record %d missing book/chapter/verse", i)
		}
	}
	return verses, nil
}
