package corpus

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"scripture-qa-api/internal/domain/entity"
)

type chapterKey struct {
	book    string
	chapter string
}

// BuildContexts 为每节经文构建对称上下文窗口
// 按 (book, chapter) 分组并按节号数值排序，窗口为同章内前后各 window 节，
// 越界时在章边界截断，不跨章取文。节号无法解析为整数视为输入错误。
func BuildContexts(verses []entity.Verse, window int) ([]entity.VerseContext, error) {
	if window < 0 {
		window = 0
	}

	grouped := make(map[chapterKey][]entity.Verse)
	order := make([]chapterKey, 0)
	for _, v := range verses {
		key := chapterKey{book: v.Book, chapter: v.Chapter}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], v)
	}

	out := make([]entity.VerseContext, 0, len(verses))
	for _, key := range order {
		chapter := grouped[key]
		var sortErr error
		sort.SliceStable(chapter, func(i, j int) bool {
			a, errA := strconv.Atoi(chapter[i].Verse)
			b, errB := strconv.Atoi(chapter[j].Verse)
			if errA != nil && sortErr == nil {
				sortErr = fmt.Errorf("non-numeric verse %q in %s %s", chapter[i].Verse, key.book, key.chapter)
			}
			if errB != nil && sortErr == nil {
				sortErr = fmt.Errorf("non-numeric verse %q in %s %s", chapter[j].Verse, key.book, key.chapter)
			}
			return a < b
		})
		if sortErr == nil {
			// 单节的章不会进入比较函数，单独校验
			for _, v := range chapter {
				if _, err := strconv.Atoi(v.Verse); err != nil {
					sortErr = fmt.Errorf("non-numeric verse %q in %s %s", v.Verse, key.book, key.chapter)
					break
				}
			}
		}
		if sortErr != nil {
			return nil, sortErr
		}

		for i, v := range chapter {
			start := i - window
			if start < 0 {
				start = 0
			}
			end := i + window + 1
			if end > len(chapter) {
				end = len(chapter)
			}

			parts := make([]string, 0, end-start)
			for _, w := range chapter[start:end] {
				parts = append(parts, w.Content)
			}

			out = append(out, entity.VerseContext{
				Book:    v.Book,
				Chapter: v.Chapter,
				Verse:   v.Verse,
				Content: v.Content,
				Context: strings.Join(parts, " "),
			})
		}
	}
	return out, nil
}
