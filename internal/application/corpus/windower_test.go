package corpus

import (
	"testing"

	"scripture-qa-api/internal/domain/entity"
)

func verse(book, chapter, num, content string) entity.Verse {
	return entity.Verse{Source: "KJV", Book: book, Chapter: chapter, Verse: num, Content: content}
}

func findContext(t *testing.T, out []entity.VerseContext, book, chapter, num string) entity.VerseContext {
	t.Helper()
	for _, vc := range out {
		if vc.Book == book && vc.Chapter == chapter && vc.Verse == num {
			return vc
		}
	}
	t.Fatalf("no context for %s %s:%s", book, chapter, num)
	return entity.VerseContext{}
}

func TestBuildContextsMiddleVerse(t *testing.T) {
	verses := []entity.Verse{
		verse("Genesis", "1", "1", "a"),
		verse("Genesis", "1", "2", "b"),
		verse("Genesis", "1", "3", "c"),
		verse("Genesis", "1", "4", "d"),
		verse("Genesis", "1", "5", "e"),
	}

	out, err := BuildContexts(verses, 2)
	if err != nil {
		t.Fatalf("BuildContexts: %v", err)
	}
	if len(out) != len(verses) {
		t.Fatalf("got %d contexts, want %d", len(out), len(verses))
	}

	got := findContext(t, out, "Genesis", "1", "3")
	if got.Context != "a b c d e" {
		t.Errorf("middle verse context = %q, want %q", got.Context, "a b c d e")
	}
	if got.Content != "c" {
		t.Errorf("middle verse content = %q, want %q", got.Content, "c")
	}
}

func TestBuildContextsChapterEdges(t *testing.T) {
	verses := []entity.Verse{
		verse("Genesis", "1", "1", "a"),
		verse("Genesis", "1", "2", "b"),
		verse("Genesis", "1", "3", "c"),
		verse("Genesis", "1", "4", "d"),
	}

	out, err := BuildContexts(verses, 2)
	if err != nil {
		t.Fatalf("BuildContexts: %v", err)
	}

	first := findContext(t, out, "Genesis", "1", "1")
	if first.Context != "a b c" {
		t.Errorf("first verse context = %q, want %q", first.Context, "a b c")
	}
	last := findContext(t, out, "Genesis", "1", "4")
	if last.Context != "b c d" {
		t.Errorf("last verse context = %q, want %q", last.Context, "b c d")
	}
}

func TestBuildContextsNoCrossChapterBleed(t *testing.T) {
	verses := []entity.Verse{
		verse("Genesis", "1", "1", "g1a"),
		verse("Genesis", "1", "2", "g1b"),
		verse("Genesis", "2", "1", "g2a"),
		verse("Genesis", "2", "2", "g2b"),
		verse("Exodus", "1", "1", "e1a"),
	}

	out, err := BuildContexts(verses, 3)
	if err != nil {
		t.Fatalf("BuildContexts: %v", err)
	}

	got := findContext(t, out, "Genesis", "1", "2")
	if got.Context != "g1a g1b" {
		t.Errorf("context bled across chapters: %q", got.Context)
	}
	got = findContext(t, out, "Exodus", "1", "1")
	if got.Context != "e1a" {
		t.Errorf("context bled across books: %q", got.Context)
	}
}

func TestBuildContextsNumericSort(t *testing.T) {
	// 字典序会把 10 排在 2 前面，必须按数值排序
	verses := []entity.Verse{
		verse("Psalms", "1", "10", "j"),
		verse("Psalms", "1", "2", "b"),
		verse("Psalms", "1", "1", "a"),
	}

	out, err := BuildContexts(verses, 1)
	if err != nil {
		t.Fatalf("BuildContexts: %v", err)
	}

	got := findContext(t, out, "Psalms", "1", "2")
	if got.Context != "a b j" {
		t.Errorf("sort order wrong, context = %q, want %q", got.Context, "a b j")
	}
}

func TestBuildContextsZeroWindow(t *testing.T) {
	verses := []entity.Verse{
		verse("John", "3", "16", "x"),
		verse("John", "3", "17", "y"),
	}

	out, err := BuildContexts(verses, 0)
	if err != nil {
		t.Fatalf("BuildContexts: %v", err)
	}
	got := findContext(t, out, "John", "3", "16")
	if got.Context != "x" {
		t.Errorf("zero-window context = %q, want content only", got.Context)
	}
}

func TestBuildContextsNonNumericVerse(t *testing.T) {
	verses := []entity.Verse{
		verse("Genesis", "1", "1", "a"),
		verse("Genesis", "1", "x", "b"),
	}

	if _, err := BuildContexts(verses, 2); err == nil {
		t.Fatal("expected error for non-numeric verse number")
	}
}

func TestBuildContextsEmptyCorpus(t *testing.T) {
	out, err := BuildContexts(nil, 2)
	if err != nil {
		t.Fatalf("BuildContexts: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d contexts for empty corpus", len(out))
	}
}
