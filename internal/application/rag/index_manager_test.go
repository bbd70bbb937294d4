package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"scripture-qa-api/internal/domain/entity"
)

func verseContexts(n int) []entity.VerseContext {
	out := make([]entity.VerseContext, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, entity.VerseContext{
			Book:    "genesis",
			Chapter: "1",
			Verse:   fmt.Sprintf("%d", i+1),
			Content: fmt.Sprintf("verse %d", i+1),
			Context: fmt.Sprintf("context %d", i+1),
		})
	}
	return out
}

func TestRebuildBatching(t *testing.T) {
	store := &fakeStore{}
	emb := &fakeEmbedder{}
	m := NewIndexManager(emb, store, "kjv_bible", 100, 32)

	if err := m.Rebuild(context.Background(), verseContexts(250)); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	if store.resets != 1 {
		t.Errorf("resets = %d, want 1", store.resets)
	}
	if len(store.inserts) != 3 {
		t.Fatalf("insert batches = %d, want 3", len(store.inserts))
	}
	for i, want := range []int{100, 100, 50} {
		if len(store.inserts[i]) != want {
			t.Errorf("batch %d size = %d, want %d", i, len(store.inserts[i]), want)
		}
	}
	if store.finished != 1 {
		t.Errorf("finalize calls = %d, want 1", store.finished)
	}

	// 嵌入的是窗口文本而非单节正文
	if emb.calls[0][0] != "context 1" {
		t.Errorf("embedded %q, want the context text", emb.calls[0][0])
	}

	first := store.inserts[0][0]
	if first.ID != "genesis_1_1" {
		t.Errorf("record id = %q, want genesis_1_1", first.ID)
	}
	if len(first.Vector) == 0 {
		t.Error("record vector not populated")
	}
}

func TestEnsureIndexReusesReadyCollection(t *testing.T) {
	store := &fakeStore{state: IndexReady}
	emb := &fakeEmbedder{}
	m := NewIndexManager(emb, store, "kjv_bible", 100, 32)

	if err := m.EnsureIndex(context.Background(), verseContexts(10), false); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if store.resets != 0 {
		t.Error("ready collection must be reused without rebuild")
	}
	if len(emb.calls) != 0 {
		t.Error("ready collection must not be re-embedded")
	}
}

func TestEnsureIndexRebuildsEmptyCollection(t *testing.T) {
	store := &fakeStore{state: IndexEmpty}
	m := NewIndexManager(&fakeEmbedder{}, store, "kjv_bible", 100, 32)

	if err := m.EnsureIndex(context.Background(), verseContexts(10), false); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if store.resets != 1 {
		t.Error("empty collection must trigger a rebuild")
	}
}

func TestEnsureIndexForceRebuild(t *testing.T) {
	store := &fakeStore{state: IndexReady}
	m := NewIndexManager(&fakeEmbedder{}, store, "kjv_bible", 100, 32)

	if err := m.EnsureIndex(context.Background(), verseContexts(10), true); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if store.resets != 1 {
		t.Error("force must rebuild even a ready collection")
	}
}

func TestRebuildPropagatesEmbeddingError(t *testing.T) {
	embErr := errors.New("embedding service down")
	store := &fakeStore{}
	m := NewIndexManager(&fakeEmbedder{err: embErr}, store, "kjv_bible", 100, 32)

	if err := m.Rebuild(context.Background(), verseContexts(10)); !errors.Is(err, embErr) {
		t.Fatalf("err = %v, want embedding error propagated", err)
	}
	// 失败发生在 reset 之后，部分重建的缺口由再次强制重建恢复
	if store.resets != 1 {
		t.Errorf("resets = %d, want 1", store.resets)
	}
}

func TestRebuildPropagatesInsertError(t *testing.T) {
	insertErr := errors.New("milvus unavailable")
	store := &fakeStore{insertErr: insertErr}
	m := NewIndexManager(&fakeEmbedder{}, store, "kjv_bible", 100, 32)

	if err := m.Rebuild(context.Background(), verseContexts(10)); !errors.Is(err, insertErr) {
		t.Fatalf("err = %v, want insert error propagated", err)
	}
}
