package rag

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestRetrieverNotReady(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeStore{}, 5)
	if _, err := r.Retrieve(context.Background(), "what is love"); !errors.Is(err, ErrIndexNotReady) {
		t.Fatalf("err = %v, want ErrIndexNotReady", err)
	}
}

func TestRetrieverScoreFromDistance(t *testing.T) {
	store := &fakeStore{hits: []*SearchHit{
		{Book: "1john", Chapter: "4", Verse: "8", Content: "God is love", Distance: 0},
		{Book: "john", Chapter: "3", Verse: "16", Content: "For God so loved", Distance: 1},
		{Book: "genesis", Chapter: "1", Verse: "1", Content: "In the beginning", Distance: 3},
	}}
	r := NewRetriever(&fakeEmbedder{}, store, 5)
	r.MarkReady()

	passages, err := r.Retrieve(context.Background(), "what is love")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(passages) != 3 {
		t.Fatalf("got %d passages, want 3", len(passages))
	}

	wantScores := []float64{1, 0.5, 0.25}
	for i, want := range wantScores {
		if math.Abs(passages[i].Score-want) > 1e-9 {
			t.Errorf("passage %d score = %v, want %v", i, passages[i].Score, want)
		}
	}
	// 保持存储返回的原始次序
	if passages[0].Reference() != "1john 4:8" {
		t.Errorf("first passage = %s, want 1john 4:8", passages[0].Reference())
	}
}

func TestRetrieverFewerThanTopK(t *testing.T) {
	store := &fakeStore{hits: []*SearchHit{{Book: "john", Chapter: "1", Verse: "1", Distance: 0.5}}}
	r := NewRetriever(&fakeEmbedder{}, store, 10)
	r.MarkReady()

	passages, err := r.Retrieve(context.Background(), "word")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(passages) != 1 {
		t.Errorf("got %d passages, want 1", len(passages))
	}
}

func TestRetrieverEmptyQuery(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeStore{}, 5)
	r.MarkReady()
	if _, err := r.Retrieve(context.Background(), "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestRetrieverEmbedderError(t *testing.T) {
	embErr := errors.New("embedding service down")
	r := NewRetriever(&fakeEmbedder{err: embErr}, &fakeStore{}, 5)
	r.MarkReady()
	if _, err := r.Retrieve(context.Background(), "query"); !errors.Is(err, embErr) {
		t.Fatalf("err = %v, want embedder error propagated", err)
	}
}

func TestRetrieverSearchError(t *testing.T) {
	searchErr := errors.New("collection unavailable")
	r := NewRetriever(&fakeEmbedder{}, &fakeStore{searchErr: searchErr}, 5)
	r.MarkReady()
	if _, err := r.Retrieve(context.Background(), "query"); !errors.Is(err, searchErr) {
		t.Fatalf("err = %v, want store error propagated", err)
	}
}
