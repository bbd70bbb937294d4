package corpus

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeCorpus(t, `[
		{"source":"KJV","book":"Genesis","chapter":"1","verse":"1","content":"In the beginning"},
		{"book":"Genesis","chapter":"1","verse":"2","content":"And the earth"}
	]`)

	verses, err := NewLoader(path, "KJV").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(verses) != 2 {
		t.Fatalf("got %d verses, want 2", len(verses))
	}
	if verses[1].Source != "KJV" {
		t.Errorf("missing source not filled, got %q", verses[1].Source)
	}
	if verses[0].ID() != "Genesis_1_1" {
		t.Errorf("verse id = %q, want Genesis_1_1", verses[0].ID())
	}
}

func TestLoaderMissingFile(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "absent.json"), "KJV").Load(); err == nil {
		t.Fatal("expected error for missing corpus file")
	}
}

func TestLoaderMalformedJSON(t *testing.T) {
	path := writeCorpus(t, `{"not":"an array"`)
	if _, err := NewLoader(path, "KJV").Load(); err == nil {
		t.Fatal("expected error for malformed corpus file")
	}
}

func TestLoaderIncompleteRecord(t *testing.T) {
	path := writeCorpus(t, `[{"book":"Genesis","verse":"1","content":"x"}]`)
	if _, err := NewLoader(path, "KJV").Load(); err == nil {
		t.Fatal("expected error for record missing chapter")
	}
}
