package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"scripture-qa-api/internal/application/rag/prompt"
	"scripture-qa-api/internal/domain/entity"
	"scripture-qa-api/pkg/metrics"
)

func newTestGenerator(chat *fakeChatModel) *Generator {
	return NewGenerator(&fakeFactory{model: chat}, prompt.NewRegistry(), GeneratorConfig{
		Temperature: 0.7,
		MaxTokens:   500,
	})
}

func TestGeneratorGroundedPrompt(t *testing.T) {
	chat := &fakeChatModel{responses: []string{"God created the heaven and the earth (Genesis 1:1)."}}
	g := newTestGenerator(chat)

	passages := []entity.RetrievedPassage{
		{Book: "genesis", Chapter: "1", Verse: "1", Content: "In the beginning God created the heaven and the earth.", Score: 0.9},
		{Book: "john", Chapter: "1", Verse: "3", Content: "All things were made by him.", Score: 0.8},
	}

	answer, err := g.Generate(context.Background(), "How did the world begin?", passages, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if answer != "God created the heaven and the earth (Genesis 1:1)." {
		t.Errorf("answer = %q, want model output verbatim", answer)
	}

	msgs := chat.calls[0]
	if msgs[0].Role != schema.System {
		t.Fatalf("first message role = %s, want system", msgs[0].Role)
	}
	sys := msgs[0].Content
	if !strings.Contains(sys, "Genesis 1:1 - In the beginning God created the heaven and the earth.") {
		t.Errorf("system prompt missing passage block:\n%s", sys)
	}
	if !strings.Contains(sys, "John 1:3 - All things were made by him.") {
		t.Errorf("system prompt missing second passage:\n%s", sys)
	}
	if !strings.Contains(sys, "cite specific verse references") {
		t.Errorf("system prompt missing citation guideline:\n%s", sys)
	}
}

func TestGeneratorPlainPromptWithoutPassages(t *testing.T) {
	chat := &fakeChatModel{responses: []string{"You're welcome."}}
	g := newTestGenerator(chat)

	if _, err := g.Generate(context.Background(), "Thanks!", nil, nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	sys := chat.calls[0][0].Content
	if !strings.Contains(sys, "No specific verses were retrieved") {
		t.Errorf("system prompt is not the no-retrieval branch:\n%s", sys)
	}
	if strings.Contains(sys, "{passages}") {
		t.Errorf("unrendered placeholder in system prompt:\n%s", sys)
	}
}

func TestGeneratorMessageOrder(t *testing.T) {
	chat := &fakeChatModel{responses: []string{"answer"}}
	g := newTestGenerator(chat)

	history := []HistoryMessage{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
	}
	if _, err := g.Generate(context.Background(), "second question", nil, history); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	msgs := chat.calls[0]
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	if msgs[1].Role != schema.User || msgs[1].Content != "first question" {
		t.Errorf("history user turn misplaced: %+v", msgs[1])
	}
	if msgs[2].Role != schema.Assistant || msgs[2].Content != "first answer" {
		t.Errorf("history assistant turn misplaced: %+v", msgs[2])
	}
	if msgs[3].Role != schema.User || msgs[3].Content != "second question" {
		t.Errorf("current query must be the last message: %+v", msgs[3])
	}
}

func TestGeneratorEmptyQuery(t *testing.T) {
	g := newTestGenerator(&fakeChatModel{})
	if _, err := g.Generate(context.Background(), "  ", nil, nil); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestGeneratorRecordsModelLabel(t *testing.T) {
	chat := &fakeChatModel{responses: []string{"answer"}}
	g := NewGenerator(&fakeFactory{model: chat}, prompt.NewRegistry(), GeneratorConfig{
		Provider: "openai",
		Model:    "gen-label-test-model",
	})

	if _, err := g.Generate(context.Background(), "How did the world begin?", nil, nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	got := testutil.ToFloat64(metrics.LLMCallTotal.WithLabelValues("openai", "gen-label-test-model", "success"))
	if got != 1 {
		t.Errorf("llm call counter for configured model = %v, want 1", got)
	}
}

func TestCapitalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"genesis", "Genesis"},
		{"Genesis", "Genesis"},
		{"1 kings", "1 kings"},
		{"éxodo", "Éxodo"},
		{"", ""},
	}
	for _, c := range cases {
		if got := capitalize(c.in); got != c.want {
			t.Errorf("capitalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatPassages(t *testing.T) {
	got := formatPassages([]entity.RetrievedPassage{
		{Book: "psalms", Chapter: "23", Verse: "1", Content: "The LORD is my shepherd."},
	})
	want := "Psalms 23:1 - The LORD is my shepherd."
	if got != want {
		t.Errorf("formatPassages = %q, want %q", got, want)
	}
}
