package prompt

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func TestChatTemplateQueryAnalysisFormats(t *testing.T) {
	r := NewRegistry()

	tpl, err := r.ChatTemplate(PromptQueryAnalysisV1)
	if err != nil {
		t.Fatalf("ChatTemplate: %v", err)
	}

	msgs, err := tpl.Format(context.Background(), map[string]any{
		"context": "user: What is the Garden of Eden?",
		"query":   "Can you explain that more?",
	})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want system + user", len(msgs))
	}
	if msgs[0].Role != schema.System {
		t.Errorf("msgs[0].Role = %s, want system", msgs[0].Role)
	}
	if !strings.Contains(msgs[0].Content, "needs_retrieval") {
		t.Error("system prompt missing needs_retrieval contract")
	}
	if msgs[1].Role != schema.User {
		t.Errorf("msgs[1].Role = %s, want user", msgs[1].Role)
	}
	if !strings.Contains(msgs[1].Content, "Can you explain that more?") {
		t.Errorf("user message missing query: %q", msgs[1].Content)
	}
	if !strings.Contains(msgs[1].Content, "Garden of Eden") {
		t.Errorf("user message missing transcript: %q", msgs[1].Content)
	}
}

func TestChatTemplateGroundedFormatsPassages(t *testing.T) {
	r := NewRegistry()

	tpl, err := r.ChatTemplate(PromptAnswerGroundedV1)
	if err != nil {
		t.Fatalf("ChatTemplate: %v", err)
	}

	passages := "Genesis 1:1 - In the beginning God created the heaven and the earth."
	msgs, err := tpl.Format(context.Background(), map[string]any{"passages": passages})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want single system message", len(msgs))
	}
	if msgs[0].Role != schema.System {
		t.Errorf("role = %s, want system", msgs[0].Role)
	}
	if !strings.Contains(msgs[0].Content, passages) {
		t.Error("passages placeholder not rendered into system prompt")
	}
}

func TestChatTemplatePlainHasNoPlaceholders(t *testing.T) {
	r := NewRegistry()

	tpl, err := r.ChatTemplate(PromptAnswerPlainV1)
	if err != nil {
		t.Fatalf("ChatTemplate: %v", err)
	}

	msgs, err := tpl.Format(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if strings.TrimSpace(msgs[0].Content) == "" {
		t.Error("plain system prompt is empty")
	}
}

func TestChatTemplateCachesTemplates(t *testing.T) {
	r := NewRegistry()

	first, err := r.ChatTemplate(PromptAnswerPlainV1)
	if err != nil {
		t.Fatalf("ChatTemplate: %v", err)
	}
	second, err := r.ChatTemplate(PromptAnswerPlainV1)
	if err != nil {
		t.Fatalf("ChatTemplate (cached): %v", err)
	}
	if first != second {
		t.Error("second lookup did not hit the cache")
	}
}

func TestChatTemplateUnknownID(t *testing.T) {
	r := NewRegistry()

	if _, err := r.ChatTemplate(PromptID("no_such_prompt")); err == nil {
		t.Error("unknown prompt id must error")
	}
}
