package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"scripture-qa-api/internal/application/rag/prompt"
)

func newTestAnalyzer(chat *fakeChatModel, enabled bool) *Analyzer {
	return NewAnalyzer(&fakeFactory{model: chat}, prompt.NewRegistry(), AnalyzerConfig{
		Enabled:         enabled,
		ContextMessages: 5,
		Temperature:     0.3,
	})
}

func TestAnalyzerDisabledPassthrough(t *testing.T) {
	chat := &fakeChatModel{}
	a := newTestAnalyzer(chat, false)

	d := a.Analyze(context.Background(), "What is the Garden of Eden?", nil)
	if !d.NeedsRetrieval {
		t.Error("disabled analyzer must keep retrieval on")
	}
	if d.RewrittenQuery != "What is the Garden of Eden?" {
		t.Errorf("rewritten = %q, want original query", d.RewrittenQuery)
	}
	if d.Source != DecisionSourcePassthrough {
		t.Errorf("source = %s, want passthrough", d.Source)
	}
	if len(chat.calls) != 0 {
		t.Errorf("disabled analyzer made %d llm calls", len(chat.calls))
	}
}

func TestAnalyzerModelDecision(t *testing.T) {
	chat := &fakeChatModel{responses: []string{
		`{"needs_retrieval": true, "rewritten_query": "Explain the Garden of Eden in more detail", "reasoning": "follow-up"}`,
	}}
	a := newTestAnalyzer(chat, true)

	d := a.Analyze(context.Background(), "Can you explain that more?", []HistoryMessage{
		{Role: "user", Content: "What is the Garden of Eden?"},
		{Role: "assistant", Content: "The Garden of Eden is..."},
	})
	if !d.NeedsRetrieval {
		t.Error("needs_retrieval = false, want true")
	}
	if d.RewrittenQuery != "Explain the Garden of Eden in more detail" {
		t.Errorf("rewritten = %q", d.RewrittenQuery)
	}
	if d.Source != DecisionSourceModel {
		t.Errorf("source = %s, want model", d.Source)
	}
}

func TestAnalyzerNoRetrievalDecision(t *testing.T) {
	chat := &fakeChatModel{responses: []string{
		`{"needs_retrieval": false, "rewritten_query": null, "reasoning": "social pleasantry"}`,
	}}
	a := newTestAnalyzer(chat, true)

	d := a.Analyze(context.Background(), "Thank you!", nil)
	if d.NeedsRetrieval {
		t.Error("needs_retrieval = true, want false")
	}
	// null 改写回退为原始查询
	if d.RewrittenQuery != "Thank you!" {
		t.Errorf("rewritten = %q, want original query", d.RewrittenQuery)
	}
	if d.Source != DecisionSourceModel {
		t.Errorf("source = %s, want model", d.Source)
	}
}

func TestAnalyzerExtractsWrappedJSON(t *testing.T) {
	chat := &fakeChatModel{responses: []string{
		"Here is my analysis:\n```json\n{\"needs_retrieval\": true, \"rewritten_query\": \"What does Genesis say about creation?\", \"reasoning\": \"ok\"}\n```",
	}}
	a := newTestAnalyzer(chat, true)

	d := a.Analyze(context.Background(), "what about creation", nil)
	if d.Source != DecisionSourceModel {
		t.Fatalf("source = %s, want model (reasoning: %s)", d.Source, d.Reasoning)
	}
	if d.RewrittenQuery != "What does Genesis say about creation?" {
		t.Errorf("rewritten = %q", d.RewrittenQuery)
	}
}

func TestAnalyzerFailsOpenOnModelError(t *testing.T) {
	callErr := errors.New("provider timeout")
	chat := &fakeChatModel{errs: []error{callErr}}
	a := newTestAnalyzer(chat, true)

	d := a.Analyze(context.Background(), "What is grace?", nil)
	if !d.NeedsRetrieval {
		t.Error("fallback must keep retrieval on")
	}
	if d.RewrittenQuery != "What is grace?" {
		t.Errorf("fallback rewritten = %q, want original", d.RewrittenQuery)
	}
	if d.Source != DecisionSourceFallback {
		t.Errorf("source = %s, want fallback", d.Source)
	}
	if !strings.Contains(d.Reasoning, "provider timeout") {
		t.Errorf("reasoning %q does not record the error", d.Reasoning)
	}
}

func TestAnalyzerFailsOpenOnGarbageOutput(t *testing.T) {
	chat := &fakeChatModel{responses: []string{"I think you should search the Bible."}}
	a := newTestAnalyzer(chat, true)

	d := a.Analyze(context.Background(), "What is grace?", nil)
	if !d.NeedsRetrieval || d.Source != DecisionSourceFallback {
		t.Errorf("decision = %+v, want fail-open fallback", d)
	}
}

func TestAnalyzerSchemaFallback(t *testing.T) {
	// 第一次调用报 response_format 不支持，应重试并成功
	chat := &fakeChatModel{
		errs: []error{errors.New("unknown parameter: response_format")},
		responses: []string{
			"",
			`{"needs_retrieval": true, "rewritten_query": "What is faith?", "reasoning": "ok"}`,
		},
	}
	a := newTestAnalyzer(chat, true)

	d := a.Analyze(context.Background(), "what is faith", nil)
	if d.Source != DecisionSourceModel {
		t.Fatalf("source = %s, want model after schema fallback (reasoning: %s)", d.Source, d.Reasoning)
	}
	if len(chat.calls) != 2 {
		t.Errorf("llm calls = %d, want 2", len(chat.calls))
	}
}

func TestBuildTranscript(t *testing.T) {
	history := []HistoryMessage{
		{Role: "user", Content: "a"},
		{Role: "assistant", Content: "b"},
		{Role: "user", Content: "c"},
	}
	got := buildTranscript(history, 2)
	want := "assistant: b\nuser: c"
	if got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
	if buildTranscript(nil, 5) != "No previous context" {
		t.Error("empty history placeholder missing")
	}
}
