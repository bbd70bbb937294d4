package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"scripture-qa-api/internal/application/rag"
	"scripture-qa-api/internal/application/rag/prompt"
	"scripture-qa-api/internal/domain/entity"
	"scripture-qa-api/internal/domain/repository"
)

type memConversationRepo struct {
	items map[string]*entity.Conversation
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{items: make(map[string]*entity.Conversation)}
}

func (r *memConversationRepo) Create(ctx context.Context, c *entity.Conversation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.items[c.ID] = c
	return nil
}

func (r *memConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s not found", id)
	}
	return c, nil
}

func (r *memConversationRepo) Update(ctx context.Context, c *entity.Conversation) error {
	r.items[c.ID] = c
	return nil
}

func (r *memConversationRepo) Delete(ctx context.Context, id string) error {
	delete(r.items, id)
	return nil
}

func (r *memConversationRepo) List(ctx context.Context, p repository.Pagination) (*repository.PagedResult[*entity.Conversation], error) {
	items := make([]*entity.Conversation, 0, len(r.items))
	for _, c := range r.items {
		items = append(items, c)
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

type memTurnRepo struct {
	turns []*entity.ConversationTurn
}

func (r *memTurnRepo) Create(ctx context.Context, t *entity.ConversationTurn) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	r.turns = append(r.turns, t)
	return nil
}

func (r *memTurnRepo) ListByConversation(ctx context.Context, conversationID string, p repository.Pagination) (*repository.PagedResult[*entity.ConversationTurn], error) {
	items := r.byConversation(conversationID)
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (r *memTurnRepo) ListRecent(ctx context.Context, conversationID string, limit int) ([]*entity.ConversationTurn, error) {
	items := r.byConversation(conversationID)
	if len(items) > limit {
		items = items[len(items)-limit:]
	}
	return items, nil
}

func (r *memTurnRepo) DeleteByConversation(ctx context.Context, conversationID string) error {
	kept := r.turns[:0]
	for _, t := range r.turns {
		if t.ConversationID != conversationID {
			kept = append(kept, t)
		}
	}
	r.turns = kept
	return nil
}

func (r *memTurnRepo) byConversation(conversationID string) []*entity.ConversationTurn {
	items := make([]*entity.ConversationTurn, 0)
	for _, t := range r.turns {
		if t.ConversationID == conversationID {
			items = append(items, t)
		}
	}
	return items
}

type noopTransactor struct{}

func (noopTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubEmbedder struct{}

func (stubEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for range texts {
		out = append(out, []float64{0.1, 0.2})
	}
	return out, nil
}

type stubStore struct {
	hits    []*rag.SearchHit
	queries int
}

func (s *stubStore) Probe(ctx context.Context) (rag.IndexState, error) { return rag.IndexReady, nil }
func (s *stubStore) Reset(ctx context.Context) error                   { return nil }
func (s *stubStore) Insert(ctx context.Context, records []*rag.VerseRecord) error {
	return nil
}
func (s *stubStore) Finalize(ctx context.Context) error { return nil }
func (s *stubStore) Search(ctx context.Context, vector []float32, topK int) ([]*rag.SearchHit, error) {
	s.queries++
	return s.hits, nil
}
func (s *stubStore) Count(ctx context.Context) (int64, error) { return int64(len(s.hits)), nil }

type stubChatModel struct {
	answer string
	calls  [][]*schema.Message
}

func (m *stubChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.calls = append(m.calls, input)
	return schema.AssistantMessage(m.answer, nil), nil
}

func (m *stubChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("stream not supported")
}

type stubFactory struct{ m model.BaseChatModel }

func (f stubFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	return f.m, nil
}

func newTestService(t *testing.T, store *stubStore, chatModel *stubChatModel) (*Service, *memConversationRepo, *memTurnRepo) {
	t.Helper()
	conversations := newMemConversationRepo()
	turns := &memTurnRepo{}
	registry := prompt.NewRegistry()
	factory := stubFactory{m: chatModel}

	// 改写关闭，分析结果为确定性的原样放行
	analyzer := rag.NewAnalyzer(factory, registry, rag.AnalyzerConfig{Enabled: false})
	retriever := rag.NewRetriever(stubEmbedder{}, store, 5)
	retriever.MarkReady()
	generator := rag.NewGenerator(factory, registry, rag.GeneratorConfig{Temperature: 0.7, MaxTokens: 500})

	svc := NewService(conversations, turns, noopTransactor{}, analyzer, retriever, generator, 10)
	return svc, conversations, turns
}

func TestChatCreatesConversationAndTurns(t *testing.T) {
	store := &stubStore{hits: []*rag.SearchHit{
		{Book: "genesis", Chapter: "1", Verse: "1", Content: "In the beginning", Distance: 0.2},
	}}
	chatModel := &stubChatModel{answer: "See Genesis 1:1."}
	svc, conversations, turns := newTestService(t, store, chatModel)

	out, err := svc.Chat(context.Background(), Input{Message: "How did the world begin?"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if out.ConversationID == "" {
		t.Fatal("conversation id not assigned")
	}
	if _, ok := conversations.items[out.ConversationID]; !ok {
		t.Fatal("conversation not persisted")
	}
	if len(turns.turns) != 2 {
		t.Fatalf("got %d turns, want user + assistant", len(turns.turns))
	}
	if turns.turns[0].Role != entity.RoleUser || turns.turns[1].Role != entity.RoleAssistant {
		t.Errorf("turn roles = %s, %s", turns.turns[0].Role, turns.turns[1].Role)
	}
	if out.Answer.Content != "See Genesis 1:1." {
		t.Errorf("answer = %q", out.Answer.Content)
	}
	if len(out.Passages) != 1 {
		t.Fatalf("got %d passages, want 1", len(out.Passages))
	}
	if len(turns.turns[1].CitedRefs) != 1 || turns.turns[1].CitedRefs[0] != "genesis 1:1" {
		t.Errorf("cited refs = %v", turns.turns[1].CitedRefs)
	}
	if out.Decision.Source != rag.DecisionSourcePassthrough {
		t.Errorf("decision source = %s", out.Decision.Source)
	}
}

func TestChatContinuesExistingConversation(t *testing.T) {
	store := &stubStore{}
	chatModel := &stubChatModel{answer: "answer two"}
	svc, _, turns := newTestService(t, store, chatModel)

	first, err := svc.Chat(context.Background(), Input{Message: "first question"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	second, err := svc.Chat(context.Background(), Input{
		ConversationID: first.ConversationID,
		Message:        "second question",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if second.ConversationID != first.ConversationID {
		t.Error("second turn opened a new conversation")
	}
	if len(turns.turns) != 4 {
		t.Fatalf("got %d turns, want 4", len(turns.turns))
	}

	// 第二轮生成时应携带第一轮历史，且当前消息只在末尾出现一次
	msgs := chatModel.calls[1]
	var currentCount int
	for _, m := range msgs {
		if m.Content == "second question" {
			currentCount++
		}
	}
	if currentCount != 1 {
		t.Errorf("current query appears %d times in prompt, want 1", currentCount)
	}
	if msgs[len(msgs)-1].Content != "second question" {
		t.Error("current query is not the last message")
	}
}

func TestChatUnknownConversation(t *testing.T) {
	svc, _, _ := newTestService(t, &stubStore{}, &stubChatModel{answer: "x"})
	if _, err := svc.Chat(context.Background(), Input{ConversationID: uuid.NewString(), Message: "hi"}); err == nil {
		t.Fatal("expected error for unknown conversation")
	}
}

func TestChatEmptyMessage(t *testing.T) {
	svc, _, _ := newTestService(t, &stubStore{}, &stubChatModel{answer: "x"})
	if _, err := svc.Chat(context.Background(), Input{Message: "  "}); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestDeleteConversationRemovesTurns(t *testing.T) {
	svc, conversations, turns := newTestService(t, &stubStore{}, &stubChatModel{answer: "x"})

	out, err := svc.Chat(context.Background(), Input{Message: "hello"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if err := svc.DeleteConversation(context.Background(), out.ConversationID); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if _, ok := conversations.items[out.ConversationID]; ok {
		t.Error("conversation not deleted")
	}
	if len(turns.turns) != 0 {
		t.Errorf("%d turns left after delete", len(turns.turns))
	}
}

func TestRenameConversation(t *testing.T) {
	svc, conversations, _ := newTestService(t, &stubStore{}, &stubChatModel{answer: "x"})

	out, err := svc.Chat(context.Background(), Input{Message: "hello"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if err := svc.RenameConversation(context.Background(), out.ConversationID, "My study"); err != nil {
		t.Fatalf("RenameConversation: %v", err)
	}
	if conversations.items[out.ConversationID].Title != "My study" {
		t.Errorf("title = %q", conversations.items[out.ConversationID].Title)
	}
	if err := svc.RenameConversation(context.Background(), out.ConversationID, "  "); err == nil {
		t.Error("expected error for empty title")
	}
}

func TestDeriveTitleTruncates(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "a"
	}
	title := deriveTitle(long)
	if len([]rune(title)) != maxTitleRunes+3 {
		t.Errorf("title length = %d", len([]rune(title)))
	}
	if deriveTitle("short") != "short" {
		t.Error("short message must stay untouched")
	}
}
