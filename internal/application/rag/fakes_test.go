package rag

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// fakeEmbedder 返回固定维度的递增向量，并记录嵌入过的文本
type fakeEmbedder struct {
	calls [][]string
	err   error
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, append([]string(nil), texts...))
	out := make([][]float64, 0, len(texts))
	for i := range texts {
		out = append(out, []float64{float64(i), 1, 2})
	}
	return out, nil
}

// fakeChatModel 按序返回预置应答
type fakeChatModel struct {
	responses []string
	errs      []error
	calls     [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	idx := len(f.calls)
	f.calls = append(f.calls, input)
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if idx >= len(f.responses) {
		return nil, fmt.Errorf("unexpected llm call %d", idx)
	}
	return schema.AssistantMessage(f.responses[idx], nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("stream not supported")
}

type fakeFactory struct {
	model model.BaseChatModel
	err   error
}

func (f *fakeFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.model, nil
}

// fakeStore 内存向量存储
type fakeStore struct {
	state    IndexState
	resets   int
	inserts  [][]*VerseRecord
	finished int
	hits     []*SearchHit

	probeErr  error
	resetErr  error
	insertErr error
	searchErr error
}

func (f *fakeStore) Probe(ctx context.Context) (IndexState, error) {
	if f.probeErr != nil {
		return IndexAbsent, f.probeErr
	}
	return f.state, nil
}

func (f *fakeStore) Reset(ctx context.Context) error {
	if f.resetErr != nil {
		return f.resetErr
	}
	f.resets++
	f.inserts = nil
	return nil
}

func (f *fakeStore) Insert(ctx context.Context, records []*VerseRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts = append(f.inserts, records)
	return nil
}

func (f *fakeStore) Finalize(ctx context.Context) error {
	f.finished++
	return nil
}

func (f *fakeStore) Search(ctx context.Context, vector []float32, topK int) ([]*SearchHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.hits) > topK {
		return f.hits[:topK], nil
	}
	return f.hits, nil
}

func (f *fakeStore) Count(ctx context.Context) (int64, error) {
	total := int64(0)
	for _, batch := range f.inserts {
		total += int64(len(batch))
	}
	return total, nil
}
