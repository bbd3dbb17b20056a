package memory

import (
	"context"
	"errors"
	"testing"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

func (f *fakeEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

type fakeStore struct {
	added    []string
	snippets []Snippet
	err      error
}

func (f *fakeStore) Add(ctx context.Context, personaID, humanID, content string, embedding []float32) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, content)
	return nil
}

func (f *fakeStore) SearchSimilar(ctx context.Context, personaID, humanID string, embedding []float32, topK int, threshold float64) ([]Snippet, error) {
	return f.snippets, f.err
}

func TestRecordAndRecall(t *testing.T) {
	st := &fakeStore{snippets: []Snippet{
		{Content: "le gusta el cafe", Similarity: 0.91},
		{Content: "trabaja de noche", Similarity: 0.82},
	}}
	svc := NewService(&fakeEmbedder{vec: []float32{0.1, 0.2}}, st, 5, 0.7)

	if err := svc.Record(context.Background(), "luna", "h1", "human: hola / persona: wena"); err != nil {
		t.Fatalf("expected record to succeed, got %v", err)
	}
	if len(st.added) != 1 {
		t.Fatalf("expected 1 stored memory, got %d", len(st.added))
	}

	got := svc.Recall(context.Background(), "luna", "h1", "que cuentas")
	if len(got) != 2 || got[0] != "le gusta el cafe" {
		t.Fatalf("unexpected recall result %v", got)
	}
}

func TestRecordSkipsEmptyContent(t *testing.T) {
	st := &fakeStore{}
	svc := NewService(&fakeEmbedder{vec: []float32{0.1}}, st, 5, 0.7)

	if err := svc.Record(context.Background(), "luna", "h1", ""); err != nil {
		t.Fatalf("expected empty content ignored, got %v", err)
	}
	if len(st.added) != 0 {
		t.Fatal("empty content must not be stored")
	}
}

func TestRecordEmbedFailure(t *testing.T) {
	svc := NewService(&fakeEmbedder{err: errors.New("quota")}, &fakeStore{}, 5, 0.7)
	if err := svc.Record(context.Background(), "luna", "h1", "algo"); err == nil {
		t.Fatal("expected embed failure surfaced")
	}
}

func TestRecallFailureReturnsNothing(t *testing.T) {
	svc := NewService(&fakeEmbedder{vec: []float32{0.1}}, &fakeStore{err: errors.New("db down")}, 5, 0.7)
	if got := svc.Recall(context.Background(), "luna", "h1", "algo"); got != nil {
		t.Fatalf("expected nil on search failure, got %v", got)
	}
}

func TestNilServiceIsSafe(t *testing.T) {
	var svc *Service
	if err := svc.Record(context.Background(), "luna", "h1", "algo"); err != nil {
		t.Fatalf("nil service Record must be a no-op, got %v", err)
	}
	svc.RecordAsync(context.Background(), "luna", "h1", "algo")
	if got := svc.Recall(context.Background(), "luna", "h1", "algo"); got != nil {
		t.Fatalf("nil service Recall must return nothing, got %v", got)
	}
}
