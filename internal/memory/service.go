package memory

import (
	"context"
	"fmt"
	"log/slog"
)

// Service records exchanges between a persona and a human and recalls the
// most relevant ones later. Recording is best-effort: a failure is logged
// and never blocks a send.
type Service struct {
	embedder  Embedder
	store     Store
	topK      int
	threshold float64
}

// NewService returns a memory Service.
func NewService(embedder Embedder, store Store, topK int, threshold float64) *Service {
	if topK <= 0 {
		topK = 5
	}
	if threshold <= 0 {
		threshold = 0.7
	}
	return &Service{
		embedder:  embedder,
		store:     store,
		topK:      topK,
		threshold: threshold,
	}
}

// Record stores one exchange line for later recall.
func (s *Service) Record(ctx context.Context, personaID, humanID, content string) error {
	if s == nil || s.embedder == nil || s.store == nil {
		return nil
	}
	if content == "" {
		return nil
	}
	embedding, err := s.embedder.EmbedDocument(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to embed memory: %w", err)
	}
	if err := s.store.Add(ctx, personaID, humanID, content, embedding); err != nil {
		return fmt.Errorf("failed to store memory: %w", err)
	}
	return nil
}

// RecordAsync records in the background; errors are logged only.
func (s *Service) RecordAsync(ctx context.Context, personaID, humanID, content string) {
	if s == nil || s.embedder == nil || s.store == nil {
		return
	}
	go func() {
		if err := s.Record(ctx, personaID, humanID, content); err != nil {
			slog.Warn("failed to record memory", "persona", personaID, "error", err)
		}
	}()
}

// Recall returns the memory snippets most relevant to the query text.
func (s *Service) Recall(ctx context.Context, personaID, humanID, query string) []string {
	if s == nil || s.embedder == nil || s.store == nil {
		return nil
	}
	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		slog.Warn("failed to embed recall query", "persona", personaID, "error", err)
		return nil
	}
	snippets, err := s.store.SearchSimilar(ctx, personaID, humanID, embedding, s.topK, s.threshold)
	if err != nil {
		slog.Warn("failed to search memories", "persona", personaID, "error", err)
		return nil
	}
	out := make([]string, 0, len(snippets))
	for _, snip := range snippets {
		out = append(out, snip.Content)
	}
	return out
}
