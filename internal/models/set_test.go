package models

import (
	"context"
	"testing"
	"time"

	"github.com/vozlabs/pulso/internal/types"
)

type stubProvider struct {
	name    string
	visible bool
}

func (p *stubProvider) Name() string  { return p.name }
func (p *stubProvider) Visible() bool { return p.visible }

func (p *stubProvider) Generate(ctx context.Context, prompt Prompt, profile types.SamplingProfile) (string, error) {
	return "", nil
}

func TestSetInOrder(t *testing.T) {
	s := NewSet(time.Second,
		&stubProvider{name: "gemini", visible: true},
		&stubProvider{name: "grok", visible: true},
	)

	got := s.InOrder([]string{"grok", "openai", "gemini"})
	if len(got) != 2 || got[0].Name() != "grok" || got[1].Name() != "gemini" {
		names := make([]string, 0, len(got))
		for _, p := range got {
			names = append(names, p.Name())
		}
		t.Fatalf("expected affinity order with unknowns skipped, got %v", names)
	}
}

func TestSetVisibleNames(t *testing.T) {
	s := NewSet(time.Second,
		&stubProvider{name: "gemini", visible: true},
		&stubProvider{name: "grok", visible: false},
	)

	got := s.VisibleNames()
	if len(got) != 1 || got[0] != "gemini" {
		t.Fatalf("expected only visible providers, got %v", got)
	}
}

func TestSetTimeoutDefault(t *testing.T) {
	if got := NewSet(0).Timeout(); got != 10*time.Second {
		t.Fatalf("expected the default timeout, got %v", got)
	}
	if got := NewSet(3 * time.Second).Timeout(); got != 3*time.Second {
		t.Fatalf("expected the configured timeout, got %v", got)
	}
}
