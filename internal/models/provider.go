// Package models provides the generative-provider adapters.
package models

import (
	"context"
	"time"

	"github.com/vozlabs/pulso/internal/types"
)

// Prompt is one assembled generation request.
type Prompt struct {
	System string
	User   string
}

// Provider produces text for a prompt. Monitor-only providers report
// Visible() false and never produce room output.
type Provider interface {
	Name() string
	Visible() bool
	Generate(ctx context.Context, prompt Prompt, profile types.SamplingProfile) (string, error)
}

// Set resolves persona provider affinities to concrete providers and carries
// the per-call timeout. Read-only after construction.
type Set struct {
	byName  map[string]Provider
	order   []string
	timeout time.Duration
}

// NewSet returns a Set over the given providers.
func NewSet(timeout time.Duration, providers ...Provider) *Set {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	byName := make(map[string]Provider, len(providers))
	order := make([]string, 0, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
		order = append(order, p.Name())
	}
	return &Set{byName: byName, order: order, timeout: timeout}
}

// InOrder returns the configured providers matching an affinity list, in
// affinity order. Unknown names are skipped.
func (s *Set) InOrder(affinity []string) []Provider {
	out := make([]Provider, 0, len(affinity))
	for _, name := range affinity {
		if p, ok := s.byName[name]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Timeout is the mandatory per-call deadline for provider requests.
func (s *Set) Timeout() time.Duration {
	return s.timeout
}

// VisibleNames returns the names of providers allowed to produce room output.
func (s *Set) VisibleNames() []string {
	out := make([]string, 0, len(s.order))
	for _, name := range s.order {
		if s.byName[name].Visible() {
			out = append(out, name)
		}
	}
	return out
}
