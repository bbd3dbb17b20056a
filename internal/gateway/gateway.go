package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vozlabs/pulso/internal/models"
)

// ErrProviderUnavailable means every configured provider failed or returned
// nothing. Recovered locally by the caller, never surfaced to a room.
var ErrProviderUnavailable = errors.New("no provider produced a response")

// Gateway produces one candidate message and guarantees it satisfies the
// length and policy constraints before it may leave the system.
type Gateway struct {
	providers *models.Set
	builder   *Builder
	validator ContentValidator
	// retries is the extra attempt budget after a policy rejection.
	retries int
}

// New returns a Gateway.
func New(providers *models.Set, builder *Builder, validator ContentValidator, retries int) *Gateway {
	if retries < 0 {
		retries = 0
	}
	return &Gateway{
		providers: providers,
		builder:   builder,
		validator: validator,
		retries:   retries,
	}
}

// Generate returns the final validated message text. On policy rejection it
// retries with a reinforced prompt up to the budget, then gives up with
// ErrPolicyViolation; no deterministic fallback text is ever substituted.
func (g *Gateway) Generate(ctx context.Context, req Request) (string, error) {
	for attempt := 0; attempt <= g.retries; attempt++ {
		req.reinforced = attempt > 0

		prompt, err := g.builder.Build(req)
		if err != nil {
			return "", err
		}

		raw, err := g.callProviders(ctx, req, prompt)
		if err != nil {
			return "", err
		}

		if err := g.validator.Validate(raw); err != nil {
			slog.Warn("generated text rejected by validator",
				"persona", req.Persona.ID, "attempt", attempt, "error", err)
			continue
		}

		return postprocess(raw, req.CharLimit, req.WordLimit), nil
	}
	return "", ErrPolicyViolation
}

// callProviders walks the persona's affinity order and returns the first
// non-empty response. Monitor-only providers are skipped; each call carries
// the mandatory timeout, and a timeout counts as a provider failure.
func (g *Gateway) callProviders(ctx context.Context, req Request, prompt models.Prompt) (string, error) {
	for _, provider := range g.providers.InOrder(req.Persona.ProviderAffinity) {
		if !provider.Visible() {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, g.providers.Timeout())
		text, err := provider.Generate(callCtx, prompt, req.Persona.Sampling)
		cancel()

		if err != nil {
			slog.Warn("provider call failed, falling through",
				"provider", provider.Name(), "persona", req.Persona.ID, "error", err)
			continue
		}
		if text == "" {
			continue
		}
		return text, nil
	}
	return "", ErrProviderUnavailable
}
