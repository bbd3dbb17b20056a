package models

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/vozlabs/pulso/internal/types"
)

// openAIProvider wraps an OpenAI-compatible chat client.
type openAIProvider struct {
	client  *openai.Client
	name    string
	model   string
	visible bool
}

// NewOpenAIProvider creates a provider against the OpenAI API.
func NewOpenAIProvider(name, model, apiKey string, visible bool) (Provider, error) {
	return newOpenAICompatible(name, model, apiKey, "", visible)
}

// NewXAIProvider creates a provider against the x.ai API, which speaks the
// OpenAI wire format.
func NewXAIProvider(name, model, apiKey string, visible bool) (Provider, error) {
	return newOpenAICompatible(name, model, apiKey, "https://api.x.ai/v1", visible)
}

func newOpenAICompatible(name, model, apiKey, baseURL string, visible bool) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &openAIProvider{
		client:  &client,
		name:    name,
		model:   model,
		visible: visible,
	}, nil
}

func (p *openAIProvider) Name() string {
	return p.name
}

func (p *openAIProvider) Visible() bool {
	return p.visible
}

func (p *openAIProvider) Generate(ctx context.Context, prompt Prompt, profile types.SamplingProfile) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
	}
	if profile.Temperature > 0 {
		params.Temperature = openai.Float(profile.Temperature)
	}
	if profile.TopP > 0 {
		params.TopP = openai.Float(profile.TopP)
	}
	if profile.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(profile.MaxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.Error("failed to call llm API", "provider", p.name, "error", err.Error())
		return "", fmt.Errorf("failed to call %s API: %w", p.name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
