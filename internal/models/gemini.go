package models

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/vozlabs/pulso/internal/types"
)

// geminiProvider wraps the Gemini API.
type geminiProvider struct {
	client  *genai.Client
	name    string
	model   string
	visible bool
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(ctx context.Context, name, model, apiKey string, visible bool) (Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiProvider{
		client:  client,
		name:    name,
		model:   model,
		visible: visible,
	}, nil
}

func (p *geminiProvider) Name() string {
	return p.name
}

func (p *geminiProvider) Visible() bool {
	return p.visible
}

func (p *geminiProvider) Generate(ctx context.Context, prompt Prompt, profile types.SamplingProfile) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, "system"),
	}
	if profile.Temperature > 0 {
		t := float32(profile.Temperature)
		config.Temperature = &t
	}
	if profile.TopP > 0 {
		tp := float32(profile.TopP)
		config.TopP = &tp
	}
	if profile.MaxTokens > 0 {
		config.MaxOutputTokens = int32(profile.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt.User), config)
	if err != nil {
		return "", fmt.Errorf("failed to call %s API: %w", p.name, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
