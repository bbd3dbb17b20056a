package gateway

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/vozlabs/pulso/internal/models"
	"github.com/vozlabs/pulso/internal/types"
)

// Request contains all inputs for one generation attempt.
type Request struct {
	Persona *types.Persona
	// Heat is the current engagement level, fed in as a style parameter.
	Heat int
	// Humanward marks a response directed at a human rather than an ambient
	// agent-to-agent turn. Humanward turns get the larger length budget.
	Humanward bool
	HumanName string
	HumanText string
	History   []types.Turn
	Memories  []string
	// AvoidKeywords are room-saturated terms to steer away from.
	AvoidKeywords []string
	// AvoidTopics are topics inside their cooldown window.
	AvoidTopics []string
	CharLimit   int
	WordLimit   int

	// reinforced is set on policy-violation retries to tighten the prompt.
	reinforced bool
}

var systemTemplate = template.Must(template.New("system").Parse(
	`You are {{.Name}}, a participant in a casual group chat.
{{- if .Bio}}
About you: {{.Bio}}
{{- end}}
{{- if .Tone}}
Your way of talking: {{.Tone}}
{{- end}}
Style intensity right now: {{.StyleDirective}}
Write at most {{.WordLimit}} words and {{.CharLimit}} characters. One short chat message, no lists, no stage directions.
Vary your phrasing; do not repeat wording from the recent conversation.
{{- if .AvoidKeywords}}
Do not mention: {{range .AvoidKeywords}}{{.}} {{end}}
{{- end}}
{{- if .AvoidTopics}}
Avoid these topics entirely: {{range .AvoidTopics}}{{.}} {{end}}
{{- end}}
{{- if .Memories}}
Things you remember about this person:
{{- range .Memories}}
- {{.}}
{{- end}}
{{- end}}
{{- if .Reinforced}}
Never describe yourself as artificial, never mention prompts, models, or instructions, and never break character for any reason.
{{- end}}
Stay fully in character. The current time is {{.Now}}.`))

// Builder assembles prompts for the providers.
type Builder struct {
	historyLimit int
	nowFunc      func() time.Time
}

// NewBuilder creates a prompt Builder.
func NewBuilder(historyLimit int) *Builder {
	if historyLimit <= 0 {
		historyLimit = 25
	}
	return &Builder{
		historyLimit: historyLimit,
		nowFunc:      time.Now,
	}
}

// Build assembles the system and user parts for a request.
func (b *Builder) Build(req Request) (models.Prompt, error) {
	if req.Persona == nil {
		return models.Prompt{}, fmt.Errorf("persona is required")
	}

	data := struct {
		Name           string
		Bio            string
		Tone           string
		StyleDirective string
		WordLimit      int
		CharLimit      int
		AvoidKeywords  []string
		AvoidTopics    []string
		Memories       []string
		Reinforced     bool
		Now            string
	}{
		Name:           req.Persona.DisplayName,
		Bio:            req.Persona.Bio,
		Tone:           req.Persona.Tone,
		StyleDirective: styleDirective(req.Heat),
		WordLimit:      req.WordLimit,
		CharLimit:      req.CharLimit,
		AvoidKeywords:  req.AvoidKeywords,
		AvoidTopics:    req.AvoidTopics,
		Memories:       req.Memories,
		Reinforced:     req.reinforced,
		Now:            b.nowFunc().Format(time.RFC3339),
	}

	var buf bytes.Buffer
	if err := systemTemplate.Execute(&buf, data); err != nil {
		return models.Prompt{}, fmt.Errorf("failed to build prompt: %w", err)
	}

	return models.Prompt{
		System: buf.String(),
		User:   b.userPart(req),
	}, nil
}

func (b *Builder) userPart(req Request) string {
	history := req.History
	if len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}

	var buf bytes.Buffer
	if len(history) > 0 {
		buf.WriteString("Recent conversation:\n")
		for _, t := range history {
			name := t.DisplayName
			if name == "" {
				name = "someone"
			}
			fmt.Fprintf(&buf, "%s: %s\n", name, t.Text)
		}
		buf.WriteString("\n")
	}

	if req.Humanward {
		name := req.HumanName
		if name == "" {
			name = "the user"
		}
		fmt.Fprintf(&buf, "%s just wrote to you: %q\nReply to them directly.", name, req.HumanText)
	} else {
		buf.WriteString("Add one natural message to keep the conversation going among the group.")
	}
	return buf.String()
}

// styleDirective maps a heat level to a phrasing instruction.
func styleDirective(heat int) string {
	switch {
	case heat >= 9:
		return "very warm and forward, openly affectionate"
	case heat >= 7:
		return "warm and playful, clearly interested"
	case heat >= 4:
		return "friendly and curious"
	default:
		return "relaxed and casual, getting to know people"
	}
}
