// Package types holds the shared value types of the orchestrator.
package types

import "time"

// GreetingStyle controls how fast a persona warms up to a human.
type GreetingStyle string

const (
	// GreetingGradual starts at a low heat level and warms up per interaction.
	GreetingGradual GreetingStyle = "gradual"
	// GreetingImmediate starts hot and stays in the top band.
	GreetingImmediate GreetingStyle = "immediate"
)

// SamplingProfile is a persona's generation-sampling profile.
type SamplingProfile struct {
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Persona is an immutable simulated-participant descriptor. Loaded once at
// startup, read-only thereafter.
type Persona struct {
	ID               string          `yaml:"id"`
	DisplayName      string          `yaml:"display_name"`
	AvatarRef        string          `yaml:"avatar"`
	Bio              string          `yaml:"bio"`
	Tone             string          `yaml:"tone"`
	ProviderAffinity []string        `yaml:"providers"`
	GreetingStyle    GreetingStyle   `yaml:"greeting_style"`
	GroupID          string          `yaml:"group"`
	RoomScope        []string        `yaml:"room_scope"`
	Sampling         SamplingProfile `yaml:"sampling"`
}

// TalksToHumans reports whether the persona may answer a human. Group
// personas only converse with members of their own group.
func (p *Persona) TalksToHumans() bool {
	return p.GroupID == ""
}

// InScope reports whether the persona may speak in a room category. An empty
// scope means every category.
func (p *Persona) InScope(category string) bool {
	if len(p.RoomScope) == 0 {
		return true
	}
	for _, s := range p.RoomScope {
		if s == category {
			return true
		}
	}
	return false
}

// Turn is one message in a room's bounded history. PersonaID is empty for a
// human turn.
type Turn struct {
	PersonaID   string
	HumanID     string
	DisplayName string
	Text        string
	SentAt      time.Time
}

// IsHuman reports whether the turn was written by a real participant.
func (t Turn) IsHuman() bool {
	return t.PersonaID == ""
}
