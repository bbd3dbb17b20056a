package persona

import (
	"strings"
	"testing"

	"github.com/vozlabs/pulso/internal/types"
)

const sampleCatalog = `
personas:
  - id: luna
    display_name: Luna
    bio: "trabaja de noche"
    providers: [gemini, grok]
    greeting_style: immediate
    sampling: {temperature: 0.95, max_tokens: 180}
  - id: mati
    providers: [grok]
topics: [futbol, lluvia]
keywords: [asado]
`

func TestParseCatalog(t *testing.T) {
	catalog, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("expected valid catalog, got %v", err)
	}
	if len(catalog.Personas) != 2 {
		t.Fatalf("expected 2 personas, got %d", len(catalog.Personas))
	}

	luna := catalog.Personas[0]
	if luna.GreetingStyle != types.GreetingImmediate {
		t.Fatalf("expected immediate greeting style, got %q", luna.GreetingStyle)
	}
	if luna.Sampling.Temperature != 0.95 || luna.Sampling.MaxTokens != 180 {
		t.Fatalf("unexpected sampling: %+v", luna.Sampling)
	}

	mati := catalog.Personas[1]
	if mati.DisplayName != "mati" {
		t.Fatalf("expected display name to default to id, got %q", mati.DisplayName)
	}
	if mati.GreetingStyle != types.GreetingGradual {
		t.Fatalf("expected greeting style to default to gradual, got %q", mati.GreetingStyle)
	}
	if mati.Sampling.Temperature != 0.9 || mati.Sampling.MaxTokens != 200 {
		t.Fatalf("expected sampling defaults, got %+v", mati.Sampling)
	}

	if len(catalog.Topics) != 2 || len(catalog.Keywords) != 1 {
		t.Fatalf("unexpected lists: topics=%v keywords=%v", catalog.Topics, catalog.Keywords)
	}
}

func TestParseCatalogRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "personas: []", "no personas"},
		{"missing id", "personas:\n  - display_name: X\n    providers: [gemini]", "empty id"},
		{"duplicate id", "personas:\n  - id: a\n    providers: [gemini]\n  - id: a\n    providers: [gemini]", "duplicate persona id"},
		{"no providers", "personas:\n  - id: a", "no providers"},
		{"bad greeting", "personas:\n  - id: a\n    providers: [gemini]\n    greeting_style: loud", "unknown greeting style"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(c.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Fatalf("expected error containing %q, got %v", c.want, err)
			}
		})
	}
}
