// Package persona holds the persona catalog and the active-set rotation.
package persona

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vozlabs/pulso/internal/types"
)

// Catalog is the startup configuration file: the full persona roster plus
// the keyword lists the guard and the topic ledger work from.
type Catalog struct {
	Personas []types.Persona `yaml:"personas"`
	// Topics are the tracked discussion topics for the cooldown ledger.
	Topics []string `yaml:"topics"`
	// Keywords are the tracked terms for the room saturation detector.
	Keywords []string `yaml:"keywords"`
}

// LoadCatalog reads and validates the catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses and validates catalog YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(catalog.Personas) == 0 {
		return nil, fmt.Errorf("catalog has no personas")
	}

	seen := make(map[string]bool, len(catalog.Personas))
	for i := range catalog.Personas {
		p := &catalog.Personas[i]
		if p.ID == "" {
			return nil, fmt.Errorf("persona %d has an empty id", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate persona id %q", p.ID)
		}
		seen[p.ID] = true
		if p.DisplayName == "" {
			p.DisplayName = p.ID
		}
		if len(p.ProviderAffinity) == 0 {
			return nil, fmt.Errorf("persona %q has no providers", p.ID)
		}
		switch p.GreetingStyle {
		case types.GreetingGradual, types.GreetingImmediate:
		case "":
			p.GreetingStyle = types.GreetingGradual
		default:
			return nil, fmt.Errorf("persona %q has unknown greeting style %q", p.ID, p.GreetingStyle)
		}
		if p.Sampling.Temperature == 0 {
			p.Sampling.Temperature = 0.9
		}
		if p.Sampling.MaxTokens == 0 {
			p.Sampling.MaxTokens = 200
		}
	}
	return &catalog, nil
}
