package persona

import (
	"testing"

	"github.com/vozlabs/pulso/internal/types"
)

func testCatalog() *Catalog {
	personas := make([]types.Persona, 0, 12)
	for _, id := range []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7"} {
		personas = append(personas, types.Persona{ID: id, ProviderAffinity: []string{"gemini"}})
	}
	personas = append(personas,
		types.Persona{ID: "scoped", ProviderAffinity: []string{"gemini"}, RoomScope: []string{"general"}},
		types.Persona{ID: "shadow", ProviderAffinity: []string{"hidden"}},
		types.Persona{ID: "duo-a", ProviderAffinity: []string{"gemini"}, GroupID: "duo"},
		types.Persona{ID: "duo-b", ProviderAffinity: []string{"gemini"}, GroupID: "duo"},
	)
	return &Catalog{Personas: personas}
}

func TestSelectActiveFractionAndFloor(t *testing.T) {
	r := NewRegistry(testCatalog(), []string{"gemini"}, 0.30, 0.40, 3, 1)

	// 11 eligible in category general (everyone but shadow).
	active := r.SelectActive("general")
	if len(active) < 3 || len(active) > 4 {
		t.Fatalf("expected 30-40%% of 11 eligible (3 or 4), got %d: %v", len(active), active)
	}
	for _, id := range active {
		if id == "shadow" {
			t.Fatal("persona without a visible provider must never be drawn")
		}
	}
}

func TestSelectActiveScopeFilter(t *testing.T) {
	r := NewRegistry(testCatalog(), []string{"gemini"}, 0.30, 0.40, 3, 1)

	for i := 0; i < 20; i++ {
		for _, id := range r.SelectActive("sports") {
			if id == "scoped" {
				t.Fatal("scoped persona drawn outside its room category")
			}
		}
	}
}

func TestSelectActiveFloorDominates(t *testing.T) {
	catalog := &Catalog{Personas: []types.Persona{
		{ID: "a", ProviderAffinity: []string{"gemini"}},
		{ID: "b", ProviderAffinity: []string{"gemini"}},
	}}
	r := NewRegistry(catalog, []string{"gemini"}, 0.30, 0.40, 5, 1)

	if got := len(r.SelectActive("general")); got != 2 {
		t.Fatalf("floor must clamp to the eligible count, got %d", got)
	}
}

func TestSelectActiveNoneEligible(t *testing.T) {
	catalog := &Catalog{Personas: []types.Persona{
		{ID: "a", ProviderAffinity: []string{"hidden"}},
	}}
	r := NewRegistry(catalog, []string{"gemini"}, 0.30, 0.40, 1, 1)

	if active := r.SelectActive("general"); active != nil {
		t.Fatalf("expected nil active set, got %v", active)
	}
}

func TestGroupPeer(t *testing.T) {
	r := NewRegistry(testCatalog(), []string{"gemini"}, 0.30, 0.40, 3, 1)

	if !r.GroupPeer([]string{"duo-a", "duo-b", "p0"}, "duo-a") {
		t.Fatal("expected peer present when both group members are active")
	}
	if r.GroupPeer([]string{"duo-a", "p0"}, "duo-a") {
		t.Fatal("expected no peer when the other group member is inactive")
	}
	if r.GroupPeer([]string{"p0", "p1"}, "p0") {
		t.Fatal("ungrouped persona never has a group peer")
	}
}

func TestHumanCandidates(t *testing.T) {
	r := NewRegistry(testCatalog(), []string{"gemini"}, 0.30, 0.40, 3, 1)

	got := r.HumanCandidates([]string{"p0", "duo-a", "p1", "duo-b"})
	if len(got) != 2 || got[0] != "p0" || got[1] != "p1" {
		t.Fatalf("expected group personas filtered out, got %v", got)
	}
}
