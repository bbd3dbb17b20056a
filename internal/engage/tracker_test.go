package engage

import (
	"testing"

	"github.com/vozlabs/pulso/internal/types"
)

func TestGradualWarmsOneStep(t *testing.T) {
	tr := NewTracker()

	if got := tr.Heat("p1", "r1", types.GreetingGradual); got != 2 {
		t.Fatalf("gradual persona must start at 2, got %d", got)
	}
	if got := tr.OnHumanInteraction("p1", "r1", "h1", types.GreetingGradual, 3); got != 3 {
		t.Fatalf("expected heat 3 after one interaction, got %d", got)
	}
	for i := 0; i < 20; i++ {
		tr.OnHumanInteraction("p1", "r1", "h1", types.GreetingGradual, 3)
	}
	if got := tr.Heat("p1", "r1", types.GreetingGradual); got != MaxHeat {
		t.Fatalf("heat must clamp at %d, got %d", MaxHeat, got)
	}
}

func TestImmediateStartsHot(t *testing.T) {
	tr := NewTracker()

	if got := tr.Heat("p1", "r1", types.GreetingImmediate); got != 8 {
		t.Fatalf("immediate persona must start at 8, got %d", got)
	}
	if got := tr.OnHumanInteraction("p1", "r1", "h1", types.GreetingImmediate, 3); got != 8 {
		t.Fatalf("immediate persona must hold the floor on a mild message, got %d", got)
	}
}

func TestHighIntensityForcesMax(t *testing.T) {
	tr := NewTracker()

	if got := tr.OnHumanInteraction("p1", "r1", "h1", types.GreetingGradual, 9); got != MaxHeat {
		t.Fatalf("intensity 9 must force max heat even on a cold persona, got %d", got)
	}
}

func TestHeatScopedPerRoom(t *testing.T) {
	tr := NewTracker()

	tr.OnHumanInteraction("p1", "r1", "h1", types.GreetingGradual, 3)
	if got := tr.Heat("p1", "r2", types.GreetingGradual); got != 2 {
		t.Fatalf("heat in another room must start fresh, got %d", got)
	}
}

func TestMessagesWith(t *testing.T) {
	tr := NewTracker()

	tr.OnHumanInteraction("p1", "r1", "h1", types.GreetingGradual, 3)
	tr.OnHumanInteraction("p1", "r1", "h1", types.GreetingGradual, 3)
	tr.OnHumanInteraction("p1", "r1", "h2", types.GreetingGradual, 3)

	if got := tr.MessagesWith("p1", "r1", "h1"); got != 2 {
		t.Fatalf("expected 2 messages with h1, got %d", got)
	}
	if got := tr.MessagesWith("p1", "r1", "h3"); got != 0 {
		t.Fatalf("expected 0 messages with unseen human, got %d", got)
	}
}

func TestDropRoomResetsHeat(t *testing.T) {
	tr := NewTracker()

	tr.OnHumanInteraction("p1", "r1", "h1", types.GreetingGradual, 9)
	tr.DropRoom("r1")
	if got := tr.Heat("p1", "r1", types.GreetingGradual); got != 2 {
		t.Fatalf("expected heat reset after room teardown, got %d", got)
	}
}

func TestClampHeat(t *testing.T) {
	if got := ClampHeat(-3); got != 0 {
		t.Fatalf("ClampHeat(-3) = %d, want 0", got)
	}
	if got := ClampHeat(14); got != MaxHeat {
		t.Fatalf("ClampHeat(14) = %d, want %d", got, MaxHeat)
	}
	if got := ClampHeat(7); got != 7 {
		t.Fatalf("ClampHeat(7) = %d, want 7", got)
	}
}
