package engage

import "testing"

func TestIntensity(t *testing.T) {
	a := NewAnalyzer()
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"que hiciste hoy", 3},
		{"jaja que rico", 5},
		{"te quiero mucho!!", 8},
		{"RESPONDE AHORA", 4},
	}
	for _, c := range cases {
		if got := a.Intensity(c.text); got != c.want {
			t.Fatalf("Intensity(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}

func TestIsGreeting(t *testing.T) {
	a := NewAnalyzer()
	greetings := []string{"hola", "Hola!", "wena, como estamos", "buenas tardes", "  hey gente"}
	for _, g := range greetings {
		if !a.IsGreeting(g) {
			t.Fatalf("expected %q classified as greeting", g)
		}
	}
	others := []string{"", "que tal el partido", "chao", "holanda es linda"}
	for _, o := range others {
		if a.IsGreeting(o) {
			t.Fatalf("expected %q not classified as greeting", o)
		}
	}
}

func TestIsUrgent(t *testing.T) {
	a := NewAnalyzer()
	if !a.IsUrgent("estas ahi?") {
		t.Fatal("expected impatience cue detected")
	}
	if !a.IsUrgent("que paso? donde estan?") {
		t.Fatal("expected double question mark detected")
	}
	if a.IsUrgent("mañana vamos al cine") {
		t.Fatal("expected plain statement not urgent")
	}
}
