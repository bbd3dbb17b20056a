package guard

import (
	"errors"
	"testing"
	"time"
)

func newTestGuard(cfg Config) (*Guard, *time.Time) {
	g := New(cfg)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g.nowFunc = func() time.Time { return now }
	return g, &now
}

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Hola!!  ¿Qué tal?", "hola que tal"},
		{"  WENA,   que\ntal  ", "wena que tal"},
		{"café ☕ rico", "cafe rico"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Fatalf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("que tal amigos", "que tal amigos"); got != 1 {
		t.Fatalf("identical similarity = %v, want 1", got)
	}
	if got := Similarity("hola que tal amigos mios", "chao nos vemos luego gente"); got != 0 {
		t.Fatalf("disjoint similarity = %v, want 0", got)
	}
	got := Similarity("vamos por un asado este finde", "vamos por un asado este sabado")
	if got <= 0.5 || got >= 1 {
		t.Fatalf("partial similarity = %v, want in (0.5, 1)", got)
	}
}

func TestDedupSecondAttemptRejected(t *testing.T) {
	g, now := newTestGuard(Config{})

	if err := g.Check("p1", "r1", "que tal"); err != nil {
		t.Fatalf("first check: expected no error, got %v", err)
	}
	g.Accept("p1", "r1", "que tal")

	*now = now.Add(10 * time.Second)
	err := g.Check("p1", "r1", "Que tal!!")
	if !errors.Is(err, ErrRepetitionRejected) {
		t.Fatalf("second check: expected ErrRepetitionRejected, got %v", err)
	}
	if !g.Blocked("p1", "r1") {
		t.Fatal("expected persona to be blocked after rejection")
	}
}

func TestBlockExpires(t *testing.T) {
	g, now := newTestGuard(Config{PenaltyWindow: time.Minute})

	g.Accept("p1", "r1", "hola hola")
	if err := g.Check("p1", "r1", "hola hola"); !errors.Is(err, ErrRepetitionRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}

	*now = now.Add(30 * time.Second)
	if !g.Blocked("p1", "r1") {
		t.Fatal("expected persona still blocked inside penalty window")
	}
	*now = now.Add(31 * time.Second)
	if g.Blocked("p1", "r1") {
		t.Fatal("expected penalty to auto-expire")
	}
}

func TestDedupWindowExpiry(t *testing.T) {
	g, now := newTestGuard(Config{DedupWindow: time.Hour})

	g.Accept("p1", "r1", "una frase bien particular")
	*now = now.Add(61 * time.Minute)
	if err := g.Check("p1", "r1", "una frase bien particular"); err != nil {
		t.Fatalf("expected entry outside the window to be purged, got %v", err)
	}
}

func TestBurstSimilarMessages(t *testing.T) {
	g, now := newTestGuard(Config{OwnSimilarity: 0.99})

	g.Accept("p2", "r1", "vamos al estadio este finde amigos")
	*now = now.Add(5 * time.Second)
	g.Accept("p2", "r1", "vamos al estadio este finde cabros")
	*now = now.Add(5 * time.Second)

	err := g.Check("p2", "r1", "vamos al estadio este finde gente")
	if !errors.Is(err, ErrRepetitionRejected) {
		t.Fatalf("expected third similar message rejected, got %v", err)
	}
}

func TestSaturatedKeywords(t *testing.T) {
	g, _ := newTestGuard(Config{Keywords: []string{"futbol", "asado"}, SaturationThreshold: 4})

	for i := 0; i < 5; i++ {
		g.RecordRoomMessage("r1", "hablemos de futbol otra vez")
	}
	g.RecordRoomMessage("r1", "alguien quiere asado")

	saturated := g.SaturatedKeywords("r1")
	if len(saturated) != 1 || saturated[0] != "futbol" {
		t.Fatalf("expected [futbol], got %v", saturated)
	}
}

func TestSaturationWindowBounded(t *testing.T) {
	g, _ := newTestGuard(Config{Keywords: []string{"futbol"}, SaturationWindow: 10, SaturationThreshold: 4})

	for i := 0; i < 5; i++ {
		g.RecordRoomMessage("r1", "puro futbol")
	}
	// Push the keyword mentions out of the 10-message window.
	for i := 0; i < 10; i++ {
		g.RecordRoomMessage("r1", "otra cosa")
	}
	if saturated := g.SaturatedKeywords("r1"); len(saturated) != 0 {
		t.Fatalf("expected no saturation after window rolled, got %v", saturated)
	}
}

func TestLockSendSerializes(t *testing.T) {
	g := New(Config{})

	release := g.LockSend("p1", "r1")
	acquired := make(chan struct{})
	go func() {
		r := g.LockSend("p1", "r1")
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second delivery took the send lock while the first held it")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("send lock was never handed over")
	}
}

func TestLockSendIndependentKeys(t *testing.T) {
	g := New(Config{})

	release := g.LockSend("p1", "r1")
	defer release()

	done := make(chan struct{})
	go func() {
		r := g.LockSend("p2", "r1")
		r()
		r = g.LockSend("p1", "r2")
		r()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("other personas and rooms must not share the send lock")
	}
}

func TestMinimumDelay(t *testing.T) {
	g, now := newTestGuard(Config{MinSendDelay: 5 * time.Second})

	if next := g.NextAllowed("p1", "r1"); next.After(*now) {
		t.Fatalf("fresh persona should send immediately, next = %v", next)
	}
	g.MarkSent("p1", "r1")
	*now = now.Add(3 * time.Second)
	next := g.NextAllowed("p1", "r1")
	if want := now.Add(2 * time.Second); !next.Equal(want) {
		t.Fatalf("NextAllowed = %v, want %v", next, want)
	}
}

func TestDropRoomReleasesState(t *testing.T) {
	g, _ := newTestGuard(Config{})

	g.Accept("p1", "r1", "hola hola")
	g.MarkSent("p1", "r1")
	_ = g.Check("p1", "r1", "hola hola") // applies penalty
	g.DropRoom("r1")

	if g.Blocked("p1", "r1") {
		t.Fatal("expected penalty released on room teardown")
	}
	if len(g.roomRecent["r1"]) != 0 {
		t.Fatal("expected room recent flow released")
	}
}
