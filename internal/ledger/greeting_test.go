package ledger

import (
	"testing"
	"time"
)

func newTestGreetingLedger(limit int, window time.Duration) (*GreetingLedger, *time.Time) {
	l := NewGreetingLedger(limit, window)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.nowFunc = func() time.Time { return now }
	return l, &now
}

func TestGreetingCap(t *testing.T) {
	l, _ := newTestGreetingLedger(2, 3*time.Hour)

	if !l.CanGreet("r1", "ana") {
		t.Fatal("first greeting must be allowed")
	}
	l.RecordGreeting("r1", "ana")
	if !l.CanGreet("r1", "ana") {
		t.Fatal("second greeting must be allowed")
	}
	l.RecordGreeting("r1", "ana")
	if l.CanGreet("r1", "ana") {
		t.Fatal("third greeting inside the window must be refused")
	}
	if !l.CanGreet("r1", "beto") {
		t.Fatal("cap must be scoped per human")
	}
	if !l.CanGreet("r2", "ana") {
		t.Fatal("cap must be scoped per room")
	}
}

func TestGreetingAllowance(t *testing.T) {
	l, now := newTestGreetingLedger(2, 3*time.Hour)

	if got := l.Allowance("r1", "ana"); got != 2 {
		t.Fatalf("fresh username must have the full allowance, got %d", got)
	}
	l.RecordGreeting("r1", "ana")
	if got := l.Allowance("r1", "ana"); got != 1 {
		t.Fatalf("expected allowance 1 after one greeting, got %d", got)
	}
	l.RecordGreeting("r1", "ana")
	if got := l.Allowance("r1", "ana"); got != 0 {
		t.Fatalf("expected allowance spent at the cap, got %d", got)
	}
	if got := l.Allowance("r2", "ana"); got != 2 {
		t.Fatalf("allowance must be scoped per room, got %d", got)
	}

	*now = now.Add(3*time.Hour + time.Minute)
	if got := l.Allowance("r1", "ana"); got != 2 {
		t.Fatalf("expired window must restore the full allowance, got %d", got)
	}
}

func TestGreetingWindowResets(t *testing.T) {
	l, now := newTestGreetingLedger(2, 3*time.Hour)

	l.RecordGreeting("r1", "ana")
	l.RecordGreeting("r1", "ana")
	*now = now.Add(3*time.Hour + time.Minute)
	if !l.CanGreet("r1", "ana") {
		t.Fatal("expired window must allow greetings again")
	}
	l.RecordGreeting("r1", "ana")
	if !l.CanGreet("r1", "ana") {
		t.Fatal("a greeting after expiry must open a fresh window")
	}
}

func TestGreetingDropRoom(t *testing.T) {
	l, _ := newTestGreetingLedger(1, 3*time.Hour)
	l.RecordGreeting("r1", "ana")
	l.DropRoom("r1")
	if !l.CanGreet("r1", "ana") {
		t.Fatal("expected greeting entries released on teardown")
	}
}

func TestGreetingSweep(t *testing.T) {
	l, now := newTestGreetingLedger(1, time.Hour)
	l.RecordGreeting("r1", "ana")
	*now = now.Add(2 * time.Hour)
	l.RecordGreeting("r1", "beto")

	l.Sweep()
	if _, ok := l.entries["r1|ana"]; ok {
		t.Fatal("expected expired entry purged")
	}
	if _, ok := l.entries["r1|beto"]; !ok {
		t.Fatal("expected live entry kept")
	}
}
