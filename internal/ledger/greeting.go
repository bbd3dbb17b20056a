package ledger

import (
	"sync"
	"time"
)

type greetingEntry struct {
	count   int
	firstAt time.Time
	lastAt  time.Time
}

// GreetingLedger caps how many automated greetings a human may receive in a
// room within a rotation window.
type GreetingLedger struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	entries map[string]*greetingEntry // roomID|username
	nowFunc func() time.Time
}

// NewGreetingLedger returns a GreetingLedger allowing limit greetings per
// window.
func NewGreetingLedger(limit int, window time.Duration) *GreetingLedger {
	if limit <= 0 {
		limit = 2
	}
	if window <= 0 {
		window = 3 * time.Hour
	}
	return &GreetingLedger{
		limit:   limit,
		window:  window,
		entries: make(map[string]*greetingEntry),
		nowFunc: time.Now,
	}
}

// CanGreet reports whether the human may still receive a greeting. Expired
// entries are purged on the check.
func (l *GreetingLedger) CanGreet(roomID, username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := roomID + "|" + username
	e, ok := l.entries[k]
	if !ok {
		return true
	}
	if l.nowFunc().Sub(e.firstAt) >= l.window {
		delete(l.entries, k)
		return true
	}
	return e.count < l.limit
}

// Allowance returns how many more greetings the human may receive in the
// room's current window. Expired entries are purged on the check.
func (l *GreetingLedger) Allowance(roomID, username string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := roomID + "|" + username
	e, ok := l.entries[k]
	if !ok {
		return l.limit
	}
	if l.nowFunc().Sub(e.firstAt) >= l.window {
		delete(l.entries, k)
		return l.limit
	}
	if e.count >= l.limit {
		return 0
	}
	return l.limit - e.count
}

// RecordGreeting counts a delivered greeting against the human's window.
func (l *GreetingLedger) RecordGreeting(roomID, username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFunc()
	k := roomID + "|" + username
	e, ok := l.entries[k]
	if !ok || now.Sub(e.firstAt) >= l.window {
		l.entries[k] = &greetingEntry{count: 1, firstAt: now, lastAt: now}
		return
	}
	e.count++
	e.lastAt = now
}

// DropRoom releases the room's greeting entries.
func (l *GreetingLedger) DropRoom(roomID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prefix := roomID + "|"
	for k := range l.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(l.entries, k)
		}
	}
}

// Sweep purges every expired greeting entry.
func (l *GreetingLedger) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFunc()
	for k, e := range l.entries {
		if now.Sub(e.firstAt) >= l.window {
			delete(l.entries, k)
		}
	}
}
