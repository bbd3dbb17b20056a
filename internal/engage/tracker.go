// Package engage tracks per-persona engagement intensity.
package engage

import (
	"sync"
	"time"

	"github.com/vozlabs/pulso/internal/types"
)

const (
	// MaxHeat is the top of the heat scale.
	MaxHeat = 10
	// gradualStart is the initial heat of a slow-warming persona.
	gradualStart = 2
	// immediateFloor is the lowest heat an immediate persona can sit at.
	immediateFloor = 8
	// forceThreshold is the inbound intensity that forces max heat, so tone
	// stays consistent within a single exchange.
	forceThreshold = 8
)

// ClampHeat bounds a heat level to the 0-10 scale.
func ClampHeat(level int) int {
	switch {
	case level < 0:
		return 0
	case level > MaxHeat:
		return MaxHeat
	default:
		return level
	}
}

type state struct {
	heat            int
	lastInteraction time.Time
	// perHuman counts messages exchanged with each human previously
	// addressed by this persona in this room.
	perHuman map[string]int
}

// Tracker holds the heat level per (persona, room). Entries are created
// lazily on first interaction and discarded on room teardown.
type Tracker struct {
	mu      sync.Mutex
	states  map[string]*state
	nowFunc func() time.Time
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		states:  make(map[string]*state),
		nowFunc: time.Now,
	}
}

func (t *Tracker) stateLocked(personaID, roomID string, style types.GreetingStyle) *state {
	k := personaID + "|" + roomID
	s, ok := t.states[k]
	if !ok {
		initial := gradualStart
		if style == types.GreetingImmediate {
			initial = immediateFloor
		}
		s = &state{heat: initial, perHuman: make(map[string]int)}
		t.states[k] = s
	}
	return s
}

// Heat returns the current heat level, initializing it from the persona's
// greeting style on first use.
func (t *Tracker) Heat(personaID, roomID string, style types.GreetingStyle) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked(personaID, roomID, style).heat
}

// OnHumanInteraction advances the heat level for a qualifying human
// interaction and returns the new level. Gradual personas warm by one step;
// immediate personas are clamped to the top band; a high inbound intensity
// forces the maximum either way.
func (t *Tracker) OnHumanInteraction(personaID, roomID, humanID string, style types.GreetingStyle, intensity int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.stateLocked(personaID, roomID, style)
	switch style {
	case types.GreetingImmediate:
		if s.heat < immediateFloor {
			s.heat = immediateFloor
		}
	default:
		s.heat++
	}
	if intensity >= forceThreshold {
		s.heat = MaxHeat
	}
	s.heat = ClampHeat(s.heat)
	s.lastInteraction = t.nowFunc()
	s.perHuman[humanID]++
	return s.heat
}

// MessagesWith returns how many messages the persona has exchanged with the
// human in this room.
func (t *Tracker) MessagesWith(personaID, roomID, humanID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := personaID + "|" + roomID
	if s, ok := t.states[k]; ok {
		return s.perHuman[humanID]
	}
	return 0
}

// DropRoom discards all per-room engagement state.
func (t *Tracker) DropRoom(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	suffix := "|" + roomID
	for k := range t.states {
		if len(k) > len(suffix) && k[len(k)-len(suffix):] == suffix {
			delete(t.states, k)
		}
	}
}
