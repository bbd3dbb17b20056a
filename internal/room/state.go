// Package room holds per-room conversation state.
package room

import (
	"sync"
	"time"

	"github.com/vozlabs/pulso/internal/types"
)

// MaxAssigned is the hard cap on personas bound to one human in a room.
const MaxAssigned = 2

type assignment struct {
	personaID string
	at        time.Time
}

// State is the mutable state of one live room. All access goes through the
// methods; the internal mutex makes them safe from concurrent flows.
type State struct {
	RoomID   string
	Category string

	mu             sync.Mutex
	history        []types.Turn
	historyLimit   int
	lastSpeakerID  string
	recentSpeakers []string
	recentLimit    int

	active       []string
	lastRotation time.Time

	// assigned keeps per-human assignment lists ordered oldest first, so
	// eviction at the cap is the least-recently-used entry.
	assigned map[string][]assignment

	greeted map[string]bool
}

// NewState returns an empty room state.
func NewState(roomID, category string, historyLimit, recentLimit int) *State {
	if historyLimit <= 0 {
		historyLimit = 25
	}
	if recentLimit <= 0 {
		recentLimit = 8
	}
	return &State{
		RoomID:       roomID,
		Category:     category,
		historyLimit: historyLimit,
		recentLimit:  recentLimit,
		assigned:     make(map[string][]assignment),
		greeted:      make(map[string]bool),
	}
}

// AppendTurn records a message into the bounded history and, for persona
// turns, the recent-speaker window.
func (s *State) AppendTurn(t types.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, t)
	if len(s.history) > s.historyLimit {
		s.history = s.history[len(s.history)-s.historyLimit:]
	}
	if t.PersonaID != "" {
		s.lastSpeakerID = t.PersonaID
		s.recentSpeakers = append(s.recentSpeakers, t.PersonaID)
		if len(s.recentSpeakers) > s.recentLimit {
			s.recentSpeakers = s.recentSpeakers[len(s.recentSpeakers)-s.recentLimit:]
		}
	}
}

// History returns a copy of the bounded history, oldest first.
func (s *State) History() []types.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Turn, len(s.history))
	copy(out, s.history)
	return out
}

// LastSpeaker returns the persona that spoke last, or empty.
func (s *State) LastSpeaker() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSpeakerID
}

// Active returns the current active set and its rotation timestamp.
func (s *State) Active() ([]string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.active))
	copy(out, s.active)
	return out, s.lastRotation
}

// SetActive replaces the active set whole. Partial rotation is not a thing.
func (s *State) SetActive(ids []string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = make([]string, len(ids))
	copy(s.active, ids)
	s.lastRotation = now
}

// Assign binds a persona to a human. Re-assigning refreshes recency; a third
// binding evicts the least-recently-used one.
func (s *State) Assign(humanID, personaID string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.assigned[humanID]
	for i, a := range list {
		if a.personaID == personaID {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	list = append(list, assignment{personaID: personaID, at: now})
	if len(list) > MaxAssigned {
		list = list[len(list)-MaxAssigned:]
	}
	s.assigned[humanID] = list
}

// Assigned returns the personas bound to a human, oldest first.
func (s *State) Assigned(humanID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.assigned[humanID]
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.personaID)
	}
	return out
}

// IsAssigned reports whether a persona is bound to any human in the room.
func (s *State) IsAssigned(personaID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.assigned {
		for _, a := range list {
			if a.personaID == personaID {
				return true
			}
		}
	}
	return false
}

// MarkGreeted records that a human received their first-greeting treatment.
// It returns false if the human was already greeted.
func (s *State) MarkGreeted(humanID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.greeted[humanID] {
		return false
	}
	s.greeted[humanID] = true
	return true
}
