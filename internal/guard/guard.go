package guard

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrRepetitionRejected means a candidate message duplicated recent output.
// The persona takes a short penalty; only this message is dropped.
var ErrRepetitionRejected = errors.New("repetition rejected")

// ErrBlocked means the persona is inside a penalty window.
var ErrBlocked = errors.New("persona is blocked")

type entry struct {
	norm string
	at   time.Time
}

// Config are the guard thresholds. Zero values fall back to the shipped
// defaults.
type Config struct {
	DedupWindow         time.Duration
	BurstWindow         time.Duration
	PenaltyWindow       time.Duration
	MinSendDelay        time.Duration
	OwnSimilarity       float64
	BurstSimilarity     float64
	SaturationWindow    int
	SaturationThreshold int
	Keywords            []string
}

func (c Config) withDefaults() Config {
	if c.DedupWindow <= 0 {
		c.DedupWindow = time.Hour
	}
	if c.BurstWindow <= 0 {
		c.BurstWindow = 60 * time.Second
	}
	if c.PenaltyWindow <= 0 {
		c.PenaltyWindow = time.Minute
	}
	if c.MinSendDelay <= 0 {
		c.MinSendDelay = 5 * time.Second
	}
	if c.OwnSimilarity <= 0 {
		c.OwnSimilarity = 0.95
	}
	if c.BurstSimilarity <= 0 {
		c.BurstSimilarity = 0.70
	}
	if c.SaturationWindow <= 0 {
		c.SaturationWindow = 10
	}
	if c.SaturationThreshold <= 0 {
		c.SaturationThreshold = 4
	}
	return c
}

// Guard tracks per-persona recent output and per-room message flow to reject
// duplicates, bursts and premature sends. Per persona the state machine is
// Unblocked -> Blocked(until) -> Unblocked; the penalty auto-expires.
type Guard struct {
	cfg Config

	mu         sync.Mutex
	cache      map[string][]entry    // personaID -> trailing-window output
	blocked    map[string]time.Time  // personaID|roomID -> penalty expiry
	lastSent   map[string]time.Time  // personaID|roomID -> last completed send
	roomRecent map[string][]string   // roomID -> normalized last messages
	sendLocks  map[string]*sync.Mutex

	nowFunc func() time.Time
}

// New returns a Guard with the given thresholds.
func New(cfg Config) *Guard {
	return &Guard{
		cfg:        cfg.withDefaults(),
		cache:      make(map[string][]entry),
		blocked:    make(map[string]time.Time),
		lastSent:   make(map[string]time.Time),
		roomRecent: make(map[string][]string),
		sendLocks:  make(map[string]*sync.Mutex),
		nowFunc:    time.Now,
	}
}

func key(personaID, roomID string) string {
	return personaID + "|" + roomID
}

// Blocked reports whether the persona is inside a penalty window in the room.
func (g *Guard) Blocked(personaID, roomID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	until, ok := g.blocked[key(personaID, roomID)]
	if !ok {
		return false
	}
	if g.nowFunc().Before(until) {
		return true
	}
	delete(g.blocked, key(personaID, roomID))
	return false
}

// Check gates a candidate message. A rejection applies the penalty window and
// means this message must be discarded; the persona recovers on expiry.
func (g *Guard) Check(personaID, roomID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.nowFunc()
	if until, ok := g.blocked[key(personaID, roomID)]; ok {
		if now.Before(until) {
			return ErrBlocked
		}
		delete(g.blocked, key(personaID, roomID))
	}

	norm := Normalize(text)
	recent := g.purgeLocked(personaID, now)

	// Near match anywhere in the trailing dedup window.
	for _, e := range recent {
		if Similarity(e.norm, norm) >= g.cfg.OwnSimilarity {
			g.blocked[key(personaID, roomID)] = now.Add(g.cfg.PenaltyWindow)
			return ErrRepetitionRejected
		}
	}

	// Burst inside the short window: a third broadly similar message. A
	// repeat of identical text never reaches this rule; the near-match check
	// above already covers it.
	similar := 0
	for _, e := range recent {
		if now.Sub(e.at) > g.cfg.BurstWindow {
			continue
		}
		if Similarity(e.norm, norm) >= g.cfg.BurstSimilarity {
			similar++
		}
	}
	if similar >= 2 {
		g.blocked[key(personaID, roomID)] = now.Add(g.cfg.PenaltyWindow)
		return ErrRepetitionRejected
	}
	return nil
}

// Accept records an outgoing persona message into the dedup cache and the
// room's recent flow.
func (g *Guard) Accept(personaID, roomID, text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.nowFunc()
	g.cache[personaID] = append(g.purgeLocked(personaID, now), entry{norm: Normalize(text), at: now})
	g.recordRoomLocked(roomID, text)
}

// RecordRoomMessage feeds a message (human or persona) into the room's
// saturation window.
func (g *Guard) RecordRoomMessage(roomID, text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recordRoomLocked(roomID, text)
}

func (g *Guard) recordRoomLocked(roomID, text string) {
	msgs := append(g.roomRecent[roomID], Normalize(text))
	if len(msgs) > g.cfg.SaturationWindow {
		msgs = msgs[len(msgs)-g.cfg.SaturationWindow:]
	}
	g.roomRecent[roomID] = msgs
}

// SaturatedKeywords returns the tracked keywords appearing beyond the
// threshold in the room's recent flow. The gateway is told to steer away
// from them on the next attempt.
func (g *Guard) SaturatedKeywords(roomID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	msgs := g.roomRecent[roomID]
	if len(msgs) == 0 {
		return nil
	}
	var saturated []string
	for _, kw := range g.cfg.Keywords {
		normKw := Normalize(kw)
		if normKw == "" {
			continue
		}
		count := 0
		for _, m := range msgs {
			count += strings.Count(m, normKw)
		}
		if count > g.cfg.SaturationThreshold {
			saturated = append(saturated, kw)
		}
	}
	return saturated
}

// LockSend takes the delivery lock for one persona in one room. A delivery
// holds it from the delay gate through MarkSent, so no second turn for the
// same persona can pass the gate while another is in flight. The returned
// release must always be called.
func (g *Guard) LockSend(personaID, roomID string) func() {
	g.mu.Lock()
	m, ok := g.sendLocks[key(personaID, roomID)]
	if !ok {
		m = &sync.Mutex{}
		g.sendLocks[key(personaID, roomID)] = m
	}
	g.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// NextAllowed returns the earliest time the persona may send again in the
// room under the minimum inter-message delay.
func (g *Guard) NextAllowed(personaID, roomID string) time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	last, ok := g.lastSent[key(personaID, roomID)]
	if !ok {
		return g.nowFunc()
	}
	return last.Add(g.cfg.MinSendDelay)
}

// MarkSent records a completed send. Called only after the message actually
// left the system, so back-to-back sends cannot slip through a race.
func (g *Guard) MarkSent(personaID, roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastSent[key(personaID, roomID)] = g.nowFunc()
}

// DropRoom releases room-scoped guard state on teardown.
func (g *Guard) DropRoom(roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.roomRecent, roomID)
	suffix := "|" + roomID
	for k := range g.blocked {
		if strings.HasSuffix(k, suffix) {
			delete(g.blocked, k)
		}
	}
	for k := range g.lastSent {
		if strings.HasSuffix(k, suffix) {
			delete(g.lastSent, k)
		}
	}
}

// Sweep purges expired cache entries and penalties across all personas.
func (g *Guard) Sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.nowFunc()
	for personaID := range g.cache {
		kept := g.purgeLocked(personaID, now)
		if len(kept) == 0 {
			delete(g.cache, personaID)
		}
	}
	for k, until := range g.blocked {
		if !now.Before(until) {
			delete(g.blocked, k)
		}
	}
}

// purgeLocked drops expired entries for a persona and returns the survivors.
func (g *Guard) purgeLocked(personaID string, now time.Time) []entry {
	recent := g.cache[personaID]
	kept := recent[:0]
	for _, e := range recent {
		if now.Sub(e.at) <= g.cfg.DedupWindow {
			kept = append(kept, e)
		}
	}
	g.cache[personaID] = kept
	return kept
}
