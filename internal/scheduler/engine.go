// Package scheduler drives persona conversation: periodic ambient pulses
// plus an event-driven path reacting to inbound human messages.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/vozlabs/pulso/internal/engage"
	"github.com/vozlabs/pulso/internal/gateway"
	"github.com/vozlabs/pulso/internal/guard"
	"github.com/vozlabs/pulso/internal/ledger"
	"github.com/vozlabs/pulso/internal/memory"
	"github.com/vozlabs/pulso/internal/persona"
	"github.com/vozlabs/pulso/internal/room"
	"github.com/vozlabs/pulso/internal/store"
)

// ErrNoPersonaAvailable means a scheduling tick found no eligible speaker.
// The tick is skipped; the next pulse retries.
var ErrNoPersonaAvailable = errors.New("no persona available")

// Config are the scheduling knobs.
type Config struct {
	PulseMin            time.Duration
	PulseMax            time.Duration
	StaggerMin          time.Duration
	StaggerMax          time.Duration
	MentionReplyMin     time.Duration
	MentionReplyMax     time.Duration
	GreetFirstReplyMin  time.Duration
	GreetFirstReplyMax  time.Duration
	GreetSecondReplyMin time.Duration
	GreetSecondReplyMax time.Duration
	UrgentReplyDelay    time.Duration
	NormalReplyDelay    time.Duration
	PresenceUpperBound  int
	RotationInterval    time.Duration
	AmbientCharLimit    int
	AmbientWordLimit    int
	DirectCharLimit     int
	DirectWordLimit     int
	// AssignedSkipChance is how often an ambient pulse passes over a persona
	// already assigned to a human, leaving it free to answer them.
	AssignedSkipChance float64
}

func (c Config) withDefaults() Config {
	if c.PulseMin <= 0 {
		c.PulseMin = 30 * time.Second
	}
	if c.PulseMax < c.PulseMin {
		c.PulseMax = c.PulseMin * 2
	}
	if c.StaggerMin <= 0 {
		c.StaggerMin = 15 * time.Second
	}
	if c.StaggerMax < c.StaggerMin {
		c.StaggerMax = c.StaggerMin * 2
	}
	if c.PresenceUpperBound <= 0 {
		c.PresenceUpperBound = 25
	}
	if c.RotationInterval <= 0 {
		c.RotationInterval = 3 * time.Hour
	}
	if c.AssignedSkipChance <= 0 {
		c.AssignedSkipChance = 0.7
	}
	if c.UrgentReplyDelay <= 0 {
		c.UrgentReplyDelay = 2 * time.Second
	}
	if c.NormalReplyDelay <= 0 {
		c.NormalReplyDelay = 6 * time.Second
	}
	return c
}

// Deps are the collaborators the engine orchestrates.
type Deps struct {
	Registry  *persona.Registry
	Rooms     *room.Registry
	Guard     *guard.Guard
	Topics    *ledger.TopicLedger
	Greetings *ledger.GreetingLedger
	Engage    *engage.Tracker
	Analyzer  *engage.Analyzer
	Gateway   *gateway.Gateway
	Store     store.MessageStore
	Memories  *memory.Service
}

type roomLoop struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Engine is the pulse engine. One timer-driven control flow per live room;
// per-room cancellation tears down every pending turn as a group.
type Engine struct {
	cfg  Config
	deps Deps

	baseCtx context.Context

	mu    sync.Mutex
	loops map[string]*roomLoop

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New returns an Engine.
func New(cfg Config, deps Deps) *Engine {
	return &Engine{
		cfg:     cfg.withDefaults(),
		deps:    deps,
		baseCtx: context.Background(),
		loops:   make(map[string]*roomLoop),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start sets the root context all room loops descend from.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	e.baseCtx = ctx
	e.mu.Unlock()
}

// Stop tears down every live room.
func (e *Engine) Stop() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.loops))
	for id := range e.loops {
		ids = append(ids, id)
	}
	e.mu.Unlock()
	for _, id := range ids {
		e.stopRoom(id)
	}
}

// OnActivityChanged is the presence signal. The room's scheduler runs while
// the real-human count sits in [1, PresenceUpperBound); outside that band it
// stops — zero humans need no ambience, and a saturated room has enough
// genuine activity already.
func (e *Engine) OnActivityChanged(roomID, category string, humans int) {
	if humans >= 1 && humans < e.cfg.PresenceUpperBound {
		e.startRoom(roomID, category)
		return
	}
	e.stopRoom(roomID)
}

func (e *Engine) startRoom(roomID, category string) {
	e.mu.Lock()
	if _, running := e.loops[roomID]; running {
		e.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(e.baseCtx)
	e.loops[roomID] = &roomLoop{ctx: ctx, cancel: cancel}
	e.mu.Unlock()

	st := e.deps.Rooms.GetOrCreate(roomID, category)
	e.rotateIfDue(st)
	slog.Info("room scheduler started", "room", roomID, "category", category)
	go e.ambientLoop(ctx, st)
}

func (e *Engine) stopRoom(roomID string) {
	e.mu.Lock()
	loop, running := e.loops[roomID]
	if running {
		delete(e.loops, roomID)
	}
	e.mu.Unlock()
	if !running {
		return
	}

	loop.cancel()
	e.deps.Rooms.Drop(roomID)
	e.deps.Guard.DropRoom(roomID)
	e.deps.Topics.DropRoom(roomID)
	e.deps.Greetings.DropRoom(roomID)
	e.deps.Engage.DropRoom(roomID)
	slog.Info("room scheduler stopped", "room", roomID)
}

// loopCtx returns the room's cancellation context, or nil if not running.
func (e *Engine) loopCtx(roomID string) context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	if loop, ok := e.loops[roomID]; ok {
		return loop.ctx
	}
	return nil
}

// ambientLoop emits jittered pulses until the room is torn down.
func (e *Engine) ambientLoop(ctx context.Context, st *room.State) {
	for {
		timer := time.NewTimer(e.jitter(e.cfg.PulseMin, e.cfg.PulseMax))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		e.pulse(ctx, st)
	}
}

// schedule runs fn after delay on its own goroutine, abandoned if the room's
// context is cancelled first. Each turn is isolated: one persona's failure
// never delays another's.
func (e *Engine) schedule(ctx context.Context, delay time.Duration, fn func()) {
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			fn()
		}
	}()
}

// rotateIfDue recomputes the room's active set at rotation boundaries. The
// set changes whole or not at all; calling this on every tick is safe.
func (e *Engine) rotateIfDue(st *room.State) {
	active, last := st.Active()
	now := time.Now()
	if len(active) > 0 && now.Sub(last) < e.cfg.RotationInterval {
		return
	}
	fresh := e.deps.Registry.SelectActive(st.Category)
	if len(fresh) == 0 {
		slog.Warn("no eligible personas for room", "room", st.RoomID, "category", st.Category)
		return
	}
	st.SetActive(fresh, now)
	slog.Debug("active set rotated", "room", st.RoomID, "size", len(fresh))
}

// Sweep purges expired cache entries and nudges rotation on live rooms.
// Wired to the host's maintenance cron.
func (e *Engine) Sweep() {
	e.deps.Guard.Sweep()
	e.deps.Topics.Sweep()
	e.deps.Greetings.Sweep()
	for _, roomID := range e.deps.Rooms.Live() {
		if st := e.deps.Rooms.Get(roomID); st != nil {
			e.rotateIfDue(st)
		}
	}
}

func (e *Engine) jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return min + time.Duration(e.rng.Int63n(int64(max-min)))
}

func (e *Engine) chance(p float64) bool {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64() < p
}

func (e *Engine) intn(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Intn(n)
}

func (e *Engine) shuffle(ids []string) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	e.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}
