package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vozlabs/pulso/internal/gateway"
	"github.com/vozlabs/pulso/internal/guard"
	"github.com/vozlabs/pulso/internal/room"
)

// pulse is one ambient tick: rotate if due, pick one to three speakers, and
// stagger their sends so outputs never batch.
func (e *Engine) pulse(ctx context.Context, st *room.State) {
	e.rotateIfDue(st)

	speakers := e.pickAmbientSpeakers(st)
	if len(speakers) == 0 {
		slog.Debug("pulse skipped", "room", st.RoomID, "reason", ErrNoPersonaAvailable)
		return
	}

	delay := e.jitter(0, 5*time.Second)
	for _, personaID := range speakers {
		id := personaID
		e.schedule(ctx, delay, func() {
			e.speakAmbient(ctx, st, id)
		})
		delay += e.jitter(e.cfg.StaggerMin, e.cfg.StaggerMax)
	}
}

// pickAmbientSpeakers draws 1-3 eligible speakers from the active set:
// never the last speaker, never a blocked persona, group personas only with
// a group peer present, and assigned personas usually passed over so they
// stay free for their human.
func (e *Engine) pickAmbientSpeakers(st *room.State) []string {
	active, _ := st.Active()
	if len(active) == 0 {
		return nil
	}
	last := st.LastSpeaker()

	pool := make([]string, 0, len(active))
	for _, id := range active {
		if id == last {
			continue
		}
		if e.deps.Guard.Blocked(id, st.RoomID) {
			continue
		}
		p := e.deps.Registry.Get(id)
		if p == nil {
			continue
		}
		if p.GroupID != "" && !e.deps.Registry.GroupPeer(active, id) {
			continue
		}
		if st.IsAssigned(id) && e.chance(e.cfg.AssignedSkipChance) {
			continue
		}
		pool = append(pool, id)
	}
	if len(pool) == 0 {
		return nil
	}

	e.shuffle(pool)
	n := 1 + e.intn(3)
	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n]
}

// speakAmbient produces one agent-to-agent message.
func (e *Engine) speakAmbient(ctx context.Context, st *room.State, personaID string) {
	err := e.deliver(ctx, st, personaID, delivery{})
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, context.Canceled):
	case errors.Is(err, errSelfRepeat):
		slog.Debug("ambient turn skipped", "room", st.RoomID, "persona", personaID, "error", err)
	case errors.Is(err, guard.ErrRepetitionRejected), errors.Is(err, guard.ErrBlocked):
		slog.Debug("ambient turn suppressed", "room", st.RoomID, "persona", personaID, "error", err)
	case errors.Is(err, gateway.ErrPolicyViolation), errors.Is(err, gateway.ErrProviderUnavailable):
		slog.Warn("ambient turn dropped", "room", st.RoomID, "persona", personaID, "error", err)
	default:
		slog.Warn("ambient turn failed", "room", st.RoomID, "persona", personaID, "error", err)
	}
}
