package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/vozlabs/pulso/internal/guard"
	"github.com/vozlabs/pulso/internal/room"
	"github.com/vozlabs/pulso/internal/store"
	"github.com/vozlabs/pulso/internal/types"
)

// OnHumanMessage is the event-driven path: an inbound human message gets a
// prioritized response ahead of ambient turns, without preempting any send
// already in flight.
func (e *Engine) OnHumanMessage(roomID, humanID, username, text string) {
	st := e.deps.Rooms.Get(roomID)
	ctx := e.loopCtx(roomID)
	if st == nil || ctx == nil {
		return
	}

	st.AppendTurn(types.Turn{
		HumanID:     humanID,
		DisplayName: username,
		Text:        text,
		SentAt:      time.Now(),
	})
	e.deps.Guard.RecordRoomMessage(roomID, text)
	e.rotateIfDue(st)

	active, _ := st.Active()
	candidates := e.deps.Registry.HumanCandidates(active)
	if len(candidates) == 0 {
		slog.Warn("no candidates to answer human", "room", roomID)
		return
	}

	now := time.Now()

	// An explicit mention wins: that persona answers fast and binds to the
	// human regardless of current assignments.
	if mentioned := e.mentionedPersona(text, candidates); mentioned != "" {
		st.Assign(humanID, mentioned, now)
		delay := e.jitter(e.cfg.MentionReplyMin, e.cfg.MentionReplyMax)
		e.scheduleHumanReply(ctx, st, mentioned, candidates, delivery{
			humanID: humanID, humanName: username, humanText: text,
		}, delay)
		return
	}

	// First greeting: hand the human up to two personas with staggered
	// welcomes, never more than the username's remaining greeting allowance.
	// The ledger is keyed by username, so a returning human under a fresh id
	// stays inside the same cap.
	if e.deps.Analyzer.IsGreeting(text) {
		if allowance := e.deps.Greetings.Allowance(roomID, username); allowance > 0 && st.MarkGreeted(humanID) {
			greeters := e.pickGreeters(st, candidates)
			if len(greeters) > allowance {
				greeters = greeters[:allowance]
			}
			delays := []time.Duration{
				e.jitter(e.cfg.GreetFirstReplyMin, e.cfg.GreetFirstReplyMax),
				e.jitter(e.cfg.GreetSecondReplyMin, e.cfg.GreetSecondReplyMax),
			}
			for i, id := range greeters {
				st.Assign(humanID, id, now)
				e.scheduleHumanReply(ctx, st, id, candidates, delivery{
					humanID: humanID, humanName: username, humanText: text,
					kind: store.KindGreeting,
				}, delays[i])
			}
			return
		}
	}

	// Ordinary message: an assigned persona answers, faster when the human
	// sounds impatient.
	assigned := st.Assigned(humanID)
	if len(assigned) == 0 {
		pick := e.preferUnassigned(st, candidates)
		st.Assign(humanID, pick, now)
		assigned = []string{pick}
	}
	responder := assigned[e.intn(len(assigned))]
	delay := e.cfg.NormalReplyDelay
	if e.deps.Analyzer.IsUrgent(text) {
		delay = e.cfg.UrgentReplyDelay
	}
	e.scheduleHumanReply(ctx, st, responder, candidates, delivery{
		humanID: humanID, humanName: username, humanText: text,
	}, delay)
}

// scheduleHumanReply delivers after the delay; if the chosen persona cannot
// produce a valid response, a different non-assigned persona steps in so the
// human is never left unanswered.
func (e *Engine) scheduleHumanReply(ctx context.Context, st *room.State, personaID string, candidates []string, d delivery, delay time.Duration) {
	e.schedule(ctx, delay, func() {
		err := e.deliver(ctx, st, personaID, d)
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		slog.Warn("human reply failed, selecting fallback",
			"room", st.RoomID, "persona", personaID, "error", err)

		fallback := e.fallbackResponder(st, candidates, personaID)
		if fallback == "" {
			slog.Warn("no fallback responder available", "room", st.RoomID)
			return
		}
		if err := e.deliver(ctx, st, fallback, d); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("fallback reply failed", "room", st.RoomID, "persona", fallback, "error", err)
		}
	})
}

// mentionedPersona returns the first candidate whose display name appears as
// a word in the text.
func (e *Engine) mentionedPersona(text string, candidates []string) string {
	norm := " " + guard.Normalize(text) + " "
	for _, id := range candidates {
		p := e.deps.Registry.Get(id)
		if p == nil {
			continue
		}
		name := guard.Normalize(p.DisplayName)
		if name == "" {
			continue
		}
		if strings.Contains(norm, " "+name+" ") {
			return id
		}
	}
	return ""
}

// pickGreeters chooses two greeting personas, preferring ones not already
// assigned to another human.
func (e *Engine) pickGreeters(st *room.State, candidates []string) []string {
	pool := append([]string(nil), candidates...)
	e.shuffle(pool)

	free := make([]string, 0, len(pool))
	busy := make([]string, 0, len(pool))
	for _, id := range pool {
		if st.IsAssigned(id) {
			busy = append(busy, id)
		} else {
			free = append(free, id)
		}
	}
	ordered := append(free, busy...)
	if len(ordered) > room.MaxAssigned {
		ordered = ordered[:room.MaxAssigned]
	}
	return ordered
}

// preferUnassigned picks one candidate, favoring a free persona.
func (e *Engine) preferUnassigned(st *room.State, candidates []string) string {
	pool := append([]string(nil), candidates...)
	e.shuffle(pool)
	for _, id := range pool {
		if !st.IsAssigned(id) {
			return id
		}
	}
	return pool[0]
}

// fallbackResponder finds a different, unblocked, preferably non-assigned
// persona.
func (e *Engine) fallbackResponder(st *room.State, candidates []string, exclude string) string {
	pool := append([]string(nil), candidates...)
	e.shuffle(pool)
	var any string
	for _, id := range pool {
		if id == exclude || e.deps.Guard.Blocked(id, st.RoomID) {
			continue
		}
		if !st.IsAssigned(id) {
			return id
		}
		if any == "" {
			any = id
		}
	}
	return any
}
