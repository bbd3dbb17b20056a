package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vozlabs/pulso/internal/gateway"
	"github.com/vozlabs/pulso/internal/guard"
	"github.com/vozlabs/pulso/internal/room"
	"github.com/vozlabs/pulso/internal/store"
	"github.com/vozlabs/pulso/internal/types"
)

// errSelfRepeat means the persona would immediately follow its own message.
var errSelfRepeat = errors.New("persona spoke last")

// delivery describes one outgoing turn. A zero value is an ambient
// agent-to-agent turn; a set humanID makes it human-directed.
type delivery struct {
	humanID   string
	humanName string
	humanText string
	kind      string
}

// deliver runs the full send path for one persona turn: minimum-delay wait,
// generation, topic check, spam guard, store send, then state updates. The
// guard's lastSent mark moves only after the message actually left.
func (e *Engine) deliver(ctx context.Context, st *room.State, personaID string, d delivery) error {
	p := e.deps.Registry.Get(personaID)
	if p == nil {
		return fmt.Errorf("unknown persona %q", personaID)
	}
	humanward := d.humanID != ""

	// Deliveries for one persona in one room run strictly one at a time,
	// from the delay gate through MarkSent. Without the lock, two concurrent
	// turns could both pass the gate during a provider round-trip.
	release := e.deps.Guard.LockSend(personaID, st.RoomID)
	defer release()
	if err := ctx.Err(); err != nil {
		return err
	}

	// Minimum inter-message spacing: wait out exactly the remainder instead
	// of dropping the turn.
	if wait := time.Until(e.deps.Guard.NextAllowed(personaID, st.RoomID)); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if e.deps.Guard.Blocked(personaID, st.RoomID) {
		return guard.ErrBlocked
	}
	if !humanward && st.LastSpeaker() == personaID {
		return errSelfRepeat
	}

	var heat int
	if humanward {
		intensity := e.deps.Analyzer.Intensity(d.humanText)
		heat = e.deps.Engage.OnHumanInteraction(personaID, st.RoomID, d.humanID, p.GreetingStyle, intensity)
	} else {
		heat = e.deps.Engage.Heat(personaID, st.RoomID, p.GreetingStyle)
	}

	req := gateway.Request{
		Persona:       p,
		Heat:          heat,
		Humanward:     humanward,
		HumanName:     d.humanName,
		HumanText:     d.humanText,
		History:       st.History(),
		AvoidKeywords: e.deps.Guard.SaturatedKeywords(st.RoomID),
		CharLimit:     e.cfg.AmbientCharLimit,
		WordLimit:     e.cfg.AmbientWordLimit,
	}
	if humanward {
		req.CharLimit = e.cfg.DirectCharLimit
		req.WordLimit = e.cfg.DirectWordLimit
		req.Memories = e.deps.Memories.Recall(ctx, personaID, d.humanID, d.humanText)
	}

	text, err := e.deps.Gateway.Generate(ctx, req)
	if err != nil {
		return err
	}

	// Topic cooldown applies to agent-to-agent exchanges: one re-prompt away
	// from a blocked topic, else the message goes out untracked.
	topic := ""
	if !humanward {
		topic = e.deps.Topics.Extract(text)
		if topic != "" && e.deps.Topics.Blocked(st.RoomID, topic) {
			req.AvoidTopics = append(req.AvoidTopics, topic)
			if retry, rerr := e.deps.Gateway.Generate(ctx, req); rerr == nil && retry != "" {
				text = retry
			}
			topic = e.deps.Topics.Extract(text)
			if topic != "" && e.deps.Topics.Blocked(st.RoomID, topic) {
				topic = ""
			}
		}
	}

	if err := e.deps.Guard.Check(personaID, st.RoomID, text); err != nil {
		return err
	}

	kind := d.kind
	if kind == "" {
		kind = store.KindChat
	}
	// The greeting cap is re-checked at send time; a scheduled greeting that
	// no longer fits the window goes out as an ordinary message.
	if kind == store.KindGreeting && !e.deps.Greetings.CanGreet(st.RoomID, d.humanName) {
		kind = store.KindChat
	}
	if _, err := e.deps.Store.Send(ctx, st.RoomID, store.Outgoing{
		SenderID:    personaID,
		DisplayName: p.DisplayName,
		AvatarRef:   p.AvatarRef,
		Text:        text,
		Kind:        kind,
	}); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	e.deps.Guard.MarkSent(personaID, st.RoomID)
	e.deps.Guard.Accept(personaID, st.RoomID, text)
	st.AppendTurn(types.Turn{
		PersonaID:   personaID,
		DisplayName: p.DisplayName,
		Text:        text,
		SentAt:      time.Now(),
	})
	if topic != "" {
		e.deps.Topics.Record(st.RoomID, topic)
	}
	if kind == store.KindGreeting {
		e.deps.Greetings.RecordGreeting(st.RoomID, d.humanName)
	}
	if humanward {
		e.deps.Memories.RecordAsync(ctx, personaID, d.humanID,
			fmt.Sprintf("%s: %s / %s: %s", d.humanName, d.humanText, p.DisplayName, text))
	}
	return nil
}
