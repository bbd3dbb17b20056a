// Package ledger enforces per-room topic cooldowns and greeting caps.
package ledger

import (
	"strings"
	"sync"
	"time"

	"github.com/vozlabs/pulso/internal/guard"
)

// TopicLedger blocks discussion topics from being reused by persona-to-persona
// exchanges for a cooldown window. Expired entries are purged lazily.
type TopicLedger struct {
	cooldown time.Duration
	topics   []string

	mu      sync.Mutex
	entries map[string]map[string]time.Time // roomID -> topic -> recordedAt
	nowFunc func() time.Time
}

// NewTopicLedger returns a TopicLedger tracking the given topic keywords.
func NewTopicLedger(topics []string, cooldown time.Duration) *TopicLedger {
	if cooldown <= 0 {
		cooldown = 96 * time.Hour
	}
	normalized := make([]string, 0, len(topics))
	for _, t := range topics {
		if n := guard.Normalize(t); n != "" {
			normalized = append(normalized, n)
		}
	}
	return &TopicLedger{
		cooldown: cooldown,
		topics:   normalized,
		entries:  make(map[string]map[string]time.Time),
		nowFunc:  time.Now,
	}
}

// Extract returns the first tracked topic present in the text, or empty.
func (l *TopicLedger) Extract(text string) string {
	norm := " " + guard.Normalize(text) + " "
	for _, t := range l.topics {
		if strings.Contains(norm, " "+t+" ") {
			return t
		}
	}
	return ""
}

// Record marks a topic as recently used in the room.
func (l *TopicLedger) Record(roomID, topic string) {
	if topic == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	byTopic, ok := l.entries[roomID]
	if !ok {
		byTopic = make(map[string]time.Time)
		l.entries[roomID] = byTopic
	}
	byTopic[topic] = l.nowFunc()
}

// Blocked reports whether the topic is inside its cooldown for the room.
func (l *TopicLedger) Blocked(roomID, topic string) bool {
	if topic == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	byTopic := l.entries[roomID]
	at, ok := byTopic[topic]
	if !ok {
		return false
	}
	if l.nowFunc().Sub(at) >= l.cooldown {
		delete(byTopic, topic)
		return false
	}
	return true
}

// DropRoom releases the room's topic entries.
func (l *TopicLedger) DropRoom(roomID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, roomID)
}

// Sweep purges every expired topic entry.
func (l *TopicLedger) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFunc()
	for roomID, byTopic := range l.entries {
		for topic, at := range byTopic {
			if now.Sub(at) >= l.cooldown {
				delete(byTopic, topic)
			}
		}
		if len(byTopic) == 0 {
			delete(l.entries, roomID)
		}
	}
}
