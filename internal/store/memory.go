package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps messages in process memory. Used by tests and local
// runs without a database.
type InMemoryStore struct {
	mu       sync.Mutex
	messages map[string][]Message // roomID -> messages in send order
}

// NewInMemoryStore returns an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{messages: make(map[string][]Message)}
}

// Send appends one message and returns its id.
func (s *InMemoryStore) Send(ctx context.Context, roomID string, msg Outgoing) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := Message{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		SenderID:    msg.SenderID,
		DisplayName: msg.DisplayName,
		AvatarRef:   msg.AvatarRef,
		Text:        msg.Text,
		Kind:        msg.Kind,
		CreatedAt:   time.Now(),
	}
	s.messages[roomID] = append(s.messages[roomID], m)
	return m.ID, nil
}

// Messages returns a copy of the room's messages in send order.
func (s *InMemoryStore) Messages(roomID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages[roomID]))
	copy(out, s.messages[roomID])
	return out
}
