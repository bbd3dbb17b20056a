// Package store is the message-store collaborator boundary. The orchestrator
// only ever sends; persistence and real-time delivery live elsewhere.
package store

import (
	"context"
	"time"
)

// Message kinds.
const (
	KindChat     = "chat"
	KindGreeting = "greeting"
)

// Outgoing is one message leaving the orchestrator.
type Outgoing struct {
	SenderID    string
	DisplayName string
	AvatarRef   string
	Text        string
	Kind        string
}

// Message is a persisted room message.
type Message struct {
	ID          string
	RoomID      string
	SenderID    string
	DisplayName string
	AvatarRef   string
	Text        string
	Kind        string
	CreatedAt   time.Time
}

// MessageStore delivers persona messages into a room.
type MessageStore interface {
	Send(ctx context.Context, roomID string, msg Outgoing) (string, error)
}
