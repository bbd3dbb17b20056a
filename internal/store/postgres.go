package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// messageModel maps to the messages table.
type messageModel struct {
	ID          string `gorm:"primaryKey"`
	RoomID      string `gorm:"index"`
	SenderID    string
	DisplayName string
	AvatarRef   string
	Text        string
	Kind        string
	CreatedAt   time.Time
}

func (messageModel) TableName() string {
	return "messages"
}

// PostgresStore persists outgoing messages with gorm.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore opens the database and verifies the connection.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Send inserts one message and returns its id.
func (s *PostgresStore) Send(ctx context.Context, roomID string, msg Outgoing) (string, error) {
	record := messageModel{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		SenderID:    msg.SenderID,
		DisplayName: msg.DisplayName,
		AvatarRef:   msg.AvatarRef,
		Text:        msg.Text,
		Kind:        msg.Kind,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to insert message: %w", err)
	}
	return record.ID, nil
}

// DB exposes the underlying gorm handle for sibling repositories sharing the
// pool.
func (s *PostgresStore) DB() *gorm.DB {
	return s.db
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	return sqlDB.Close()
}
