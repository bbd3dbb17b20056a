package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Snippet is one recalled memory.
type Snippet struct {
	Content    string
	Similarity float64
	CreatedAt  time.Time
}

// Store persists and searches memory records.
type Store interface {
	Add(ctx context.Context, personaID, humanID, content string, embedding []float32) error
	SearchSimilar(ctx context.Context, personaID, humanID string, embedding []float32, topK int, threshold float64) ([]Snippet, error)
}

// memoryModel maps to the persona_memories table.
type memoryModel struct {
	ID        int `gorm:"primaryKey"`
	PersonaID string
	HumanID   string
	Content   string
	Embedding *pgvector.Vector `gorm:"type:vector"`
	CreatedAt time.Time
}

func (memoryModel) TableName() string {
	return "persona_memories"
}

// PostgresRepo accesses memory records with gorm and pgvector.
type PostgresRepo struct {
	db *gorm.DB
}

// NewPostgresRepo returns a PostgresRepo.
func NewPostgresRepo(db *gorm.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Add(ctx context.Context, personaID, humanID, content string, embedding []float32) error {
	var vector *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vector = &v
	}
	record := memoryModel{
		PersonaID: personaID,
		HumanID:   humanID,
		Content:   content,
		Embedding: vector,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert memory: %w", err)
	}
	return nil
}

func (r *PostgresRepo) SearchSimilar(ctx context.Context, personaID, humanID string, embedding []float32, topK int, threshold float64) ([]Snippet, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	query := `
		SELECT content, created_at, 1 - (embedding <=> $1) AS similarity
		FROM persona_memories
		WHERE persona_id = $2
		  AND human_id = $3
		  AND embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) > $4
		ORDER BY similarity DESC
		LIMIT $5`

	vector := pgvector.NewVector(embedding)
	var results []Snippet
	if err := r.db.WithContext(ctx).
		Raw(query, vector, personaID, humanID, threshold, topK).
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to search similar memories: %w", err)
	}
	return results, nil
}
