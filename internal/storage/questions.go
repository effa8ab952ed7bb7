package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/naze-ai/naze/internal/model"
)

// CreateQuestion inserts a question and returns it.
func (db *DB) CreateQuestion(ctx context.Context, q model.Question) (model.Question, error) {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO questions (id, user_id, question, mode, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		q.ID, q.UserID, q.Question, q.Mode, q.CreatedAt,
	)
	if err != nil {
		return model.Question{}, fmt.Errorf("storage: create question: %w", err)
	}
	return q, nil
}

// GetQuestion retrieves a question by ID.
func (db *DB) GetQuestion(ctx context.Context, id uuid.UUID) (model.Question, error) {
	var q model.Question
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, question, mode, created_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.UserID, &q.Question, &q.Mode, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Question{}, fmt.Errorf("storage: question %s: %w", id, ErrNotFound)
		}
		return model.Question{}, fmt.Errorf("storage: get question: %w", err)
	}
	return q, nil
}

// UpdateQuestionMode changes a question's visibility mode and returns the updated record.
func (db *DB) UpdateQuestionMode(ctx context.Context, id uuid.UUID, mode model.Mode) (model.Question, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE questions SET mode = $2 WHERE id = $1`, id, mode,
	)
	if err != nil {
		return model.Question{}, fmt.Errorf("storage: update question mode: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Question{}, fmt.Errorf("storage: question %s: %w", id, ErrNotFound)
	}
	return db.GetQuestion(ctx, id)
}
