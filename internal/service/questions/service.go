// Package questions provides the business logic for question operations.
package questions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/naze-ai/naze/internal/authz"
	"github.com/naze-ai/naze/internal/model"
)

// Store is the question persistence contract. *storage.DB satisfies it.
type Store interface {
	CreateQuestion(ctx context.Context, q model.Question) (model.Question, error)
	GetQuestion(ctx context.Context, id uuid.UUID) (model.Question, error)
	UpdateQuestionMode(ctx context.Context, id uuid.UUID, mode model.Mode) (model.Question, error)
}

// Service encapsulates question business logic.
type Service struct {
	db     Store
	logger *slog.Logger
}

// New creates a question Service.
func New(db Store, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Create records a new question owned by user.
func (s *Service) Create(ctx context.Context, user model.User, text string, mode model.Mode) (model.Question, error) {
	q, err := s.db.CreateQuestion(ctx, model.Question{
		UserID:   user.ID,
		Question: text,
		Mode:     mode,
	})
	if err != nil {
		return model.Question{}, fmt.Errorf("questions: create: %w", err)
	}
	s.logger.Info("question created", "question_id", q.ID, "user_id", user.ID, "mode", q.Mode)
	return q, nil
}

// Get returns a question if user may view it.
func (s *Service) Get(ctx context.Context, user model.User, id uuid.UUID) (model.Question, error) {
	q, err := s.db.GetQuestion(ctx, id)
	if err != nil {
		return model.Question{}, fmt.Errorf("questions: get: %w", err)
	}
	if err := authz.CanView(user, q.UserID, q.Mode); err != nil {
		return model.Question{}, err
	}
	return q, nil
}

// UpdateMode changes a question's visibility mode. Owner only.
func (s *Service) UpdateMode(ctx context.Context, user model.User, id uuid.UUID, mode model.Mode) (model.Question, error) {
	q, err := s.db.GetQuestion(ctx, id)
	if err != nil {
		return model.Question{}, fmt.Errorf("questions: update mode: %w", err)
	}
	if err := authz.CanModify(user, q.UserID); err != nil {
		return model.Question{}, err
	}
	updated, err := s.db.UpdateQuestionMode(ctx, id, mode)
	if err != nil {
		return model.Question{}, fmt.Errorf("questions: update mode: %w", err)
	}
	return updated, nil
}
