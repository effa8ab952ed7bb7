// Package causes provides the business logic for cause CRUD operations.
//
// Every read composes the access guard with the store; updates use the
// stricter owner-only rule. The validation workflow itself lives in the
// validation package.
package causes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/naze-ai/naze/internal/authz"
	"github.com/naze-ai/naze/internal/model"
)

// Store is the persistence contract for cause CRUD. *storage.DB satisfies it.
type Store interface {
	GetQuestion(ctx context.Context, id uuid.UUID) (model.Question, error)
	CreateCause(ctx context.Context, c model.Cause) (model.Cause, error)
	GetCause(ctx context.Context, questionID, causeID uuid.UUID) (model.Cause, error)
	ListCauses(ctx context.Context, questionID uuid.UUID) ([]model.Cause, error)
	UpdateCauseText(ctx context.Context, questionID, causeID uuid.UUID, text string) (model.Cause, error)
}

// Service encapsulates cause business logic.
type Service struct {
	db     Store
	logger *slog.Logger
}

// New creates a cause Service.
func New(db Store, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Create inserts a new unvalidated cause into a question's grid.
func (s *Service) Create(ctx context.Context, questionID uuid.UUID, text string, row, column int, mode model.Mode) (model.Cause, error) {
	// The parent question must exist; its absence is the caller's NotFound.
	if _, err := s.db.GetQuestion(ctx, questionID); err != nil {
		return model.Cause{}, fmt.Errorf("causes: create: %w", err)
	}

	c, err := s.db.CreateCause(ctx, model.Cause{
		QuestionID: questionID,
		Row:        row,
		Column:     column,
		Mode:       mode,
		Cause:      text,
	})
	if err != nil {
		return model.Cause{}, fmt.Errorf("causes: create: %w", err)
	}
	s.logger.Info("cause created", "cause_id", c.ID, "question_id", questionID, "row", row, "column", column)
	return c, nil
}

// Get returns a single cause if user may view it.
// The view rule checks the cause's own mode, matching the client contract.
func (s *Service) Get(ctx context.Context, user model.User, questionID, causeID uuid.UUID) (model.Cause, error) {
	c, err := s.db.GetCause(ctx, questionID, causeID)
	if err != nil {
		return model.Cause{}, fmt.Errorf("causes: get: %w", err)
	}
	q, err := s.db.GetQuestion(ctx, questionID)
	if err != nil {
		return model.Cause{}, fmt.Errorf("causes: get: %w", err)
	}
	if err := authz.CanView(user, q.UserID, c.Mode); err != nil {
		return model.Cause{}, err
	}
	return c, nil
}

// List returns all causes of a question ordered by row, then column,
// if user may view the question.
func (s *Service) List(ctx context.Context, user model.User, questionID uuid.UUID) ([]model.Cause, error) {
	q, err := s.db.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("causes: list: %w", err)
	}
	if err := authz.CanView(user, q.UserID, q.Mode); err != nil {
		return nil, err
	}
	list, err := s.db.ListCauses(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("causes: list: %w", err)
	}
	return list, nil
}

// UpdateText changes a cause's description. Owner only; validation flags
// are untouched.
func (s *Service) UpdateText(ctx context.Context, user model.User, questionID, causeID uuid.UUID, text string) (model.Cause, error) {
	if _, err := s.db.GetCause(ctx, questionID, causeID); err != nil {
		return model.Cause{}, fmt.Errorf("causes: update text: %w", err)
	}
	q, err := s.db.GetQuestion(ctx, questionID)
	if err != nil {
		return model.Cause{}, fmt.Errorf("causes: update text: %w", err)
	}
	if err := authz.CanModify(user, q.UserID); err != nil {
		return model.Cause{}, err
	}
	c, err := s.db.UpdateCauseText(ctx, questionID, causeID, text)
	if err != nil {
		return model.Cause{}, fmt.Errorf("causes: update text: %w", err)
	}
	return c, nil
}
