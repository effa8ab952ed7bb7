package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/naze-ai/naze/internal/model"
)

const causeColumns = `id, question_id, "row", "column", mode, cause, status, root_status, created_at, updated_at`

func scanCause(row pgx.Row) (model.Cause, error) {
	var c model.Cause
	err := row.Scan(&c.ID, &c.QuestionID, &c.Row, &c.Column, &c.Mode, &c.Cause,
		&c.Status, &c.RootStatus, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateCause inserts a cause and returns it. The (question, row, column)
// cell is unique; inserting into an occupied cell returns ErrConflict.
func (db *DB) CreateCause(ctx context.Context, c model.Cause) (model.Cause, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO causes (id, question_id, "row", "column", mode, cause, status, root_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.QuestionID, c.Row, c.Column, c.Mode, c.Cause, c.Status, c.RootStatus, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Cause{}, fmt.Errorf("storage: cause cell (%d, %d) already occupied: %w", c.Row, c.Column, ErrConflict)
		}
		return model.Cause{}, fmt.Errorf("storage: create cause: %w", err)
	}
	return c, nil
}

// GetCause retrieves a cause by ID, scoped to its question.
func (db *DB) GetCause(ctx context.Context, questionID, causeID uuid.UUID) (model.Cause, error) {
	c, err := scanCause(db.pool.QueryRow(ctx,
		`SELECT `+causeColumns+` FROM causes WHERE id = $1 AND question_id = $2`,
		causeID, questionID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Cause{}, fmt.Errorf("storage: cause %s: %w", causeID, ErrNotFound)
		}
		return model.Cause{}, fmt.Errorf("storage: get cause: %w", err)
	}
	return c, nil
}

// GetCauseAt retrieves the cause at a specific grid cell of a question.
func (db *DB) GetCauseAt(ctx context.Context, questionID uuid.UUID, row, column int) (model.Cause, error) {
	c, err := scanCause(db.pool.QueryRow(ctx,
		`SELECT `+causeColumns+` FROM causes WHERE question_id = $1 AND "row" = $2 AND "column" = $3`,
		questionID, row, column,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Cause{}, fmt.Errorf("storage: cause at (%d, %d): %w", row, column, ErrNotFound)
		}
		return model.Cause{}, fmt.Errorf("storage: get cause at cell: %w", err)
	}
	return c, nil
}

// ListCauses returns all causes for a question ordered by row, then column.
func (db *DB) ListCauses(ctx context.Context, questionID uuid.UUID) ([]model.Cause, error) {
	return db.listCauses(ctx,
		`SELECT `+causeColumns+` FROM causes WHERE question_id = $1 ORDER BY "row", "column"`,
		questionID)
}

// ListCausesAtRow returns the causes at one row of a question's grid, ordered by column.
func (db *DB) ListCausesAtRow(ctx context.Context, questionID uuid.UUID, row int) ([]model.Cause, error) {
	return db.listCauses(ctx,
		`SELECT `+causeColumns+` FROM causes WHERE question_id = $1 AND "row" = $2 ORDER BY "column"`,
		questionID, row)
}

func (db *DB) listCauses(ctx context.Context, query string, args ...any) ([]model.Cause, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list causes: %w", err)
	}
	defer rows.Close()

	causes := []model.Cause{}
	for rows.Next() {
		c, err := scanCause(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan cause: %w", err)
		}
		causes = append(causes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list causes: %w", err)
	}
	return causes, nil
}

// MaxCauseRow returns the deepest row present in a question's grid,
// or 0 when the question has no causes.
func (db *DB) MaxCauseRow(ctx context.Context, questionID uuid.UUID) (int, error) {
	var maxRow int
	err := db.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX("row"), 0) FROM causes WHERE question_id = $1`, questionID,
	).Scan(&maxRow)
	if err != nil {
		return 0, fmt.Errorf("storage: max cause row: %w", err)
	}
	return maxRow, nil
}

// SaveCauseStatus persists a cause's validation flags in a single write.
// Flags only move false→true; the update never clears a set flag.
// Concurrent validation workers write row siblings at the same time, so
// deadlocks are retried.
func (db *DB) SaveCauseStatus(ctx context.Context, causeID uuid.UUID, status, rootStatus bool) error {
	var tag pgconn.CommandTag
	err := WithRetry(ctx, 3, 10*time.Millisecond, func() error {
		var execErr error
		tag, execErr = db.pool.Exec(ctx,
			`UPDATE causes
			 SET status = status OR $2, root_status = root_status OR $3, updated_at = now()
			 WHERE id = $1`,
			causeID, status, rootStatus,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("storage: save cause status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: cause %s: %w", causeID, ErrNotFound)
	}
	return nil
}

// UpdateCauseText changes a cause's description only and returns the updated record.
func (db *DB) UpdateCauseText(ctx context.Context, questionID, causeID uuid.UUID, text string) (model.Cause, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE causes SET cause = $3, updated_at = now() WHERE id = $1 AND question_id = $2`,
		causeID, questionID, text,
	)
	if err != nil {
		return model.Cause{}, fmt.Errorf("storage: update cause text: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Cause{}, fmt.Errorf("storage: cause %s: %w", causeID, ErrNotFound)
	}
	return db.GetCause(ctx, questionID, causeID)
}
