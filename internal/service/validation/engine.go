// Package validation implements the cause-validation workflow.
//
// A validation run walks the deepest row of a question's cause grid and asks
// the oracle, per unvalidated cause, whether it genuinely causes the node
// directly above it (the question itself at row 1, otherwise the cause at
// row-1 in the same column). A confirmed cause at row > 1 gets a second
// oracle call testing whether it is a root cause of the original question.
// Both flags are persisted together in a single write per cause.
//
// Flags are monotonic: a validated cause is never re-queried and never
// demoted. An oracle failure aborts the rest of the run; causes persisted
// before the failure keep their updates.
package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/naze-ai/naze/internal/model"
	"github.com/naze-ai/naze/internal/oracle"
	"github.com/naze-ai/naze/internal/storage"
	"github.com/naze-ai/naze/internal/telemetry"
)

// ErrBrokenChain indicates a cause at row > 1 has no parent cause at
// (row-1, same column): the column's causal chain is broken and cannot be
// judged. This is a data-integrity fault, not an oracle failure.
var ErrBrokenChain = errors.New("validation: cause chain broken")

const (
	causalSystemMsg = "You are an AI model. You are asked to determine whether the given cause is the cause of the given problem."
	rootSystemMsg   = "You are an AI model. You are asked to determine whether the given cause is a root cause of the given problem."
)

// QuestionStore resolves the question under validation.
type QuestionStore interface {
	GetQuestion(ctx context.Context, id uuid.UUID) (model.Question, error)
}

// CauseStore is the grid access the engine needs. *storage.DB satisfies it.
type CauseStore interface {
	MaxCauseRow(ctx context.Context, questionID uuid.UUID) (int, error)
	ListCausesAtRow(ctx context.Context, questionID uuid.UUID, row int) ([]model.Cause, error)
	GetCauseAt(ctx context.Context, questionID uuid.UUID, row, column int) (model.Cause, error)
	SaveCauseStatus(ctx context.Context, causeID uuid.UUID, status, rootStatus bool) error
}

// Engine orchestrates validation runs.
type Engine struct {
	questions   QuestionStore
	causes      CauseStore
	oracle      oracle.Provider
	logger      *slog.Logger
	concurrency int

	askDuration metric.Float64Histogram
	runDuration metric.Float64Histogram
}

// New creates a validation Engine. concurrency bounds the number of causes
// judged in parallel within one run; values below 1 are treated as 1.
func New(questions QuestionStore, causes CauseStore, provider oracle.Provider, concurrency int, logger *slog.Logger) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	meter := telemetry.Meter("naze/validation")
	askDur, _ := meter.Float64Histogram("naze.oracle.ask.duration",
		metric.WithDescription("Time per oracle call (ms)"),
		metric.WithUnit("ms"),
	)
	runDur, _ := meter.Float64Histogram("naze.validation.run.duration",
		metric.WithDescription("Time per validation run (ms)"),
		metric.WithUnit("ms"),
	)
	return &Engine{
		questions:   questions,
		causes:      causes,
		oracle:      provider,
		logger:      logger,
		concurrency: concurrency,
		askDuration: askDur,
		runDuration: runDur,
	}
}

// ValidateQuestion runs the validation workflow for one question.
// A question with no causes is a no-op. Cancelling ctx stops new oracle
// calls; causes already persisted keep their updates.
func (e *Engine) ValidateQuestion(ctx context.Context, questionID uuid.UUID) error {
	start := time.Now()

	// 1. Resolve the question; its text anchors both prompts.
	q, err := e.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return fmt.Errorf("validation: %w", err)
	}

	// 2. Find the deepest row. Validation only ever runs against it:
	// shallower rows were validated when they were the deepest.
	maxRow, err := e.causes.MaxCauseRow(ctx, questionID)
	if err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	if maxRow == 0 {
		return nil
	}

	causes, err := e.causes.ListCausesAtRow(ctx, questionID, maxRow)
	if err != nil {
		return fmt.Errorf("validation: %w", err)
	}

	// 3. Judge causes concurrently; each cause is independent of its row
	// siblings. The first error cancels the group context, which stops the
	// remaining workers before their next oracle call.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, c := range causes {
		if c.Status {
			// Already validated: idempotent skip, no oracle call.
			continue
		}
		g.Go(func() error {
			return e.validateCause(gctx, q, c, maxRow)
		})
	}

	err = g.Wait()
	e.runDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(attribute.Int("naze.row", maxRow)))
	if err != nil {
		return err
	}

	e.logger.Info("validation run complete",
		"question_id", questionID, "row", maxRow, "causes", len(causes),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// validateCause runs the two-stage check for a single cause: the causal-link
// check, then (row > 1 only) the root-cause check. Results are persisted in
// one write after both stages.
func (e *Engine) validateCause(ctx context.Context, q model.Question, c model.Cause, maxRow int) error {
	var prompt string
	if maxRow == 1 {
		prompt = fmt.Sprintf("Is '%s' the cause of this question: '%s'? Answer only with True/False", c.Cause, q.Question)
	} else {
		parent, err := e.causes.GetCauseAt(ctx, q.ID, maxRow-1, c.Column)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: no cause at row %d, column %d", ErrBrokenChain, maxRow-1, c.Column)
			}
			return fmt.Errorf("validation: %w", err)
		}
		prompt = fmt.Sprintf("Is '%s' the cause of '%s'? Answer only with True/False", c.Cause, parent.Cause)
	}

	confirmed, err := e.ask(ctx, causalSystemMsg, prompt)
	if err != nil {
		return err
	}
	if !confirmed {
		e.logger.Debug("causal link rejected", "cause_id", c.ID, "row", c.Row, "column", c.Column)
		return nil
	}

	// Row-1 causes never get a root-cause check in this workflow.
	rootStatus := false
	if maxRow > 1 {
		rootPrompt := fmt.Sprintf("Is '%s' a root cause of %s? Answer only with True/False.", c.Cause, q.Question)
		rootStatus, err = e.ask(ctx, rootSystemMsg, rootPrompt)
		if err != nil {
			return err
		}
	}

	if err := e.causes.SaveCauseStatus(ctx, c.ID, true, rootStatus); err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	e.logger.Info("cause validated",
		"cause_id", c.ID, "row", c.Row, "column", c.Column, "root_status", rootStatus)
	return nil
}

// ask wraps an oracle call with a duration metric.
func (e *Engine) ask(ctx context.Context, systemMsg, prompt string) (bool, error) {
	start := time.Now()
	verdict, err := e.oracle.Ask(ctx, systemMsg, prompt)
	e.askDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
	return verdict, err
}
