package validation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naze-ai/naze/internal/model"
	"github.com/naze-ai/naze/internal/oracle"
	"github.com/naze-ai/naze/internal/storage"
	"github.com/naze-ai/naze/internal/testutil"
)

// fakeGrid is an in-memory CauseStore + QuestionStore backed by a cause grid.
type fakeGrid struct {
	mu       sync.Mutex
	question model.Question
	causes   []model.Cause
	saved    map[uuid.UUID][2]bool // causeID -> {status, rootStatus}
	saveErr  error
}

func newFakeGrid(question string) *fakeGrid {
	return &fakeGrid{
		question: model.Question{ID: uuid.New(), UserID: uuid.New(), Question: question, Mode: model.ModePrivate},
		saved:    make(map[uuid.UUID][2]bool),
	}
}

func (f *fakeGrid) add(row, column int, text string, status bool) model.Cause {
	c := model.Cause{
		ID:         uuid.New(),
		QuestionID: f.question.ID,
		Row:        row,
		Column:     column,
		Mode:       f.question.Mode,
		Cause:      text,
		Status:     status,
	}
	f.causes = append(f.causes, c)
	return c
}

func (f *fakeGrid) GetQuestion(_ context.Context, id uuid.UUID) (model.Question, error) {
	if id != f.question.ID {
		return model.Question{}, storage.ErrNotFound
	}
	return f.question, nil
}

func (f *fakeGrid) MaxCauseRow(_ context.Context, _ uuid.UUID) (int, error) {
	maxRow := 0
	for _, c := range f.causes {
		if c.Row > maxRow {
			maxRow = c.Row
		}
	}
	return maxRow, nil
}

func (f *fakeGrid) ListCausesAtRow(_ context.Context, _ uuid.UUID, row int) ([]model.Cause, error) {
	var out []model.Cause
	for _, c := range f.causes {
		if c.Row == row {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeGrid) GetCauseAt(_ context.Context, _ uuid.UUID, row, column int) (model.Cause, error) {
	for _, c := range f.causes {
		if c.Row == row && c.Column == column {
			return c, nil
		}
	}
	return model.Cause{}, storage.ErrNotFound
}

func (f *fakeGrid) SaveCauseStatus(_ context.Context, causeID uuid.UUID, status, rootStatus bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[causeID] = [2]bool{status, rootStatus}
	return nil
}

// scriptedOracle answers prompts from a fixed map and records every call.
type scriptedOracle struct {
	mu      sync.Mutex
	answers map[string]bool
	errs    map[string]error
	calls   []string
}

func (s *scriptedOracle) Ask(_ context.Context, _ string, prompt string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, prompt)
	if err, ok := s.errs[prompt]; ok {
		return false, err
	}
	answer, ok := s.answers[prompt]
	if !ok {
		return false, oracle.ErrAmbiguousAnswer
	}
	return answer, nil
}

func newEngine(grid *fakeGrid, o oracle.Provider) *Engine {
	return New(grid, grid, o, 1, testutil.TestLogger())
}

func TestValidateRowOne(t *testing.T) {
	grid := newFakeGrid("Why did the server crash?")
	c := grid.add(1, 1, "Out of memory", false)

	o := &scriptedOracle{answers: map[string]bool{
		"Is 'Out of memory' the cause of this question: 'Why did the server crash?'? Answer only with True/False": true,
	}}
	eng := newEngine(grid, o)

	require.NoError(t, eng.ValidateQuestion(context.Background(), grid.question.ID))

	// Single oracle call: row 1 is never root-checked.
	assert.Len(t, o.calls, 1)
	assert.Equal(t, [2]bool{true, false}, grid.saved[c.ID])
}

func TestValidateDeepRowRootCause(t *testing.T) {
	grid := newFakeGrid("Why did the server crash?")
	grid.add(1, 1, "Out of memory", true)
	c := grid.add(2, 1, "Memory leak in cache", false)

	o := &scriptedOracle{answers: map[string]bool{
		"Is 'Memory leak in cache' the cause of 'Out of memory'? Answer only with True/False":           true,
		"Is 'Memory leak in cache' a root cause of Why did the server crash?? Answer only with True/False.": true,
	}}
	eng := newEngine(grid, o)

	require.NoError(t, eng.ValidateQuestion(context.Background(), grid.question.ID))

	assert.Len(t, o.calls, 2)
	assert.Equal(t, [2]bool{true, true}, grid.saved[c.ID])
}

func TestValidateDeepRowNotRoot(t *testing.T) {
	grid := newFakeGrid("Why did the deploy fail?")
	grid.add(1, 1, "Bad config", true)
	c := grid.add(2, 1, "Typo in env file", false)

	o := &scriptedOracle{answers: map[string]bool{
		"Is 'Typo in env file' the cause of 'Bad config'? Answer only with True/False":              true,
		"Is 'Typo in env file' a root cause of Why did the deploy fail?? Answer only with True/False.": false,
	}}
	eng := newEngine(grid, o)

	require.NoError(t, eng.ValidateQuestion(context.Background(), grid.question.ID))
	assert.Equal(t, [2]bool{true, false}, grid.saved[c.ID])
}

func TestValidateRejectedCauseNotPersisted(t *testing.T) {
	grid := newFakeGrid("Why did the server crash?")
	c := grid.add(1, 1, "Cosmic rays", false)

	o := &scriptedOracle{answers: map[string]bool{
		"Is 'Cosmic rays' the cause of this question: 'Why did the server crash?'? Answer only with True/False": false,
	}}
	eng := newEngine(grid, o)

	require.NoError(t, eng.ValidateQuestion(context.Background(), grid.question.ID))
	assert.Len(t, o.calls, 1)
	assert.NotContains(t, grid.saved, c.ID)
}

func TestValidateSkipsAlreadyValidated(t *testing.T) {
	grid := newFakeGrid("Why did the server crash?")
	grid.add(1, 1, "Out of memory", true)
	grid.add(1, 2, "Disk full", true)

	o := &scriptedOracle{}
	eng := newEngine(grid, o)

	require.NoError(t, eng.ValidateQuestion(context.Background(), grid.question.ID))
	assert.Empty(t, o.calls)
	assert.Empty(t, grid.saved)
}

func TestValidateNoCausesIsNoop(t *testing.T) {
	grid := newFakeGrid("Why?")
	o := &scriptedOracle{}
	eng := newEngine(grid, o)

	require.NoError(t, eng.ValidateQuestion(context.Background(), grid.question.ID))
	assert.Empty(t, o.calls)
}

func TestValidateBrokenChain(t *testing.T) {
	grid := newFakeGrid("Why did the server crash?")
	grid.add(1, 1, "Out of memory", true)
	// Column 2 has a row-2 cause with no row-1 parent.
	c := grid.add(2, 2, "Orphaned cause", false)

	o := &scriptedOracle{}
	eng := newEngine(grid, o)

	err := eng.ValidateQuestion(context.Background(), grid.question.ID)
	require.ErrorIs(t, err, ErrBrokenChain)
	assert.Empty(t, o.calls)
	assert.NotContains(t, grid.saved, c.ID)
}

func TestValidateOracleFailureAbortsRun(t *testing.T) {
	grid := newFakeGrid("Why did the server crash?")
	first := grid.add(1, 1, "Out of memory", false)
	second := grid.add(1, 2, "Disk full", false)

	firstPrompt := "Is 'Out of memory' the cause of this question: 'Why did the server crash?'? Answer only with True/False"
	secondPrompt := "Is 'Disk full' the cause of this question: 'Why did the server crash?'? Answer only with True/False"

	o := &scriptedOracle{
		answers: map[string]bool{firstPrompt: true},
		errs:    map[string]error{secondPrompt: oracle.ErrServiceUnavailable},
	}
	eng := newEngine(grid, o) // concurrency 1: deterministic order

	err := eng.ValidateQuestion(context.Background(), grid.question.ID)
	require.ErrorIs(t, err, oracle.ErrServiceUnavailable)

	// The cause validated before the failure keeps its update.
	assert.Equal(t, [2]bool{true, false}, grid.saved[first.ID])
	assert.NotContains(t, grid.saved, second.ID)
}

func TestValidateRootCheckFailureDoesNotPersist(t *testing.T) {
	grid := newFakeGrid("Why did the server crash?")
	grid.add(1, 1, "Out of memory", true)
	c := grid.add(2, 1, "Memory leak in cache", false)

	causalPrompt := "Is 'Memory leak in cache' the cause of 'Out of memory'? Answer only with True/False"
	rootPrompt := "Is 'Memory leak in cache' a root cause of Why did the server crash?? Answer only with True/False."

	o := &scriptedOracle{
		answers: map[string]bool{causalPrompt: true},
		errs:    map[string]error{rootPrompt: oracle.ErrAmbiguousAnswer},
	}
	eng := newEngine(grid, o)

	err := eng.ValidateQuestion(context.Background(), grid.question.ID)
	require.ErrorIs(t, err, oracle.ErrAmbiguousAnswer)
	// Neither flag persists when the root check cannot be judged.
	assert.NotContains(t, grid.saved, c.ID)
}

func TestValidateQuestionNotFound(t *testing.T) {
	grid := newFakeGrid("Why?")
	eng := newEngine(grid, &scriptedOracle{})

	err := eng.ValidateQuestion(context.Background(), uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestValidateStorageSaveError(t *testing.T) {
	grid := newFakeGrid("Why did the server crash?")
	grid.add(1, 1, "Out of memory", false)
	grid.saveErr = errors.New("write failed")

	o := &scriptedOracle{answers: map[string]bool{
		"Is 'Out of memory' the cause of this question: 'Why did the server crash?'? Answer only with True/False": true,
	}}
	eng := newEngine(grid, o)

	err := eng.ValidateQuestion(context.Background(), grid.question.ID)
	require.ErrorContains(t, err, "write failed")
}

func TestValidateSecondRunPicksUpNewRow(t *testing.T) {
	// Two runs: row 1 validated first, then a new deepest row gets both
	// checks while the validated row 1 is skipped.
	grid := newFakeGrid("Why did the server crash?")
	c1 := grid.add(1, 1, "Out of memory", false)

	o := &scriptedOracle{answers: map[string]bool{
		"Is 'Out of memory' the cause of this question: 'Why did the server crash?'? Answer only with True/False": true,
		"Is 'Memory leak in cache' the cause of 'Out of memory'? Answer only with True/False":                     true,
		"Is 'Memory leak in cache' a root cause of Why did the server crash?? Answer only with True/False.":       true,
	}}
	eng := newEngine(grid, o)

	require.NoError(t, eng.ValidateQuestion(context.Background(), grid.question.ID))
	require.Equal(t, [2]bool{true, false}, grid.saved[c1.ID])

	// Reflect the first run's persistence, then deepen the grid.
	for i := range grid.causes {
		if grid.causes[i].ID == c1.ID {
			grid.causes[i].Status = true
		}
	}
	c2 := grid.add(2, 1, "Memory leak in cache", false)

	require.NoError(t, eng.ValidateQuestion(context.Background(), grid.question.ID))
	assert.Equal(t, [2]bool{true, true}, grid.saved[c2.ID])
	// Three oracle calls total: row 1 was not re-queried.
	assert.Len(t, o.calls, 3)
}
