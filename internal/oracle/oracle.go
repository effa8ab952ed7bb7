// Package oracle asks an external reasoning service yes/no questions.
//
// The oracle is advisory and fallible: transport failures surface as
// ErrServiceUnavailable, and answers that cannot be read as a verdict
// surface as ErrAmbiguousAnswer rather than being guessed at.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider answers a yes/no question posed as a system instruction plus a
// user prompt. Implementations must be safe for concurrent use.
type Provider interface {
	Ask(ctx context.Context, systemMsg, prompt string) (bool, error)
}

// ErrServiceUnavailable indicates the reasoning service could not be reached
// or returned a transport-level failure. The wrapped error carries the cause.
var ErrServiceUnavailable = errors.New("oracle: service unavailable")

// ErrAmbiguousAnswer indicates the service answered, but the text contained
// neither "true" nor "false".
var ErrAmbiguousAnswer = errors.New("oracle: ambiguous answer")

// parseVerdict reads a free-text answer as a boolean verdict.
// Matching is case-insensitive on substrings, "true" before "false", so
// "True.", "TRUE" and "I think false" all parse. Anything else is ambiguous.
func parseVerdict(answer string) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	switch {
	case strings.Contains(normalized, "true"):
		return true, nil
	case strings.Contains(normalized, "false"):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrAmbiguousAnswer, answer)
	}
}
