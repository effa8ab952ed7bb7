package oracle

import (
	"context"
	"time"

	"github.com/naze-ai/naze/internal/ratelimit"
)

// pollInterval is how long a paced call waits before re-checking the limiter.
const pollInterval = 50 * time.Millisecond

// Limited wraps a Provider with a client-side rate limiter so concurrent
// validation workers collectively stay inside the service's rate limits.
// A limiter malfunction fails open: the call proceeds unpaced.
type Limited struct {
	inner   Provider
	limiter ratelimit.Limiter
	key     string
}

// NewLimited wraps inner with limiter. All calls share one limiter key, so
// the budget is per-instance, not per-question.
func NewLimited(inner Provider, limiter ratelimit.Limiter, key string) *Limited {
	return &Limited{inner: inner, limiter: limiter, key: key}
}

// Ask blocks until the limiter grants a token or ctx is done, then delegates.
func (l *Limited) Ask(ctx context.Context, systemMsg, prompt string) (bool, error) {
	for {
		ok, err := l.limiter.Allow(ctx, l.key)
		if err != nil || ok {
			break
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return l.inner.Ask(ctx, systemMsg, prompt)
}
