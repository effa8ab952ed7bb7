// Package ratelimit provides a pluggable rate limiting interface.
//
// It is used in two places: pacing outbound oracle calls so validation runs
// stay inside the reasoning service's limits, and throttling inbound API
// requests per user. The in-memory token bucket (MemoryLimiter) covers a
// single instance; multi-instance deployments can substitute a shared
// implementation — the Limiter interface is the contract.
package ratelimit

import "context"

// Limiter decides whether an action identified by key should proceed now.
// Implementations must be safe for concurrent use.
type Limiter interface {
	// Allow returns true if the action should proceed.
	// The key is opaque — callers construct it (e.g. "user:<uuid>").
	// Returning an error signals a limiter malfunction; callers should
	// treat errors as fail-open rather than blocking traffic.
	Allow(ctx context.Context, key string) (bool, error)

	// Close releases resources (cleanup goroutines, connections).
	Close() error
}

// NoopLimiter permits every action. Used when rate limiting is disabled.
type NoopLimiter struct{}

// Allow always returns true.
func (NoopLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

// Close is a no-op.
func (NoopLimiter) Close() error { return nil }
