// Package ratelimit gates order creation frequency per actor. The
// limiter is an injected interface over an atomic counter store so the
// same contract holds for a single process (memory) and a fleet (redis).
package ratelimit

import (
	"context"
	"time"
)

// Limiter permits at most Config.Limit operations per key within
// Config.Window. retryAfter is meaningful only when allowed is false.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration)
}

// Config holds the window parameters.
type Config struct {
	Limit  int
	Window time.Duration
}

// DefaultConfig matches the observed production setting: 5 order
// attempts per 60 seconds.
func DefaultConfig() Config {
	return Config{
		Limit:  5,
		Window: 60 * time.Second,
	}
}
