// Package cache memoizes computed results for a fixed time window.
package cache

import (
	"context"
	"time"
)

// Cache is a keyed store whose entries expire a fixed TTL after being set.
// Implementations never surface backend failures: a broken backend behaves
// as a permanent miss.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V)
}

type options struct {
	now func() time.Time
}

// Option configures a cache.
type Option func(*options)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
