package cache

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type entry[V any] struct {
	expiresAt time.Time
	value     V
}

// TTL is an in-process Cache. Expiry is checked lazily on Get; there is no
// background sweep and no capacity bound, so size is limited only by TTL
// turnover.
type TTL[V any] struct {
	ttl     time.Duration
	now     func() time.Time
	entries *xsync.MapOf[string, entry[V]]
}

// New returns an empty in-memory cache whose entries live for ttl.
func New[V any](ttl time.Duration, opts ...Option) *TTL[V] {
	o := buildOptions(opts)
	return &TTL[V]{
		ttl:     ttl,
		now:     o.now,
		entries: xsync.NewMapOf[string, entry[V]](),
	}
}

// Get returns the value for key if present and not expired. An expired entry
// is removed in the same atomic step that observed it.
func (c *TTL[V]) Get(_ context.Context, key string) (V, bool) {
	var (
		value V
		hit   bool
	)
	now := c.now()

	c.entries.Compute(key, func(old entry[V], loaded bool) (entry[V], bool) {
		if !loaded || !now.Before(old.expiresAt) {
			return old, true
		}
		value, hit = old.value, true
		return old, false
	})

	return value, hit
}

// Set stores value under key, replacing any previous entry and restarting
// its TTL.
func (c *TTL[V]) Set(_ context.Context, key string, value V) {
	c.entries.Store(key, entry[V]{expiresAt: c.now().Add(c.ttl), value: value})
}

// Len counts stored entries, including expired ones not yet observed.
func (c *TTL[V]) Len() int {
	return c.entries.Size()
}
