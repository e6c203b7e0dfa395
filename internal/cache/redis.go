package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	infralogger "github.com/sivakumaru2002/devops-ease-access/infrastructure/logger"
)

// Redis is a Cache shared between replicas. Values are stored as JSON under
// prefix+key with a Redis-side expiry.
type Redis[V any] struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    infralogger.Logger
}

// NewRedis returns a Redis-backed cache.
func NewRedis[V any](client *redis.Client, ttl time.Duration, prefix string, log infralogger.Logger) *Redis[V] {
	return &Redis[V]{client: client, ttl: ttl, prefix: prefix, log: log}
}

// Get returns the decoded value for key. Redis or decode failures are logged
// and reported as a miss.
func (c *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var value V

	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("Cache read failed", infralogger.String("key", key), infralogger.Error(err))
		}
		return value, false
	}

	if unmarshalErr := json.Unmarshal(raw, &value); unmarshalErr != nil {
		c.log.Warn("Cache entry undecodable", infralogger.String("key", key), infralogger.Error(unmarshalErr))
		return value, false
	}

	return value, true
}

// Set stores value under key. Failures are logged and otherwise ignored.
func (c *Redis[V]) Set(ctx context.Context, key string, value V) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("Cache entry unencodable", infralogger.String("key", key), infralogger.Error(err))
		return
	}

	if setErr := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); setErr != nil {
		c.log.Warn("Cache write failed", infralogger.String("key", key), infralogger.Error(setErr))
	}
}
