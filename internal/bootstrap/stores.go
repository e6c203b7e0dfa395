package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	infralogger "github.com/sivakumaru2002/devops-ease-access/infrastructure/logger"
	infraredis "github.com/sivakumaru2002/devops-ease-access/infrastructure/redis"
	"github.com/sivakumaru2002/devops-ease-access/internal/cache"
	"github.com/sivakumaru2002/devops-ease-access/internal/config"
	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
	"github.com/sivakumaru2002/devops-ease-access/internal/secret"
	"github.com/sivakumaru2002/devops-ease-access/internal/session"
	"github.com/sivakumaru2002/devops-ease-access/internal/telemetry"
)

// Stores holds the analytics cache and, when used, its Redis client.
type Stores struct {
	Analytics cache.Cache[domain.AnalyticsReport]
	Redis     *redis.Client
	Backend   string
}

// Close releases the Redis client, if any.
func (s *Stores) Close(log infralogger.Logger) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Close(); err != nil {
		log.Warn("Failed to close Redis client", infralogger.Error(err))
	}
}

// SetupSessions creates the session registry. Without a configured key the
// credential codec uses a per-process key, so sessions do not survive a
// restart.
func SetupSessions(cfg *config.Config, metrics *telemetry.Provider, log infralogger.Logger) (*session.Registry, error) {
	var (
		codec *secret.Codec
		err   error
	)
	if cfg.Security.EncryptionKey == "" {
		log.Warn("No encryption key configured, using an ephemeral key")
		codec, err = secret.NewEphemeralCodec()
	} else {
		codec, err = secret.NewCodec(cfg.Security.EncryptionKey)
	}
	if err != nil {
		return nil, fmt.Errorf("credential codec: %w", err)
	}

	registry := session.NewRegistry(codec, cfg.Session.TTL)
	metrics.RegisterSessionGauge(registry.Len)
	return registry, nil
}

// SetupCache selects the analytics cache backend. An unreachable Redis falls
// back to the in-memory cache.
func SetupCache(cfg *config.Config, log infralogger.Logger) *Stores {
	memory := &Stores{
		Analytics: cache.New[domain.AnalyticsReport](cfg.Cache.TTL),
		Backend:   config.CacheBackendMemory,
	}
	if !cfg.RedisEnabled() {
		return memory
	}

	client, err := infraredis.NewClient(context.Background(), infraredis.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis not available, using in-memory analytics cache",
			infralogger.String("redis_address", cfg.Redis.Address),
			infralogger.Error(err),
		)
		return memory
	}

	log.Info("Analytics cache backed by Redis",
		infralogger.String("redis_address", cfg.Redis.Address),
	)
	return &Stores{
		Analytics: cache.NewRedis[domain.AnalyticsReport](client, cfg.Cache.TTL, cfg.Cache.Prefix, log),
		Redis:     client,
		Backend:   config.CacheBackendRedis,
	}
}
