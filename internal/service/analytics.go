package service

import (
	"context"
	"fmt"

	"github.com/sivakumaru2002/devops-ease-access/internal/analytics"
	"github.com/sivakumaru2002/devops-ease-access/internal/cache"
	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
	"github.com/sivakumaru2002/devops-ease-access/internal/telemetry"
	"golang.org/x/sync/singleflight"
)

// AnalyticsService serves build analytics, cached per session and project.
type AnalyticsService struct {
	cache   cache.Cache[domain.AnalyticsReport]
	group   singleflight.Group
	metrics *telemetry.Provider
}

// NewAnalyticsService returns an AnalyticsService. metrics may be nil.
func NewAnalyticsService(c cache.Cache[domain.AnalyticsReport], metrics *telemetry.Provider) *AnalyticsService {
	return &AnalyticsService{cache: c, metrics: metrics}
}

// CacheKey is the cache key for a session's project analytics.
func CacheKey(sessionID, project string) string {
	return "analytics:" + sessionID + ":" + project
}

// Analytics returns the cached report or computes it from the latest builds.
// Concurrent misses for the same key share one upstream fetch.
func (s *AnalyticsService) Analytics(
	ctx context.Context,
	src Source,
	sessionID, project string,
) (domain.AnalyticsReport, error) {
	key := CacheKey(sessionID, project)

	if report, ok := s.cache.Get(ctx, key); ok {
		s.metrics.RecordCache(true)
		return report, nil
	}
	s.metrics.RecordCache(false)

	// The shared fetch must not fail for every waiter because the first
	// caller went away; the client's per-call timeout still bounds it.
	fetchCtx := context.WithoutCancel(ctx)

	v, err, _ := s.group.Do(key, func() (any, error) {
		if report, ok := s.cache.Get(fetchCtx, key); ok {
			return report, nil
		}

		builds, listErr := src.ListBuilds(fetchCtx, project)
		if listErr != nil {
			return nil, domain.NewUpstreamError("list builds", listErr)
		}

		report := analytics.Summarize(builds)
		s.cache.Set(fetchCtx, key, report)
		return report, nil
	})
	if err != nil {
		return domain.AnalyticsReport{}, err
	}

	report, ok := v.(domain.AnalyticsReport)
	if !ok {
		return domain.AnalyticsReport{}, fmt.Errorf("analytics %s: unexpected result type %T", project, v)
	}
	return report, nil
}
