package reputation

import (
	"context"
	"errors"
	"time"

	"github.com/mikey/fraud-sentinel/internal/adapters/cache"
	"github.com/mikey/fraud-sentinel/internal/core"
	"github.com/mikey/fraud-sentinel/internal/metrics"
	"go.uber.org/zap"
)

// Fetcher performs one uncached reputation lookup.
type Fetcher interface {
	Fetch(ctx context.Context, ip string) (*core.ReputationInfo, error)
}

// CachingResolver implements the ReputationResolver interface on top of
// a Fetcher and a ReputationCache. Successful lookups are cached with
// the positive TTL. Failed lookups are cached too, with a much shorter
// negative TTL, so a failing upstream is not hammered on every entry.
type CachingResolver struct {
	fetcher     Fetcher
	cache       core.ReputationCache
	ttl         time.Duration
	negativeTTL time.Duration
	logger      *zap.Logger
}

// NewCachingResolver creates a new caching reputation resolver.
func NewCachingResolver(
	fetcher Fetcher,
	repCache core.ReputationCache,
	ttl time.Duration,
	negativeTTL time.Duration,
	logger *zap.Logger,
) *CachingResolver {
	return &CachingResolver{
		fetcher:     fetcher,
		cache:       repCache,
		ttl:         ttl,
		negativeTTL: negativeTTL,
		logger:      logger,
	}
}

// Lookup resolves the IP, cache first. Lookup failure is reported via
// ReputationInfo.Failed, never as an error.
func (r *CachingResolver) Lookup(ctx context.Context, ip string) (*core.ReputationInfo, error) {
	if record, err := r.cache.Get(ctx, ip); err == nil {
		if record.Info.Failed {
			metrics.RecordLookup("negative_cache_hit")
		} else {
			metrics.RecordLookup("cache_hit")
		}
		r.logger.Debug("Reputation cache hit", zap.String("ip", ip), zap.Bool("failed", record.Info.Failed))
		info := record.Info
		return &info, nil
	} else if !errors.Is(err, cache.ErrNotFound) {
		r.logger.Error("Failed to read reputation cache", zap.String("ip", ip), zap.Error(err))
	}

	now := time.Now()
	info, err := r.fetcher.Fetch(ctx, ip)
	if err != nil {
		metrics.RecordLookup("failed")
		r.logger.Warn("Reputation lookup failed", zap.String("ip", ip), zap.Error(err))

		info = &core.ReputationInfo{Failed: true}
		r.store(ctx, ip, info, now, r.negativeTTL)
		return info, nil
	}

	metrics.RecordLookup("fetched")
	r.store(ctx, ip, info, now, r.ttl)
	return info, nil
}

func (r *CachingResolver) store(ctx context.Context, ip string, info *core.ReputationInfo, fetchedAt time.Time, ttl time.Duration) {
	record := &core.ReputationRecord{
		IP:        ip,
		Info:      *info,
		FetchedAt: fetchedAt,
		ExpiresAt: fetchedAt.Add(ttl),
	}
	if err := r.cache.Set(ctx, record); err != nil {
		r.logger.Error("Failed to update reputation cache", zap.String("ip", ip), zap.Error(err))
	}
}
