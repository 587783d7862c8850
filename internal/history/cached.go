package history

import (
	"context"
	"fmt"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/pkg/logger"
	"github.com/quantfold/ebbtide/pkg/redis"
)

// CachedProvider wraps another provider with a per-security Redis cache.
// Daily close series only change at end of day, so a 24h TTL keeps warm-up
// off the inner provider for securities seen earlier in the week.
type CachedProvider struct {
	inner  contracts.HistoryProvider
	cache  *redis.Cache
	logger *logger.Logger
}

// NewCachedProvider decorates inner with the given cache
func NewCachedProvider(inner contracts.HistoryProvider, cache *redis.Cache, log *logger.Logger) *CachedProvider {
	return &CachedProvider{
		inner:  inner,
		cache:  cache,
		logger: log,
	}
}

// DailyCloses serves cached series where available and batch-fetches the
// rest from the inner provider. Cache failures degrade to a plain fetch.
func (c *CachedProvider) DailyCloses(ctx context.Context, ids []contracts.SecurityID, lookbackDays int) (map[contracts.SecurityID][]contracts.PriceObservation, error) {
	out := make(map[contracts.SecurityID][]contracts.PriceObservation, len(ids))
	missing := make([]contracts.SecurityID, 0, len(ids))

	for _, id := range ids {
		var series []contracts.PriceObservation
		hit, err := c.cache.Get(ctx, redis.HistoryKey(string(id), lookbackDays), &series)
		if err != nil {
			c.logger.WithError(err).WithField("security", id).Warn("History cache read failed")
		}
		if hit && len(series) > 0 {
			out[id] = series
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.inner.DailyCloses(ctx, missing, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetch uncached closes: %w", err)
	}

	for id, series := range fetched {
		out[id] = series
		if err := c.cache.Set(ctx, redis.HistoryKey(string(id), lookbackDays), series, redis.TTLDaily); err != nil {
			c.logger.WithError(err).WithField("security", id).Warn("History cache write failed")
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(ids),
		"hits":      len(ids) - len(missing),
		"fetched":   len(fetched),
	}).Debug("History lookup served")

	return out, nil
}
