// Package store keeps read models off the hot path: a staleness-bounded
// sale cache, profile persistence, and the demo dataset.
package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"launchpad/internal/types"
)

// DefaultTTL bounds how old a cached sale snapshot may get before the
// next read refreshes it.
const DefaultTTL = 30 * time.Second

// FetchFunc produces a fresh sale snapshot from the chain.
type FetchFunc func(ctx context.Context) ([]types.SaleRecord, error)

// SaleCache serves sale snapshots, refreshing at most once per TTL and
// degrading when a refresh fails: first to the last good snapshot, then
// to the fallback dataset, so the list never ends up empty.
type SaleCache struct {
	fetch    FetchFunc
	fallback FetchFunc
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu           sync.Mutex
	records      []types.SaleRecord
	fetchedAt    time.Time
	haveData     bool
	fromFallback bool
}

// NewSaleCache builds a cache. fallback may be nil; ttl <= 0 selects
// DefaultTTL.
func NewSaleCache(fetch, fallback FetchFunc, ttl time.Duration, logger *zap.Logger) *SaleCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleCache{
		fetch:    fetch,
		fallback: fallback,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Sales returns the current snapshot. The stale flag is set whenever the
// records did not come from a successful refresh, whether an older
// snapshot or the fallback dataset is being served.
func (c *SaleCache) Sales(ctx context.Context) ([]types.SaleRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.haveData && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.snapshot(), c.fromFallback, nil
	}

	records, err := c.fetch(ctx)
	if err != nil {
		if c.haveData {
			c.logger.Warn("sale refresh failed, serving last known snapshot",
				zap.Time("fetched_at", c.fetchedAt), zap.Error(err))
			return c.snapshot(), true, nil
		}
		if c.fallback == nil {
			return nil, false, err
		}
		records, fbErr := c.fallback(ctx)
		if fbErr != nil {
			return nil, false, err
		}
		c.logger.Warn("sale fetch failed with nothing cached, serving fallback dataset",
			zap.Error(err))
		c.store(records, true)
		return c.snapshot(), true, nil
	}

	c.store(records, false)
	return c.snapshot(), false, nil
}

// Sale returns one sale by id from the current snapshot.
func (c *SaleCache) Sale(ctx context.Context, id uint64) (types.SaleRecord, bool, error) {
	records, stale, err := c.Sales(ctx)
	if err != nil {
		return types.SaleRecord{}, false, err
	}
	for _, record := range records {
		if record.ID == id {
			return record, stale, nil
		}
	}
	return types.SaleRecord{}, stale, nil
}

// Invalidate forces the next read to refresh.
func (c *SaleCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchedAt = time.Time{}
}

func (c *SaleCache) store(records []types.SaleRecord, fromFallback bool) {
	c.records = records
	c.fetchedAt = c.now()
	c.haveData = true
	c.fromFallback = fromFallback
}

func (c *SaleCache) snapshot() []types.SaleRecord {
	out := make([]types.SaleRecord, len(c.records))
	copy(out, c.records)
	return out
}
