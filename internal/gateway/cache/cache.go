// Package cache holds search results keyed by their term set. Results live
// either in process memory or in Redis; concurrent misses for the same key
// are collapsed into one computation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
)

const keyPrefix = "googol:search:"

// Store is a byte-oriented key/value backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context) error
}

type QueryCache struct {
	store   Store
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns a cache over store. A nil store disables storage but still
// collapses concurrent identical computations.
func New(store Store, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// Key identifies a term set regardless of order or repetition.
func Key(terms []string) string {
	uniq := make(map[string]struct{}, len(terms))
	sorted := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, dup := uniq[t]; dup {
			continue
		}
		uniq[t] = struct{}{}
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)
	hash := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

func (c *QueryCache) Enabled() bool { return c.store != nil }

// Get returns the cached results for terms. Backend failures count as
// misses.
func (c *QueryCache) Get(ctx context.Context, terms []string) ([]proto.SearchResult, bool) {
	if c.store == nil {
		return nil, false
	}
	key := Key(terms)
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
	}
	if err != nil || !ok {
		c.recordMiss()
		return nil, false
	}
	var results []proto.SearchResult
	if err := json.Unmarshal(data, &results); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.hits.Add(1)
	c.metrics.CacheHitsTotal.Inc()
	return results, true
}

func (c *QueryCache) Set(ctx context.Context, terms []string, results []proto.SearchResult) {
	if c.store == nil {
		return
	}
	key := Key(terms)
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns cached results or runs compute once for all
// concurrent callers with the same term set. Only successful results are
// stored.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	terms []string,
	compute func() ([]proto.SearchResult, error),
) ([]proto.SearchResult, bool, error) {
	if results, ok := c.Get(ctx, terms); ok {
		return results, true, nil
	}
	val, err, _ := c.group.Do(Key(terms), func() (interface{}, error) {
		results, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, terms, results)
		return results, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]proto.SearchResult), false, nil
}

// Invalidate drops every cached entry.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated")
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	c.metrics.CacheMissesTotal.Inc()
}
