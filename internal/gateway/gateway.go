// Package gateway is the client-facing front of the search engine. It
// routes queries to one live index shard with failover, caches results by
// term set, counts query frequency, reports system statistics and forwards
// URLs to the frontier.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/barrel"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/gateway/cache"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/tracing"
)

// ShardSource lists the registered shards. *barrel.Pool implements it.
type ShardSource interface {
	Members(ctx context.Context) ([]barrel.Member, error)
}

// FrontierSubmitter is the part of the frontier client the gateway uses.
type FrontierSubmitter interface {
	Submit(ctx context.Context, url string) (bool, error)
}

type Gateway struct {
	cfg      config.GatewayConfig
	pageSize int

	shards   ShardSource
	frontier FrontierSubmitter
	cache    *cache.QueryCache
	freq     *Frequency
	picker   picker
	live     atomic.Pointer[[]barrel.Member]
	breaker  *resilience.CircuitBreaker

	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds a gateway. qc may be a cache with a nil store when caching is
// disabled.
func New(cfg *config.Config, shards ShardSource, fr FrontierSubmitter, qc *cache.QueryCache, m *metrics.Metrics) (*Gateway, error) {
	strategy, err := ParseStrategy(cfg.Gateway.Strategy)
	if err != nil {
		return nil, err
	}
	g := &Gateway{
		cfg:      cfg.Gateway,
		pageSize: cfg.Search.PageSize,
		shards:   shards,
		frontier: fr,
		cache:    qc,
		freq:     NewFrequency(),
		picker:   picker{strategy: strategy},
		metrics:  m,
		logger:   slog.Default().With("component", "gateway"),
	}
	if g.cfg.MaxAttempts <= 0 {
		g.cfg.MaxAttempts = 3
	}
	if g.pageSize <= 0 {
		g.pageSize = 10
	}
	g.breaker = resilience.NewCircuitBreaker("frontier", resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     10 * time.Second,
		Trips:            apperrors.IsCommunication,
		OnStateChange: func(name string, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	m.CircuitBreakerState.WithLabelValues("frontier").Set(float64(resilience.StateClosed))
	return g, nil
}

func (g *Gateway) Frequency() *Frequency { return g.freq }

// Search returns every result for query from one live shard. A blank query
// yields an empty result and is not counted.
func (g *Gateway) Search(ctx context.Context, query string) ([]proto.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []proto.SearchResult{}, nil
	}
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "gateway.search", logger.RequestID(ctx))
	defer func() {
		span.End()
		span.Log()
	}()

	g.freq.Record(strings.ToLower(query))
	terms := tokenizer.QueryTerms(query)
	span.SetAttr("terms", len(terms))

	results, hit, err := g.cache.GetOrCompute(ctx, terms, func() ([]proto.SearchResult, error) {
		var results []proto.SearchResult
		err := g.route(ctx, "search", g.cfg.MaxAttempts, func(ctx context.Context, m barrel.Member) error {
			_, child := tracing.StartChildSpan(ctx, "shard.search")
			child.SetAttr("shard", m.Name)
			defer child.End()
			r, err := m.Replica.Search(ctx, terms)
			if err != nil {
				return err
			}
			results = r
			return nil
		})
		return results, err
	})

	status := "miss"
	if hit {
		status = "hit"
	}
	g.metrics.SearchLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
	span.SetAttr("cache", status)
	if err != nil {
		g.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	resultType := "results"
	if len(results) == 0 {
		resultType = "empty"
	}
	g.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	logger.FromContext(ctx).Debug("search served", "query", query, "results", len(results), "cache", status)
	return results, nil
}

// SearchPage returns page (zero-based) of the results for query. A page past
// the end is empty with HasMore false.
func (g *Gateway) SearchPage(ctx context.Context, query string, page, pageSize int) (proto.QueryResponse, error) {
	if page < 0 {
		return proto.QueryResponse{}, fmt.Errorf("%w: page must not be negative", apperrors.ErrInvalidInput)
	}
	if pageSize <= 0 {
		pageSize = g.pageSize
	}
	all, err := g.Search(ctx, query)
	if err != nil {
		return proto.QueryResponse{}, err
	}
	resp := proto.QueryResponse{Results: []proto.SearchResult{}, Page: page}
	// Compared by division so a huge page cannot overflow page*pageSize.
	if len(all) == 0 || page > (len(all)-1)/pageSize {
		return resp, nil
	}
	from := page * pageSize
	to := min(from+pageSize, len(all))
	resp.Results = all[from:to]
	resp.HasMore = to < len(all)
	return resp, nil
}

// IncomingLinks asks live shards in routing order until one answers.
func (g *Gateway) IncomingLinks(ctx context.Context, url string) ([]string, error) {
	var links []string
	err := g.route(ctx, "incoming links", len(g.Live()), func(ctx context.Context, m barrel.Member) error {
		l, err := m.Replica.IncomingLinks(ctx, url)
		if err != nil {
			return err
		}
		links = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

// Statistics reports the top queries and the stats of every live shard that
// answers. Unreachable shards are omitted.
func (g *Gateway) Statistics(ctx context.Context) proto.SystemStats {
	live := g.Live()
	stats := make([]*proto.ShardStats, len(live))
	eg, ectx := errgroup.WithContext(ctx)
	for i, m := range live {
		eg.Go(func() error {
			s, err := m.Replica.Stats(ectx)
			if err != nil {
				g.logger.Warn("shard stats unavailable", "shard", m.Name, "error", err)
				return nil
			}
			stats[i] = &s
			return nil
		})
	}
	_ = eg.Wait()

	out := proto.SystemStats{
		TopQueries: g.freq.Top(g.cfg.TopQueries),
		Shards:     make([]proto.ShardStats, 0, len(live)),
	}
	for _, s := range stats {
		if s != nil {
			out.Shards = append(out.Shards, *s)
		}
	}
	return out
}

// EnqueueForIndexing submits url to the frontier, retrying once after the
// configured delay. It reports whether the frontier admitted the URL as new.
func (g *Gateway) EnqueueForIndexing(ctx context.Context, url string) (bool, error) {
	if strings.TrimSpace(url) == "" {
		return false, fmt.Errorf("%w: url is required", apperrors.ErrInvalidInput)
	}
	var admitted bool
	err := g.breaker.Execute(func() error {
		return resilience.Retry(ctx, "frontier submit", resilience.RetryConfig{
			MaxAttempts:  2,
			InitialDelay: g.cfg.EnqueueRetryDelay,
			MaxDelay:     g.cfg.EnqueueRetryDelay,
			Multiplier:   1,
			Retryable:    apperrors.IsCommunication,
		}, func() error {
			ok, err := g.frontier.Submit(ctx, url)
			admitted = ok
			return err
		})
	})
	if err != nil {
		g.logger.Error("enqueue failed", "url", url, "error", err)
		return false, fmt.Errorf("%w: %s: %v", apperrors.ErrFrontierUnavailable, url, err)
	}
	g.logger.Info("url enqueued", "url", url, "admitted", admitted)
	return admitted, nil
}

// route runs fn against up to attempts distinct live shards chosen by the
// routing strategy, stopping at the first success. After a communication
// failure membership is re-probed before the next choice.
func (g *Gateway) route(ctx context.Context, op string, attempts int, fn func(context.Context, barrel.Member) error) error {
	tried := make(map[string]struct{})
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		candidates := make([]barrel.Member, 0)
		for _, m := range g.Live() {
			if _, ok := tried[m.Name]; !ok {
				candidates = append(candidates, m)
			}
		}
		if len(candidates) == 0 {
			break
		}
		m := candidates[g.picker.pick(len(candidates))]
		tried[m.Name] = struct{}{}

		err := fn(ctx, m)
		if err == nil {
			return nil
		}
		lastErr = err
		g.metrics.FailoversTotal.Inc()
		if apperrors.IsCommunication(err) {
			g.logger.Warn("shard unreachable, failing over", "op", op, "shard", m.Name, "attempt", attempt+1, "error", err)
			g.Probe(ctx)
		} else {
			g.logger.Warn("shard returned error, failing over", "op", op, "shard", m.Name, "attempt", attempt+1, "error", err)
		}
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrNoShards, op, lastErr)
	}
	return apperrors.ErrNoShards
}
