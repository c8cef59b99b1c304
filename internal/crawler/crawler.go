// Package crawler runs the crawl workers: each takes a URL from the
// frontier, fetches and tokenizes the page, feeds its links back to the
// frontier and multicasts the page to every index shard.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/barrel"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/crawler/fetcher"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/resilience"
)

// Frontier is the part of the frontier client a crawler needs.
type Frontier interface {
	TakeNext(ctx context.Context) (string, bool, error)
	SubmitMany(ctx context.Context, urls []string) (int, error)
}

// Fetcher downloads and parses one page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (fetcher.Page, error)
}

// ShardView reports the shards currently registered. *barrel.Pool
// implements it.
type ShardView interface {
	Members(ctx context.Context) ([]barrel.Member, error)
}

type Crawler struct {
	id            string
	cfg           config.CrawlerConfig
	minWordLength int

	frontier  Frontier
	fetcher   Fetcher
	shards    ShardView
	multicast *Multicaster

	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(id string, cfg *config.Config, fr Frontier, f Fetcher, shards ShardView, m *metrics.Metrics) *Crawler {
	return &Crawler{
		id:            id,
		cfg:           cfg.Crawler,
		minWordLength: cfg.Search.MinWordLength,
		frontier:      fr,
		fetcher:       f,
		shards:        shards,
		multicast:     NewMulticaster(cfg.Crawler.RetryCount, cfg.Crawler.RetryDelay, m),
		metrics:       m,
		logger:        slog.Default().With("component", "crawler", "crawler_id", id),
	}
}

// Start launches workers goroutines running Run. The returned channel is
// closed once all of them have returned.
func (c *Crawler) Start(ctx context.Context, workers int) <-chan struct{} {
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			c.Run(ctx, worker)
		}(i)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	c.logger.Info("crawler started", "workers", workers)
	return done
}

// Run takes URLs from the frontier until ctx is cancelled. The URL being
// processed when ctx is cancelled is finished first.
func (c *Crawler) Run(ctx context.Context, worker int) {
	logger := c.logger.With("worker", worker)
	for ctx.Err() == nil {
		url, ok, err := c.frontier.TakeNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			delay := c.cfg.EmptyQueueBackoff
			if apperrors.IsCommunication(err) {
				delay = c.cfg.ReconnectDelay
				logger.Warn("frontier unreachable, reconnecting", "error", err, "delay", delay)
			} else {
				logger.Error("taking next url failed", "error", err)
			}
			sleep(ctx, delay)
			continue
		}
		if !ok {
			sleep(ctx, c.cfg.EmptyQueueBackoff)
			continue
		}
		if err := c.Process(context.WithoutCancel(ctx), url); err != nil {
			logger.Warn("page abandoned", "url", url, "error", err)
		}
	}
	logger.Info("crawler worker stopped")
}

// Process crawls one URL: fetch, submit its links, then multicast. A failed
// fetch abandons the URL; it is not requeued.
func (c *Crawler) Process(ctx context.Context, url string) error {
	start := time.Now()
	fp, err := resilience.Bounded(ctx, c.cfg.FetchTimeout, "fetch", func(ctx context.Context) (fetcher.Page, error) {
		return c.fetcher.Fetch(ctx, url)
	})
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.PagesCrawled.WithLabelValues("fetch_error").Inc()
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	c.metrics.PagesCrawled.WithLabelValues("ok").Inc()

	page := BuildPage(url, fp, c.minWordLength)

	if len(page.Links) > 0 {
		var admitted int
		err := resilience.Retry(ctx, "frontier submit", resilience.RetryConfig{
			MaxAttempts:  2,
			InitialDelay: c.cfg.RetryDelay,
			MaxDelay:     c.cfg.RetryDelay,
			Multiplier:   1,
			Retryable:    apperrors.IsCommunication,
		}, func() error {
			n, err := c.frontier.SubmitMany(ctx, page.Links)
			admitted = n
			return err
		})
		if err != nil {
			c.logger.Error("submitting links failed", "url", url, "links", len(page.Links), "error", err)
			return fmt.Errorf("submitting links of %s: %w", url, apperrors.ErrFrontierUnavailable)
		}
		c.logger.Debug("links submitted", "url", url, "links", len(page.Links), "admitted", admitted)
	}

	members, err := c.shards.Members(ctx)
	if err != nil {
		c.logger.Warn("listing shards failed", "error", err)
		members = nil
	}
	outcome, err := c.multicast.Send(ctx, members, page)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoReplica) {
			return err
		}
		return fmt.Errorf("multicasting %s: %w", url, err)
	}
	c.logger.Info("page crawled",
		"url", url,
		"outcome", outcome.String(),
		"tokens", len(page.Tokens),
		"links", len(page.Links),
	)
	return nil
}
