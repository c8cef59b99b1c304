package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/barrel"
	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/metrics"
)

// Outcome summarises one multicast.
type Outcome int

const (
	// Delivered means every shard acknowledged the page.
	Delivered Outcome = iota
	// Partial means at least one shard, but not all, acknowledged.
	Partial
	// Lost means no shard acknowledged.
	Lost
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Partial:
		return "partial"
	case Lost:
		return "lost"
	default:
		return "unknown"
	}
}

// Multicaster delivers a page to every shard of a view with acknowledgement
// and bounded retries.
type Multicaster struct {
	RetryCount int
	RetryDelay time.Duration

	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewMulticaster(retryCount int, retryDelay time.Duration, m *metrics.Metrics) *Multicaster {
	return &Multicaster{
		RetryCount: retryCount,
		RetryDelay: retryDelay,
		metrics:    m,
		logger:     slog.Default().With("component", "multicast"),
	}
}

// Send calls IndexPage on each shard until it acknowledges, making at most
// RetryCount+1 passes. A negative acknowledgement is retried; a failed call
// is retried too and the shard is given up on only after the last pass.
// Lost outcomes also return an error wrapping errors.ErrNoReplica.
func (m *Multicaster) Send(ctx context.Context, shards []barrel.Member, page barrel.Page) (Outcome, error) {
	logger := m.logger.With("url", page.URL)
	if len(shards) == 0 {
		logger.Error("no shards in view, page not indexed")
		m.metrics.MulticastOutcomes.WithLabelValues(Lost.String()).Inc()
		return Lost, fmt.Errorf("%w: %s: empty shard view", apperrors.ErrNoReplica, page.URL)
	}

	acked := make(map[string]struct{}, len(shards))
	failed := make(map[string]struct{})
	for attempt := 0; attempt <= m.RetryCount; attempt++ {
		if len(acked) == len(shards) {
			break
		}
		if attempt > 0 {
			logger.Info("retrying multicast", "attempt", attempt, "pending", len(shards)-len(acked)-len(failed))
			if !sleep(ctx, m.RetryDelay) {
				break
			}
		}
		for _, s := range shards {
			if _, ok := acked[s.Name]; ok {
				continue
			}
			if _, ok := failed[s.Name]; ok {
				continue
			}
			ack, err := s.Replica.IndexPage(ctx, page)
			switch {
			case err != nil:
				m.metrics.ReplicaWrites.WithLabelValues("error").Inc()
				logger.Warn("shard unreachable", "shard", s.Name, "attempt", attempt, "error", err)
				if attempt == m.RetryCount {
					failed[s.Name] = struct{}{}
				}
			case !ack:
				m.metrics.ReplicaWrites.WithLabelValues("nack").Inc()
				logger.Warn("shard rejected page", "shard", s.Name, "attempt", attempt, "error", apperrors.ErrNegativeAck)
			default:
				m.metrics.ReplicaWrites.WithLabelValues("ack").Inc()
				acked[s.Name] = struct{}{}
				logger.Debug("shard acknowledged", "shard", s.Name)
			}
		}
	}

	var outcome Outcome
	switch {
	case len(acked) == len(shards):
		outcome = Delivered
	case len(acked) > 0:
		outcome = Partial
		logger.Warn("page reached only some shards", "acked", len(acked), "shards", len(shards))
	default:
		outcome = Lost
	}
	m.metrics.MulticastOutcomes.WithLabelValues(outcome.String()).Inc()
	if outcome == Lost {
		logger.Error("no shard acknowledged page", "shards", len(shards))
		return Lost, fmt.Errorf("%w: %s", apperrors.ErrNoReplica, page.URL)
	}
	return outcome, nil
}

// sleep waits for d or until ctx is done, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
