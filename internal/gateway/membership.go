package gateway

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/barrel"
)

const pingTimeout = 2 * time.Second

// Live returns the shards that answered the most recent probe. The slice is
// shared and must not be modified.
func (g *Gateway) Live() []barrel.Member {
	if p := g.live.Load(); p != nil {
		return *p
	}
	return nil
}

// Probe lists the registered shards, pings them concurrently and publishes
// the responders as the new live list. When the directory itself cannot be
// reached the previous list is kept.
func (g *Gateway) Probe(ctx context.Context) []barrel.Member {
	members, err := g.shards.Members(ctx)
	if err != nil {
		g.logger.Warn("listing shards failed, keeping previous view", "error", err)
		return g.Live()
	}

	alive := make([]bool, len(members))
	eg, ectx := errgroup.WithContext(ctx)
	for i, m := range members {
		eg.Go(func() error {
			pctx, cancel := context.WithTimeout(ectx, pingTimeout)
			defer cancel()
			if err := m.Replica.Ping(pctx); err != nil {
				g.logger.Debug("shard did not answer ping", "shard", m.Name, "error", err)
				return nil
			}
			alive[i] = true
			return nil
		})
	}
	_ = eg.Wait()

	live := make([]barrel.Member, 0, len(members))
	for i, m := range members {
		if alive[i] {
			live = append(live, m)
		}
	}
	previous := len(g.Live())
	g.live.Store(&live)
	g.metrics.ActiveShards.Set(float64(len(live)))
	if len(live) != previous {
		g.logger.Info("shard membership changed", "live", len(live), "registered", len(members))
	}
	return live
}

// StartProbing probes immediately and then every interval until ctx is
// cancelled. The returned WaitGroup finishes when the loop exits.
func (g *Gateway) StartProbing(ctx context.Context, interval time.Duration) *sync.WaitGroup {
	g.Probe(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g.Probe(ctx)
			}
		}
	}()
	return &wg
}
