package gateway

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
)

// StatsSink receives system statistics whenever they change.
type StatsSink interface {
	Name() string
	Publish(ctx context.Context, stats proto.SystemStats) error
}

// StartStatsPush recomputes statistics every interval and hands them to each
// sink when they differ from the last pushed value. Sink failures are logged
// and the value is retried on the next tick.
func (g *Gateway) StartStatsPush(ctx context.Context, interval time.Duration, sinks ...StatsSink) *sync.WaitGroup {
	var wg sync.WaitGroup
	if len(sinks) == 0 {
		return &wg
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var last *proto.SystemStats
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := g.Statistics(ctx)
				if last != nil && reflect.DeepEqual(*last, stats) {
					continue
				}
				if g.pushStats(ctx, stats, sinks) {
					last = &stats
				}
			}
		}
	}()
	g.logger.Info("stats push started", "interval", interval, "sinks", len(sinks))
	return &wg
}

func (g *Gateway) pushStats(ctx context.Context, stats proto.SystemStats, sinks []StatsSink) bool {
	ok := true
	for _, s := range sinks {
		if err := s.Publish(ctx, stats); err != nil {
			g.logger.Error("publishing stats failed", "sink", s.Name(), "error", err)
			ok = false
		}
	}
	return ok
}
