// Command crawler runs a downloader. It resolves the frontier through the
// directory, takes URLs one at a time per worker, and multicasts every
// fetched page to all registered barrels.
//
// Usage:
//
//	go run ./cmd/crawler [-config configs/googol.yaml] [id]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/barrel"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/crawler"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/crawler/fetcher"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/directory"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/frontier"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/rpc"
)

func main() {
	configPath := flag.String("config", "configs/googol.yaml", "path to config file")
	flag.Parse()
	id := flag.Arg(0)
	if id == "" {
		id = uuid.NewString()[:8]
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup("crawler-"+id, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, closer, err := directory.Open(cfg)
	if err != nil {
		slog.Error("failed to open directory", "error", err)
		os.Exit(1)
	}
	defer closer.Close()

	opts := rpc.Options{DialTimeout: cfg.RPC.DialTimeout, CallTimeout: cfg.RPC.CallTimeout}
	frontierAddr := directory.ResolveOr(ctx, reg, directory.FrontierName, cfg.Frontier.Addr)
	fr := frontier.NewClient(frontierAddr, opts)
	defer fr.Close()

	pool := barrel.NewPool(reg, opts)
	defer pool.Close()

	m := metrics.New()
	f := fetcher.New(fetcher.Config{UserAgent: cfg.Crawler.UserAgent, Timeout: cfg.Crawler.FetchTimeout})
	c := crawler.New(id, cfg, fr, f, pool, m)

	checker := health.NewChecker("crawler-" + id)
	checker.Register("frontier", health.Ping(health.StatusDegraded, func(ctx context.Context) error {
		_, err := fr.HasWork(ctx)
		return err
	}))
	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = metrics.StartServer(cfg.Metrics.Port, m, checker)
	}

	slog.Info("crawler starting", "id", id, "frontier", frontierAddr, "workers", cfg.Crawler.Workers)
	done := c.Start(ctx, cfg.Crawler.Workers)

	<-ctx.Done()
	slog.Info("shutdown signal received, waiting for in-flight pages", "timeout", cfg.Crawler.JoinTimeout)
	select {
	case <-done:
	case <-time.After(cfg.Crawler.JoinTimeout):
		slog.Warn("workers did not finish before the join timeout")
	}
	if shutdownMetrics != nil {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownMetrics(sctx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}
	slog.Info("crawler stopped", "id", id)
}
