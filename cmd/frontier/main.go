// Command frontier runs the crawl queue. It restores its snapshot, admits
// the configured seed URLs, registers as "frontier" in the directory and
// serves the Frontier.* RPC methods until interrupted.
//
// Usage:
//
//	go run ./cmd/frontier [-config configs/googol.yaml] [seed-url ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/directory"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/frontier"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/snapshot"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/rpc"
)

func main() {
	configPath := flag.String("config", "configs/googol.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup("frontier", cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	fr := frontier.New(m)
	if cfg.Persistence.Enabled {
		if err := fr.Load(cfg.Persistence.Dir); err != nil {
			slog.Warn("starting with an empty frontier", "error", err)
		}
	}
	seeds := append(append([]string(nil), cfg.Frontier.Seeds...), flag.Args()...)
	if n := fr.SubmitMany(seeds); n > 0 {
		slog.Info("seed urls admitted", "count", n)
	}

	server := rpc.NewServer("frontier")
	frontier.RegisterService(server, fr)
	addr, err := server.Listen(cfg.Frontier.Addr)
	if err != nil {
		slog.Error("failed to listen", "addr", cfg.Frontier.Addr, "error", err)
		os.Exit(1)
	}
	go func() {
		if err := server.Serve(); err != nil {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	reg, closer, err := directory.Open(cfg)
	if err != nil {
		slog.Error("failed to open directory", "error", err)
		os.Exit(1)
	}
	defer closer.Close()
	withdraw, err := directory.Announce(ctx, reg, directory.FrontierName, addr.String())
	if err != nil {
		slog.Error("failed to register frontier", "error", err)
		server.Stop()
		os.Exit(1)
	}

	checker := health.NewChecker("frontier")
	checker.Register("queue", func(context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d pending, %d dispatched", fr.Size(), fr.DispatchedCount()),
		}
	})
	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = metrics.StartServer(cfg.Metrics.Port, m, checker)
	}

	var saved <-chan struct{}
	if cfg.Persistence.Enabled {
		saved = snapshot.StartAutosave(ctx, "frontier", cfg.Persistence.AutosaveInterval, func() error {
			return fr.Save(cfg.Persistence.Dir)
		})
	}

	slog.Info("frontier ready", "addr", addr.String(), "pending", fr.Size())
	<-ctx.Done()
	slog.Info("shutdown signal received")

	withdraw()
	server.Stop()
	if saved != nil {
		<-saved
	}
	if shutdownMetrics != nil {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownMetrics(sctx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}
	slog.Info("frontier stopped")
}
