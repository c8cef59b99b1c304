// Command barrel runs one index shard. The shard id is the first argument;
// the shard registers as "barrel.<id>" and restores barrel_<id>.dat on
// startup.
//
// Usage:
//
//	go run ./cmd/barrel [-config configs/googol.yaml] <id>
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/barrel"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/directory"
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
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: barrel [-config path] <id>")
		os.Exit(2)
	}
	id := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup("barrel-"+id, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	b := barrel.New(id, m)
	// The snapshot must be in place before the shard becomes visible.
	if cfg.Persistence.Enabled {
		if err := b.Load(cfg.Persistence.Dir); err != nil {
			slog.Warn("starting with an empty index", "error", err)
		}
	}

	server := rpc.NewServer("barrel-" + id)
	barrel.RegisterService(server, b)
	addr, err := server.Listen(cfg.Barrel.Addr)
	if err != nil {
		slog.Error("failed to listen", "addr", cfg.Barrel.Addr, "error", err)
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
	withdraw, err := directory.Announce(ctx, reg, directory.BarrelName(id), addr.String())
	if err != nil {
		slog.Error("failed to register barrel", "error", err)
		server.Stop()
		os.Exit(1)
	}

	checker := health.NewChecker("barrel-" + id)
	checker.Register("index", func(context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents", b.Size())}
	})
	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = metrics.StartServer(cfg.Metrics.Port, m, checker)
	}

	var saved <-chan struct{}
	if cfg.Persistence.Enabled {
		saved = snapshot.StartAutosave(ctx, "barrel-"+id, cfg.Persistence.AutosaveInterval, func() error {
			return b.Save(cfg.Persistence.Dir)
		})
	}

	slog.Info("barrel ready", "id", id, "addr", addr.String(), "documents", b.Size())
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
	slog.Info("barrel stopped", "id", id)
}
