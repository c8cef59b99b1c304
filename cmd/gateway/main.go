// Command gateway starts the query router.
//
// The gateway tracks live barrels through the directory, answers searches
// from one shard at a time with failover, caches results, counts query
// frequencies and forwards enqueue requests to the frontier. It serves the
// Gateway.* RPC methods on gateway.rpcAddr and the HTTP JSON API, health
// probes and /metrics on gateway.port. Statistics are optionally pushed to
// Kafka and archived in PostgreSQL.
//
// Usage:
//
//	go run ./cmd/gateway [-config configs/googol.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/barrel"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/directory"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/frontier"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/gateway"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/gateway/cache"
	gwhandler "github.com/Adithya-Monish-Kumar-K/googol/internal/gateway/handler"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/gateway/publisher"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/gateway/router"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/gateway/statsarchive"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/snapshot"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/googol/pkg/redis"
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
	logger.Setup("gateway", cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting gateway",
		"port", cfg.Gateway.Port,
		"rpc_addr", cfg.Gateway.RPCAddr,
		"strategy", cfg.Gateway.Strategy,
		"cache", cfg.Gateway.CacheEnabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	checker := health.NewChecker("gateway")

	reg, closer, err := directory.Open(cfg)
	if err != nil {
		slog.Error("failed to open directory", "error", err)
		os.Exit(1)
	}
	defer closer.Close()

	opts := rpc.Options{DialTimeout: cfg.RPC.DialTimeout, CallTimeout: cfg.RPC.CallTimeout}
	pool := barrel.NewPool(reg, opts)
	defer pool.Close()
	fr := frontier.NewClient(directory.ResolveOr(ctx, reg, directory.FrontierName, cfg.Frontier.Addr), opts)
	defer fr.Close()

	// Result cache. A redis-backed cache is flushed at startup since the
	// shards may have changed while the gateway was down.
	var store cache.Store
	if cfg.Gateway.CacheEnabled {
		switch cfg.Gateway.CacheBackend {
		case "redis":
			rdb, err := pkgredis.NewClient(cfg.Redis)
			if err != nil {
				slog.Error("failed to connect to redis", "error", err)
				os.Exit(1)
			}
			defer rdb.Close()
			store = cache.NewRedis(rdb, cfg.Redis.CacheTTL)
			checker.Register("redis", health.Ping(health.StatusDegraded, rdb.Ping))
		default:
			store = cache.NewMemory()
		}
	}
	qc := cache.New(store, m)
	if err := qc.Invalidate(ctx); err != nil {
		slog.Warn("failed to flush result cache", "error", err)
	}

	gw, err := gateway.New(cfg, pool, fr, qc, m)
	if err != nil {
		slog.Error("failed to create gateway", "error", err)
		os.Exit(1)
	}
	if cfg.Persistence.Enabled {
		if err := gw.Load(cfg.Persistence.Dir); err != nil {
			slog.Warn("starting with empty query statistics", "error", err)
		}
	}

	// Statistics sinks.
	var sinks []gateway.StatsSink
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Stats)
		defer producer.Close()
		sinks = append(sinks, publisher.New(producer))
	}
	if cfg.Postgres.Enabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		archive := statsarchive.New(db, cfg.Postgres.StatsRetention)
		if err := archive.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare stats archive", "error", err)
			os.Exit(1)
		}
		checker.Register("postgres", health.Ping(health.StatusDegraded, db.Ping))
		slog.Info("archiving statistics", "database", db.Database(), "retention", cfg.Postgres.StatsRetention)
		sinks = append(sinks, archive)
	}

	checker.Register("shards", func(context.Context) health.ComponentHealth {
		live := len(gw.Live())
		if live == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "no live shards"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d live shards", live)}
	})
	checker.Register("frontier", health.Ping(health.StatusDegraded, func(ctx context.Context) error {
		_, err := fr.HasWork(ctx)
		return err
	}))

	probing := gw.StartProbing(ctx, cfg.Gateway.HealthProbeInterval)
	pushing := gw.StartStatsPush(ctx, cfg.Gateway.StatsInterval, sinks...)
	var saved <-chan struct{}
	if cfg.Persistence.Enabled {
		saved = snapshot.StartAutosave(ctx, "gateway", cfg.Persistence.AutosaveInterval, func() error {
			return gw.Save(cfg.Persistence.Dir)
		})
	}

	// RPC surface.
	rpcServer := rpc.NewServer("gateway")
	gateway.RegisterService(rpcServer, gw)
	rpcAddr, err := rpcServer.Listen(cfg.Gateway.RPCAddr)
	if err != nil {
		slog.Error("failed to listen", "addr", cfg.Gateway.RPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		if err := rpcServer.Serve(); err != nil {
			slog.Error("rpc server error", "error", err)
			stop()
		}
	}()
	withdraw, err := directory.Announce(ctx, reg, directory.GatewayName, rpcAddr.String())
	if err != nil {
		slog.Error("failed to register gateway", "error", err)
		rpcServer.Stop()
		os.Exit(1)
	}

	// HTTP surface.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Gateway.Port),
		Handler:      router.New(gwhandler.New(gw), m, checker, cfg.Server.WriteTimeout),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("gateway listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		stop()
	}

	withdraw()
	rpcServer.Stop()
	probing.Wait()
	pushing.Wait()
	if saved != nil {
		<-saved
	}
	slog.Info("gateway stopped")
}
