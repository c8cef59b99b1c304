package directory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/googol/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/rpc"
)

// Open returns the registry selected by cfg.Directory.Backend together with a
// closer for its connection.
func Open(cfg *config.Config) (Registry, io.Closer, error) {
	switch cfg.Directory.Backend {
	case "redis":
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("opening redis directory: %w", err)
		}
		return NewRedis(client, cfg.Directory.RedisKey), client, nil
	default:
		c := NewClient(cfg.Directory.Addr, rpc.Options{
			DialTimeout: cfg.RPC.DialTimeout,
			CallTimeout: cfg.RPC.CallTimeout,
		})
		return c, c, nil
	}
}

// Announce registers name at endpoint, retrying while the directory is still
// starting. The returned function deregisters it.
func Announce(ctx context.Context, reg Registry, name, endpoint string) (withdraw func(), err error) {
	err = resilience.Retry(ctx, "directory register", resilience.RetryConfig{
		MaxAttempts:  5,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}, func() error {
		return reg.Register(ctx, name, endpoint)
	})
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", name, err)
	}
	slog.Info("registered in directory", "name", name, "endpoint", endpoint)
	return func() {
		dctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := reg.Deregister(dctx, name); err != nil {
			slog.Warn("deregistering from directory failed", "name", name, "error", err)
		}
	}, nil
}

// ResolveOr resolves name, retrying while the directory or the service is
// still starting, and returns fallback if it never appears.
func ResolveOr(ctx context.Context, reg Registry, name, fallback string) string {
	var endpoint string
	err := resilience.Retry(ctx, "directory resolve", resilience.RetryConfig{
		MaxAttempts:  5,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}, func() error {
		var err error
		endpoint, err = reg.Resolve(ctx, name)
		return err
	})
	if err != nil {
		slog.Warn("service not found in directory, using configured address", "name", name, "addr", fallback, "error", err)
		return fallback
	}
	return endpoint
}
