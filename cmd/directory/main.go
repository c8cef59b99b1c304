// Command directory runs the service directory that every other Googol
// process registers with and resolves names through.
//
// Usage:
//
//	go run ./cmd/directory [-config configs/googol.yaml]
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
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/logger"
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
	logger.Setup("directory", cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := rpc.NewServer("directory")
	directory.RegisterService(server, directory.NewMemory())
	addr, err := server.Listen(cfg.Directory.Addr)
	if err != nil {
		slog.Error("failed to listen", "addr", cfg.Directory.Addr, "error", err)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		server.Stop()
	}()

	slog.Info("directory listening", "addr", addr.String())
	if err := server.Serve(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("directory stopped")
}
