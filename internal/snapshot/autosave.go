package snapshot

import (
	"context"
	"log/slog"
	"time"
)

// StartAutosave calls save every interval until ctx is cancelled, then calls
// it once more. The returned channel is closed after that final save. Save
// errors are logged and never stop the loop.
func StartAutosave(ctx context.Context, name string, interval time.Duration, save func() error) <-chan struct{} {
	logger := slog.Default().With("component", "autosave", "state", name)
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info("autosave stopping, performing final save")
				if err := save(); err != nil {
					logger.Error("final save failed", "error", err)
				}
				return
			case <-ticker.C:
				if err := save(); err != nil {
					logger.Error("periodic save failed", "error", err)
				}
			}
		}
	}()
	logger.Info("autosave started", "interval", interval)
	return done
}
