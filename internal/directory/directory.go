// Package directory maps logical service names ("frontier", "barrel.3",
// "gateway") to network endpoints. Servers register on startup and
// deregister on shutdown; clients resolve names and list prefixes.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
)

// Well-known names.
const (
	FrontierName = "frontier"
	GatewayName  = "gateway"
	BarrelPrefix = "barrel."
)

// BarrelName returns the directory name of the barrel with the given id.
func BarrelName(id string) string {
	return BarrelPrefix + id
}

// Registry is implemented by every directory backend.
type Registry interface {
	Register(ctx context.Context, name, endpoint string) error
	Deregister(ctx context.Context, name string) error
	Resolve(ctx context.Context, name string) (string, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Memory is the in-process registry served by the directory binary.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
	logger  *slog.Logger
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]string),
		logger:  slog.Default().With("component", "directory"),
	}
}

func (m *Memory) Register(_ context.Context, name, endpoint string) error {
	if name == "" || endpoint == "" {
		return fmt.Errorf("%w: name and endpoint are required", apperrors.ErrInvalidInput)
	}
	m.mu.Lock()
	prev, existed := m.entries[name]
	m.entries[name] = endpoint
	m.mu.Unlock()
	if existed && prev != endpoint {
		m.logger.Info("service re-registered", "name", name, "endpoint", endpoint, "previous", prev)
	} else if !existed {
		m.logger.Info("service registered", "name", name, "endpoint", endpoint)
	}
	return nil
}

func (m *Memory) Deregister(_ context.Context, name string) error {
	m.mu.Lock()
	delete(m.entries, name)
	m.mu.Unlock()
	m.logger.Info("service deregistered", "name", name)
	return nil
}

func (m *Memory) Resolve(_ context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	endpoint, ok := m.entries[name]
	if !ok {
		return "", fmt.Errorf("%w: service %q", apperrors.ErrNotFound, name)
	}
	return endpoint, nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	m.mu.RUnlock()
	sort.Strings(names)
	return names, nil
}
