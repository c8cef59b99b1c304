package barrel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/directory"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/rpc"
)

// Member is a registered shard and the replica used to reach it.
type Member struct {
	Name    string
	ID      string
	Replica Replica
}

// Pool resolves barrel.* names through the directory and keeps one RPC
// client per endpoint. It does not check liveness; callers ping or simply
// call and handle communication errors.
type Pool struct {
	registry directory.Registry
	opts     rpc.Options
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[string]*Client
}

func NewPool(reg directory.Registry, opts rpc.Options) *Pool {
	return &Pool{
		registry: reg,
		opts:     opts,
		logger:   slog.Default().With("component", "barrel-pool"),
		clients:  make(map[string]*Client),
	}
}

// Members lists the currently registered shards in name order. Names that
// fail to resolve are skipped. Clients for endpoints no longer registered
// are closed.
func (p *Pool) Members(ctx context.Context) ([]Member, error) {
	names, err := p.registry.List(ctx, directory.BarrelPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing barrels: %w", err)
	}

	members := make([]Member, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		endpoint, err := p.registry.Resolve(ctx, name)
		if err != nil {
			p.logger.Warn("resolving barrel failed", "name", name, "error", err)
			continue
		}
		seen[endpoint] = struct{}{}
		members = append(members, Member{
			Name:    name,
			ID:      strings.TrimPrefix(name, directory.BarrelPrefix),
			Replica: p.client(endpoint),
		})
	}
	p.prune(seen)
	return members, nil
}

func (p *Pool) client(endpoint string) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.clients[endpoint]
	if !ok {
		c = NewClient(endpoint, p.opts)
		p.clients[endpoint] = c
	}
	return c
}

func (p *Pool) prune(keep map[string]struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for endpoint, c := range p.clients {
		if _, ok := keep[endpoint]; !ok {
			c.Close()
			delete(p.clients, endpoint)
		}
	}
}

// Close closes every cached client.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for endpoint, c := range p.clients {
		c.Close()
		delete(p.clients, endpoint)
	}
	return nil
}

var _ io.Closer = (*Pool)(nil)
