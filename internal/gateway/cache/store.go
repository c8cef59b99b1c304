package cache

import (
	"context"
	"sync"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/googol/pkg/redis"
)

// Memory is an unbounded in-process Store. It lives as long as the gateway
// process.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.data = make(map[string][]byte)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// KV is the subset of pkg/redis.Client the Redis store needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Redis stores entries as plain keys under a common prefix, each with ttl.
type Redis struct {
	kv  KV
	ttl time.Duration
}

func NewRedis(kv KV, ttl time.Duration) *Redis {
	return &Redis{kv: kv, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.kv.Get(ctx, key)
	if pkgredis.IsNilError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(v), true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.kv.Set(ctx, key, value, r.ttl)
}

func (r *Redis) Clear(ctx context.Context) error {
	_, err := r.kv.FlushByPattern(ctx, keyPrefix+"*")
	return err
}
