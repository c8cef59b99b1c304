package directory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/rpc"
)

// exercise runs the same behaviour checks against any backend.
func exercise(t *testing.T, reg Registry) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, reg.Register(ctx, BarrelName("2"), "10.0.0.2:7000"))
	require.NoError(t, reg.Register(ctx, BarrelName("1"), "10.0.0.1:7000"))
	require.NoError(t, reg.Register(ctx, FrontierName, "10.0.0.9:1100"))

	names, err := reg.List(ctx, BarrelPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"barrel.1", "barrel.2"}, names)

	endpoint, err := reg.Resolve(ctx, FrontierName)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9:1100", endpoint)

	require.NoError(t, reg.Register(ctx, BarrelName("1"), "10.0.0.1:7001"))
	endpoint, err = reg.Resolve(ctx, BarrelName("1"))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:7001", endpoint, "re-registration replaces the endpoint")

	require.NoError(t, reg.Deregister(ctx, BarrelName("2")))
	_, err = reg.Resolve(ctx, BarrelName("2"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Error(t, reg.Register(ctx, "", "x"))
}

func TestMemory(t *testing.T) {
	reg := NewMemory()
	exercise(t, reg)
	assert.ErrorIs(t, reg.Register(context.Background(), "barrel.9", ""), apperrors.ErrInvalidInput)
}

func TestRPCClientAgainstServer(t *testing.T) {
	s := rpc.NewServer("directory")
	RegisterService(s, NewMemory())
	addr, err := s.Listen("127.0.0.1:0")
	require.NoError(t, err)
	go s.Serve()
	defer s.Stop()

	c := NewClient(addr.String(), rpc.Options{})
	defer c.Close()
	exercise(t, c)
}

type fakeHash struct {
	mu   sync.Mutex
	data map[string]map[string]string
	err  error
}

func newFakeHash() *fakeHash {
	return &fakeHash{data: make(map[string]map[string]string)}
}

func (f *fakeHash) HSet(_ context.Context, key, field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.data[key] == nil {
		f.data[key] = make(map[string]string)
	}
	f.data[key][field] = value
	return nil
}

func (f *fakeHash) HGet(_ context.Context, key, field string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.data[key][field]
	return v, ok, nil
}

func (f *fakeHash) HDel(_ context.Context, key string, fields ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, field := range fields {
		delete(f.data[key], field)
	}
	return f.err
}

func (f *fakeHash) HKeys(_ context.Context, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	keys := make([]string, 0, len(f.data[key]))
	for k := range f.data[key] {
		keys = append(keys, k)
	}
	return keys, nil
}

func TestRedisBackend(t *testing.T) {
	exercise(t, NewRedis(newFakeHash(), "googol:directory"))
}

func TestRedisBackendOutage(t *testing.T) {
	store := newFakeHash()
	store.err = errors.New("connection refused")
	reg := NewRedis(store, "googol:directory")

	_, err := reg.List(context.Background(), BarrelPrefix)
	assert.True(t, apperrors.IsCommunication(err))
}

func TestAnnounceAndWithdraw(t *testing.T) {
	reg := NewMemory()
	withdraw, err := Announce(context.Background(), reg, GatewayName, "127.0.0.1:1101")
	require.NoError(t, err)

	_, err = reg.Resolve(context.Background(), GatewayName)
	require.NoError(t, err)

	withdraw()
	_, err = reg.Resolve(context.Background(), GatewayName)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestResolveOrFallsBack(t *testing.T) {
	reg := NewMemory()
	require.NoError(t, reg.Register(context.Background(), FrontierName, "10.0.0.9:1100"))
	assert.Equal(t, "10.0.0.9:1100", ResolveOr(context.Background(), reg, FrontierName, "localhost:1100"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, "localhost:1100", ResolveOr(ctx, reg, GatewayName, "localhost:1100"))
}
