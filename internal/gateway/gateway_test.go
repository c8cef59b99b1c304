package gateway

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/barrel"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/gateway/cache"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/rpc"
)

// shard wraps a local barrel and can be taken down or made to fail searches.
type shard struct {
	barrel.Local
	down     atomic.Bool
	broken   atomic.Bool
	searches atomic.Int32
}

func (s *shard) Search(ctx context.Context, terms []string) ([]proto.SearchResult, error) {
	s.searches.Add(1)
	if s.down.Load() {
		return nil, fmt.Errorf("%w: connection refused", apperrors.ErrCommunication)
	}
	if s.broken.Load() {
		return nil, &rpc.RemoteError{Method: "Barrel.Search", Message: "boom"}
	}
	return s.Local.Search(ctx, terms)
}

func (s *shard) IncomingLinks(ctx context.Context, url string) ([]string, error) {
	if s.down.Load() {
		return nil, fmt.Errorf("%w: connection refused", apperrors.ErrCommunication)
	}
	return s.Local.IncomingLinks(ctx, url)
}

func (s *shard) Stats(ctx context.Context) (proto.ShardStats, error) {
	if s.down.Load() {
		return proto.ShardStats{}, fmt.Errorf("%w: connection refused", apperrors.ErrCommunication)
	}
	return s.Local.Stats(ctx)
}

func (s *shard) Ping(context.Context) error {
	if s.down.Load() {
		return fmt.Errorf("%w: connection refused", apperrors.ErrCommunication)
	}
	return nil
}

func newShard(id string, pages ...barrel.Page) *shard {
	b := barrel.New(id, metrics.New())
	for _, p := range pages {
		b.IndexPage(p)
	}
	return &shard{Local: barrel.Local{B: b}}
}

type staticSource struct {
	mu      sync.Mutex
	members []barrel.Member
}

func (s *staticSource) Members(context.Context) ([]barrel.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]barrel.Member(nil), s.members...), nil
}

func sourceOf(shards ...*shard) *staticSource {
	src := &staticSource{}
	for _, s := range shards {
		id := s.B.ID()
		src.members = append(src.members, barrel.Member{Name: "barrel." + id, ID: id, Replica: s})
	}
	return src
}

type fakeFrontier struct {
	mu       sync.Mutex
	failures int
	calls    int
	urls     []string
}

func (f *fakeFrontier) Submit(_ context.Context, url string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return false, fmt.Errorf("%w: frontier down", apperrors.ErrCommunication)
	}
	f.urls = append(f.urls, url)
	return true, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Gateway.EnqueueRetryDelay = time.Millisecond
	return cfg
}

func newGateway(t *testing.T, cfg *config.Config, src ShardSource, fr FrontierSubmitter, store cache.Store) *Gateway {
	t.Helper()
	m := metrics.New()
	g, err := New(cfg, src, fr, cache.New(store, m), m)
	require.NoError(t, err)
	g.Probe(context.Background())
	return g
}

var goPage = barrel.Page{URL: "http://go.dev", Title: "Go", Tokens: []string{"golang", "language"}}

func TestSearchReturnsShardResults(t *testing.T) {
	g := newGateway(t, testConfig(), sourceOf(newShard("1", goPage)), &fakeFrontier{}, nil)

	results, err := g.Search(context.Background(), "Golang  LANGUAGE")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "http://go.dev", results[0].URL)
}

func TestBlankQueryIsNotCountedOrRouted(t *testing.T) {
	s := newShard("1", goPage)
	g := newGateway(t, testConfig(), sourceOf(s), &fakeFrontier{}, nil)

	results, err := g.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, g.Frequency().Top(10))
	assert.Zero(t, s.searches.Load())
}

func TestSearchFailsOverAfterCommunicationError(t *testing.T) {
	s1, s2 := newShard("1", goPage), newShard("2", goPage)
	g := newGateway(t, testConfig(), sourceOf(s1, s2), &fakeFrontier{}, nil)
	require.Len(t, g.Live(), 2)
	s1.down.Store(true)

	// Round robin starts at the first live shard.
	results, err := g.Search(context.Background(), "golang")
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, int32(1), s1.searches.Load())
	assert.Equal(t, int32(1), s2.searches.Load())
	require.Len(t, g.Live(), 1, "failed shard is dropped by the re-probe")
	assert.Equal(t, "barrel.2", g.Live()[0].Name)
}

func TestSearchFailsOverAfterRemoteError(t *testing.T) {
	s1, s2 := newShard("1", goPage), newShard("2", goPage)
	s1.broken.Store(true)
	g := newGateway(t, testConfig(), sourceOf(s1, s2), &fakeFrontier{}, nil)

	_, err := g.Search(context.Background(), "golang")
	require.NoError(t, err)
	assert.Len(t, g.Live(), 2, "remote errors do not change membership")
}

func TestSearchAllShardsDown(t *testing.T) {
	s1, s2 := newShard("1"), newShard("2")
	g := newGateway(t, testConfig(), sourceOf(s1, s2), &fakeFrontier{}, nil)
	s1.down.Store(true)
	s2.down.Store(true)

	_, err := g.Search(context.Background(), "golang")
	assert.ErrorIs(t, err, apperrors.ErrNoShards)
	assert.Equal(t, "no shards available", apperrors.ErrNoShards.Error())
}

func TestSearchWithoutShards(t *testing.T) {
	g := newGateway(t, testConfig(), sourceOf(), &fakeFrontier{}, nil)
	_, err := g.Search(context.Background(), "golang")
	assert.ErrorIs(t, err, apperrors.ErrNoShards)
}

func TestSearchTriesAtMostMaxAttemptsShards(t *testing.T) {
	shards := []*shard{newShard("1"), newShard("2"), newShard("3"), newShard("4")}
	for _, s := range shards {
		s.broken.Store(true)
	}
	g := newGateway(t, testConfig(), sourceOf(shards...), &fakeFrontier{}, nil)

	_, err := g.Search(context.Background(), "golang")
	assert.ErrorIs(t, err, apperrors.ErrNoShards)
	var total int32
	for _, s := range shards {
		assert.LessOrEqual(t, s.searches.Load(), int32(1), "a shard is tried once per request")
		total += s.searches.Load()
	}
	assert.Equal(t, int32(3), total)
}

func TestRoundRobinRotates(t *testing.T) {
	s1, s2 := newShard("1", goPage), newShard("2", goPage)
	g := newGateway(t, testConfig(), sourceOf(s1, s2), &fakeFrontier{}, nil)

	for i := 0; i < 4; i++ {
		_, err := g.Search(context.Background(), "golang")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), s1.searches.Load())
	assert.Equal(t, int32(2), s2.searches.Load())
}

func TestCacheServesSameTermSet(t *testing.T) {
	s := newShard("1", goPage)
	g := newGateway(t, testConfig(), sourceOf(s), &fakeFrontier{}, cache.NewMemory())

	_, err := g.Search(context.Background(), "golang language")
	require.NoError(t, err)
	_, err = g.Search(context.Background(), "LANGUAGE golang golang")
	require.NoError(t, err)
	assert.Equal(t, int32(1), s.searches.Load())

	top := g.Frequency().Top(10)
	require.Len(t, top, 2, "frequency keys are the raw lowercased queries")
}

func TestSearchPage(t *testing.T) {
	var pages []barrel.Page
	for i := 0; i < 15; i++ {
		pages = append(pages, barrel.Page{URL: fmt.Sprintf("http://p%02d.com", i), Title: "p", Tokens: []string{"page"}})
	}
	g := newGateway(t, testConfig(), sourceOf(newShard("1", pages...)), &fakeFrontier{}, cache.NewMemory())
	ctx := context.Background()

	first, err := g.SearchPage(ctx, "page", 0, 10)
	require.NoError(t, err)
	assert.Len(t, first.Results, 10)
	assert.True(t, first.HasMore)

	second, err := g.SearchPage(ctx, "page", 1, 10)
	require.NoError(t, err)
	assert.Len(t, second.Results, 5)
	assert.Equal(t, "http://p10.com", second.Results[0].URL)
	assert.False(t, second.HasMore)

	third, err := g.SearchPage(ctx, "page", 2, 10)
	require.NoError(t, err)
	assert.NotNil(t, third.Results)
	assert.Empty(t, third.Results)
	assert.False(t, third.HasMore)

	defaults, err := g.SearchPage(ctx, "page", 0, 0)
	require.NoError(t, err)
	assert.Len(t, defaults.Results, 10, "page size defaults to the configured size")

	huge, err := g.SearchPage(ctx, "page", math.MaxInt64/5, 10)
	require.NoError(t, err)
	assert.Empty(t, huge.Results, "a page index whose offset overflows is past the end")
	assert.False(t, huge.HasMore)

	_, err = g.SearchPage(ctx, "page", -1, 10)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestIncomingLinksFailsOver(t *testing.T) {
	page := barrel.Page{URL: "http://a.com", Links: []string{"http://b.com"}}
	s1, s2 := newShard("1", page), newShard("2", page)
	g := newGateway(t, testConfig(), sourceOf(s1, s2), &fakeFrontier{}, nil)
	s1.down.Store(true)

	links, err := g.IncomingLinks(context.Background(), "http://b.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.com"}, links)
}

func TestTopQueriesBreaksTiesByFirstSeen(t *testing.T) {
	g := newGateway(t, testConfig(), sourceOf(newShard("1")), &fakeFrontier{}, nil)
	ctx := context.Background()
	for _, q := range []string{"zeta", "alpha", "Zeta", "beta", "alpha", "gamma"} {
		_, err := g.Search(ctx, q)
		require.NoError(t, err)
	}
	top := g.Frequency().Top(3)
	assert.Equal(t, []proto.QueryCount{
		{Query: "zeta", Count: 2},
		{Query: "alpha", Count: 2},
		{Query: "beta", Count: 1},
	}, top)
}

func TestStatisticsOmitsUnreachableShards(t *testing.T) {
	s1, s2 := newShard("1", goPage), newShard("2")
	g := newGateway(t, testConfig(), sourceOf(s1, s2), &fakeFrontier{}, nil)
	_, err := g.Search(context.Background(), "golang")
	require.NoError(t, err)
	s2.down.Store(true)

	stats := g.Statistics(context.Background())
	require.Len(t, stats.Shards, 1)
	assert.Equal(t, "1", stats.Shards[0].ID)
	assert.Equal(t, 1, stats.Shards[0].DocumentCount)
	assert.Equal(t, []proto.QueryCount{{Query: "golang", Count: 1}}, stats.TopQueries)
}

func TestEnqueueRetriesOnce(t *testing.T) {
	fr := &fakeFrontier{failures: 1}
	g := newGateway(t, testConfig(), sourceOf(), fr, nil)

	admitted, err := g.EnqueueForIndexing(context.Background(), "http://a.com")
	require.NoError(t, err)
	assert.True(t, admitted)
	assert.Equal(t, 2, fr.calls)
}

func TestEnqueueGivesUpAfterRetry(t *testing.T) {
	fr := &fakeFrontier{failures: 2}
	g := newGateway(t, testConfig(), sourceOf(), fr, nil)

	_, err := g.EnqueueForIndexing(context.Background(), "http://a.com")
	assert.ErrorIs(t, err, apperrors.ErrFrontierUnavailable)
	assert.Equal(t, 2, fr.calls)

	_, err = g.EnqueueForIndexing(context.Background(), " ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestEnqueueOpensCircuit(t *testing.T) {
	fr := &fakeFrontier{failures: 100}
	g := newGateway(t, testConfig(), sourceOf(), fr, nil)
	for i := 0; i < 5; i++ {
		g.EnqueueForIndexing(context.Background(), "http://a.com")
	}
	calls := fr.calls

	_, err := g.EnqueueForIndexing(context.Background(), "http://a.com")
	assert.ErrorIs(t, err, apperrors.ErrFrontierUnavailable)
	assert.Equal(t, calls, fr.calls, "open circuit does not reach the frontier")
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, RoundRobin, s)
	s, err = ParseStrategy("Random")
	require.NoError(t, err)
	assert.Equal(t, Random, s)
	_, err = ParseStrategy("weighted")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSaveLoadFrequency(t *testing.T) {
	dir := t.TempDir()
	g := newGateway(t, testConfig(), sourceOf(newShard("1")), &fakeFrontier{}, nil)
	for _, q := range []string{"b", "a", "a"} {
		g.Search(context.Background(), q)
	}
	require.NoError(t, g.Save(dir))

	restored := newGateway(t, testConfig(), sourceOf(), &fakeFrontier{}, nil)
	require.NoError(t, restored.Load(dir))
	assert.Equal(t, g.Frequency().Top(10), restored.Frequency().Top(10))

	restored.Frequency().Record("c")
	top := restored.Frequency().Top(10)
	require.Len(t, top, 3)
	assert.Equal(t, "a", top[0].Query)
	assert.Equal(t, "b", top[1].Query, "restored entries keep their first-seen order")
	assert.Equal(t, "c", top[2].Query)
}

type recordingSink struct {
	mu     sync.Mutex
	pushed []proto.SystemStats
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Publish(_ context.Context, stats proto.SystemStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushed = append(r.pushed, stats)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pushed)
}

func TestStatsPushOnlyOnChange(t *testing.T) {
	g := newGateway(t, testConfig(), sourceOf(), &fakeFrontier{}, nil)
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	wg := g.StartStatsPush(ctx, 5*time.Millisecond, sink)

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, sink.count(), "unchanged stats are not pushed again")

	g.Frequency().Record("new query")
	require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, time.Millisecond)

	cancel()
	wg.Wait()
}
