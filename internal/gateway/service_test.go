package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/barrel"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/gateway/cache"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/rpc"
)

func TestRPCClient(t *testing.T) {
	fr := &fakeFrontier{}
	page := barrel.Page{URL: "http://go.dev", Title: "Go", Tokens: []string{"golang"}, Links: []string{"http://pkg.go.dev"}}
	g := newGateway(t, testConfig(), sourceOf(newShard("1", page)), fr, cache.NewMemory())

	s := rpc.NewServer("gateway")
	RegisterService(s, g)
	addr, err := s.Listen("127.0.0.1:0")
	require.NoError(t, err)
	go s.Serve()
	defer s.Stop()

	c := NewClient(addr.String(), rpc.Options{})
	defer c.Close()
	ctx := context.Background()

	admitted, err := c.Enqueue(ctx, "http://new.com")
	require.NoError(t, err)
	assert.True(t, admitted)
	assert.Equal(t, []string{"http://new.com"}, fr.urls)

	results, err := c.Search(ctx, "golang")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Go", results[0].Title)

	resp, err := c.SearchPage(ctx, "golang", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.False(t, resp.HasMore)

	links, err := c.IncomingLinks(ctx, "http://pkg.go.dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://go.dev"}, links)

	stats, err := c.Statistics(ctx)
	require.NoError(t, err)
	assert.Len(t, stats.Shards, 1)
	assert.Equal(t, int64(2), stats.TopQueries[0].Count)

	_, err = c.Enqueue(ctx, "")
	var remote *rpc.RemoteError
	assert.ErrorAs(t, err, &remote)
}
