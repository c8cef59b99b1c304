package barrel

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/rpc"
)

// Replica is the view of a shard that crawlers and the gateway work against.
// Transport failures are reported as errors wrapping errors.ErrCommunication.
type Replica interface {
	IndexPage(ctx context.Context, p Page) (bool, error)
	Search(ctx context.Context, terms []string) ([]proto.SearchResult, error)
	IncomingLinks(ctx context.Context, url string) ([]string, error)
	Stats(ctx context.Context) (proto.ShardStats, error)
	Ping(ctx context.Context) error
}

// Client is a Replica reached over RPC.
type Client struct {
	rpc *rpc.Client
}

func NewClient(addr string, opts rpc.Options) *Client {
	return &Client{rpc: rpc.NewClient(addr, opts)}
}

func (c *Client) Addr() string { return c.rpc.Addr() }

func (c *Client) IndexPage(ctx context.Context, p Page) (bool, error) {
	var resp proto.IndexPageResponse
	err := c.rpc.Call(ctx, "Barrel.IndexPage", proto.IndexPageRequest{
		URL:      p.URL,
		Title:    p.Title,
		Citation: p.Citation,
		Tokens:   p.Tokens,
		Links:    p.Links,
	}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Ack, nil
}

func (c *Client) Search(ctx context.Context, terms []string) ([]proto.SearchResult, error) {
	var resp proto.SearchResponse
	if err := c.rpc.Call(ctx, "Barrel.Search", proto.SearchRequest{Terms: terms}, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []proto.SearchResult{}
	}
	return resp.Results, nil
}

func (c *Client) IncomingLinks(ctx context.Context, url string) ([]string, error) {
	var resp proto.LinksResponse
	if err := c.rpc.Call(ctx, "Barrel.IncomingLinks", proto.LinksRequest{URL: url}, &resp); err != nil {
		return nil, err
	}
	if resp.URLs == nil {
		resp.URLs = []string{}
	}
	return resp.URLs, nil
}

func (c *Client) ID(ctx context.Context) (string, error) {
	var resp proto.IDResponse
	if err := c.rpc.Call(ctx, "Barrel.ID", struct{}{}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) Size(ctx context.Context) (int, error) {
	var resp proto.SizeResponse
	if err := c.rpc.Call(ctx, "Barrel.Size", struct{}{}, &resp); err != nil {
		return 0, err
	}
	return resp.Size, nil
}

func (c *Client) AverageLatency(ctx context.Context) (float64, error) {
	var resp proto.LatencyResponse
	if err := c.rpc.Call(ctx, "Barrel.AvgLatency", struct{}{}, &resp); err != nil {
		return 0, err
	}
	return resp.AvgLatency, nil
}

func (c *Client) Stats(ctx context.Context) (proto.ShardStats, error) {
	var resp proto.ShardStats
	err := c.rpc.Call(ctx, "Barrel.Stats", struct{}{}, &resp)
	return resp, err
}

func (c *Client) Ping(ctx context.Context) error {
	var resp proto.PingResponse
	return c.rpc.Call(ctx, "Barrel.Ping", struct{}{}, &resp)
}

func (c *Client) Close() error {
	return c.rpc.Close()
}

// Local adapts an in-process Barrel to Replica.
type Local struct {
	B *Barrel
}

func (l Local) IndexPage(_ context.Context, p Page) (bool, error) { return l.B.IndexPage(p), nil }

func (l Local) Search(_ context.Context, terms []string) ([]proto.SearchResult, error) {
	return l.B.Search(terms), nil
}

func (l Local) IncomingLinks(_ context.Context, url string) ([]string, error) {
	return l.B.IncomingLinks(url), nil
}

func (l Local) Stats(context.Context) (proto.ShardStats, error) { return l.B.Stats(), nil }

func (l Local) Ping(context.Context) error { return nil }
