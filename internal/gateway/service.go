package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/rpc"
)

// RegisterService exposes g over RPC as the Gateway service.
func RegisterService(s *rpc.Server, g *Gateway) {
	s.Register("Gateway.Enqueue", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.EnqueueRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding enqueue request: %w", err)
		}
		admitted, err := g.EnqueueForIndexing(ctx, req.URL)
		if err != nil {
			return nil, err
		}
		resp := proto.SubmitResponse{}
		if admitted {
			resp.Admitted = 1
		}
		return resp, nil
	})
	s.Register("Gateway.Search", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.QueryRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding search request: %w", err)
		}
		results, err := g.Search(ctx, req.Query)
		if err != nil {
			return nil, err
		}
		return proto.SearchResponse{Results: results}, nil
	})
	s.Register("Gateway.SearchPage", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.QueryRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding search page request: %w", err)
		}
		return g.SearchPage(ctx, req.Query, req.Page, req.PageSize)
	})
	s.Register("Gateway.IncomingLinks", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.LinksRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding links request: %w", err)
		}
		links, err := g.IncomingLinks(ctx, req.URL)
		if err != nil {
			return nil, err
		}
		return proto.LinksResponse{URLs: links}, nil
	})
	s.Register("Gateway.Statistics", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return g.Statistics(ctx), nil
	})
}

// Client talks to a remote gateway.
type Client struct {
	rpc *rpc.Client
}

func NewClient(addr string, opts rpc.Options) *Client {
	return &Client{rpc: rpc.NewClient(addr, opts)}
}

func (c *Client) Enqueue(ctx context.Context, url string) (bool, error) {
	var resp proto.SubmitResponse
	if err := c.rpc.Call(ctx, "Gateway.Enqueue", proto.EnqueueRequest{URL: url}, &resp); err != nil {
		return false, err
	}
	return resp.Admitted == 1, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]proto.SearchResult, error) {
	var resp proto.SearchResponse
	if err := c.rpc.Call(ctx, "Gateway.Search", proto.QueryRequest{Query: query}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) SearchPage(ctx context.Context, query string, page, pageSize int) (proto.QueryResponse, error) {
	var resp proto.QueryResponse
	err := c.rpc.Call(ctx, "Gateway.SearchPage", proto.QueryRequest{Query: query, Page: page, PageSize: pageSize}, &resp)
	return resp, err
}

func (c *Client) IncomingLinks(ctx context.Context, url string) ([]string, error) {
	var resp proto.LinksResponse
	if err := c.rpc.Call(ctx, "Gateway.IncomingLinks", proto.LinksRequest{URL: url}, &resp); err != nil {
		return nil, err
	}
	return resp.URLs, nil
}

func (c *Client) Statistics(ctx context.Context) (proto.SystemStats, error) {
	var resp proto.SystemStats
	err := c.rpc.Call(ctx, "Gateway.Statistics", struct{}{}, &resp)
	return resp, err
}

func (c *Client) Close() error {
	return c.rpc.Close()
}
