package frontier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/rpc"
)

// RegisterService exposes f over RPC as the Frontier service.
func RegisterService(s *rpc.Server, f *Frontier) {
	s.Register("Frontier.Submit", func(_ context.Context, raw json.RawMessage) (any, error) {
		var req proto.SubmitRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding submit request: %w", err)
		}
		admitted := 0
		if f.Submit(req.URL) {
			admitted = 1
		}
		return proto.SubmitResponse{Admitted: admitted}, nil
	})
	s.Register("Frontier.SubmitMany", func(_ context.Context, raw json.RawMessage) (any, error) {
		var req proto.SubmitManyRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding submit-many request: %w", err)
		}
		return proto.SubmitResponse{Admitted: f.SubmitMany(req.URLs)}, nil
	})
	s.Register("Frontier.TakeNext", func(context.Context, json.RawMessage) (any, error) {
		url, ok := f.TakeNext()
		return proto.TakeNextResponse{URL: url, OK: ok}, nil
	})
	s.Register("Frontier.Size", func(context.Context, json.RawMessage) (any, error) {
		return proto.CountResponse{Count: f.Size()}, nil
	})
	s.Register("Frontier.HasWork", func(context.Context, json.RawMessage) (any, error) {
		return proto.HasWorkResponse{HasWork: f.HasWork()}, nil
	})
	s.Register("Frontier.DispatchedCount", func(context.Context, json.RawMessage) (any, error) {
		return proto.CountResponse{Count: f.DispatchedCount()}, nil
	})
}

// Client talks to a remote frontier.
type Client struct {
	rpc *rpc.Client
}

func NewClient(addr string, opts rpc.Options) *Client {
	return &Client{rpc: rpc.NewClient(addr, opts)}
}

func (c *Client) Submit(ctx context.Context, url string) (bool, error) {
	var resp proto.SubmitResponse
	if err := c.rpc.Call(ctx, "Frontier.Submit", proto.SubmitRequest{URL: url}, &resp); err != nil {
		return false, err
	}
	return resp.Admitted == 1, nil
}

func (c *Client) SubmitMany(ctx context.Context, urls []string) (int, error) {
	if len(urls) == 0 {
		return 0, nil
	}
	var resp proto.SubmitResponse
	if err := c.rpc.Call(ctx, "Frontier.SubmitMany", proto.SubmitManyRequest{URLs: urls}, &resp); err != nil {
		return 0, err
	}
	return resp.Admitted, nil
}

func (c *Client) TakeNext(ctx context.Context) (string, bool, error) {
	var resp proto.TakeNextResponse
	if err := c.rpc.Call(ctx, "Frontier.TakeNext", struct{}{}, &resp); err != nil {
		return "", false, err
	}
	return resp.URL, resp.OK, nil
}

func (c *Client) Size(ctx context.Context) (int, error) {
	var resp proto.CountResponse
	if err := c.rpc.Call(ctx, "Frontier.Size", struct{}{}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) HasWork(ctx context.Context) (bool, error) {
	var resp proto.HasWorkResponse
	if err := c.rpc.Call(ctx, "Frontier.HasWork", struct{}{}, &resp); err != nil {
		return false, err
	}
	return resp.HasWork, nil
}

func (c *Client) DispatchedCount(ctx context.Context) (int, error) {
	var resp proto.CountResponse
	if err := c.rpc.Call(ctx, "Frontier.DispatchedCount", struct{}{}, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) Close() error {
	return c.rpc.Close()
}
