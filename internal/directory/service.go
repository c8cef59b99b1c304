package directory

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/rpc"
)

// RegisterService exposes reg over RPC as the Directory service.
func RegisterService(s *rpc.Server, reg Registry) {
	s.Register("Directory.Register", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.RegisterRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding register request: %w", err)
		}
		return struct{}{}, reg.Register(ctx, req.Name, req.Endpoint)
	})
	s.Register("Directory.Deregister", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.NameRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding deregister request: %w", err)
		}
		return struct{}{}, reg.Deregister(ctx, req.Name)
	})
	s.Register("Directory.Resolve", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.NameRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding resolve request: %w", err)
		}
		endpoint, err := reg.Resolve(ctx, req.Name)
		if err != nil {
			// Unknown names are an answer, not a failure.
			return proto.ResolveResponse{Found: false}, nil
		}
		return proto.ResolveResponse{Endpoint: endpoint, Found: true}, nil
	})
	s.Register("Directory.List", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.ListRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding list request: %w", err)
		}
		names, err := reg.List(ctx, req.Prefix)
		if err != nil {
			return nil, err
		}
		return proto.ListResponse{Names: names}, nil
	})
}

// Client is a Registry backed by a remote directory process.
type Client struct {
	rpc *rpc.Client
}

func NewClient(addr string, opts rpc.Options) *Client {
	return &Client{rpc: rpc.NewClient(addr, opts)}
}

func (c *Client) Register(ctx context.Context, name, endpoint string) error {
	return c.rpc.Call(ctx, "Directory.Register", proto.RegisterRequest{Name: name, Endpoint: endpoint}, nil)
}

func (c *Client) Deregister(ctx context.Context, name string) error {
	return c.rpc.Call(ctx, "Directory.Deregister", proto.NameRequest{Name: name}, nil)
}

func (c *Client) Resolve(ctx context.Context, name string) (string, error) {
	var resp proto.ResolveResponse
	if err := c.rpc.Call(ctx, "Directory.Resolve", proto.NameRequest{Name: name}, &resp); err != nil {
		return "", err
	}
	if !resp.Found {
		return "", fmt.Errorf("%w: service %q", apperrors.ErrNotFound, name)
	}
	return resp.Endpoint, nil
}

func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	var resp proto.ListResponse
	if err := c.rpc.Call(ctx, "Directory.List", proto.ListRequest{Prefix: prefix}, &resp); err != nil {
		return nil, err
	}
	return resp.Names, nil
}

func (c *Client) Close() error {
	return c.rpc.Close()
}
