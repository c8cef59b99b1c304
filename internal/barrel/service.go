package barrel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/rpc"
)

// RegisterService exposes b over RPC as the Barrel service.
func RegisterService(s *rpc.Server, b *Barrel) {
	s.Register("Barrel.IndexPage", func(_ context.Context, raw json.RawMessage) (any, error) {
		var req proto.IndexPageRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding index request: %w", err)
		}
		ack := b.IndexPage(Page{
			URL:      req.URL,
			Title:    req.Title,
			Citation: req.Citation,
			Tokens:   req.Tokens,
			Links:    req.Links,
		})
		return proto.IndexPageResponse{Ack: ack}, nil
	})
	s.Register("Barrel.Search", func(_ context.Context, raw json.RawMessage) (any, error) {
		var req proto.SearchRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding search request: %w", err)
		}
		return proto.SearchResponse{Results: b.Search(req.Terms)}, nil
	})
	s.Register("Barrel.IncomingLinks", func(_ context.Context, raw json.RawMessage) (any, error) {
		var req proto.LinksRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding links request: %w", err)
		}
		return proto.LinksResponse{URLs: b.IncomingLinks(req.URL)}, nil
	})
	s.Register("Barrel.ID", func(context.Context, json.RawMessage) (any, error) {
		return proto.IDResponse{ID: b.ID()}, nil
	})
	s.Register("Barrel.Size", func(context.Context, json.RawMessage) (any, error) {
		return proto.SizeResponse{Size: b.Size()}, nil
	})
	s.Register("Barrel.AvgLatency", func(context.Context, json.RawMessage) (any, error) {
		return proto.LatencyResponse{AvgLatency: b.AverageLatency()}, nil
	})
	s.Register("Barrel.Ping", func(context.Context, json.RawMessage) (any, error) {
		return proto.PingResponse{OK: b.Ping()}, nil
	})
	s.Register("Barrel.Stats", func(context.Context, json.RawMessage) (any, error) {
		return b.Stats(), nil
	})
}
