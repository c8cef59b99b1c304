package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
)

type fakeGateway struct {
	results  []proto.SearchResult
	err      error
	enqueued []string
}

func (f *fakeGateway) SearchPage(_ context.Context, _ string, page, pageSize int) (proto.QueryResponse, error) {
	if f.err != nil {
		return proto.QueryResponse{}, f.err
	}
	if pageSize == 0 {
		pageSize = 10
	}
	resp := proto.QueryResponse{Page: page, Results: []proto.SearchResult{}}
	from := page * pageSize
	if from < len(f.results) {
		to := min(from+pageSize, len(f.results))
		resp.Results = f.results[from:to]
		resp.HasMore = to < len(f.results)
	}
	return resp, nil
}

func (f *fakeGateway) EnqueueForIndexing(_ context.Context, url string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.enqueued = append(f.enqueued, url)
	return true, nil
}

func (f *fakeGateway) IncomingLinks(context.Context, string) ([]string, error) {
	return []string{"http://a.com"}, f.err
}

func (f *fakeGateway) Statistics(context.Context) proto.SystemStats {
	return proto.SystemStats{TopQueries: []proto.QueryCount{{Query: "go", Count: 1}}}
}

func serve(h *Handler, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/index", h.Enqueue)
	mux.HandleFunc("GET /api/v1/links", h.Links)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestSearchPagination(t *testing.T) {
	gw := &fakeGateway{}
	for i := 0; i < 12; i++ {
		gw.results = append(gw.results, proto.SearchResult{URL: fmt.Sprintf("http://%d.com", i)})
	}
	h := New(gw)

	rec := serve(h, http.MethodGet, "/api/v1/search?q=go&page=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp searchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Results, 2)
	assert.False(t, resp.HasMore)
	assert.Empty(t, resp.Message)

	rec = serve(h, http.MethodGet, "/api/v1/search?q=go&page=5", "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Results)
	assert.Equal(t, "no more results", resp.Message)
}

func TestSearchValidation(t *testing.T) {
	h := New(&fakeGateway{})
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/v1/search", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/v1/search?q=go&page=-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/v1/search?q=go&page=x", "").Code)
}

func TestSearchMapsErrors(t *testing.T) {
	h := New(&fakeGateway{err: fmt.Errorf("%w: search", apperrors.ErrNoShards)})
	rec := serve(h, http.MethodGet, "/api/v1/search?q=go", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "no shards available")
}

func TestEnqueue(t *testing.T) {
	gw := &fakeGateway{}
	h := New(gw)

	rec := serve(h, http.MethodPost, "/api/v1/index", `{"url":"http://a.com"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"http://a.com"}, gw.enqueued)

	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodPost, "/api/v1/index", `not json`).Code)
	rec = serve(h, http.MethodPost, "/api/v1/index", `{"url":"ftp://a.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "http or https")
	assert.Len(t, gw.enqueued, 1)

	gw.err = fmt.Errorf("%w: down", apperrors.ErrFrontierUnavailable)
	assert.Equal(t, http.StatusBadGateway, serve(h, http.MethodPost, "/api/v1/index", `{"url":"http://a.com"}`).Code)
}

func TestLinksAndStats(t *testing.T) {
	h := New(&fakeGateway{})

	rec := serve(h, http.MethodGet, "/api/v1/links?url=http://b.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/v1/links", "").Code)

	rec = serve(h, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"top_queries":[{"query":"go","count":1}]`)
}
