// Package handler implements the gateway's HTTP JSON API on top of the
// gateway operations.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/gateway/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
)

// Gateway is the set of operations the API exposes. *gateway.Gateway
// implements it.
type Gateway interface {
	SearchPage(ctx context.Context, query string, page, pageSize int) (proto.QueryResponse, error)
	EnqueueForIndexing(ctx context.Context, url string) (bool, error)
	IncomingLinks(ctx context.Context, url string) ([]string, error)
	Statistics(ctx context.Context) proto.SystemStats
}

type Handler struct {
	gw     Gateway
	logger *slog.Logger
}

func New(gw Gateway) *Handler {
	return &Handler{
		gw:     gw,
		logger: slog.Default().With("component", "gateway-handler"),
	}
}

type searchResponse struct {
	Query   string               `json:"query"`
	Page    int                  `json:"page"`
	Results []proto.SearchResult `json:"results"`
	HasMore bool                 `json:"has_more"`
	Message string               `json:"message,omitempty"`
}

// Search serves GET /api/v1/search?q=&page=&page_size=. Pages are
// zero-based.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	page, ok := h.intParam(w, r, "page", 0)
	if !ok {
		return
	}
	pageSize, ok := h.intParam(w, r, "page_size", 0)
	if !ok {
		return
	}

	resp, err := h.gw.SearchPage(r.Context(), query, page, pageSize)
	if err != nil {
		h.fail(w, r, "search", err)
		return
	}
	out := searchResponse{
		Query:   query,
		Page:    resp.Page,
		Results: resp.Results,
		HasMore: resp.HasMore,
	}
	if len(resp.Results) == 0 {
		out.Message = "no more results"
		if page == 0 {
			out.Message = "no results"
		}
	}
	h.writeJSON(w, http.StatusOK, out)
}

// Enqueue serves POST /api/v1/index with body {"url": "..."}.
func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req proto.EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validator.ValidateEnqueue(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	admitted, err := h.gw.EnqueueForIndexing(r.Context(), req.URL)
	if err != nil {
		h.fail(w, r, "enqueue", err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]any{
		"url":      req.URL,
		"admitted": admitted,
	})
}

// Links serves GET /api/v1/links?url=.
func (h *Handler) Links(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'url' is required")
		return
	}
	links, err := h.gw.IncomingLinks(r.Context(), url)
	if err != nil {
		h.fail(w, r, "incoming links", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"url":   url,
		"links": links,
		"count": len(links),
	})
}

// Stats serves GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.gw.Statistics(r.Context()))
}

func (h *Handler) intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		h.writeError(w, http.StatusBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := apperrors.HTTPStatusCode(err)
	logger.FromContext(r.Context()).Error(op+" failed", "status", status, "error", err)
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
