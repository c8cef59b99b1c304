// Package router wires up the gateway's HTTP routes and applies the
// middleware chain (RequestID → CORS → Metrics → Timeout).
package router

import (
	"net/http"
	"time"

	gwhandler "github.com/Adithya-Monish-Kumar-K/googol/internal/gateway/handler"
	gwmw "github.com/Adithya-Monish-Kumar-K/googol/internal/gateway/middleware"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/metrics"
	pkgmw "github.com/Adithya-Monish-Kumar-K/googol/pkg/middleware"
)

// New builds the full gateway HTTP handler.
//
// Route table:
//
//	GET    /api/v1/search?q=&page=    → paginated search
//	POST   /api/v1/index              → enqueue a URL for crawling
//	GET    /api/v1/links?url=         → pages linking to url
//	GET    /api/v1/stats              → top queries and shard stats
//	GET    /health/live, /health/ready
//	GET    /metrics
func New(h *gwhandler.Handler, m *metrics.Metrics, checker *health.Checker, timeout time.Duration) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/search", h.Search)
	api.HandleFunc("POST /api/v1/index", h.Enqueue)
	api.HandleFunc("GET /api/v1/links", h.Links)
	api.HandleFunc("GET /api/v1/stats", h.Stats)

	// request → RequestID → CORS → Metrics → Timeout → api
	var chain http.Handler = api
	if timeout > 0 {
		chain = pkgmw.Timeout(timeout)(chain)
	}
	chain = pkgmw.Metrics(m)(chain)
	chain = gwmw.CORS(gwmw.DefaultCORSConfig())(chain)
	chain = pkgmw.RequestID(chain)

	mux := http.NewServeMux()
	mux.Handle("/api/", chain)
	mux.Handle("GET /health/live", checker.LiveHandler())
	mux.Handle("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", m.Handler())
	return mux
}
