package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsRepeatable(t *testing.T) {
	// Separate registries: a second New must not panic on duplicate
	// registration.
	a := New()
	b := New()
	a.CacheHitsTotal.Inc()
	assert.NotSame(t, a.CacheHitsTotal, b.CacheHitsTotal)
}

func TestHandlerExposesDomainMetrics(t *testing.T) {
	m := New()
	m.MulticastOutcomes.WithLabelValues("partial").Inc()
	m.FrontierQueued.Set(7)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `crawler_multicast_total{outcome="partial"} 1`)
	assert.Contains(t, string(body), "frontier_pending_urls 7")
}
