// Package frontier implements the crawl queue: a deduplicated FIFO of URLs
// waiting to be crawled plus the set of URLs already handed to a crawler.
// A URL is dispatched at most once per frontier lifetime; failed fetches are
// not requeued.
package frontier

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/metrics"
)

// Frontier is safe for concurrent use. The membership check and the enqueue
// happen under one lock, so concurrent submitters never admit a URL twice.
type Frontier struct {
	mu         sync.Mutex
	pending    []string
	head       int
	queued     map[string]struct{}
	dispatched map[string]struct{}
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func New(m *metrics.Metrics) *Frontier {
	return &Frontier{
		queued:     make(map[string]struct{}),
		dispatched: make(map[string]struct{}),
		metrics:    m,
		logger:     slog.Default().With("component", "frontier"),
	}
}

// Normalize strips a #fragment and then a single trailing slash.
func Normalize(raw string) string {
	u := strings.TrimSpace(raw)
	if i := strings.IndexByte(u, '#'); i > 0 {
		u = u[:i]
	}
	return strings.TrimSuffix(u, "/")
}

// Submit normalizes url and queues it unless it is already pending or was
// dispatched before. It reports whether the URL was admitted.
func (f *Frontier) Submit(url string) bool {
	f.mu.Lock()
	admitted := f.admitLocked(url)
	f.updateGaugesLocked()
	f.mu.Unlock()
	return admitted
}

// SubmitMany submits each URL and returns how many were admitted.
func (f *Frontier) SubmitMany(urls []string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	admitted := 0
	for _, u := range urls {
		if f.admitLocked(u) {
			admitted++
		}
	}
	f.updateGaugesLocked()
	return admitted
}

func (f *Frontier) admitLocked(raw string) bool {
	u := Normalize(raw)
	if u == "" || strings.HasPrefix(u, "#") {
		f.metrics.URLsSubmitted.WithLabelValues("invalid").Inc()
		return false
	}
	if _, ok := f.queued[u]; ok {
		f.metrics.URLsSubmitted.WithLabelValues("duplicate").Inc()
		return false
	}
	if _, ok := f.dispatched[u]; ok {
		f.metrics.URLsSubmitted.WithLabelValues("duplicate").Inc()
		return false
	}
	f.queued[u] = struct{}{}
	f.pending = append(f.pending, u)
	f.metrics.URLsSubmitted.WithLabelValues("admitted").Inc()
	f.logger.Debug("url admitted", "url", u)
	return true
}

// TakeNext pops the oldest pending URL and marks it dispatched. ok is false
// when the queue is empty.
func (f *Frontier) TakeNext() (url string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.head == len(f.pending) {
		return "", false
	}
	url = f.pending[f.head]
	f.pending[f.head] = ""
	f.head++
	// Reclaim the consumed prefix once it dominates the slice.
	if f.head > 1024 && f.head*2 > len(f.pending) {
		f.pending = append([]string(nil), f.pending[f.head:]...)
		f.head = 0
	}
	delete(f.queued, url)
	f.dispatched[url] = struct{}{}
	f.updateGaugesLocked()
	return url, true
}

// Size returns the number of pending URLs.
func (f *Frontier) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending) - f.head
}

// HasWork reports whether any URL is pending.
func (f *Frontier) HasWork() bool {
	return f.Size() > 0
}

// DispatchedCount returns how many URLs have ever been handed out.
func (f *Frontier) DispatchedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dispatched)
}

func (f *Frontier) updateGaugesLocked() {
	f.metrics.FrontierQueued.Set(float64(len(f.pending) - f.head))
	f.metrics.FrontierDispatched.Set(float64(len(f.dispatched)))
}
