// Package barrel implements one replica of the inverted index: the token to
// URL postings, per-URL document records and the backlink graph, plus the
// search and link queries answered from them.
package barrel

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
)

// CitationLimit is the maximum number of characters kept from a page body.
const CitationLimit = 150

// Page is what a crawler delivers for one fetched URL.
type Page struct {
	URL      string
	Title    string
	Citation string
	Tokens   []string
	Links    []string
}

// Document is the stored record for an indexed URL.
type Document struct {
	Title    string `json:"title"`
	Citation string `json:"citation"`
}

type set map[string]struct{}

func (s set) add(v string) { s[v] = struct{}{} }

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Barrel is an in-memory index shard. Writes are serialized; searches run
// concurrently with each other.
type Barrel struct {
	id string

	mu        sync.RWMutex
	index     map[string]set
	docs      map[string]Document
	backlinks map[string]set

	searches     atomic.Int64
	latencyNanos atomic.Int64

	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(id string, m *metrics.Metrics) *Barrel {
	return &Barrel{
		id:        id,
		index:     make(map[string]set),
		docs:      make(map[string]Document),
		backlinks: make(map[string]set),
		metrics:   m,
		logger:    slog.Default().With("component", "barrel", "barrel_id", id),
	}
}

// ID returns the shard identifier.
func (b *Barrel) ID() string { return b.id }

// Ping always reports true; reachability is what callers measure.
func (b *Barrel) Ping() bool { return true }

// IndexPage upserts the document record and adds the page to the postings of
// each token and to the backlink set of each link. Repeating a call with the
// same page leaves the shard unchanged. It returns false only when indexing
// failed internally.
func (b *Barrel) IndexPage(p Page) (ack bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("indexing page failed", "url", p.URL, "panic", fmt.Sprint(r))
			ack = false
		}
	}()
	if p.URL == "" {
		return false
	}

	b.mu.Lock()
	b.docs[p.URL] = Document{Title: p.Title, Citation: p.Citation}
	for _, tok := range p.Tokens {
		term := strings.ToLower(tok)
		if term == "" {
			continue
		}
		urls, ok := b.index[term]
		if !ok {
			urls = make(set)
			b.index[term] = urls
		}
		urls.add(p.URL)
	}
	for _, link := range p.Links {
		sources, ok := b.backlinks[link]
		if !ok {
			sources = make(set)
			b.backlinks[link] = sources
		}
		sources.add(p.URL)
	}
	size := len(b.docs)
	b.mu.Unlock()

	b.metrics.DocsIndexedTotal.Inc()
	b.metrics.ShardDocCount.WithLabelValues(b.id).Set(float64(size))
	b.logger.Debug("page indexed", "url", p.URL, "tokens", len(p.Tokens), "links", len(p.Links))
	return true
}

// Search returns the documents containing every term, most-cited first and
// by URL among equals.
func (b *Barrel) Search(terms []string) []proto.SearchResult {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		b.searches.Add(1)
		b.latencyNanos.Add(elapsed.Nanoseconds())
		b.metrics.ShardSearches.Observe(elapsed.Seconds())
	}()

	if len(terms) == 0 {
		return []proto.SearchResult{}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	// Intersect starting from the rarest term.
	postings := make([]set, 0, len(terms))
	for _, t := range terms {
		urls, ok := b.index[strings.ToLower(t)]
		if !ok || len(urls) == 0 {
			return []proto.SearchResult{}
		}
		postings = append(postings, urls)
	}
	sort.Slice(postings, func(i, j int) bool { return len(postings[i]) < len(postings[j]) })

	var matches []string
	for url := range postings[0] {
		inAll := true
		for _, other := range postings[1:] {
			if _, ok := other[url]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			matches = append(matches, url)
		}
	}
	sort.Strings(matches)

	results := make([]proto.SearchResult, 0, len(matches))
	for _, url := range matches {
		doc, ok := b.docs[url]
		if !ok {
			continue
		}
		results = append(results, proto.SearchResult{
			URL:           url,
			Title:         doc.Title,
			Citation:      doc.Citation,
			IncomingLinks: len(b.backlinks[url]),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].IncomingLinks > results[j].IncomingLinks
	})
	return results
}

// IncomingLinks returns the URLs known to link to url, sorted.
func (b *Barrel) IncomingLinks(url string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sources, ok := b.backlinks[url]
	if !ok {
		return []string{}
	}
	return sources.sorted()
}

// Size returns the number of indexed documents.
func (b *Barrel) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}

// AverageLatency returns the mean search latency as total milliseconds over
// the search count, divided by 100.
func (b *Barrel) AverageLatency() float64 {
	count := b.searches.Load()
	if count == 0 {
		return 0
	}
	totalMs := float64(b.latencyNanos.Load()) / float64(time.Millisecond)
	return totalMs / float64(count) / 100.0
}

// Stats gathers id, size and latency in one call.
func (b *Barrel) Stats() proto.ShardStats {
	return proto.ShardStats{
		ID:               b.id,
		DocumentCount:    b.Size(),
		AvgSearchLatency: b.AverageLatency(),
	}
}
