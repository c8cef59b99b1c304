package gateway

import (
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
)

// Frequency counts queries. Ties in Top are broken by the order in which
// queries were first seen.
type Frequency struct {
	mu     sync.Mutex
	counts map[string]int64
	order  map[string]int64
	next   int64
}

func NewFrequency() *Frequency {
	return &Frequency{
		counts: make(map[string]int64),
		order:  make(map[string]int64),
	}
}

func (f *Frequency) Record(query string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.order[query]; !ok {
		f.order[query] = f.next
		f.next++
	}
	f.counts[query]++
}

// Top returns the n most frequent queries.
func (f *Frequency) Top(n int) []proto.QueryCount {
	f.mu.Lock()
	result := make([]proto.QueryCount, 0, len(f.counts))
	for query, count := range f.counts {
		result = append(result, proto.QueryCount{Query: query, Count: count})
	}
	order := make(map[string]int64, len(f.order))
	for q, seq := range f.order {
		order[q] = seq
	}
	f.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return order[result[i].Query] < order[result[j].Query]
	})
	if n >= 0 && len(result) > n {
		result = result[:n]
	}
	return result
}

// FrequencyEntry is one persisted row of the table, in first-seen order.
type FrequencyEntry struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

func (f *Frequency) Entries() []FrequencyEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := make([]FrequencyEntry, 0, len(f.counts))
	for q, c := range f.counts {
		entries = append(entries, FrequencyEntry{Query: q, Count: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		return f.order[entries[i].Query] < f.order[entries[j].Query]
	})
	return entries
}

// Restore replaces the table with entries, keeping their order as the
// first-seen order.
func (f *Frequency) Restore(entries []FrequencyEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = make(map[string]int64, len(entries))
	f.order = make(map[string]int64, len(entries))
	f.next = 0
	for _, e := range entries {
		if _, ok := f.order[e.Query]; !ok {
			f.order[e.Query] = f.next
			f.next++
		}
		f.counts[e.Query] += e.Count
	}
}
