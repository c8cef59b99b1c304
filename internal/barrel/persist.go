package barrel

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/snapshot"
)

var stateFormat = snapshot.Format{Magic: 0x4c525247, Version: 1} // "GRRL"

// State is the persisted schema of a barrel. Index and backlinks are stored
// as sorted URL lists.
type State struct {
	ID           string              `json:"id"`
	Index        map[string][]string `json:"index"`
	Documents    map[string]Document `json:"documents"`
	Backlinks    map[string][]string `json:"backlinks"`
	Searches     int64               `json:"searches"`
	LatencyNanos int64               `json:"latency_nanos"`
}

// StateFile returns the snapshot file name for barrel id.
func StateFile(id string) string {
	return fmt.Sprintf("barrel_%s.dat", id)
}

// State copies the whole shard under one read lock so the index, documents
// and backlinks are mutually consistent.
func (b *Barrel) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st := State{
		ID:           b.id,
		Index:        make(map[string][]string, len(b.index)),
		Documents:    make(map[string]Document, len(b.docs)),
		Backlinks:    make(map[string][]string, len(b.backlinks)),
		Searches:     b.searches.Load(),
		LatencyNanos: b.latencyNanos.Load(),
	}
	for term, urls := range b.index {
		st.Index[term] = urls.sorted()
	}
	for url, doc := range b.docs {
		st.Documents[url] = doc
	}
	for target, sources := range b.backlinks {
		st.Backlinks[target] = sources.sorted()
	}
	return st
}

// Merge folds st into the shard. Postings and backlinks are unioned and
// document records from st overwrite existing ones.
func (b *Barrel) Merge(st State) {
	b.mu.Lock()
	for term, urls := range st.Index {
		dst, ok := b.index[term]
		if !ok {
			dst = make(set, len(urls))
			b.index[term] = dst
		}
		for _, u := range urls {
			dst.add(u)
		}
	}
	for url, doc := range st.Documents {
		b.docs[url] = doc
	}
	for target, sources := range st.Backlinks {
		dst, ok := b.backlinks[target]
		if !ok {
			dst = make(set, len(sources))
			b.backlinks[target] = dst
		}
		for _, s := range sources {
			dst.add(s)
		}
	}
	size := len(b.docs)
	b.mu.Unlock()

	b.searches.Add(st.Searches)
	b.latencyNanos.Add(st.LatencyNanos)
	b.metrics.ShardDocCount.WithLabelValues(b.id).Set(float64(size))
}

// Save writes the shard snapshot into dir.
func (b *Barrel) Save(dir string) error {
	err := snapshot.Write(filepath.Join(dir, StateFile(b.id)), stateFormat, b.State())
	status := "ok"
	if err != nil {
		status = "error"
	}
	b.metrics.SnapshotsTotal.WithLabelValues(status).Inc()
	return err
}

// Load merges the snapshot in dir, if any, into the shard.
func (b *Barrel) Load(dir string) error {
	var st State
	if _, err := snapshot.Read(filepath.Join(dir, StateFile(b.id)), stateFormat, &st); err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			return nil
		}
		return fmt.Errorf("loading barrel %s: %w", b.id, err)
	}
	b.Merge(st)
	b.logger.Info("barrel state restored", "documents", len(st.Documents), "terms", len(st.Index))
	return nil
}
