package frontier

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/snapshot"
)

// StateFile is the snapshot file name inside the persistence directory.
const StateFile = "frontier_state.dat"

var stateFormat = snapshot.Format{Magic: 0x54524647, Version: 1} // "GFRT"

// State is the persisted schema of a frontier.
type State struct {
	Pending    []string `json:"pending"`
	Dispatched []string `json:"dispatched"`
}

// State copies the queue and the dispatched set under the lock.
func (f *Frontier) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := State{
		Pending:    append([]string(nil), f.pending[f.head:]...),
		Dispatched: make([]string, 0, len(f.dispatched)),
	}
	for u := range f.dispatched {
		st.Dispatched = append(st.Dispatched, u)
	}
	return st
}

// Restore replaces the frontier contents with st, dropping duplicates and
// pending URLs that were already dispatched.
func (f *Frontier) Restore(st State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = nil
	f.head = 0
	f.queued = make(map[string]struct{}, len(st.Pending))
	f.dispatched = make(map[string]struct{}, len(st.Dispatched))
	for _, u := range st.Dispatched {
		f.dispatched[u] = struct{}{}
	}
	for _, u := range st.Pending {
		if _, ok := f.dispatched[u]; ok {
			continue
		}
		if _, ok := f.queued[u]; ok {
			continue
		}
		f.queued[u] = struct{}{}
		f.pending = append(f.pending, u)
	}
	f.updateGaugesLocked()
}

// Save writes a snapshot of the frontier into dir.
func (f *Frontier) Save(dir string) error {
	err := snapshot.Write(filepath.Join(dir, StateFile), stateFormat, f.State())
	f.recordSnapshot(err)
	return err
}

// Load restores the frontier from dir. A missing snapshot leaves it empty
// and is not an error.
func (f *Frontier) Load(dir string) error {
	var st State
	if _, err := snapshot.Read(filepath.Join(dir, StateFile), stateFormat, &st); err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			return nil
		}
		return fmt.Errorf("loading frontier: %w", err)
	}
	f.Restore(st)
	f.logger.Info("frontier state restored", "pending", len(st.Pending), "dispatched", len(st.Dispatched))
	return nil
}

func (f *Frontier) recordSnapshot(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	f.metrics.SnapshotsTotal.WithLabelValues(status).Inc()
}
