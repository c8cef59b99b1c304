package gateway

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/snapshot"
)

// StateFile is the gateway's snapshot file name. Only the frequency table
// is persisted; cached results are rebuilt on demand.
const StateFile = "gateway_state.dat"

var stateFormat = snapshot.Format{Magic: 0x57544747, Version: 1} // "GGTW"

type State struct {
	Queries []FrequencyEntry `json:"queries"`
}

func (g *Gateway) Save(dir string) error {
	err := snapshot.Write(filepath.Join(dir, StateFile), stateFormat, State{Queries: g.freq.Entries()})
	status := "ok"
	if err != nil {
		status = "error"
	}
	g.metrics.SnapshotsTotal.WithLabelValues(status).Inc()
	return err
}

func (g *Gateway) Load(dir string) error {
	var st State
	if _, err := snapshot.Read(filepath.Join(dir, StateFile), stateFormat, &st); err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			return nil
		}
		return fmt.Errorf("loading gateway state: %w", err)
	}
	g.freq.Restore(st.Queries)
	g.logger.Info("gateway state restored", "queries", len(st.Queries))
	return nil
}
