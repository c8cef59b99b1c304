package gateway

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"

	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
)

// Strategy selects which live shard serves a request.
type Strategy int

const (
	RoundRobin Strategy = iota
	Random
)

func (s Strategy) String() string {
	switch s {
	case RoundRobin:
		return "round-robin"
	case Random:
		return "random"
	default:
		return "unknown"
	}
}

// ParseStrategy accepts "round-robin" (the default for an empty string) and
// "random".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "round-robin", "roundrobin", "round_robin":
		return RoundRobin, nil
	case "random":
		return Random, nil
	default:
		return RoundRobin, fmt.Errorf("%w: unknown routing strategy %q", apperrors.ErrInvalidInput, s)
	}
}

// picker turns a strategy into an index choice. The round-robin counter is
// shared by every request the gateway serves.
type picker struct {
	strategy Strategy
	counter  atomic.Uint64
}

func (p *picker) pick(n int) int {
	if n <= 1 {
		return 0
	}
	if p.strategy == Random {
		return rand.IntN(n)
	}
	return int((p.counter.Add(1) - 1) % uint64(n))
}
