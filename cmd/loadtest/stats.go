package main

import (
	"fmt"
	"io"
	"math"
	"slices"
	"sync"
	"time"
)

// Stats collects per-request outcomes from every worker.
type Stats struct {
	mu          sync.Mutex
	total       int64
	errors      int64
	empty       int64
	latencies   []time.Duration
	statusCodes map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]int64),
	}
}

// Record adds one request. A transport error has status 0 and no latency
// sample.
func (s *Stats) Record(latency time.Duration, status int, empty bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if err != nil {
		s.errors++
		return
	}
	if status < 200 || status >= 300 {
		s.errors++
	} else if empty {
		s.empty++
	}
	s.latencies = append(s.latencies, latency)
	s.statusCodes[status]++
}

// Report is a point-in-time summary of Stats.
type Report struct {
	Total, Errors, Empty int64
	RPS                  float64
	Min, Avg, Max        time.Duration
	P50, P90, P99        time.Duration
	StatusCodes          map[int]int64
}

func (s *Stats) Summarize(elapsed time.Duration) Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := Report{
		Total:       s.total,
		Errors:      s.errors,
		Empty:       s.empty,
		StatusCodes: make(map[int]int64, len(s.statusCodes)),
	}
	for code, n := range s.statusCodes {
		r.StatusCodes[code] = n
	}
	if elapsed > 0 {
		r.RPS = float64(s.total) / elapsed.Seconds()
	}
	if len(s.latencies) == 0 {
		return r
	}
	sorted := slices.Clone(s.latencies)
	slices.Sort(sorted)
	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	r.Min = sorted[0]
	r.Max = sorted[len(sorted)-1]
	r.Avg = sum / time.Duration(len(sorted))
	r.P50 = percentile(sorted, 50)
	r.P90 = percentile(sorted, 90)
	r.P99 = percentile(sorted, 99)
	return r
}

func (r Report) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:  %d\n", r.Total)
	fmt.Fprintf(w, "Errors:          %d\n", r.Errors)
	fmt.Fprintf(w, "Empty Pages:     %d\n", r.Empty)
	fmt.Fprintf(w, "Requests/sec:    %.2f\n", r.RPS)
	if r.Total > 0 {
		fmt.Fprintf(w, "Error Rate:      %.2f%%\n", float64(r.Errors)/float64(r.Total)*100)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Latency ===")
	fmt.Fprintf(w, "Min: %s  Avg: %s  P50: %s  P90: %s  P99: %s  Max: %s\n",
		r.Min, r.Avg, r.P50, r.P90, r.P99, r.Max)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Status Codes ===")
	codes := make([]int, 0, len(r.StatusCodes))
	for code := range r.StatusCodes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, r.StatusCodes[code])
	}
}

// percentile uses the nearest-rank method on an ascending slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
