// Command loadtest drives the gateway's search endpoint with concurrent
// workers and reports throughput, latency percentiles, empty-page rate and
// status codes. With -enqueue it first submits seed URLs for crawling.
//
// Usage:
//
//	go run ./cmd/loadtest [-url http://localhost:8080] [-concurrency 10] [-duration 30s] [-pages 3]
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Pages       int
	Queries     []string
}

var defaultQueries = []string{
	"distributed systems",
	"search engine",
	"inverted index",
	"web crawler",
	"reliable multicast",
	"load balancing",
	"failover",
	"golang",
	"concurrency",
	"replication",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the gateway")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	pages := flag.Int("pages", 3, "result pages each worker walks per query")
	queries := flag.String("queries", "", "comma-separated queries (default: built-in list)")
	enqueue := flag.String("enqueue", "", "comma-separated seed URLs to enqueue before the run")
	flag.Parse()

	cfg := Config{
		BaseURL:     strings.TrimSuffix(*baseURL, "/"),
		Concurrency: *concurrency,
		Duration:    *duration,
		Pages:       max(*pages, 1),
		Queries:     defaultQueries,
	}
	if *queries != "" {
		cfg.Queries = strings.Split(*queries, ",")
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	if *enqueue != "" {
		for _, u := range strings.Split(*enqueue, ",") {
			if err := enqueueURL(client, cfg.BaseURL, u); err != nil {
				fmt.Fprintf(os.Stderr, "enqueue %s: %v\n", u, err)
			}
		}
	}

	fmt.Println("=== Googol Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Queries:     %d unique, %d pages each\n", len(cfg.Queries), cfg.Pages)
	fmt.Println()

	stats := run(client, cfg)
	report := stats.Summarize(cfg.Duration)
	report.Print(os.Stdout)
	if report.Total == 0 {
		fmt.Println("WARNING: No requests completed. Is the gateway running?")
		os.Exit(1)
	}
}

func run(client *http.Client, cfg Config) *Stats {
	stats := NewStats()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Concurrency; w++ {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				query := cfg.Queries[i%len(cfg.Queries)]
				for page := 0; page < cfg.Pages && ctx.Err() == nil; page++ {
					more := searchOnce(ctx, client, cfg.BaseURL, query, page, stats)
					if !more {
						break
					}
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return stats
}

type searchPage struct {
	Results []json.RawMessage `json:"results"`
	HasMore bool              `json:"has_more"`
}

// searchOnce issues one search request and reports whether a next page
// exists.
func searchOnce(ctx context.Context, client *http.Client, base, query string, page int, stats *Stats) bool {
	target := fmt.Sprintf("%s/api/v1/search?q=%s&page=%d", base, url.QueryEscape(query), page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		stats.Record(0, 0, false, err)
		return false
	}
	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() == nil {
			stats.Record(elapsed, 0, false, err)
		}
		return false
	}
	defer resp.Body.Close()

	var body searchPage
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			stats.Record(elapsed, resp.StatusCode, false, err)
			return false
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	stats.Record(elapsed, resp.StatusCode, len(body.Results) == 0, nil)
	return body.HasMore
}

func enqueueURL(client *http.Client, base, target string) error {
	payload, err := json.Marshal(map[string]string{"url": strings.TrimSpace(target)})
	if err != nil {
		return err
	}
	resp, err := client.Post(base+"/api/v1/index", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
