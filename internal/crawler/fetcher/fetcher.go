// Package fetcher downloads a page with colly and extracts its title, body
// text and outgoing links with goquery.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// Page is the extracted content of one fetched URL.
type Page struct {
	URL        string
	StatusCode int
	Title      string
	Text       string
	Links      []string
}

// Config controls collector behaviour.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher is safe for concurrent use; every Fetch runs on its own clone of
// the base collector.
type Fetcher struct {
	cfg  Config
	base *colly.Collector
}

func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	// Deduplication belongs to the frontier.
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	c.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: cfg.Timeout,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	})
	// Clones share the HTTP backend, so the timeout is set once here.
	c.SetRequestTimeout(cfg.Timeout)
	return &Fetcher{cfg: cfg, base: c}
}

// Fetch downloads rawURL and parses it. Non-2xx responses, transport errors
// and cancellation are returned as errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	var (
		body     []byte
		final    *url.URL
		status   int
		fetchErr error
	)
	collector := f.base.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
		final = r.Request.URL
		status = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()
	select {
	case <-ctx.Done():
		return Page{}, fmt.Errorf("fetch %s canceled: %w", rawURL, ctx.Err())
	case err := <-done:
		if err != nil {
			return Page{}, fmt.Errorf("visiting %s: %w", rawURL, err)
		}
		if fetchErr != nil {
			return Page{}, fmt.Errorf("fetching %s: %w", rawURL, fetchErr)
		}
	}
	if final == nil {
		return Page{}, fmt.Errorf("fetching %s: no response", rawURL)
	}

	page, err := Parse(final, body)
	if err != nil {
		return Page{}, err
	}
	page.URL = rawURL
	page.StatusCode = status
	return page, nil
}

// Parse extracts the title, whitespace-collapsed body text and the distinct
// absolute http(s) links of an HTML document served from base.
func Parse(base *url.URL, body []byte) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("parsing html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	page := Page{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Text:  strings.Join(strings.Fields(doc.Find("body").Text()), " "),
	}
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		link := abs.String()
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		page.Links = append(page.Links, link)
	})
	return page, nil
}
