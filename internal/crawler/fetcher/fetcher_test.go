package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html>
<html><head><title> Gopher News </title><style>.x{}</style></head>
<body>
  <h1>Hello   gophers</h1>
  <script>var ignored = 1;</script>
  <p>Read <a href="/about">about</a>, <a href="/about">again</a>,
  <a href="https://golang.org/doc/">docs</a>,
  <a href="mailto:me@example.com">mail</a> and <a href="#top">top</a>.</p>
</body></html>`

func TestFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "TestBot/1.0", Timeout: 2 * time.Second})
	page, err := f.Fetch(context.Background(), srv.URL+"/index")
	require.NoError(t, err)

	assert.Equal(t, "TestBot/1.0", gotUA)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "Gopher News", page.Title)
	assert.Equal(t, "Hello gophers Read about, again, docs, mail and top.", page.Text)
	assert.Equal(t, []string{
		srv.URL + "/about",
		"https://golang.org/doc/",
		srv.URL + "/index#top",
	}, page.Links)
}

func TestFetchSameURLTwice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><body>again</body></html>")
	}))
	defer srv.Close()

	f := New(Config{})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), srv.URL)
	assert.NoError(t, err)
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := New(Config{}).Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New(Config{Timeout: time.Second}).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseWithoutTitle(t *testing.T) {
	base, _ := url.Parse("http://example.com/dir/page")
	page, err := Parse(base, []byte(`<p>no title <a href="next">n</a></p>`))
	require.NoError(t, err)
	assert.Empty(t, page.Title)
	assert.Equal(t, []string{"http://example.com/dir/next"}, page.Links)
}
