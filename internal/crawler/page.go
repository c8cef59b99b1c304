package crawler

import (
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/googol/internal/barrel"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/crawler/fetcher"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/frontier"
	"github.com/Adithya-Monish-Kumar-K/googol/internal/tokenizer"
)

// Citation returns the first barrel.CitationLimit characters of text,
// followed by "..." when text was longer.
func Citation(text string) string {
	if utf8.RuneCountInString(text) <= barrel.CitationLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:barrel.CitationLimit]) + "..."
}

// BuildPage converts a fetched page into the record delivered to shards.
// A missing title falls back to the URL. Links are normalized the way the
// frontier normalizes URLs so backlinks key on the same form as documents.
func BuildPage(url string, fp fetcher.Page, minWordLength int) barrel.Page {
	title := fp.Title
	if title == "" {
		title = url
	}
	return barrel.Page{
		URL:      url,
		Title:    title,
		Citation: Citation(fp.Text),
		Tokens:   tokenizer.Tokenize(fp.Text, minWordLength),
		Links:    normalizeLinks(fp.Links),
	}
}

func normalizeLinks(links []string) []string {
	if len(links) == 0 {
		return nil
	}
	out := make([]string, 0, len(links))
	seen := make(map[string]struct{}, len(links))
	for _, l := range links {
		n := frontier.Normalize(l)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
