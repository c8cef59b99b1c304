// Package tokenizer turns page text into index terms. It lower-cases input,
// splits on non-alphanumeric boundaries, drops short words and removes
// duplicates. Terms are not stemmed, so a query word matches only the exact
// lowercased form seen on the page.
package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize returns the distinct lowercased words of text that are at least
// minLen characters long, in order of first appearance.
func Tokenize(text string, minLen int) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words)/2)
	for _, w := range words {
		if utf8.RuneCountInString(w) < minLen {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	return terms
}

// QueryTerms splits a search query on whitespace into its distinct
// lowercased terms.
func QueryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}
