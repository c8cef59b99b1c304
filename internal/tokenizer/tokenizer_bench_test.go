package tokenizer

import (
	"strings"
	"testing"
)

var benchText = strings.Repeat("The distributed crawler fetches pages, extracts links and multicasts tokens to every barrel. ", 50)

func BenchmarkTokenize(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(benchText)))
	for i := 0; i < b.N; i++ {
		_ = Tokenize(benchText, 3)
	}
}

func BenchmarkQueryTerms(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = QueryTerms("Distributed   Search ENGINE search")
	}
}
