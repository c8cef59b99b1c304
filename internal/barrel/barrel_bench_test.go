package barrel

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/metrics"
)

func loadedBarrel(b *testing.B, docs int) *Barrel {
	b.Helper()
	br := New("bench", metrics.New())
	for i := 0; i < docs; i++ {
		br.IndexPage(Page{
			URL:    fmt.Sprintf("http://site/%d", i),
			Title:  "distributed search",
			Tokens: []string{"search", "engine", "distributed", fmt.Sprintf("term%d", i%100)},
			Links:  []string{fmt.Sprintf("http://site/%d", (i+1)%docs)},
		})
	}
	return br
}

func BenchmarkIndexPage(b *testing.B) {
	br := New("bench", metrics.New())
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		br.IndexPage(Page{
			URL:    fmt.Sprintf("http://site/%d", i),
			Title:  "benchmark",
			Tokens: []string{"benchmark", "document", "several", "terms"},
			Links:  []string{"http://site/0"},
		})
	}
}

// BenchmarkSearch measures a conjunctive query whose rarest term matches 1%
// of 10 000 documents.
func BenchmarkSearch(b *testing.B) {
	br := loadedBarrel(b, 10000)
	terms := []string{"search", "term7"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = br.Search(terms)
	}
}

func BenchmarkSearchParallel(b *testing.B) {
	br := loadedBarrel(b, 10000)
	terms := []string{"search", "term7"}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = br.Search(terms)
		}
	})
}

func BenchmarkSave(b *testing.B) {
	br := loadedBarrel(b, 5000)
	dir := b.TempDir()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := br.Save(dir); err != nil {
			b.Fatal(err)
		}
	}
}
