// Package benchmark contains Go benchmarks for the index builders, merge
// engine, and query paths, measuring throughput and allocation behaviour.
package benchmark

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/searchkit/retrieval/internal/analyzer"
	"github.com/searchkit/retrieval/internal/corpus"
	"github.com/searchkit/retrieval/internal/index"
	"github.com/searchkit/retrieval/internal/merge"
	"github.com/searchkit/retrieval/internal/search"
	"github.com/searchkit/retrieval/pkg/config"
)

var benchTerms = []string{
	"distributed", "search", "retrieval", "index", "posting",
	"wildcard", "proximity", "ranking", "vocabulary", "gram",
}

// benchCollection synthesises n documents cycling through benchTerms so every
// term's posting list stays long.
func benchCollection(n int) corpus.Collection {
	docs := make(corpus.Collection, n)
	for i := 0; i < n; i++ {
		id := index.DocID(fmt.Sprintf("doc-%06d", i))
		docs[id] = fmt.Sprintf("%s engines rely on %s lists and %s structures for fast %s",
			benchTerms[i%len(benchTerms)],
			benchTerms[(i+1)%len(benchTerms)],
			benchTerms[(i+3)%len(benchTerms)],
			benchTerms[(i+5)%len(benchTerms)],
		)
	}
	return docs
}

func benchEngine(b *testing.B, n int) *search.Engine {
	b.Helper()
	a := analyzer.New(analyzer.Config{})
	e := search.NewEngine(a, config.IndexConfig{KGramSize: 2, RebuildBatchSize: 100})
	if _, err := e.Rebuild(context.Background(), benchCollection(n).TermStreams(a)); err != nil {
		b.Fatal(err)
	}
	return e
}

// BenchmarkBuild measures full inverted-index construction at several corpus
// sizes.
func BenchmarkBuild(b *testing.B) {
	a := analyzer.New(analyzer.Config{})
	for _, n := range []int{100, 1000, 10000} {
		streams := benchCollection(n).TermStreams(a)
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ix := index.Build(streams)
				_ = ix
			}
		})
	}
}

// BenchmarkBuildPositional measures positional-index construction.
func BenchmarkBuildPositional(b *testing.B) {
	a := analyzer.New(analyzer.Config{})
	streams := benchCollection(5000).TermStreams(a)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix := index.BuildPositional(streams)
		_ = ix
	}
}

// BenchmarkIntersect measures the two-pointer merge over long posting lists.
func BenchmarkIntersect(b *testing.B) {
	left := make([]int, 0, 50000)
	right := make([]int, 0, 50000)
	for i := 0; i < 50000; i++ {
		left = append(left, i*2)
		right = append(right, i*3)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out := slices.Collect(merge.Intersect(slices.Values(left), slices.Values(right)))
		_ = out
	}
}

// BenchmarkGapEncode measures gap encoding and decoding of a dense posting
// list.
func BenchmarkGapEncode(b *testing.B) {
	values := make([]int, 0, 10000)
	for i := 0; i < 10000; i++ {
		values = append(values, i*7)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		gaps, err := index.ToGaps(values)
		if err != nil {
			b.Fatal(err)
		}
		restored := index.FromGaps(gaps)
		_ = restored
	}
}

// BenchmarkBooleanQuery measures intersection query latency over 10 000
// documents.
func BenchmarkBooleanQuery(b *testing.B) {
	e := benchEngine(b, 10000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		docs, err := e.Boolean(search.ModeAnd, []string{"search", "index"})
		if err != nil {
			b.Fatal(err)
		}
		_ = docs
	}
}

// BenchmarkBooleanQueryParallel measures concurrent read throughput against a
// single snapshot.
func BenchmarkBooleanQueryParallel(b *testing.B) {
	e := benchEngine(b, 10000)
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			docs, err := e.Boolean(search.ModeOr, []string{"posting", "gram"})
			if err != nil {
				b.Fatal(err)
			}
			_ = docs
		}
	})
}

// BenchmarkWildcardQuery measures k-gram resolution plus postings union.
func BenchmarkWildcardQuery(b *testing.B) {
	e := benchEngine(b, 10000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := e.Wildcard("pro*")
		if err != nil {
			b.Fatal(err)
		}
		_ = res
	}
}

// BenchmarkFuzzyQuery measures the vocabulary scan with per-candidate edit
// distance tables.
func BenchmarkFuzzyQuery(b *testing.B) {
	e := benchEngine(b, 10000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out, err := e.Fuzzy("serch", 2, 10)
		if err != nil {
			b.Fatal(err)
		}
		_ = out
	}
}

// BenchmarkRebuild measures a full snapshot rebuild end to end.
func BenchmarkRebuild(b *testing.B) {
	a := analyzer.New(analyzer.Config{})
	streams := benchCollection(5000).TermStreams(a)
	e := search.NewEngine(a, config.IndexConfig{KGramSize: 2, RebuildBatchSize: 100})
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Rebuild(context.Background(), streams); err != nil {
			b.Fatal(err)
		}
	}
}
