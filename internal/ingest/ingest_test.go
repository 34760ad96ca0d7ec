package ingest

import (
	"context"
	"testing"

	"github.com/searchkit/retrieval/internal/analyzer"
	"github.com/searchkit/retrieval/internal/corpus"
	"github.com/searchkit/retrieval/internal/index"
	"github.com/searchkit/retrieval/internal/search"
	"github.com/searchkit/retrieval/pkg/config"
	"github.com/searchkit/retrieval/pkg/metrics"
)

var testMetrics = metrics.New()

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) Invalidate(ctx context.Context) error {
	f.calls++
	return nil
}

func testStager(t *testing.T, base corpus.Collection, batchSize int, inv Invalidator) (*Stager, *search.Engine) {
	t.Helper()
	a := analyzer.New(analyzer.Config{})
	engine := search.NewEngine(a, config.IndexConfig{KGramSize: 2, RebuildBatchSize: batchSize})
	s := NewStager(engine, a, base, batchSize, nil, inv, testMetrics)
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("initial flush: %v", err)
	}
	return s, engine
}

func TestApplyFlushesAtBatchSize(t *testing.T) {
	s, engine := testStager(t, corpus.Collection{"doc1": "cold winter"}, 2, nil)
	first := engine.Snapshot()

	ctx := context.Background()
	if err := s.Apply(ctx, DocumentEvent{DocID: "doc2", Content: "warm summer"}); err != nil {
		t.Fatal(err)
	}
	if engine.Snapshot() != first {
		t.Fatal("snapshot swapped before the batch threshold")
	}

	if err := s.Apply(ctx, DocumentEvent{DocID: "doc3", Content: "cold rain"}); err != nil {
		t.Fatal(err)
	}
	second := engine.Snapshot()
	if second == first {
		t.Fatal("snapshot not swapped at the batch threshold")
	}
	if second.Docs != 3 {
		t.Errorf("snapshot docs = %d, want 3", second.Docs)
	}

	docs, err := engine.Boolean(search.ModeAnd, []string{"cold"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []index.DocID{"doc1", "doc3"}; len(docs) != 2 || docs[0] != want[0] || docs[1] != want[1] {
		t.Errorf("query after flush = %v, want %v", docs, want)
	}
}

func TestApplyDeleteRemovesDocument(t *testing.T) {
	s, engine := testStager(t, corpus.Collection{
		"doc1": "cold winter",
		"doc2": "cold summer",
	}, 1, nil)

	if err := s.Apply(context.Background(), DocumentEvent{DocID: "doc1", Delete: true}); err != nil {
		t.Fatal(err)
	}
	docs, err := engine.Boolean(search.ModeAnd, []string{"cold"})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0] != "doc2" {
		t.Errorf("postings after delete = %v, want [doc2]", docs)
	}
}

func TestFlushInvalidatesCache(t *testing.T) {
	inv := &fakeInvalidator{}
	s, _ := testStager(t, corpus.Collection{"doc1": "cold"}, 1, inv)
	if inv.calls != 1 {
		t.Fatalf("invalidations after initial flush = %d, want 1", inv.calls)
	}
	if err := s.Apply(context.Background(), DocumentEvent{DocID: "doc2", Content: "warm"}); err != nil {
		t.Fatal(err)
	}
	if inv.calls != 2 {
		t.Errorf("invalidations after rebuild = %d, want 2", inv.calls)
	}
}

func TestHandleDecodesEvents(t *testing.T) {
	s, engine := testStager(t, corpus.Collection{}, 1, nil)
	handler := s.Handle()

	ctx := context.Background()
	if err := handler(ctx, []byte("doc1"), []byte(`{"doc_id":"doc1","content":"fresh snow"}`)); err != nil {
		t.Fatal(err)
	}
	docs, err := engine.Boolean(search.ModeAnd, []string{"snow"})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0] != "doc1" {
		t.Errorf("postings after ingest = %v, want [doc1]", docs)
	}
}

func TestHandleSkipsPoisonMessages(t *testing.T) {
	s, engine := testStager(t, corpus.Collection{"doc1": "cold"}, 1, nil)
	before := engine.Snapshot()

	if err := s.Handle()(context.Background(), nil, []byte("{not json")); err != nil {
		t.Fatalf("poison message returned error %v, want nil", err)
	}
	if engine.Snapshot() != before {
		t.Error("poison message triggered a rebuild")
	}
}

func TestBatchSizeFloor(t *testing.T) {
	a := analyzer.New(analyzer.Config{})
	engine := search.NewEngine(a, config.IndexConfig{KGramSize: 2})
	s := NewStager(engine, a, corpus.Collection{}, 0, nil, nil, testMetrics)

	// With the floor at 1 every event flushes immediately.
	if err := s.Apply(context.Background(), DocumentEvent{DocID: "doc1", Content: "cold"}); err != nil {
		t.Fatal(err)
	}
	if engine.Snapshot() == nil {
		t.Error("single event with batch size 0 did not flush")
	}
}
