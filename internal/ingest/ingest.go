// Package ingest consumes document events from Kafka and drives index
// rebuilds. Events are staged into a pending collection; when the batch
// threshold is reached a complete fresh snapshot is built and swapped in.
// The live index is never touched mid-read.
package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/searchkit/retrieval/internal/analyzer"
	"github.com/searchkit/retrieval/internal/corpus"
	"github.com/searchkit/retrieval/internal/index"
	"github.com/searchkit/retrieval/internal/search"
	"github.com/searchkit/retrieval/pkg/kafka"
	"github.com/searchkit/retrieval/pkg/metrics"
)

// DocumentEvent is the Kafka payload for a document upsert or delete.
type DocumentEvent struct {
	DocID   string `json:"doc_id"`
	Content string `json:"content"`
	Delete  bool   `json:"delete,omitempty"`
}

// RebuildComplete is published after each successful rebuild-and-swap.
type RebuildComplete struct {
	Docs    int       `json:"docs"`
	Terms   int       `json:"terms"`
	BuiltAt time.Time `json:"built_at"`
}

// Invalidator drops derived state that a snapshot swap makes stale; the
// query cache implements it.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Stager accumulates document events and rebuilds the engine's snapshot when
// enough have arrived.
type Stager struct {
	mu      sync.Mutex
	docs    corpus.Collection
	pending int

	engine      *search.Engine
	analyzer    *analyzer.Analyzer
	batchSize   int
	producer    *kafka.Producer // nil disables rebuild events
	invalidator Invalidator     // nil disables cache invalidation
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewStager creates a Stager seeded with the base collection. batchSize is
// the number of staged events that triggers an automatic rebuild; values
// below 1 are treated as 1.
func NewStager(engine *search.Engine, a *analyzer.Analyzer, base corpus.Collection, batchSize int, producer *kafka.Producer, invalidator Invalidator, m *metrics.Metrics) *Stager {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Stager{
		docs:        base.Clone(),
		engine:      engine,
		analyzer:    a,
		batchSize:   batchSize,
		producer:    producer,
		invalidator: invalidator,
		metrics:     m,
		logger:      slog.Default().With("component", "ingest-stager"),
	}
}

// Handle returns a kafka.MessageHandler that stages each decoded event and
// flushes when the batch threshold is reached. Undecodable events are logged
// and skipped rather than wedging the consumer on a poison message.
func (s *Stager) Handle() kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[DocumentEvent](value)
		if err != nil {
			s.logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		return s.Apply(ctx, event)
	}
}

// Apply stages one event, rebuilding when the batch threshold is reached.
func (s *Stager) Apply(ctx context.Context, event DocumentEvent) error {
	s.mu.Lock()
	if event.Delete {
		delete(s.docs, index.DocID(event.DocID))
	} else {
		s.docs[index.DocID(event.DocID)] = event.Content
	}
	s.pending++
	pending := s.pending
	flush := pending >= s.batchSize
	s.mu.Unlock()

	s.metrics.DocsIngestedTotal.Inc()
	s.logger.Debug("document staged",
		"doc_id", event.DocID,
		"delete", event.Delete,
		"pending", pending,
	)
	if flush {
		return s.Flush(ctx)
	}
	return nil
}

// Flush rebuilds the snapshot from the full staged collection, swaps it in,
// invalidates the query cache, and publishes a RebuildComplete event. Safe
// to call with nothing pending; the initial index build at startup goes
// through here too.
func (s *Stager) Flush(ctx context.Context) error {
	s.mu.Lock()
	docs := s.docs.Clone()
	s.pending = 0
	s.mu.Unlock()

	start := time.Now()
	snap, err := s.engine.Rebuild(ctx, docs.TermStreams(s.analyzer))
	if err != nil {
		s.metrics.IndexRebuildsTotal.WithLabelValues("error").Inc()
		return err
	}
	s.metrics.IndexRebuildsTotal.WithLabelValues("ok").Inc()
	s.metrics.IndexRebuildDuration.Observe(time.Since(start).Seconds())
	s.metrics.IndexDocuments.Set(float64(snap.Docs))
	s.metrics.IndexTerms.Set(float64(len(snap.Inverted)))

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.logger.Error("cache invalidation after rebuild failed", "error", err)
		}
	}
	if s.producer != nil {
		event := kafka.Event{
			Key: snap.BuiltAt.Format(time.RFC3339Nano),
			Value: RebuildComplete{
				Docs:    snap.Docs,
				Terms:   len(snap.Inverted),
				BuiltAt: snap.BuiltAt,
			},
		}
		if err := s.producer.Publish(ctx, event); err != nil {
			s.logger.Error("publishing rebuild event failed", "error", err)
		}
	}
	return nil
}
