// Package corpus provides the document collection: a mapping from DocID to
// raw content, loadable from PostgreSQL or from memory. The engine only ever
// sees a Collection; where the documents came from is this package's
// business.
package corpus

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/searchkit/retrieval/internal/analyzer"
	"github.com/searchkit/retrieval/internal/index"
	"github.com/searchkit/retrieval/pkg/postgres"
)

// Collection maps document ids to raw content.
type Collection map[index.DocID]string

// SortedIDs returns the collection's document ids in ascending order, the
// traversal order the index builders require.
func (c Collection) SortedIDs() []index.DocID {
	return slices.Sorted(maps.Keys(c))
}

// Clone returns an independent copy. Rebuilds stage into a clone so a
// collection handed to a build is never mutated afterwards.
func (c Collection) Clone() Collection {
	return maps.Clone(c)
}

// TermStreams runs every document through the analyzer, producing the
// per-document term streams the index builders consume.
func (c Collection) TermStreams(a *analyzer.Analyzer) map[index.DocID][]string {
	streams := make(map[index.DocID][]string, len(c))
	for id, content := range c {
		streams[id] = a.Terms(content)
	}
	return streams
}

// Source loads a document collection.
type Source interface {
	Load(ctx context.Context) (Collection, error)
}

// PostgresSource loads the collection from a documents table.
type PostgresSource struct {
	client *postgres.Client
}

// NewPostgresSource creates a Source over the given client.
func NewPostgresSource(client *postgres.Client) *PostgresSource {
	return &PostgresSource{client: client}
}

// Load reads every document. Ordering by id is not required for correctness
// (the builders sort ids themselves) but keeps load output deterministic.
func (s *PostgresSource) Load(ctx context.Context) (Collection, error) {
	rows, err := s.client.DB.QueryContext(ctx,
		`SELECT id, content FROM documents ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := make(Collection)
	for rows.Next() {
		var id, content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		docs[index.DocID(id)] = content
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}
	return docs, nil
}

// MemorySource serves a fixed in-memory collection; used in tests and for
// corpus-less startup.
type MemorySource Collection

// Load returns a copy of the collection.
func (s MemorySource) Load(ctx context.Context) (Collection, error) {
	return Collection(s).Clone(), nil
}
