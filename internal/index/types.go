// Package index builds and represents in-memory inverted indexes: plain
// posting lists, positional posting lists, and the gap-encoded snapshot form
// used for transmission. Indexes are built once from a document set and are
// read-only afterwards; a rebuild produces a fresh value that callers swap in.
package index

import (
	"iter"
	"slices"
)

// DocID identifies a document. DocIDs are totally ordered by byte comparison;
// every posting list in this package is sorted ascending by DocID.
type DocID string

// PostingList is an ascending, duplicate-free sequence of document ids.
type PostingList []DocID

// All yields the posting list's document ids in ascending order.
func (p PostingList) All() iter.Seq[DocID] {
	return slices.Values(p)
}

// Positions is an ascending, duplicate-free sequence of 0-based token
// offsets of one term within one document.
type Positions []int

// PositionalEntry records where a term occurs inside a single document.
type PositionalEntry struct {
	Doc       DocID     `json:"doc"`
	Positions Positions `json:"positions"`
}

// PositionalPostingList is ascending by DocID; each document appears at most
// once.
type PositionalPostingList []PositionalEntry

// Index maps terms to posting lists.
type Index map[string]PostingList

// Postings returns the posting list for term, or nil when the term does not
// occur in any document. Absent terms are never an error.
func (ix Index) Postings(term string) PostingList {
	return ix[term]
}

// Terms returns the vocabulary in ascending order.
func (ix Index) Terms() []string {
	terms := make([]string, 0, len(ix))
	for term := range ix {
		terms = append(terms, term)
	}
	slices.Sort(terms)
	return terms
}

// PositionalIndex maps terms to positional posting lists.
type PositionalIndex map[string]PositionalPostingList

// Postings returns the positional posting list for term, or nil when absent.
func (ix PositionalIndex) Postings(term string) PositionalPostingList {
	return ix[term]
}
