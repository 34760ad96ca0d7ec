// Package kgram implements k-gram indexing and wildcard term resolution.
// Terms are padded with a boundary sentinel on both ends so that grams
// anchored at a term's start or end are distinguishable from interior grams.
package kgram

import (
	"iter"
	"slices"

	"github.com/searchkit/retrieval/internal/index"
)

// Boundary pads terms before gram extraction. It must not occur in
// normalized terms; the analyzer strips all non-alphanumeric runes, so any
// punctuation character works.
const Boundary = '$'

// Wildcard marks a run of zero or more arbitrary characters in a pattern.
const Wildcard = '*'

// Grams yields every contiguous k-length substring of the boundary-padded
// term, in order. A padded term shorter than k yields nothing.
func Grams(term string, k int) iter.Seq[string] {
	return func(yield func(string) bool) {
		padded := string(Boundary) + term + string(Boundary)
		for i := 0; i+k <= len(padded); i++ {
			if !yield(padded[i : i+k]) {
				return
			}
		}
	}
}

// Index maps k-grams to the sorted, duplicate-free list of vocabulary terms
// containing them. Built once from an inverted index's term set; read-only
// afterwards.
type Index struct {
	k     int
	grams map[string][]string
	vocab []string
}

// New builds a k-gram index over the vocabulary of an inverted index.
// Terms are inserted in sort order as they arrive rather than bulk-sorted
// afterwards, which keeps every candidate list valid mid-build.
func New(ix index.Index, k int) *Index {
	kg := &Index{
		k:     k,
		grams: make(map[string][]string),
		vocab: ix.Terms(),
	}
	for _, term := range kg.vocab {
		for gram := range Grams(term, k) {
			kg.grams[gram] = insortUnique(kg.grams[gram], term)
		}
	}
	return kg
}

// K returns the gram length the index was built with.
func (kg *Index) K() int {
	return kg.k
}

// Candidates returns the sorted terms containing gram, or nil when no term
// does. Absent grams are never an error.
func (kg *Index) Candidates(gram string) []string {
	return kg.grams[gram]
}

// Vocabulary returns all indexed terms in ascending order.
func (kg *Index) Vocabulary() []string {
	return kg.vocab
}

// insortUnique inserts s into an already-sorted list, keeping it sorted and
// duplicate-free.
func insortUnique(list []string, s string) []string {
	i, found := slices.BinarySearch(list, s)
	if found {
		return list
	}
	return slices.Insert(list, i, s)
}
