// Package proximity answers positional co-occurrence queries: which
// documents contain two terms within a bounded token distance of each other,
// and at which positions of the first term.
package proximity

import (
	"iter"

	"github.com/searchkit/retrieval/internal/index"
)

// Within walks two positional posting lists by ascending DocID and, for each
// document containing both terms, reports the positions of the first term
// that lie within distance of some position of the second term. Documents
// with no matching position produce no emission at all. distance must be
// >= 0; distance 0 requires exact position equality. The result is lazy and
// single-use.
func Within(a, b index.PositionalPostingList, distance int) iter.Seq2[index.DocID, index.Positions] {
	return func(yield func(index.DocID, index.Positions) bool) {
		if distance < 0 {
			return
		}
		i, j := 0, 0
		for i < len(a) && j < len(b) {
			switch {
			case a[i].Doc == b[j].Doc:
				if hits := near(a[i].Positions, b[j].Positions, distance); len(hits) > 0 {
					if !yield(a[i].Doc, hits) {
						return
					}
				}
				i++
				j++
			case a[i].Doc < b[j].Doc:
				i++
			default:
				j++
			}
		}
	}
}

// near returns the positions in pos1 that have a partner in pos2 within the
// given distance. It keeps a sliding window pos2[lo:hi) of candidates still
// relevant to the current p1: hi advances while the head of pos2 is not yet
// beyond p1+distance, and lo evicts from the front while the oldest retained
// candidate has fallen more than distance behind p1. Because pos1 is
// ascending, an evicted candidate can never come back into range, so
// front-only eviction is exact.
func near(pos1, pos2 index.Positions, distance int) index.Positions {
	var hits index.Positions
	lo, hi := 0, 0
	for _, p1 := range pos1 {
		for hi < len(pos2) && pos2[hi] <= p1+distance {
			hi++
		}
		for lo < hi && p1-pos2[lo] > distance {
			lo++
		}
		if lo < hi {
			hits = append(hits, p1)
		}
	}
	return hits
}
