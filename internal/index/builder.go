package index

import (
	"maps"
	"slices"
)

// Build constructs an inverted index from per-document term streams. The
// streams must already be tokenized and normalized; positions are implied by
// stream order. Documents are visited in ascending DocID order, so each
// posting list comes out ascending and duplicate-free in a single linear
// pass: a DocID is appended only when it is not already the list's last
// element.
func Build(streams map[DocID][]string) Index {
	ix := make(Index)
	for _, id := range sortedIDs(streams) {
		for _, term := range streams[id] {
			list := ix[term]
			if n := len(list); n == 0 || list[n-1] != id {
				ix[term] = append(list, id)
			}
		}
	}
	return ix
}

// BuildPositional constructs a positional index from per-document term
// streams. The same ascending-DocID traversal as Build, but each (term,
// position) pair either extends the term's entry for the current document or
// opens a new one.
func BuildPositional(streams map[DocID][]string) PositionalIndex {
	ix := make(PositionalIndex)
	for _, id := range sortedIDs(streams) {
		for pos, term := range streams[id] {
			list := ix[term]
			if n := len(list); n == 0 || list[n-1].Doc != id {
				ix[term] = append(list, PositionalEntry{
					Doc:       id,
					Positions: Positions{pos},
				})
				continue
			}
			last := &list[len(list)-1]
			last.Positions = append(last.Positions, pos)
		}
	}
	return ix
}

func sortedIDs(streams map[DocID][]string) []DocID {
	return slices.Sorted(maps.Keys(streams))
}
