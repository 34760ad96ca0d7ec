package index

import (
	"fmt"
	"slices"
)

// Numbering assigns dense integer ranks to document ids in ascending order.
// Gap encoding needs integer sequences; the numbering bridges string DocIDs
// to gap-codable ints and back.
type Numbering struct {
	ids  []DocID
	rank map[DocID]int
}

// NewNumbering builds a numbering over the union of all DocIDs in the index.
func NewNumbering(ix Index) *Numbering {
	seen := make(map[DocID]struct{})
	for _, list := range ix {
		for _, id := range list {
			seen[id] = struct{}{}
		}
	}
	ids := make([]DocID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	rank := make(map[DocID]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}
	return &Numbering{ids: ids, rank: rank}
}

// Rank returns the dense integer rank of id.
func (n *Numbering) Rank(id DocID) (int, bool) {
	r, ok := n.rank[id]
	return r, ok
}

// DocID returns the document id at the given rank.
func (n *Numbering) DocID(rank int) (DocID, bool) {
	if rank < 0 || rank >= len(n.ids) {
		return "", false
	}
	return n.ids[rank], true
}

// Len returns the number of numbered documents.
func (n *Numbering) Len() int {
	return len(n.ids)
}

// GappedIndex is the compact transmission form of an Index: each posting
// list becomes a gap sequence over the shared document numbering. It does
// not participate in query execution; queries run on decoded posting lists.
type GappedIndex struct {
	Docs  []DocID          `json:"docs"`
	Terms map[string][]int `json:"terms"`
}

// EncodeGapped converts an inverted index to its gapped form. Because
// posting lists are ascending and duplicate-free by construction, their
// ranks are strictly ascending and always encode cleanly; an encoding error
// means the index invariant was broken upstream.
func EncodeGapped(ix Index) (*GappedIndex, error) {
	numbering := NewNumbering(ix)
	g := &GappedIndex{
		Docs:  numbering.ids,
		Terms: make(map[string][]int, len(ix)),
	}
	for term, list := range ix {
		ranks := make([]int, 0, len(list))
		for _, id := range list {
			r, ok := numbering.Rank(id)
			if !ok {
				return nil, fmt.Errorf("document %q missing from numbering", id)
			}
			ranks = append(ranks, r)
		}
		gaps, err := ToGaps(ranks)
		if err != nil {
			return nil, fmt.Errorf("encoding term %q: %w", term, err)
		}
		g.Terms[term] = gaps
	}
	return g, nil
}

// Decode reconstructs the original inverted index exactly.
func (g *GappedIndex) Decode() (Index, error) {
	ix := make(Index, len(g.Terms))
	for term, gaps := range g.Terms {
		list := make(PostingList, 0, len(gaps))
		for _, rank := range FromGaps(gaps) {
			if rank < 0 || rank >= len(g.Docs) {
				return nil, fmt.Errorf("decoding term %q: rank %d out of range", term, rank)
			}
			list = append(list, g.Docs[rank])
		}
		ix[term] = list
	}
	return ix, nil
}
