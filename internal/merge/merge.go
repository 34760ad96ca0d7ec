// Package merge implements linear-time merge-join operations over ascending,
// duplicate-free sequences. No sorting happens here; correctness depends
// entirely on the ordering invariant the index builders guarantee. The
// engine is generic over any ordered key so the same code serves DocID
// streams and term streams (k-gram candidate intersection).
package merge

import (
	"cmp"
	"iter"
)

// Intersect returns the ordered intersection of two ascending, duplicate-free
// sequences as a lazy sequence. Callers may stop early; the result is
// single-use and restartable only by re-invoking Intersect. Empty operands
// are handled gracefully: empty ∩ x = empty.
func Intersect[T cmp.Ordered](a, b iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		nextA, stopA := iter.Pull(a)
		defer stopA()
		nextB, stopB := iter.Pull(b)
		defer stopB()

		va, okA := nextA()
		vb, okB := nextB()
		for okA && okB {
			switch {
			case va == vb:
				if !yield(va) {
					return
				}
				va, okA = nextA()
				vb, okB = nextB()
			case va < vb:
				va, okA = nextA()
			default:
				vb, okB = nextB()
			}
		}
	}
}

// Union returns the ordered union of two ascending, duplicate-free sequences
// as a lazy sequence. Equal heads are emitted once; when one sequence is
// exhausted the remainder of the other is drained unchanged, so
// empty ∪ x = x.
func Union[T cmp.Ordered](a, b iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		nextA, stopA := iter.Pull(a)
		defer stopA()
		nextB, stopB := iter.Pull(b)
		defer stopB()

		va, okA := nextA()
		vb, okB := nextB()
		for okA && okB {
			switch {
			case va == vb:
				if !yield(va) {
					return
				}
				va, okA = nextA()
				vb, okB = nextB()
			case va < vb:
				if !yield(va) {
					return
				}
				va, okA = nextA()
			default:
				if !yield(vb) {
					return
				}
				vb, okB = nextB()
			}
		}
		for okA {
			if !yield(va) {
				return
			}
			va, okA = nextA()
		}
		for okB {
			if !yield(vb) {
				return
			}
			vb, okB = nextB()
		}
	}
}

// IntersectAll intersects any number of sequences by left-to-right pairwise
// reduction. Reduction order changes only intermediate cost, never the
// result; sorting operands by ascending length first would be a cheap
// optimisation. Zero operands yield an empty sequence.
func IntersectAll[T cmp.Ordered](seqs ...iter.Seq[T]) iter.Seq[T] {
	if len(seqs) == 0 {
		return Empty[T]()
	}
	out := seqs[0]
	for _, s := range seqs[1:] {
		out = Intersect(out, s)
	}
	return out
}

// UnionAll unions any number of sequences by left-to-right pairwise
// reduction. Zero operands yield an empty sequence.
func UnionAll[T cmp.Ordered](seqs ...iter.Seq[T]) iter.Seq[T] {
	if len(seqs) == 0 {
		return Empty[T]()
	}
	out := seqs[0]
	for _, s := range seqs[1:] {
		out = Union(out, s)
	}
	return out
}

// Empty returns a sequence that yields nothing.
func Empty[T any]() iter.Seq[T] {
	return func(yield func(T) bool) {}
}
