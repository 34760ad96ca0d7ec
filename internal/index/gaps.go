package index

import (
	"errors"
	"fmt"
)

// ErrNotAscending reports gap-codec input that violates the strictly
// ascending precondition. Silent wrong output is worse than a fast failure,
// so the codec validates rather than trusting the caller.
var ErrNotAscending = errors.New("sequence is not strictly ascending")

// ToGaps delta-encodes a strictly ascending sequence of non-negative
// integers. The first gap equals the first value (the running offset starts
// at 0). Duplicate or descending values are rejected with ErrNotAscending.
func ToGaps(values []int) ([]int, error) {
	gaps := make([]int, 0, len(values))
	offset := 0
	for i, v := range values {
		if v < offset || (i > 0 && v == offset) {
			return nil, fmt.Errorf("%w: value %d at position %d follows %d", ErrNotAscending, v, i, offset)
		}
		gaps = append(gaps, v-offset)
		offset = v
	}
	return gaps, nil
}

// FromGaps reverses ToGaps via a running cumulative sum.
// FromGaps(ToGaps(v)) == v for every valid v, including the empty sequence.
func FromGaps(gaps []int) []int {
	values := make([]int, 0, len(gaps))
	offset := 0
	for _, g := range gaps {
		offset += g
		values = append(values, offset)
	}
	return values
}
