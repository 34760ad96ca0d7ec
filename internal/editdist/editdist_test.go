package editdist

import (
	"reflect"
	"testing"
)

func TestDistance(t *testing.T) {
	cases := []struct {
		source, dest string
		want         float64
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"sitting", "kitten", 3},
		{"flaw", "lawn", 2},
		{"", "abc", 3},
		{"abc", "", 3},
		{"a", "b", 1},
	}
	for _, c := range cases {
		if got := Distance(c.source, c.dest); got != c.want {
			t.Errorf("Distance(%q, %q) = %v, want %v", c.source, c.dest, got, c.want)
		}
	}
}

func TestDistanceUnicode(t *testing.T) {
	// Distance counts runes, not bytes.
	if got := Distance("über", "uber"); got != 1 {
		t.Errorf("Distance(über, uber) = %v, want 1", got)
	}
}

// applyOps replays an alignment, returning the source it consumes and the
// dest it produces.
func applyOps(ops []Op) (source, dest string) {
	var src, dst []rune
	for _, op := range ops {
		switch op.Kind {
		case Substitute:
			src = append(src, op.Source)
			dst = append(dst, op.Dest)
		case Delete:
			src = append(src, op.Source)
		case Insert:
			dst = append(dst, op.Dest)
		}
	}
	return string(src), string(dst)
}

func TestAlignmentReplaysEndpoints(t *testing.T) {
	cases := []struct{ source, dest string }{
		{"kitten", "sitting"},
		{"", "abc"},
		{"abc", ""},
		{"same", "same"},
		{"flaw", "lawn"},
	}
	for _, c := range cases {
		tbl := New(c.source, c.dest, Costs{})
		ops := tbl.Alignment()
		src, dst := applyOps(ops)
		if src != c.source || dst != c.dest {
			t.Errorf("Alignment(%q, %q) replays to (%q, %q)", c.source, c.dest, src, dst)
		}
	}
}

func TestAlignmentCostEqualsDistance(t *testing.T) {
	cases := []struct{ source, dest string }{
		{"kitten", "sitting"},
		{"intention", "execution"},
		{"", "xyz"},
		{"xyz", ""},
		{"abab", "baba"},
	}
	for _, c := range cases {
		tbl := New(c.source, c.dest, Costs{})
		ops := tbl.Alignment()
		if got, want := tbl.AlignmentCost(ops), tbl.Distance(); got != want {
			t.Errorf("AlignmentCost(%q, %q) = %v, Distance = %v", c.source, c.dest, got, want)
		}
	}
}

// Transforming "ab" into "ba" admits several minimum-cost alignments; the
// backtrace prefers substitution, so both steps come out as substitutions.
func TestAlignmentTieBreak(t *testing.T) {
	tbl := New("ab", "ba", Costs{})
	got := tbl.Alignment()
	want := []Op{
		{Kind: Substitute, Source: 'a', Dest: 'b'},
		{Kind: Substitute, Source: 'b', Dest: 'a'},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Alignment(ab, ba) = %v, want %v", got, want)
	}
}

func TestAlignmentPureInsertDelete(t *testing.T) {
	ops := New("", "ab", Costs{}).Alignment()
	want := []Op{
		{Kind: Insert, Dest: 'a'},
		{Kind: Insert, Dest: 'b'},
	}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("Alignment(\"\", ab) = %v, want %v", ops, want)
	}

	ops = New("ab", "", Costs{}).Alignment()
	want = []Op{
		{Kind: Delete, Source: 'a'},
		{Kind: Delete, Source: 'b'},
	}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("Alignment(ab, \"\") = %v, want %v", ops, want)
	}
}

func TestCustomCosts(t *testing.T) {
	// Substitution priced at 3 makes delete-then-insert (cost 2) cheaper.
	costs := Costs{
		Substitute: func(from, to rune) float64 {
			if from == to {
				return 0
			}
			return 3
		},
	}
	tbl := New("a", "b", costs)
	if got := tbl.Distance(); got != 2 {
		t.Errorf("Distance with expensive substitution = %v, want 2", got)
	}
	ops := tbl.Alignment()
	if got, want := tbl.AlignmentCost(ops), tbl.Distance(); got != want {
		t.Errorf("AlignmentCost = %v, Distance = %v", got, want)
	}
	for _, op := range ops {
		if op.Kind == Substitute && op.Source != op.Dest {
			t.Errorf("alignment used a priced-out substitution: %v", ops)
		}
	}
}

func TestCustomCostsAsymmetric(t *testing.T) {
	// Free inserts make growing a string cost nothing.
	costs := Costs{Insert: func(r rune) float64 { return 0 }}
	if got := New("ab", "axbx", costs).Distance(); got != 0 {
		t.Errorf("Distance with free insert = %v, want 0", got)
	}
}
