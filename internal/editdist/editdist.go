// Package editdist computes weighted edit distance between two strings via
// the full dynamic-programming cost matrix, and reconstructs a minimum-cost
// alignment by backtrace.
package editdist

import "slices"

// Costs configures per-character edit weights. A nil function falls back to
// the default: unit cost for insert and delete, unit cost for substitution
// except between equal runes, which is free.
type Costs struct {
	Insert     func(r rune) float64
	Delete     func(r rune) float64
	Substitute func(from, to rune) float64
}

func (c Costs) insert(r rune) float64 {
	if c.Insert != nil {
		return c.Insert(r)
	}
	return 1
}

func (c Costs) delete(r rune) float64 {
	if c.Delete != nil {
		return c.Delete(r)
	}
	return 1
}

func (c Costs) substitute(from, to rune) float64 {
	if c.Substitute != nil {
		return c.Substitute(from, to)
	}
	if from == to {
		return 0
	}
	return 1
}

// Table is the filled (len(dest)+1) x (len(source)+1) cost matrix for
// transforming source into dest. Immutable once built.
type Table struct {
	source []rune
	dest   []rune
	cells  [][]float64
	costs  Costs
}

// New fills the cost table. Row 0 and column 0 hold cumulative delete and
// insert costs of the prefixes; every other cell is the minimum of its
// substitute, delete, and insert predecessors. Empty source or dest reduce
// to pure insertion or deletion cost.
func New(source, dest string, costs Costs) *Table {
	src := []rune(source)
	dst := []rune(dest)
	cells := make([][]float64, len(dst)+1)
	for row := range cells {
		cells[row] = make([]float64, len(src)+1)
	}
	for col := 1; col <= len(src); col++ {
		cells[0][col] = cells[0][col-1] + costs.delete(src[col-1])
	}
	for row := 1; row <= len(dst); row++ {
		cells[row][0] = cells[row-1][0] + costs.insert(dst[row-1])
	}
	for row := 1; row <= len(dst); row++ {
		for col := 1; col <= len(src); col++ {
			sub := cells[row-1][col-1] + costs.substitute(src[col-1], dst[row-1])
			del := cells[row][col-1] + costs.delete(src[col-1])
			ins := cells[row-1][col] + costs.insert(dst[row-1])
			cells[row][col] = min(sub, del, ins)
		}
	}
	return &Table{source: src, dest: dst, cells: cells, costs: costs}
}

// Distance returns the total minimum cost of transforming source into dest:
// the final corner cell of the table.
func (t *Table) Distance() float64 {
	return t.cells[len(t.dest)][len(t.source)]
}

// Distance is the unweighted edit distance between source and dest.
func Distance(source, dest string) float64 {
	return New(source, dest, Costs{}).Distance()
}

// OpKind classifies a single edit step.
type OpKind int

const (
	// Substitute replaces a source rune with a dest rune; when the runes are
	// equal it is a match.
	Substitute OpKind = iota
	// Delete removes a source rune; Dest is unset.
	Delete
	// Insert adds a dest rune; Source is unset.
	Insert
)

// Op is one step of an alignment. Source is set for Substitute and Delete,
// Dest for Substitute and Insert.
type Op struct {
	Kind   OpKind
	Source rune
	Dest   rune
}

// opCost returns the weight an op contributed to this table.
func (t *Table) opCost(op Op) float64 {
	switch op.Kind {
	case Delete:
		return t.costs.delete(op.Source)
	case Insert:
		return t.costs.insert(op.Dest)
	default:
		return t.costs.substitute(op.Source, op.Dest)
	}
}

// Alignment reconstructs a minimum-cost edit sequence by walking the table
// back from the final corner to (0,0). Several alignments can share the
// minimum cost; ties are broken by preferring substitution over deletion
// over insertion, so the returned alignment is deterministic.
func (t *Table) Alignment() []Op {
	row, col := len(t.dest), len(t.source)
	var ops []Op
	for row > 0 || col > 0 {
		var op Op
		switch {
		case row > 0 && col > 0 &&
			t.cells[row][col] == t.cells[row-1][col-1]+t.costs.substitute(t.source[col-1], t.dest[row-1]):
			op = Op{Kind: Substitute, Source: t.source[col-1], Dest: t.dest[row-1]}
			row--
			col--
		case col > 0 &&
			t.cells[row][col] == t.cells[row][col-1]+t.costs.delete(t.source[col-1]):
			op = Op{Kind: Delete, Source: t.source[col-1]}
			col--
		default:
			op = Op{Kind: Insert, Dest: t.dest[row-1]}
			row--
		}
		ops = append(ops, op)
	}
	slices.Reverse(ops)
	return ops
}

// AlignmentCost sums the per-op weights of an alignment; it always equals
// Distance for alignments produced by this table.
func (t *Table) AlignmentCost(ops []Op) float64 {
	var total float64
	for _, op := range ops {
		total += t.opCost(op)
	}
	return total
}
