// Package search exposes the query engine: boolean, proximity, wildcard, and
// fuzzy lookups over an immutable index snapshot, with a Redis-backed query
// cache and an HTTP surface. A rebuild constructs a complete new snapshot and
// swaps it in atomically; a live snapshot is never mutated, so any number of
// concurrent queries may read it without synchronisation.
package search

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/searchkit/retrieval/internal/analyzer"
	"github.com/searchkit/retrieval/internal/editdist"
	"github.com/searchkit/retrieval/internal/index"
	"github.com/searchkit/retrieval/internal/kgram"
	"github.com/searchkit/retrieval/internal/merge"
	"github.com/searchkit/retrieval/internal/proximity"
	"github.com/searchkit/retrieval/pkg/config"
	pkgerrors "github.com/searchkit/retrieval/pkg/errors"
)

// Mode selects the boolean combination of posting lists.
type Mode string

const (
	ModeAnd Mode = "and"
	ModeOr  Mode = "or"
)

// Snapshot is one immutable build of all index structures.
type Snapshot struct {
	Inverted   index.Index
	Positional index.PositionalIndex
	KGrams     *kgram.Index
	Docs       int
	BuiltAt    time.Time
}

// Engine answers queries against the current snapshot.
type Engine struct {
	analyzer *analyzer.Analyzer
	cfg      config.IndexConfig
	logger   *slog.Logger
	snapshot atomic.Pointer[Snapshot]
}

// NewEngine creates an Engine with no snapshot yet; queries fail with
// ErrIndexNotReady until the first Rebuild.
func NewEngine(a *analyzer.Analyzer, cfg config.IndexConfig) *Engine {
	return &Engine{
		analyzer: a,
		cfg:      cfg,
		logger:   slog.Default().With("component", "search-engine"),
	}
}

// Rebuild constructs a fresh snapshot from the collection's term streams and
// swaps it in. The inverted+k-gram pipeline and the positional build run
// concurrently; both consume the same streams read-only.
func (e *Engine) Rebuild(ctx context.Context, streams map[index.DocID][]string) (*Snapshot, error) {
	start := time.Now()

	var (
		inv index.Index
		pos index.PositionalIndex
		kg  *kgram.Index
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		inv = index.Build(streams)
		kg = kgram.New(inv, e.cfg.KGramSize)
		return nil
	})
	g.Go(func() error {
		pos = index.BuildPositional(streams)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Inverted:   inv,
		Positional: pos,
		KGrams:     kg,
		Docs:       len(streams),
		BuiltAt:    time.Now().UTC(),
	}
	e.snapshot.Store(snap)
	e.logger.Info("index rebuilt",
		"docs", snap.Docs,
		"terms", len(inv),
		"took", time.Since(start),
	)
	return snap, nil
}

// Snapshot returns the live snapshot, or nil before the first rebuild.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

func (e *Engine) snap() (*Snapshot, error) {
	s := e.snapshot.Load()
	if s == nil {
		return nil, pkgerrors.ErrIndexNotReady
	}
	return s, nil
}

// normalizeTerm runs a raw query term through the same analyzer the index
// was built with. Terms that normalize away (stop words, pure punctuation)
// come back empty.
func (e *Engine) normalizeTerm(raw string) string {
	terms := e.analyzer.Terms(raw)
	if len(terms) == 0 {
		return ""
	}
	return terms[0]
}

// Boolean intersects (ModeAnd) or unions (ModeOr) the posting lists of the
// given terms. Absent terms contribute empty lists: under AND the result is
// empty, under OR they simply drop out. Terms that normalize away are
// skipped.
func (e *Engine) Boolean(mode Mode, rawTerms []string) ([]index.DocID, error) {
	snap, err := e.snap()
	if err != nil {
		return nil, err
	}
	var seqs []iter.Seq[index.DocID]
	for _, raw := range rawTerms {
		term := e.normalizeTerm(raw)
		if term == "" {
			continue
		}
		seqs = append(seqs, snap.Inverted.Postings(term).All())
	}
	if len(seqs) == 0 {
		return nil, nil
	}
	var seq iter.Seq[index.DocID]
	switch mode {
	case ModeAnd:
		seq = merge.IntersectAll(seqs...)
	case ModeOr:
		seq = merge.UnionAll(seqs...)
	default:
		return nil, pkgerrors.Newf(pkgerrors.ErrInvalidInput, 400, "unknown mode %q", mode)
	}
	return slices.Collect(seq), nil
}

// ProximityMatch pairs a document with the first term's positions that have
// a partner from the second term within the queried distance.
type ProximityMatch struct {
	Doc       index.DocID     `json:"doc"`
	Positions index.Positions `json:"positions"`
}

// Proximity finds documents where term1 and term2 co-occur within distance
// tokens. distance 0 demands exact position equality.
func (e *Engine) Proximity(rawTerm1, rawTerm2 string, distance int) ([]ProximityMatch, error) {
	if distance < 0 {
		return nil, pkgerrors.Newf(pkgerrors.ErrInvalidInput, 400, "distance must be >= 0, got %d", distance)
	}
	snap, err := e.snap()
	if err != nil {
		return nil, err
	}
	term1 := e.normalizeTerm(rawTerm1)
	term2 := e.normalizeTerm(rawTerm2)
	if term1 == "" || term2 == "" {
		return nil, nil
	}
	var matches []ProximityMatch
	for doc, positions := range proximity.Within(
		snap.Positional.Postings(term1),
		snap.Positional.Postings(term2),
		distance,
	) {
		matches = append(matches, ProximityMatch{Doc: doc, Positions: positions})
	}
	return matches, nil
}

// WildcardResult carries both the terms a pattern expanded to and the union
// of their posting lists.
type WildcardResult struct {
	Terms []string      `json:"terms"`
	Docs  []index.DocID `json:"docs"`
}

// Wildcard resolves a glob pattern ('*' matches any run of characters)
// against the vocabulary via the k-gram index, then unions the posting lists
// of every matching term. Patterns without a single literal k-gram fall back
// to a full vocabulary scan rather than failing.
func (e *Engine) Wildcard(pattern string) (*WildcardResult, error) {
	if pattern == "" {
		return nil, pkgerrors.New(pkgerrors.ErrInvalidInput, 400, "pattern must not be empty")
	}
	snap, err := e.snap()
	if err != nil {
		return nil, err
	}
	terms := snap.KGrams.Resolve(strings.ToLower(pattern))
	seqs := make([]iter.Seq[index.DocID], 0, len(terms))
	for _, term := range terms {
		seqs = append(seqs, snap.Inverted.Postings(term).All())
	}
	return &WildcardResult{
		Terms: terms,
		Docs:  slices.Collect(merge.UnionAll(seqs...)),
	}, nil
}

// Suggestion is a vocabulary term within edit distance of a query term.
type Suggestion struct {
	Term      string  `json:"term"`
	Distance  float64 `json:"distance"`
	DocCount  int     `json:"doc_count"`
	Alignment string  `json:"alignment"`
}

// Fuzzy returns vocabulary terms within maxDistance unit edits of the query
// term, nearest first (ties by term order), at most limit of them. Each
// suggestion carries a readable minimum-cost alignment.
func (e *Engine) Fuzzy(rawTerm string, maxDistance float64, limit int) ([]Suggestion, error) {
	snap, err := e.snap()
	if err != nil {
		return nil, err
	}
	term := e.normalizeTerm(rawTerm)
	if term == "" {
		return nil, nil
	}
	var out []Suggestion
	for _, candidate := range snap.KGrams.Vocabulary() {
		table := editdist.New(term, candidate, editdist.Costs{})
		d := table.Distance()
		if d > maxDistance {
			continue
		}
		out = append(out, Suggestion{
			Term:      candidate,
			Distance:  d,
			DocCount:  len(snap.Inverted.Postings(candidate)),
			Alignment: formatAlignment(table.Alignment()),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Term < out[j].Term
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Gapped exports the live inverted index in its gap-encoded transmission
// form.
func (e *Engine) Gapped() (*index.GappedIndex, error) {
	snap, err := e.snap()
	if err != nil {
		return nil, err
	}
	return index.EncodeGapped(snap.Inverted)
}

// formatAlignment renders ops compactly: "a" match, "a>b" substitution,
// "-a" deletion, "+b" insertion.
func formatAlignment(ops []editdist.Op) string {
	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case editdist.Delete:
			parts = append(parts, "-"+string(op.Source))
		case editdist.Insert:
			parts = append(parts, "+"+string(op.Dest))
		default:
			if op.Source == op.Dest {
				parts = append(parts, string(op.Source))
			} else {
				parts = append(parts, string(op.Source)+">"+string(op.Dest))
			}
		}
	}
	return strings.Join(parts, " ")
}
