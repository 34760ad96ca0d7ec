package kgram

import (
	"iter"
	"regexp"
	"slices"
	"strings"

	"github.com/searchkit/retrieval/internal/merge"
)

// Resolve expands a wildcard pattern to the vocabulary terms it matches, in
// ascending order. Literal (wildcard-free) grams of the padded pattern are
// intersected to produce a candidate superset, which is then filtered by a
// full anchored glob match. A pattern with no literal gram (all wildcards,
// or literal runs shorter than k) falls back to scanning the whole
// vocabulary; it is a valid query, not an error.
func (kg *Index) Resolve(pattern string) []string {
	literals := kg.literalGrams(pattern)

	var candidates []string
	if len(literals) == 0 {
		candidates = kg.vocab
	} else {
		seqs := make([]iter.Seq[string], 0, len(literals))
		for _, gram := range literals {
			seqs = append(seqs, slices.Values(kg.grams[gram]))
		}
		candidates = slices.Collect(merge.IntersectAll(seqs...))
	}

	re := compile(pattern)
	matched := make([]string, 0, len(candidates))
	for _, term := range candidates {
		if re.MatchString(term) {
			matched = append(matched, term)
		}
	}
	return matched
}

// Match reports whether term matches pattern, where Wildcard matches any run
// of zero or more characters and the match is anchored at both ends.
func Match(pattern, term string) bool {
	return compile(pattern).MatchString(term)
}

// literalGrams returns the wildcard-free grams of the padded pattern.
func (kg *Index) literalGrams(pattern string) []string {
	var literals []string
	for gram := range Grams(pattern, kg.k) {
		if !strings.ContainsRune(gram, Wildcard) {
			literals = append(literals, gram)
		}
	}
	return literals
}

// compile translates a glob pattern into an anchored regexp. Everything but
// the wildcard marker is quoted, so compilation cannot fail on user input.
func compile(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for i, part := range strings.Split(pattern, string(Wildcard)) {
		if i > 0 {
			b.WriteString(".*")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
