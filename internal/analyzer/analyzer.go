// Package analyzer turns raw document text into normalized term streams:
// whitespace tokenization, explicit replacements, lowercasing, punctuation
// stripping, and stop-word removal. The same text always produces the same
// stream, which the index builders rely on.
package analyzer

import (
	"strings"
	"unicode"
)

// englishStopWords is the common English stop-word list from Manning,
// Raghavan & Schütze, Introduction to Information Retrieval, p. 26.
var englishStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
	"to", "was", "were", "will", "with",
}

// Config controls normalization. All state is passed explicitly; there are
// no package-level dictionaries to mutate.
type Config struct {
	// StopWords are dropped after normalization. Nil means the default
	// English list; an empty non-nil slice disables stop-word removal.
	StopWords []string
	// Replacements maps raw tokens to fixed terms, checked before the
	// default normalization. Lets callers keep known proper names intact.
	Replacements map[string]string
}

// Analyzer is an immutable, reusable term-stream provider.
type Analyzer struct {
	stop         map[string]struct{}
	replacements map[string]string
}

// New builds an Analyzer from cfg. Every call returns a fresh value; nothing
// is shared across analyzers.
func New(cfg Config) *Analyzer {
	words := cfg.StopWords
	if words == nil {
		words = englishStopWords
	}
	stop := make(map[string]struct{}, len(words))
	for _, w := range words {
		stop[w] = struct{}{}
	}
	replacements := make(map[string]string, len(cfg.Replacements))
	for k, v := range cfg.Replacements {
		replacements[k] = v
	}
	return &Analyzer{stop: stop, replacements: replacements}
}

// Terms tokenizes text on whitespace and normalizes each token. The index of
// a term in the returned stream is its token position. Tokens that normalize
// to the empty string or to a stop word are dropped without leaving a gap.
func (a *Analyzer) Terms(text string) []string {
	fields := strings.Fields(text)
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		term, ok := a.replacements[field]
		if !ok {
			term = normalize(field)
		}
		if term == "" {
			continue
		}
		if _, isStop := a.stop[term]; isStop {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

// normalize lowercases a token and strips everything but letters and digits.
func normalize(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	for _, r := range strings.ToLower(token) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
