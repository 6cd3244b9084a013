// Package phonetic snaps misheard dictation words onto a user vocabulary.
//
// Dictation engines are trained on everyday French and routinely mangle
// product names, acronyms and jargon ("kubernetis", "post gré"). A [Matcher]
// compares a spoken word or short phrase with every vocabulary term in two
// passes:
//
//  1. Phonetic candidates: Double Metaphone codes of the input tokens are
//     compared with the codes of the term's tokens. Any shared code makes the
//     term a candidate, accepted when its Jaro-Winkler similarity reaches the
//     phonetic threshold (default 0.70).
//  2. Fuzzy fallback: when no phonetic candidate exists, a term is accepted
//     on Jaro-Winkler similarity alone at a stricter threshold (default 0.85).
//
// Vocabulary terms are encoded once into an [Index], which the pipeline
// builds at construction time and reuses for every utterance.
package phonetic

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85

	// minRunes is the shortest input considered for matching. Shorter words
	// ("le", "de", "un") match too much by accident.
	minRunes = 3
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a term that
// shares a phonetic code with the input. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		if threshold > 0 {
			m.phoneticThreshold = threshold
		}
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score for a term with no
// phonetic overlap. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		if threshold > 0 {
			m.fuzzyThreshold = threshold
		}
	}
}

// Matcher ranks vocabulary terms by pronunciation and spelling similarity.
// It is read-only after construction and safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a [Matcher] configured with opts.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// term is one vocabulary entry with its precomputed comparison data.
type term struct {
	display string
	lower   string
	tokens  []string
	joined  string
	codes   map[string]struct{}
}

// Index is a vocabulary prepared for repeated matching.
// It is immutable and safe for concurrent use.
type Index struct {
	terms    []term
	maxWords int
}

// NewIndex encodes vocabulary for matching. Blank entries are dropped;
// duplicates (case-insensitive) keep their first spelling.
func NewIndex(vocabulary []string) *Index {
	idx := &Index{}
	seen := make(map[string]struct{}, len(vocabulary))
	for _, v := range vocabulary {
		display := strings.TrimSpace(v)
		lower := strings.ToLower(display)
		if lower == "" {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}

		tokens := strings.Fields(lower)
		idx.terms = append(idx.terms, term{
			display: display,
			lower:   lower,
			tokens:  tokens,
			joined:  strings.Join(tokens, ""),
			codes:   codesForTokens(tokens),
		})
		if len(tokens) > idx.maxWords {
			idx.maxWords = len(tokens)
		}
	}
	return idx
}

// Len returns the number of distinct vocabulary terms.
func (idx *Index) Len() int { return len(idx.terms) }

// MaxWords returns the word count of the longest term, or 0 for an empty
// index. Callers use it to size their n-gram windows.
func (idx *Index) MaxWords() int { return idx.maxWords }

// Match finds the vocabulary term most similar to word, which may be a
// single word or a space-separated phrase. It builds a throwaway [Index];
// use [Matcher.MatchIndex] when matching many inputs against the same list.
//
// When matched is false, corrected equals word and confidence is 0.
func (m *Matcher) Match(word string, vocabulary []string) (corrected string, confidence float64, matched bool) {
	return m.MatchIndex(word, NewIndex(vocabulary))
}

// MatchIndex is [Matcher.Match] against a prepared [Index].
func (m *Matcher) MatchIndex(word string, idx *Index) (corrected string, confidence float64, matched bool) {
	lower := strings.ToLower(strings.TrimSpace(word))
	if idx == nil || len(idx.terms) == 0 || utf8.RuneCountInString(lower) < minRunes {
		return word, 0, false
	}

	tokens := strings.Fields(lower)
	inputCodes := codesForTokens(tokens)
	joined := strings.Join(tokens, "")

	var (
		best         *term
		bestScore    float64
		bestPhonetic bool
	)
	for i := range idx.terms {
		t := &idx.terms[i]
		score := similarity(tokens, t.tokens, lower, t.lower, joined, t.joined)

		if overlaps(inputCodes, t.codes) {
			if score >= m.phoneticThreshold && (!bestPhonetic || score > bestScore) {
				best, bestScore, bestPhonetic = t, score, true
			}
			continue
		}
		if !bestPhonetic && score >= m.fuzzyThreshold && score > bestScore {
			best, bestScore = t, score
		}
	}

	if best == nil {
		return word, 0, false
	}
	return best.display, bestScore, true
}

// codesForTokens returns the union of the Double Metaphone codes of tokens,
// skipping the empty codes produced by vowel-only words.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		primary, secondary := matchr.DoubleMetaphone(t)
		if primary != "" {
			codes[primary] = struct{}{}
		}
		if secondary != "" {
			codes[secondary] = struct{}{}
		}
	}
	return codes
}

func overlaps(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// similarity is the best Jaro-Winkler score over three views of the input and
// the term: the full lower-cased strings, the strings with spaces removed
// ("post gres" vs "postgres"), and the best single token pair.
func similarity(inTokens, termTokens []string, in, t, inJoined, termJoined string) float64 {
	score := matchr.JaroWinkler(in, t, false)

	if len(inTokens) > 1 || len(termTokens) > 1 {
		if s := matchr.JaroWinkler(inJoined, termJoined, false); s > score {
			score = s
		}
	}

	for _, a := range inTokens {
		for _, b := range termTokens {
			if s := matchr.JaroWinkler(a, b, false); s > score {
				score = s
			}
		}
	}
	return score
}
