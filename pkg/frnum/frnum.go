// Package frnum converts spoken French number words into digits.
//
// It is the numeric core of the dictation post-processor and has three
// layers, each usable on its own:
//
//   - [Classify] and [IsNumberWord] look a single word up in the static
//     French lexicon (units 0–60, the multipliers cent/mille/million/milliard
//     and the connector "et").
//   - [Parse] turns an ordered sequence of number words into the integer it
//     denotes, handling multiplicative groups ("deux mille cinq cents") and
//     the "quatre-vingt(s)" irregularity.
//   - [Convert] scans free text, collapses each maximal run of number words
//     into a single digit token and leaves everything else untouched.
//
// Every function here is total: there is no error path. Unexpected word
// orders inside a run still produce a non-negative integer, and text that
// contains no number words is returned unchanged.
//
// Only the words listed in the lexicon are recognised. 70–79 and 90–99 are
// built compositionally ("soixante-dix" = 60+10, "quatre-vingt-dix" = 80+10)
// and "soixante et onze" relies on the "et" connector rule.
//
// All functions are safe for concurrent use; the lexicon tables are
// read-only after package initialisation.
package frnum

// Conversion records one number run replaced by [ConvertDetailed].
type Conversion struct {
	// Words are the number sub-words fed to [Parse], in input order.
	// Hyphenated tokens appear split ("quatre-vingts" → "quatre", "vingts").
	Words []string

	// Value is the integer emitted in place of Words.
	Value int64
}
