package frnum

import "golang.org/x/text/unicode/norm"

// Kind is the role a word plays inside a French numeral.
type Kind int

const (
	// KindNone marks a word that is not part of the lexicon.
	KindNone Kind = iota

	// KindUnit is an additive value between 0 and 60.
	KindUnit

	// KindMultiplier is cent(s), mille, million(s) or milliard(s).
	KindMultiplier

	// KindConnector is the conjunction "et" ("vingt et un").
	KindConnector

	// KindVingts is the plural "vingts", only meaningful after "quatre".
	KindVingts
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnit:
		return "unit"
	case KindMultiplier:
		return "multiplier"
	case KindConnector:
		return "connector"
	case KindVingts:
		return "vingts"
	default:
		return "unknown"
	}
}

const (
	wordEt     = "et"
	wordQuatre = "quatre"
	wordVingt  = "vingt"
	wordVingts = "vingts"
	wordCent   = "cent"
	wordCents  = "cents"
)

// units maps additive number words to their value.
var units = map[string]int64{
	"zéro":      0,
	"un":        1,
	"une":       1,
	"deux":      2,
	"trois":     3,
	"quatre":    4,
	"cinq":      5,
	"six":       6,
	"sept":      7,
	"huit":      8,
	"neuf":      9,
	"dix":       10,
	"onze":      11,
	"douze":     12,
	"treize":    13,
	"quatorze":  14,
	"quinze":    15,
	"seize":     16,
	"dix-sept":  17,
	"dix-huit":  18,
	"dix-neuf":  19,
	"vingt":     20,
	"trente":    30,
	"quarante":  40,
	"cinquante": 50,
	"soixante":  60,
}

// multipliers maps scaling words to their factor. cent(s) multiplies the
// group in progress; the others fold the group into the running total.
var multipliers = map[string]int64{
	"cent":      100,
	"cents":     100,
	"mille":     1_000,
	"million":   1_000_000,
	"millions":  1_000_000,
	"milliard":  1_000_000_000,
	"milliards": 1_000_000_000,
}

// Classify reports the role of word in a French numeral and, for units and
// multipliers, its value. "vingts" reports 20. Words outside the lexicon
// return [KindNone] and 0.
//
// The lookup is case-sensitive. Decomposed accents (NFD, "e" followed by
// U+0301) are composed before matching.
func Classify(word string) (Kind, int64) {
	return classify(normalize(word))
}

// IsNumberWord reports whether word is in the lexicon, including "et" and
// "vingts".
func IsNumberWord(word string) bool {
	k, _ := Classify(word)
	return k != KindNone
}

// classify is [Classify] for an already-normalised word.
func classify(w string) (Kind, int64) {
	if v, ok := units[w]; ok {
		return KindUnit, v
	}
	if v, ok := multipliers[w]; ok {
		return KindMultiplier, v
	}
	switch w {
	case wordEt:
		return KindConnector, 0
	case wordVingts:
		return KindVingts, 20
	}
	return KindNone, 0
}

// normalize returns word in Unicode NFC. Already-composed input, which is
// what nearly every STT engine emits, is returned without allocating.
func normalize(word string) string {
	if norm.NFC.IsNormalString(word) {
		return word
	}
	return norm.NFC.String(word)
}
