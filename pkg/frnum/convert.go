package frnum

import (
	"slices"
	"strconv"
	"strings"
)

// Convert replaces every run of French number words in text with its value
// in digits and returns the result.
//
//	Convert("il y a vingt et un chats") == "il y a 21 chats"
//	Convert("quatre-vingt-dix-neuf")    == "99"
//	Convert("chat et chien")            == "chat et chien"
//
// text is split on single spaces. A token belongs to a run when every
// non-empty part of it, split on "-", is a number word, so compounds such as
// "quatre-vingt-dix" reach [Parse] as separate words. A lone "et" joins a run
// only when a number is already in progress and the next token starts with
// "un", "une" or "onze"; otherwise it is ordinary prose. Tokens that are not
// part of a run are emitted verbatim and the output is re-joined with single
// spaces, so text without number words comes back unchanged.
func Convert(text string) string {
	out, _ := convert(text, false)
	return out
}

// ConvertDetailed is [Convert] that additionally reports each replaced run,
// in order of appearance.
func ConvertDetailed(text string) (string, []Conversion) {
	return convert(text, true)
}

func convert(text string, detailed bool) (string, []Conversion) {
	tokens := strings.Split(text, " ")
	out := make([]string, 0, len(tokens))

	var (
		run         []string
		conversions []Conversion
	)

	flush := func() {
		if len(run) == 0 {
			return
		}
		v := Parse(run)
		out = append(out, strconv.FormatInt(v, 10))
		if detailed {
			conversions = append(conversions, Conversion{Words: slices.Clone(run), Value: v})
		}
		run = run[:0]
	}

	for i, tok := range tokens {
		parts, ok := numberParts(tok)
		if !ok {
			flush()
			out = append(out, tok)
			continue
		}

		if len(parts) == 1 && normalize(parts[0]) == wordEt && tok == parts[0] {
			if len(run) > 0 && i+1 < len(tokens) && startsConnectedUnit(tokens[i+1]) {
				run = append(run, parts[0])
				continue
			}
			flush()
			out = append(out, tok)
			continue
		}

		run = append(run, parts...)
	}
	flush()

	return strings.Join(out, " "), conversions
}

// numberParts splits tok on "-" and returns its non-empty parts when all of
// them are number words. Tokens without any non-empty part ("", "-") are not
// numbers.
func numberParts(tok string) ([]string, bool) {
	if tok == "" {
		return nil, false
	}
	var parts []string
	for p := range strings.SplitSeq(tok, "-") {
		if p == "" {
			continue
		}
		if !IsNumberWord(p) {
			return nil, false
		}
		parts = append(parts, p)
	}
	return parts, len(parts) > 0
}

// startsConnectedUnit reports whether tok begins with one of the words that
// may follow a connecting "et": un, une, onze.
func startsConnectedUnit(tok string) bool {
	first, _, _ := strings.Cut(tok, "-")
	switch normalize(first) {
	case "un", "une", "onze":
		return true
	}
	return false
}
