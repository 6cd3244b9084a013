// Package phrase applies ordered literal find/replace rules to dictated text.
//
// Dictation engines transcribe punctuation as words ("point d'interrogation",
// "virgule"). A [Rules] list rewrites them into the literal characters. Rules
// are applied strictly in order with plain substring replacement, so a later
// rule sees the output of every earlier one. That ordering is what lets
// " point d'interrogation" win over the shorter " point".
//
// The French defaults are split in three lists that bracket the number
// conversion step:
//
//   - [DefaultPre] runs before numbers are converted. It holds every phrase
//     that contains a number word ("deux points") or that would otherwise be
//     swallowed by a number run.
//   - [DefaultPost] runs after conversion and glues simple punctuation to the
//     preceding word.
//   - [DefaultCleanup] removes stray spaces left around the inserted signs.
package phrase

import (
	"fmt"
	"strings"
)

// Rule replaces every occurrence of From with To.
type Rule struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Rules is an ordered list of replacements.
type Rules []Rule

// Match reports a rule that changed the text and how many times it fired.
type Match struct {
	Rule  Rule
	Count int
}

// Apply runs every rule over text in order and returns the result.
func (rs Rules) Apply(text string) string {
	for _, r := range rs {
		if r.From == "" {
			continue
		}
		text = strings.ReplaceAll(text, r.From, r.To)
	}
	return text
}

// ApplyDetailed is [Rules.Apply] that also reports which rules fired.
// Counts are taken against the text as each rule sees it.
func (rs Rules) ApplyDetailed(text string) (string, []Match) {
	var matches []Match
	for _, r := range rs {
		if r.From == "" {
			continue
		}
		n := strings.Count(text, r.From)
		if n == 0 {
			continue
		}
		text = strings.ReplaceAll(text, r.From, r.To)
		matches = append(matches, Match{Rule: r, Count: n})
	}
	return text, matches
}

// Concat returns a new list holding the rules of every argument in order.
func Concat(lists ...Rules) Rules {
	var n int
	for _, l := range lists {
		n += len(l)
	}
	out := make(Rules, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// Validate returns an error for rules with an empty From, which would never
// fire and almost always indicate a typo in a rule file.
func (rs Rules) Validate() error {
	for i, r := range rs {
		if r.From == "" {
			return fmt.Errorf("phrase: rule %d has an empty \"from\" (to=%q)", i, r.To)
		}
	}
	return nil
}
