// Package transcript turns raw French dictation into written text.
//
// Speech-to-text engines such as Vosk emit lower-case words with no
// punctuation and every number spelled out. The [Pipeline] rewrites an
// utterance in a fixed sequence of stages:
//
//  1. Pre-number phrases ([phrase.DefaultPre]): punctuation phrases that
//     contain number words ("deux points") or would otherwise be swallowed
//     by a number run.
//  2. Vocabulary ([VocabularyMatcher]): optional. Snaps misheard words onto a
//     user-supplied term list.
//  3. Numbers ([frnum.Convert]): spelled-out numbers become digits.
//  4. Post-number phrases ([phrase.DefaultPost]): "point", "virgule" and
//     friends attach their sign to the preceding word.
//  5. Cleanup ([phrase.DefaultCleanup]): stray spaces around signs.
//
// Each [Edit] records which stage produced a substitution, so callers can
// audit, display, or selectively roll back changes.
package transcript

import (
	"context"

	"github.com/MrWong99/dictee/pkg/types"
)

// Well-known [Edit.Stage] values.
const (
	StagePhrase     = "phrase"
	StageVocabulary = "vocabulary"
	StageNumber     = "number"
)

// Edit captures a single substitution made by the pipeline.
type Edit struct {
	// Original is the text as the stage saw it.
	Original string

	// Replacement is what the stage wrote instead.
	Replacement string

	// Stage names the stage that produced the edit. See [StagePhrase],
	// [StageVocabulary] and [StageNumber].
	Stage string

	// Confidence is the stage's confidence in the edit (0.0–1.0). Phrase and
	// number edits are deterministic and always report 1.
	Confidence float64
}

// Result is the output of a [Processor.Process] call.
type Result struct {
	// Original is the transcript as received from the STT engine.
	Original types.Transcript

	// Text is the fully processed text.
	Text string

	// Edits lists every substitution in the order it was applied. An empty
	// (non-nil) slice means the text was left unchanged.
	Edits []Edit
}

// Processor post-processes a raw transcript.
//
// Implementations must be safe for concurrent use.
type Processor interface {
	// Process rewrites t.Text and returns a non-nil [Result] on success.
	// A cancelled ctx aborts between stages with ctx.Err().
	Process(ctx context.Context, t types.Transcript) (*Result, error)
}

// VocabularyMatcher resolves a word or short phrase to a known vocabulary
// term based on pronunciation similarity.
//
// Implementations must be safe for concurrent use.
type VocabularyMatcher interface {
	// Match finds the term from vocabulary most similar to word.
	//
	// When matched is false, corrected must equal word unchanged and
	// confidence must be 0.
	Match(word string, vocabulary []string) (corrected string, confidence float64, matched bool)
}
