// Package types defines the shared types used across dictee packages.
//
// They form the lingua franca between the transport layer (CLI, HTTP,
// WebSocket), the post-processing pipeline and the journal. Each package
// defines its own domain types; cross-cutting data structures live here to
// avoid circular imports.
package types

import "time"

// Transcript is one dictated utterance as delivered by the speech-to-text
// engine, before any post-processing.
type Transcript struct {
	// Text is the raw transcribed text, typically lower-case words separated
	// by single spaces.
	Text string

	// IsFinal indicates whether this is a final (authoritative) or partial
	// (interim) transcript. Partial results are processed the same way but
	// are never written to the journal.
	IsFinal bool

	// Confidence is the overall confidence score (0.0–1.0). Zero when the
	// engine does not report it.
	Confidence float64

	// Words contains per-word detail when the engine provides it (Vosk,
	// whisper.cpp with word timestamps). May be nil.
	Words []WordDetail

	// SessionID groups utterances from the same dictation session. Optional.
	SessionID string

	// Timestamp marks when the utterance started, relative to session start.
	Timestamp time.Duration

	// Duration is the length of the utterance.
	Duration time.Duration
}

// WordDetail holds per-word metadata from engines that support it.
type WordDetail struct {
	Word       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}
