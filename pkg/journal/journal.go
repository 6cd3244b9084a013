// Package journal keeps a durable record of finalised dictation utterances:
// the raw STT text next to the processed text and how many edits the
// pipeline made. The journal is optional and best-effort. A [Recorder]
// guards every write so that an unavailable store never fails the caller.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Entry is one journalled utterance.
type Entry struct {
	// ID is assigned by the store on write.
	ID int64

	// SessionID groups utterances from the same dictation session. May be empty.
	SessionID string

	// RawText is the transcript as the STT engine produced it.
	RawText string

	// Text is the post-processed output.
	Text string

	// Edits is the number of substitutions the pipeline made.
	Edits int

	// CreatedAt is set by the store when zero.
	CreatedAt time.Time
}

// Store persists journal entries.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Write appends e and returns it with ID and CreatedAt filled in.
	Write(ctx context.Context, e Entry) (Entry, error)

	// Recent returns up to limit entries, newest first. When sessionID is
	// non-empty only entries from that session are returned.
	Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error)

	// Search returns up to limit entries whose processed text contains query
	// (case-insensitive), newest first.
	Search(ctx context.Context, query string, limit int) ([]Entry, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// Breaker gates calls to an unreliable dependency.
// [github.com/MrWong99/dictee/internal/resilience.CircuitBreaker] satisfies it.
type Breaker interface {
	Execute(ctx context.Context, fn func(context.Context) error) error
}

// RecorderOption configures a [Recorder].
type RecorderOption func(*Recorder)

// WithBreaker routes every store write and read through b.
func WithBreaker(b Breaker) RecorderOption {
	return func(r *Recorder) { r.breaker = b }
}

// WithErrorHook registers fn to be called after a failed store call, e.g. to
// bump an error counter. op is the failed operation ("write", "recent" or
// "search").
func WithErrorHook(fn func(ctx context.Context, op string, err error)) RecorderOption {
	return func(r *Recorder) { r.onError = fn }
}

// Recorder writes utterances to a [Store] without ever surfacing an error to
// the caller. Failures are logged and reported to the error hook.
type Recorder struct {
	store   Store
	breaker Breaker
	onError func(ctx context.Context, op string, err error)
}

// NewRecorder returns a Recorder writing to store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record journals e. It reports whether the entry was stored.
func (r *Recorder) Record(ctx context.Context, e Entry) bool {
	err := r.call(ctx, "write", func(ctx context.Context) error {
		_, err := r.store.Write(ctx, e)
		return err
	})
	if err == nil {
		return true
	}
	if !errors.Is(err, context.Canceled) {
		slog.Warn("journal: write failed", "session_id", e.SessionID, "err", err)
	}
	return false
}

// Recent returns up to limit entries, newest first, optionally filtered by
// session. Unlike [Recorder.Record] it returns the store error.
func (r *Recorder) Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	var entries []Entry
	err := r.call(ctx, "recent", func(ctx context.Context) error {
		var err error
		entries, err = r.store.Recent(ctx, sessionID, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	return entries, nil
}

// Search returns up to limit entries whose text contains query, newest
// first.
func (r *Recorder) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	var entries []Entry
	err := r.call(ctx, "search", func(ctx context.Context) error {
		var err error
		entries, err = r.store.Search(ctx, query, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("journal: search: %w", err)
	}
	return entries, nil
}

// call runs fn through the breaker, if any, and reports failures other than
// cancellation to the error hook.
func (r *Recorder) call(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	if r.breaker != nil {
		err = r.breaker.Execute(ctx, fn)
	} else {
		err = fn(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) && r.onError != nil {
		r.onError(ctx, op, err)
	}
	return err
}

// Ping checks the underlying store. It bypasses the breaker so readiness
// probes see the real store state.
func (r *Recorder) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
