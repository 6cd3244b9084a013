// Package mock provides an in-memory test double for [journal.Store].
//
// The mock records every method call for assertion in tests and exposes
// exported fields that control what it returns. Written entries are kept so
// Recent and Search behave like a real store unless a result is preset.
//
//	store := &mock.Store{}
//	rec := journal.NewRecorder(store)
//	rec.Record(ctx, journal.Entry{Text: "21 chats."})
//
//	if got := store.CallCount("Write"); got != 1 {
//	    t.Errorf("expected 1 Write call, got %d", got)
//	}
package mock

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MrWong99/dictee/pkg/journal"
)

// Call records the name and arguments of a single method invocation.
type Call struct {
	// Method is the name of the interface method that was called.
	Method string

	// Args holds the non-context arguments passed to the method, in order.
	Args []any
}

// Store is a configurable test double for [journal.Store]. It is safe for
// concurrent use.
type Store struct {
	mu sync.Mutex

	calls   []Call
	entries []journal.Entry

	// WriteErr is returned by [Store.Write] when non-nil; the entry is not kept.
	WriteErr error

	// RecentErr is returned by [Store.Recent] when non-nil.
	RecentErr error

	// SearchErr is returned by [Store.Search] when non-nil.
	SearchErr error

	// PingErr is returned by [Store.Ping].
	PingErr error
}

// Calls returns a copy of all recorded method invocations.
func (m *Store) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount returns how many times the named method was invoked.
func (m *Store) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Entries returns a copy of the successfully written entries, oldest first.
func (m *Store) Entries() []journal.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

// Write implements [journal.Store].
func (m *Store) Write(_ context.Context, e journal.Entry) (journal.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "Write", Args: []any{e}})
	if m.WriteErr != nil {
		return journal.Entry{}, m.WriteErr
	}
	e.ID = int64(len(m.entries) + 1)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.entries = append(m.entries, e)
	return e, nil
}

// Recent implements [journal.Store].
func (m *Store) Recent(_ context.Context, sessionID string, limit int) ([]journal.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "Recent", Args: []any{sessionID, limit}})
	if m.RecentErr != nil {
		return nil, m.RecentErr
	}
	return m.newest(limit, func(e journal.Entry) bool {
		return sessionID == "" || e.SessionID == sessionID
	}), nil
}

// Search implements [journal.Store].
func (m *Store) Search(_ context.Context, query string, limit int) ([]journal.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "Search", Args: []any{query, limit}})
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	q := strings.ToLower(query)
	return m.newest(limit, func(e journal.Entry) bool {
		return strings.Contains(strings.ToLower(e.Text), q)
	}), nil
}

// Ping implements [journal.Store].
func (m *Store) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: "Ping"})
	return m.PingErr
}

// newest walks entries from the most recent one. Caller holds m.mu.
func (m *Store) newest(limit int, keep func(journal.Entry) bool) []journal.Entry {
	out := []journal.Entry{}
	for i := len(m.entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if keep(m.entries[i]) {
			out = append(out, m.entries[i])
		}
	}
	return out
}

var _ journal.Store = (*Store)(nil)
