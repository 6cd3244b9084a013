package journal_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/dictee/internal/resilience"
	"github.com/MrWong99/dictee/pkg/journal"
	"github.com/MrWong99/dictee/pkg/journal/mock"
)

func TestRecorder_Record(t *testing.T) {
	t.Parallel()

	store := &mock.Store{}
	rec := journal.NewRecorder(store)

	if ok := rec.Record(context.Background(), journal.Entry{SessionID: "s1", RawText: "vingt et un", Text: "21", Edits: 1}); !ok {
		t.Fatal("Record() = false, want true")
	}
	got := store.Entries()
	if len(got) != 1 {
		t.Fatalf("entries = %d, want 1", len(got))
	}
	if got[0].ID != 1 || got[0].Text != "21" || got[0].CreatedAt.IsZero() {
		t.Errorf("entry = %+v, want ID 1, text 21 and a timestamp", got[0])
	}
}

func TestRecorder_FailureCallsHook(t *testing.T) {
	t.Parallel()

	store := &mock.Store{WriteErr: errors.New("disk full")}

	var (
		mu  sync.Mutex
		ops []string
	)
	rec := journal.NewRecorder(store, journal.WithErrorHook(func(_ context.Context, op string, _ error) {
		mu.Lock()
		defer mu.Unlock()
		ops = append(ops, op)
	}))

	if ok := rec.Record(context.Background(), journal.Entry{Text: "x"}); ok {
		t.Error("Record() = true, want false")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(ops) != 1 || ops[0] != "write" {
		t.Errorf("hook ops = %v, want [write]", ops)
	}
}

func TestRecorder_CanceledContextIsNotAnError(t *testing.T) {
	t.Parallel()

	store := &mock.Store{}
	hooked := false
	rec := journal.NewRecorder(store,
		journal.WithBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "journal"})),
		journal.WithErrorHook(func(context.Context, string, error) { hooked = true }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if ok := rec.Record(ctx, journal.Entry{Text: "x"}); ok {
		t.Error("Record() = true on canceled context")
	}
	if hooked {
		t.Error("error hook called for a canceled context")
	}
	if n := store.CallCount("Write"); n != 0 {
		t.Errorf("Write calls = %d, want 0", n)
	}
}

func TestRecorder_BreakerStopsCallingStore(t *testing.T) {
	t.Parallel()

	store := &mock.Store{WriteErr: errors.New("connection refused")}
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:         "journal",
		MaxFailures:  2,
		ResetTimeout: time.Hour,
	})
	rec := journal.NewRecorder(store, journal.WithBreaker(cb))

	for range 5 {
		rec.Record(context.Background(), journal.Entry{Text: "x"})
	}
	if n := store.CallCount("Write"); n != 2 {
		t.Errorf("Write calls = %d, want 2 (breaker should open after 2 failures)", n)
	}
	if cb.State() != resilience.StateOpen {
		t.Errorf("breaker state = %s, want open", cb.State())
	}
}

func TestRecorder_PingBypassesBreaker(t *testing.T) {
	t.Parallel()

	store := &mock.Store{PingErr: errors.New("down")}
	rec := journal.NewRecorder(store)
	if err := rec.Ping(context.Background()); err == nil {
		t.Error("Ping() = nil, want store error")
	}
}

func TestMockStore_RecentAndSearch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &mock.Store{}
	for _, e := range []journal.Entry{
		{SessionID: "a", Text: "Bonjour."},
		{SessionID: "b", Text: "il y a 21 chats."},
		{SessionID: "a", Text: "21 CHATS encore"},
	} {
		if _, err := store.Write(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	recent, _ := store.Recent(ctx, "a", 10)
	if len(recent) != 2 || recent[0].Text != "21 CHATS encore" {
		t.Errorf("Recent(a) = %+v, want newest first from session a", recent)
	}
	found, _ := store.Search(ctx, "chats", 1)
	if len(found) != 1 || found[0].ID != 3 {
		t.Errorf("Search(chats, 1) = %+v, want entry 3", found)
	}
}

func TestRecorder_RecentAndSearch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &mock.Store{}
	rec := journal.NewRecorder(store)
	rec.Record(ctx, journal.Entry{SessionID: "a", Text: "note : 3"})
	rec.Record(ctx, journal.Entry{SessionID: "b", Text: "il y a 21 chats."})

	recent, err := rec.Recent(ctx, "b", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].SessionID != "b" {
		t.Errorf("Recent(b) = %+v, want the session b entry", recent)
	}

	found, err := rec.Search(ctx, "note", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 1 || found[0].Text != "note : 3" {
		t.Errorf("Search(note) = %+v, want one entry", found)
	}
	if n := store.CallCount("Search"); n != 1 {
		t.Errorf("Search calls = %d, want 1", n)
	}
}

func TestRecorder_ReadFailureReturnsError(t *testing.T) {
	t.Parallel()

	store := &mock.Store{RecentErr: errors.New("timeout"), SearchErr: errors.New("timeout")}

	var (
		mu  sync.Mutex
		ops []string
	)
	rec := journal.NewRecorder(store, journal.WithErrorHook(func(_ context.Context, op string, _ error) {
		mu.Lock()
		defer mu.Unlock()
		ops = append(ops, op)
	}))

	if _, err := rec.Recent(context.Background(), "", 10); err == nil {
		t.Error("Recent() error = nil, want store error")
	}
	if _, err := rec.Search(context.Background(), "x", 10); err == nil {
		t.Error("Search() error = nil, want store error")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(ops) != 2 || ops[0] != "recent" || ops[1] != "search" {
		t.Errorf("hook ops = %v, want [recent search]", ops)
	}
}
