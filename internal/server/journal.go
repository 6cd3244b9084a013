package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/MrWong99/dictee/internal/observe"
	"github.com/MrWong99/dictee/pkg/journal"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 500
)

// JournalReader lists journalled utterances. [journal.Recorder] satisfies it.
type JournalReader interface {
	Recent(ctx context.Context, sessionID string, limit int) ([]journal.Entry, error)
	Search(ctx context.Context, query string, limit int) ([]journal.Entry, error)
}

type journalEntryPayload struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	RawText   string    `json:"raw_text"`
	Text      string    `json:"text"`
	Edits     int       `json:"edits"`
	CreatedAt time.Time `json:"created_at"`
}

type journalResponse struct {
	Entries []journalEntryPayload `json:"entries"`
}

// handleJournal serves GET /v1/journal. With q it searches the processed
// text; otherwise it lists the newest entries, optionally for one
// session_id. limit defaults to 50 and is capped at 500.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := defaultJournalLimit
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxJournalLimit)
	}

	var (
		entries []journal.Entry
		err     error
	)
	if q := query.Get("q"); q != "" {
		entries, err = s.journal.Search(r.Context(), q, limit)
	} else {
		entries, err = s.journal.Recent(r.Context(), query.Get("session_id"), limit)
	}
	if err != nil {
		if isCanceled(err) {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"})
			return
		}
		observe.Logger(r.Context()).Error("journal read failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "journal unavailable"})
		return
	}

	resp := journalResponse{Entries: make([]journalEntryPayload, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, journalEntryPayload{
			ID:        e.ID,
			SessionID: e.SessionID,
			RawText:   e.RawText,
			Text:      e.Text,
			Edits:     e.Edits,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
