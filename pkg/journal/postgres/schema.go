// Package postgres provides a PostgreSQL-backed [journal.Store].
//
// All operations share a single [pgxpool.Pool]. [NewStore] runs [Migrate] so
// the table exists before the first write.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer store.Close()
//
//	e, _ := store.Write(ctx, journal.Entry{RawText: "vingt et un", Text: "21"})
//	recent, _ := store.Recent(ctx, "", 20)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlDictationEntries = `
CREATE TABLE IF NOT EXISTS dictation_entries (
    id          BIGSERIAL    PRIMARY KEY,
    session_id  TEXT         NOT NULL DEFAULT '',
    raw_text    TEXT         NOT NULL,
    text        TEXT         NOT NULL,
    edits       INT          NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_dictation_entries_session_id
    ON dictation_entries (session_id);

CREATE INDEX IF NOT EXISTS idx_dictation_entries_created_at
    ON dictation_entries (created_at DESC);
`

// Migrate creates the journal table and its indexes if they do not exist.
// It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlDictationEntries); err != nil {
		return fmt.Errorf("journal migrate: dictation_entries: %w", err)
	}
	return nil
}
