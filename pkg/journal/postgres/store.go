package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/dictee/pkg/journal"
)

var _ journal.Store = (*Store)(nil)

// Store is the PostgreSQL journal. It is safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database at dsn, verifies the connection and runs
// [Migrate].
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("journal store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("journal store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("journal store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("journal store: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases all pooled connections.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping implements [journal.Store].
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("journal store: ping: %w", err)
	}
	return nil
}

// Write implements [journal.Store].
func (s *Store) Write(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	const q = `
		INSERT INTO dictation_entries (session_id, raw_text, text, edits, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
		RETURNING id, created_at`

	var createdAt *time.Time
	if !e.CreatedAt.IsZero() {
		createdAt = &e.CreatedAt
	}

	if err := s.pool.QueryRow(ctx, q, e.SessionID, e.RawText, e.Text, e.Edits, createdAt).Scan(&e.ID, &e.CreatedAt); err != nil {
		return journal.Entry{}, fmt.Errorf("journal store: write: %w", err)
	}
	return e, nil
}

// Recent implements [journal.Store]. A non-positive limit returns every
// matching entry.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]journal.Entry, error) {
	const q = `
		SELECT id, session_id, raw_text, text, edits, created_at
		FROM   dictation_entries
		WHERE  ($1 = '' OR session_id = $1)
		ORDER  BY created_at DESC, id DESC
		LIMIT  $2`

	rows, err := s.pool.Query(ctx, q, sessionID, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("journal store: recent: %w", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("journal store: recent: %w", err)
	}
	return entries, nil
}

// Search implements [journal.Store]. query is matched literally; LIKE
// wildcards in it have no special meaning.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]journal.Entry, error) {
	const q = `
		SELECT id, session_id, raw_text, text, edits, created_at
		FROM   dictation_entries
		WHERE  text ILIKE $1 ESCAPE '\'
		ORDER  BY created_at DESC, id DESC
		LIMIT  $2`

	rows, err := s.pool.Query(ctx, q, "%"+escapeLike(query)+"%", limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("journal store: search: %w", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("journal store: search: %w", err)
	}
	return entries, nil
}

// limitArg maps a non-positive limit to NULL, which LIMIT treats as no limit.
func limitArg(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// collectEntries scans rows into entries. It returns an empty slice, not nil,
// when there are no rows.
func collectEntries(rows pgx.Rows) ([]journal.Entry, error) {
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (journal.Entry, error) {
		var e journal.Entry
		err := row.Scan(&e.ID, &e.SessionID, &e.RawText, &e.Text, &e.Edits, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return entries, nil
}
