package main

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const savedSchema = `
CREATE TABLE IF NOT EXISTS saved_compliments (
    id          TEXT PRIMARY KEY,
    text        TEXT NOT NULL,
    created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_saved_created ON saved_compliments (created_at);
`

func setupSavedSchema(db *sql.DB) error {
	if _, err := db.Exec(savedSchema); err != nil {
		return err
	}
	return nil
}

// SavedCompliment is a compliment a user chose to keep.
type SavedCompliment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedStore keeps saved compliments in SQLite.
type SavedStore struct {
	db      *sql.DB
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewSavedStore(db *sql.DB) *SavedStore {
	return &SavedStore{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// newID returns a ULID. Ids made within the same millisecond still sort in
// creation order.
func (s *SavedStore) newID(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}

// Add stores texts in one transaction and returns the new rows.
func (s *SavedStore) Add(ctx context.Context, texts []string) ([]SavedCompliment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction for save: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO saved_compliments (id, text, created_at) VALUES (?, ?, ?);`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmt)

	saved := make([]SavedCompliment, 0, len(texts))
	for _, text := range texts {
		now := time.Now().UTC()
		row := SavedCompliment{ID: s.newID(now), Text: text, CreatedAt: now}
		if _, err = stmt.ExecContext(ctx, row.ID, row.Text, now.Format(time.RFC3339Nano)); err != nil {
			return nil, fmt.Errorf("failed to insert saved compliment: %w", err)
		}
		saved = append(saved, row)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

// List returns every saved compliment, oldest first.
func (s *SavedStore) List(ctx context.Context) ([]SavedCompliment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, created_at FROM saved_compliments ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	saved := make([]SavedCompliment, 0)
	for rows.Next() {
		var row SavedCompliment
		var createdAt string
		if err = rows.Scan(&row.ID, &row.Text, &createdAt); err != nil {
			return nil, err
		}
		row.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		saved = append(saved, row)
	}
	return saved, rows.Err()
}

// Clear deletes every saved compliment and returns how many were removed.
func (s *SavedStore) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_compliments;`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
