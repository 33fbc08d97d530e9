package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteQuotaStore implements QuotaStore using SQLite.
type SQLiteQuotaStore struct {
	db *sql.DB
}

// NewSQLiteQuotaStore creates a SQLite-backed quota store, creating the
// data directory and schema as needed.
func NewSQLiteQuotaStore(dsn string) (*SQLiteQuotaStore, error) {
	if dsn == "" {
		dsn = "data/bloomfeed.db"
	}

	if dsn != ":memory:" {
		dir := filepath.Dir(dsn)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := migrateSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteQuotaStore{db: db}, nil
}

func migrateSQLite(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS viewer_reads (
			viewer_id TEXT NOT NULL,
			day TEXT NOT NULL,
			card_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (viewer_id, day, card_id)
		);
		CREATE INDEX IF NOT EXISTS idx_viewer_reads_recent ON viewer_reads (viewer_id, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	return nil
}

// Get returns the viewer's read state for the given day.
func (s *SQLiteQuotaStore) Get(ctx context.Context, viewerID, day string) (QuotaState, error) {
	state := QuotaState{Day: day}

	rows, err := s.db.QueryContext(ctx, `
		SELECT card_id FROM viewer_reads
		WHERE viewer_id = ? AND day = ?
		ORDER BY created_at ASC`, viewerID, day)
	if err != nil {
		return state, fmt.Errorf("query reads: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return state, fmt.Errorf("scan read: %w", err)
		}
		state.ReadIDs = append(state.ReadIDs, id)
	}
	if err := rows.Err(); err != nil {
		return state, err
	}

	state.ReadCount = len(state.ReadIDs)
	return state, nil
}

// RecordRead marks a card as read. The primary key makes repeats no-ops
// and keeps the day's count monotonic under concurrent requests.
func (s *SQLiteQuotaStore) RecordRead(ctx context.Context, viewerID, cardID, day string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO viewer_reads (viewer_id, day, card_id)
		VALUES (?, ?, ?)`, viewerID, day, cardID)
	if err != nil {
		return fmt.Errorf("record read: %w", err)
	}
	return nil
}

// RecentReads returns the viewer's most recent reads across days,
// newest first.
func (s *SQLiteQuotaStore) RecentReads(ctx context.Context, viewerID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT card_id FROM viewer_reads
		WHERE viewer_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent reads: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recent read: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteQuotaStore) Close() error {
	return s.db.Close()
}
