package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresQuotaStore implements QuotaStore using PostgreSQL.
type PostgresQuotaStore struct {
	db *sql.DB
}

// NewPostgresQuotaStore creates a Postgres-backed quota store.
func NewPostgresQuotaStore(dsn string) (*PostgresQuotaStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migratePostgres(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresQuotaStore{db: db}, nil
}

func migratePostgres(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS viewer_reads (
			viewer_id TEXT NOT NULL,
			day TEXT NOT NULL,
			card_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (viewer_id, day, card_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_viewer_reads_recent ON viewer_reads (viewer_id, created_at DESC)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}
	return nil
}

// Get returns the viewer's read state for the given day.
func (s *PostgresQuotaStore) Get(ctx context.Context, viewerID, day string) (QuotaState, error) {
	state := QuotaState{Day: day}

	rows, err := s.db.QueryContext(ctx, `
		SELECT card_id FROM viewer_reads
		WHERE viewer_id = $1 AND day = $2
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

// RecordRead marks a card as read. ON CONFLICT DO NOTHING gives the
// atomic, idempotent increment concurrent same-viewer requests need.
func (s *PostgresQuotaStore) RecordRead(ctx context.Context, viewerID, cardID, day string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO viewer_reads (viewer_id, day, card_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (viewer_id, day, card_id) DO NOTHING`, viewerID, day, cardID)
	if err != nil {
		return fmt.Errorf("record read: %w", err)
	}
	return nil
}

// RecentReads returns the viewer's most recent reads across days,
// newest first.
func (s *PostgresQuotaStore) RecentReads(ctx context.Context, viewerID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT card_id FROM viewer_reads
		WHERE viewer_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, viewerID, limit)
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
func (s *PostgresQuotaStore) Close() error {
	return s.db.Close()
}
