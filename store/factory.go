package store

import (
	"fmt"
	"strings"
)

// NewQuotaStore creates a quota store based on the DSN.
//   - Empty DSN: SQLite at data/bloomfeed.db
//   - "memory": in-memory store
//   - postgres:// or postgresql://: PostgreSQL
//   - Anything else: SQLite at the specified path
func NewQuotaStore(dsn string) (QuotaStore, error) {
	if dsn == "" {
		return NewSQLiteQuotaStore("data/bloomfeed.db")
	}

	if dsn == "memory" {
		return NewMemoryQuotaStore(), nil
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		qs, err := NewPostgresQuotaStore(dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return qs, nil
	}

	return NewSQLiteQuotaStore(dsn)
}
