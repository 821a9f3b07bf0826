// Package repository implements the metastore persistence interfaces on the
// SQLite write/read pool pair.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"fsql/internal/domain"
)

// HistoryRepo persists executed scripts.
type HistoryRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewHistoryRepo creates a HistoryRepo on the write/read pool pair.
func NewHistoryRepo(write, read *sql.DB) *HistoryRepo {
	return &HistoryRepo{write: write, read: read}
}

func (r *HistoryRepo) Insert(ctx context.Context, e *domain.HistoryEntry) error {
	_, err := r.write.ExecContext(ctx,
		`INSERT INTO query_history (id, sql_text, status, error, rows, duration_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SQL, e.Status, e.Error, e.Rows, e.DurationMs, e.StartedAt)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (r *HistoryRepo) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.read.QueryContext(ctx,
		`SELECT id, sql_text, status, error, rows, duration_ms, started_at
		 FROM query_history ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.SQL, &e.Status, &e.Error, &e.Rows, &e.DurationMs, &e.StartedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
