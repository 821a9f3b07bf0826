package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fsql/internal/domain"
)

// RecentsRepo remembers recently attached folders across restarts.
type RecentsRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewRecentsRepo creates a RecentsRepo on the write/read pool pair.
func NewRecentsRepo(write, read *sql.DB) *RecentsRepo {
	return &RecentsRepo{write: write, read: read}
}

func (r *RecentsRepo) Touch(ctx context.Context, path string) error {
	_, err := r.write.ExecContext(ctx,
		`INSERT INTO recent_databases (path, last_used_at) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET last_used_at = excluded.last_used_at`,
		path, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("touch recent: %w", err)
	}
	return nil
}

func (r *RecentsRepo) List(ctx context.Context, limit int) ([]domain.RecentDatabase, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.read.QueryContext(ctx,
		`SELECT path, last_used_at FROM recent_databases ORDER BY last_used_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recents: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.RecentDatabase
	for rows.Next() {
		var rd domain.RecentDatabase
		if err := rows.Scan(&rd.Path, &rd.LastUsedAt); err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}
