package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fsql/internal/domain"
)

// WriteLogRepo records file backups created before write-backs so the most
// recent write can be undone.
type WriteLogRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewWriteLogRepo creates a WriteLogRepo on the write/read pool pair.
func NewWriteLogRepo(write, read *sql.DB) *WriteLogRepo {
	return &WriteLogRepo{write: write, read: read}
}

func (r *WriteLogRepo) Insert(ctx context.Context, e *domain.WriteLogEntry) error {
	_, err := r.write.ExecContext(ctx,
		`INSERT INTO write_log (id, source_path, backup_path, operation, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.SourcePath, e.BackupPath, e.Operation, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert write log: %w", err)
	}
	return nil
}

// Latest returns the most recent entry, or nil when the log is empty.
func (r *WriteLogRepo) Latest(ctx context.Context) (*domain.WriteLogEntry, error) {
	var e domain.WriteLogEntry
	err := r.read.QueryRowContext(ctx,
		`SELECT id, source_path, backup_path, operation, created_at
		 FROM write_log ORDER BY created_at DESC, id DESC LIMIT 1`).
		Scan(&e.ID, &e.SourcePath, &e.BackupPath, &e.Operation, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest write log: %w", err)
	}
	return &e, nil
}

func (r *WriteLogRepo) Delete(ctx context.Context, id string) error {
	_, err := r.write.ExecContext(ctx, `DELETE FROM write_log WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete write log: %w", err)
	}
	return nil
}
