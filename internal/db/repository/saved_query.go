package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fsql/internal/domain"
)

// SavedQueryRepo persists named SQL scripts.
type SavedQueryRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewSavedQueryRepo creates a SavedQueryRepo on the write/read pool pair.
func NewSavedQueryRepo(write, read *sql.DB) *SavedQueryRepo {
	return &SavedQueryRepo{write: write, read: read}
}

func (r *SavedQueryRepo) Create(ctx context.Context, q *domain.SavedQuery) error {
	_, err := r.write.ExecContext(ctx,
		`INSERT INTO saved_queries (id, name, sql_text, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		q.ID, q.Name, q.SQL, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict("a saved query named %q already exists", q.Name)
		}
		return fmt.Errorf("create saved query: %w", err)
	}
	return nil
}

func (r *SavedQueryRepo) Update(ctx context.Context, q *domain.SavedQuery) error {
	res, err := r.write.ExecContext(ctx,
		`UPDATE saved_queries SET name = ?, sql_text = ?, updated_at = ? WHERE id = ?`,
		q.Name, q.SQL, q.UpdatedAt, q.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict("a saved query named %q already exists", q.Name)
		}
		return fmt.Errorf("update saved query: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("saved query %s not found", q.ID)
	}
	return nil
}

func (r *SavedQueryRepo) GetByID(ctx context.Context, id string) (*domain.SavedQuery, error) {
	var q domain.SavedQuery
	err := r.read.QueryRowContext(ctx,
		`SELECT id, name, sql_text, created_at, updated_at FROM saved_queries WHERE id = ?`, id).
		Scan(&q.ID, &q.Name, &q.SQL, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("saved query %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get saved query: %w", err)
	}
	return &q, nil
}

func (r *SavedQueryRepo) List(ctx context.Context) ([]domain.SavedQuery, error) {
	rows, err := r.read.QueryContext(ctx,
		`SELECT id, name, sql_text, created_at, updated_at FROM saved_queries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list saved queries: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.SavedQuery
	for rows.Next() {
		var q domain.SavedQuery
		if err := rows.Scan(&q.ID, &q.Name, &q.SQL, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *SavedQueryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.write.ExecContext(ctx, `DELETE FROM saved_queries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete saved query: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("saved query %s not found", id)
	}
	return nil
}

// isUniqueViolation detects SQLite unique constraint errors without binding
// to driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
