// Package savedquery manages named SQL scripts stored in the metastore.
package savedquery

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"fsql/internal/domain"
)

// Service validates and persists saved queries.
type Service struct {
	repo domain.SavedQueryRepository
}

// New creates a saved query Service.
func New(repo domain.SavedQueryRepository) *Service {
	return &Service{repo: repo}
}

// Create stores a new named script.
func (s *Service) Create(ctx context.Context, name, sqlText string) (*domain.SavedQuery, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrValidation("name is required")
	}
	if strings.TrimSpace(sqlText) == "" {
		return nil, domain.ErrValidation("sql is required")
	}
	now := time.Now().UTC()
	q := &domain.SavedQuery{
		ID:        uuid.NewString(),
		Name:      name,
		SQL:       sqlText,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Update renames or rewrites an existing saved query. Empty fields keep
// their current value.
func (s *Service) Update(ctx context.Context, id, name, sqlText string) (*domain.SavedQuery, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		q.Name = name
	}
	if strings.TrimSpace(sqlText) != "" {
		q.SQL = sqlText
	}
	q.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Get returns one saved query by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.SavedQuery, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all saved queries in name order.
func (s *Service) List(ctx context.Context) ([]domain.SavedQuery, error) {
	return s.repo.List(ctx)
}

// Delete removes a saved query.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
