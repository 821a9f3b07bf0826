// Package workspace manages the set of attached folders and the recents
// list that survives restarts.
package workspace

import (
	"context"
	"log/slog"

	"fsql/internal/catalog"
	"fsql/internal/domain"
)

// Service wraps the catalog with recents bookkeeping.
type Service struct {
	cat     *catalog.Catalog
	recents domain.RecentsRepository
	log     *slog.Logger
}

// New creates a workspace Service. recents may be nil in local CLI mode.
func New(cat *catalog.Catalog, recents domain.RecentsRepository, log *slog.Logger) *Service {
	return &Service{cat: cat, recents: recents, log: log}
}

// Attach registers a folder's files and remembers the folder.
func (s *Service) Attach(ctx context.Context, path, alias string) (*domain.Database, error) {
	db, err := s.cat.Attach(ctx, path, alias)
	if err != nil {
		return nil, err
	}
	if s.recents != nil {
		if err := s.recents.Touch(ctx, db.Path); err != nil {
			s.log.Warn("recents update failed", "path", db.Path, "error", err)
		}
	}
	return db, nil
}

// Detach drops an attached folder.
func (s *Service) Detach(ctx context.Context, alias string) error {
	return s.cat.Detach(ctx, alias)
}

// Refresh re-scans an attached folder.
func (s *Service) Refresh(ctx context.Context, alias string) (*domain.Database, error) {
	return s.cat.Refresh(ctx, alias)
}

// Databases lists the attached folders.
func (s *Service) Databases(_ context.Context) []domain.Database {
	return s.cat.Databases()
}

// Tables lists the registered tables of a schema.
func (s *Service) Tables(_ context.Context, schema string) ([]domain.RegisteredTable, error) {
	return s.cat.Tables(schema)
}

// Recents lists recently attached folders, newest first.
func (s *Service) Recents(ctx context.Context, limit int) ([]domain.RecentDatabase, error) {
	if s.recents == nil {
		return nil, nil
	}
	return s.recents.List(ctx, limit)
}
