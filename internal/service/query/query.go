// Package query orchestrates script execution: it runs scripts through the
// engine and records each run in the query history.
package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fsql/internal/domain"
	"fsql/internal/engine"
)

// Service executes SQL scripts and keeps the history ledger.
type Service struct {
	engine  *engine.Engine
	history domain.HistoryRepository
	log     *slog.Logger
}

// New creates a query Service. history may be nil in local CLI mode.
func New(eng *engine.Engine, history domain.HistoryRepository, log *slog.Logger) *Service {
	return &Service{engine: eng, history: history, log: log}
}

// Execute runs a script and records the run. The history insert is
// best-effort: a metastore hiccup never fails the query itself.
func (s *Service) Execute(ctx context.Context, script string) (*domain.ScriptResult, error) {
	started := time.Now().UTC()
	res, err := s.engine.ExecuteScript(ctx, script)

	entry := &domain.HistoryEntry{
		ID:        uuid.NewString(),
		SQL:       script,
		Status:    "ok",
		StartedAt: started,
	}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
	} else {
		entry.DurationMs = res.DurationMs
		for _, st := range res.Statements {
			if st.Result != nil {
				entry.Rows += int64(st.Result.RowCount)
			}
			entry.Rows += st.RowsAffected
		}
	}
	s.record(ctx, entry)

	return res, err
}

// Query runs a single SELECT and returns its rows without touching history.
func (s *Service) Query(ctx context.Context, stmt string) (*domain.QueryResult, error) {
	return s.engine.Query(ctx, stmt)
}

// Describe returns the columns of a registered table.
func (s *Service) Describe(ctx context.Context, schema, table string) ([]domain.ColumnInfo, error) {
	return s.engine.Describe(ctx, schema, table)
}

// Preview returns the first rows of a registered table.
func (s *Service) Preview(ctx context.Context, schema, table string, limit int) (*domain.QueryResult, error) {
	return s.engine.Preview(ctx, schema, table, limit)
}

// Profile computes per-column statistics of a registered table.
func (s *Service) Profile(ctx context.Context, schema, table string) ([]domain.ColumnProfile, error) {
	return s.engine.Profile(ctx, schema, table)
}

// UndoLastWrite restores the most recent backup over its source file.
func (s *Service) UndoLastWrite(ctx context.Context) (*domain.WriteLogEntry, error) {
	return s.engine.Undo(ctx)
}

// History lists the most recent runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.List(ctx, limit)
}

func (s *Service) record(ctx context.Context, entry *domain.HistoryEntry) {
	if s.history == nil {
		return
	}
	if err := s.history.Insert(ctx, entry); err != nil {
		s.log.Warn("history insert failed", "error", err)
	}
}
