package domain

import "context"

// HistoryRepository persists query history entries.
type HistoryRepository interface {
	Insert(ctx context.Context, e *HistoryEntry) error
	List(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// SavedQueryRepository persists named SQL scripts.
type SavedQueryRepository interface {
	Create(ctx context.Context, q *SavedQuery) error
	Update(ctx context.Context, q *SavedQuery) error
	GetByID(ctx context.Context, id string) (*SavedQuery, error)
	List(ctx context.Context) ([]SavedQuery, error)
	Delete(ctx context.Context, id string) error
}

// RecentsRepository remembers recently attached folders.
type RecentsRepository interface {
	Touch(ctx context.Context, path string) error
	List(ctx context.Context, limit int) ([]RecentDatabase, error)
}

// WriteLogRepository records file backups for undo bookkeeping.
type WriteLogRepository interface {
	Insert(ctx context.Context, e *WriteLogEntry) error
	Latest(ctx context.Context) (*WriteLogEntry, error)
	Delete(ctx context.Context, id string) error
}
