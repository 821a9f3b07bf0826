package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsql/internal/db"
	"fsql/internal/domain"
)

func newTestDB(t *testing.T) (write, read *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meta.sqlite")
	write, read, err := db.OpenSQLitePair(path, 2)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = write.Close()
		_ = read.Close()
	})
	require.NoError(t, db.RunMigrations(write))
	return write, read
}

func TestHistoryRepo(t *testing.T) {
	ctx := context.Background()
	write, read := newTestDB(t)
	repo := NewHistoryRepo(write, read)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Insert(ctx, &domain.HistoryEntry{
			ID:         uuid.NewString(),
			SQL:        "SELECT 1",
			Status:     "ok",
			Rows:       int64(i),
			DurationMs: 12,
			StartedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first.
	assert.EqualValues(t, 2, entries[0].Rows)
	assert.EqualValues(t, 1, entries[1].Rows)
}

func TestSavedQueryRepo(t *testing.T) {
	ctx := context.Background()
	write, read := newTestDB(t)
	repo := NewSavedQueryRepo(write, read)

	now := time.Now().UTC().Truncate(time.Second)
	q := &domain.SavedQuery{
		ID:        uuid.NewString(),
		Name:      "daily totals",
		SQL:       "SELECT region, sum(total) FROM sales_root.orders GROUP BY 1",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, q))

	// Duplicate names conflict.
	dup := *q
	dup.ID = uuid.NewString()
	err := repo.Create(ctx, &dup)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	got, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Name, got.Name)
	assert.Equal(t, q.SQL, got.SQL)

	q.Name = "weekly totals"
	q.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, q))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "weekly totals", list[0].Name)

	require.NoError(t, repo.Delete(ctx, q.ID))
	var nf *domain.NotFoundError
	_, err = repo.GetByID(ctx, q.ID)
	require.ErrorAs(t, err, &nf)
	require.ErrorAs(t, repo.Delete(ctx, q.ID), &nf)
}

func TestRecentsRepo(t *testing.T) {
	ctx := context.Background()
	write, read := newTestDB(t)
	repo := NewRecentsRepo(write, read)

	require.NoError(t, repo.Touch(ctx, "/data/sales"))
	require.NoError(t, repo.Touch(ctx, "/data/hr"))
	// Touching again bumps, not duplicates.
	require.NoError(t, repo.Touch(ctx, "/data/sales"))

	recents, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recents, 2)
	assert.Equal(t, "/data/sales", recents[0].Path)
}

func TestWriteLogRepo(t *testing.T) {
	ctx := context.Background()
	write, read := newTestDB(t)
	repo := NewWriteLogRepo(write, read)

	empty, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)

	now := time.Now().UTC().Truncate(time.Second)
	first := &domain.WriteLogEntry{
		ID:         uuid.NewString(),
		SourcePath: "/data/orders.csv",
		BackupPath: "/data/orders.csv.20260101T000000.bak",
		Operation:  "write_back",
		CreatedAt:  now,
	}
	second := &domain.WriteLogEntry{
		ID:         uuid.NewString(),
		SourcePath: "/data/people.csv",
		BackupPath: "/data/people.csv.20260101T000001.bak",
		Operation:  "ctas",
		CreatedAt:  now.Add(time.Second),
	}
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	require.NoError(t, repo.Delete(ctx, latest.ID))
	latest, err = repo.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, first.ID, latest.ID)
}
