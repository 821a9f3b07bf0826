package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"

	"fsql/internal/catalog"
	"fsql/internal/db"
	"fsql/internal/db/repository"
	"fsql/internal/engine"
	"fsql/internal/service/query"
	"fsql/internal/service/workspace"
)

const defaultBackupKeep = 5

// session wires up an in-process query stack for one CLI invocation.
type session struct {
	duck    *sql.DB
	writeDB *sql.DB
	readDB  *sql.DB

	Query     *query.Service
	Workspace *workspace.Service
}

// newSession opens DuckDB and the metastore, then attaches every folder
// from --data. Most commands require at least one attached folder.
func newSession(ctx context.Context, opts *rootOptions) (*session, error) {
	if len(opts.dataDirs) == 0 {
		return nil, fmt.Errorf("no folders attached: pass --data or set data-dirs in %s", ConfigPath())
	}

	metaPath := opts.metaPath
	if metaPath == "" {
		dir := ConfigDir()
		if dir == "" {
			return nil, fmt.Errorf("cannot resolve home directory, pass --meta")
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create config dir: %w", err)
		}
		metaPath = filepath.Join(dir, "meta.sqlite")
	}

	duck, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	writeDB, readDB, err := db.OpenSQLitePair(metaPath, 4)
	if err != nil {
		_ = duck.Close()
		return nil, fmt.Errorf("open metastore: %w", err)
	}
	if err := db.RunMigrations(writeDB); err != nil {
		_ = duck.Close()
		_ = writeDB.Close()
		_ = readDB.Close()
		return nil, fmt.Errorf("migrate metastore: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cat := catalog.New(duck, log)
	eng := engine.New(duck, cat, repository.NewWriteLogRepo(writeDB, readDB), log, opts.rowCap, defaultBackupKeep)

	s := &session{
		duck:      duck,
		writeDB:   writeDB,
		readDB:    readDB,
		Query:     query.New(eng, repository.NewHistoryRepo(writeDB, readDB), log),
		Workspace: workspace.New(cat, repository.NewRecentsRepo(writeDB, readDB), log),
	}

	for _, dir := range opts.dataDirs {
		if _, err := s.Workspace.Attach(ctx, dir, ""); err != nil {
			s.Close()
			return nil, fmt.Errorf("attach %s: %w", dir, err)
		}
	}
	return s, nil
}

func (s *session) Close() {
	_ = s.duck.Close()
	_ = s.writeDB.Close()
	_ = s.readDB.Close()
}
