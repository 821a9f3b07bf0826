// Package main is the entry point for the fsql HTTP server.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"fsql/internal/api"
	"fsql/internal/catalog"
	"fsql/internal/config"
	internaldb "fsql/internal/db"
	"fsql/internal/db/repository"
	"fsql/internal/engine"
	"fsql/internal/service/query"
	"fsql/internal/service/savedquery"
	"fsql/internal/service/workspace"
	"fsql/internal/watch"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)
	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	duck, err := sql.Open("duckdb", "")
	if err != nil {
		return err
	}
	defer duck.Close() //nolint:errcheck

	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, 8)
	if err != nil {
		return err
	}
	defer writeDB.Close() //nolint:errcheck
	defer readDB.Close()  //nolint:errcheck
	if err := internaldb.RunMigrations(writeDB); err != nil {
		return err
	}

	cat := catalog.New(duck, log)
	eng := engine.New(duck, cat, repository.NewWriteLogRepo(writeDB, readDB), log, cfg.RowCap, cfg.BackupKeep)

	querySvc := query.New(eng, repository.NewHistoryRepo(writeDB, readDB), log)
	workspaceSvc := workspace.New(cat, repository.NewRecentsRepo(writeDB, readDB), log)
	savedSvc := savedquery.New(repository.NewSavedQueryRepo(writeDB, readDB))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, dir := range cfg.DataDirs {
		if _, err := workspaceSvc.Attach(ctx, dir, ""); err != nil {
			return err
		}
		log.Info("attached folder", "path", dir)
	}

	handler := api.NewHandler(querySvc, workspaceSvc, savedSvc, cfg, log)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.WatchEnabled {
		watcher, err := watch.New(cat, log)
		if err != nil {
			return err
		}
		g.Go(func() error {
			log.Info("file watcher started")
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if cfg.RefreshCron != "" {
		scheduler, err := watch.NewScheduler(cat, cfg.RefreshCron, log)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	g.Go(func() error {
		log.Info("HTTP API listening", "addr", cfg.ListenAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}
