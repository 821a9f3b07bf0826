package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"fsql/internal/domain"
)

// Nanosecond precision keeps rapid successive backups from colliding.
const backupTimeFormat = "20060102T150405.000000000"

// backupFile copies path to a timestamped sibling ending in .bak and prunes
// older backups beyond keep. Returns the backup path, or "" when the source
// does not exist yet (first CTAS into a new file).
func backupFile(path string, keep int) (string, error) {
	src, err := os.Open(path) //nolint:gosec
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close() //nolint:errcheck

	backup := fmt.Sprintf("%s.%s.bak", path, time.Now().UTC().Format(backupTimeFormat))
	dst, err := os.OpenFile(backup, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec
	if err != nil {
		return "", fmt.Errorf("create backup %s: %w", backup, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(backup)
		return "", fmt.Errorf("copy to backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(backup)
		return "", fmt.Errorf("close backup: %w", err)
	}

	pruneBackups(path, keep)
	return backup, nil
}

// listBackups returns the backups of path, newest first.
func listBackups(path string) []string {
	matches, err := filepath.Glob(path + ".*.bak")
	if err != nil {
		return nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches
}

// pruneBackups removes the oldest backups of path beyond keep. keep <= 0
// keeps everything.
func pruneBackups(path string, keep int) {
	if keep <= 0 {
		return
	}
	backups := listBackups(path)
	for _, old := range backups[min(keep, len(backups)):] {
		_ = os.Remove(old)
	}
}

// recordBackup notes a created backup in the write log so it can be undone.
func (e *Engine) recordBackup(ctx context.Context, sourcePath, backupPath, operation string) {
	if backupPath == "" || e.writeLog == nil {
		return
	}
	entry := &domain.WriteLogEntry{
		ID:         uuid.NewString(),
		SourcePath: sourcePath,
		BackupPath: backupPath,
		Operation:  operation,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.writeLog.Insert(ctx, entry); err != nil {
		e.log.Warn("write log insert failed", "path", sourcePath, "error", err)
	}
}

// Undo restores the most recent backup over its source file and refreshes
// the registrations backed by it. The consumed write log entry is removed.
func (e *Engine) Undo(ctx context.Context) (*domain.WriteLogEntry, error) {
	if e.writeLog == nil {
		return nil, domain.ErrValidation("write log is not configured")
	}
	entry, err := e.writeLog.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrNotFound("nothing to undo")
	}

	data, err := os.ReadFile(entry.BackupPath) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", entry.BackupPath, err)
	}
	if err := renameio.WriteFile(entry.SourcePath, data, 0o644); err != nil {
		return nil, fmt.Errorf("restore %s: %w", entry.SourcePath, err)
	}
	if err := e.writeLog.Delete(ctx, entry.ID); err != nil {
		e.log.Warn("write log delete failed", "id", entry.ID, "error", err)
	}
	_ = os.Remove(entry.BackupPath)

	if alias, ok := e.cat.AliasForPath(entry.SourcePath); ok {
		if _, err := e.cat.Refresh(ctx, alias); err != nil {
			e.log.Warn("refresh after undo failed", "alias", alias, "error", err)
		}
	}

	e.log.Info("write undone", "path", entry.SourcePath, "backup", entry.BackupPath)
	return entry, nil
}
