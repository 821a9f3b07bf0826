package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"fsql/internal/ddl"
	"fsql/internal/domain"
	"fsql/internal/sqlscript"
)

// runCTAS materializes a CREATE TABLE ... AS SELECT into a CSV file inside
// the target schema's folder and registers it as a new table. The result is
// staged next to the target and moved into place only after the COPY
// succeeds. CREATE OR REPLACE overwrites an existing file after backing it
// up; a plain CREATE against an existing file is a conflict.
func (e *Engine) runCTAS(ctx context.Context, ctas *sqlscript.CTAS) (string, string, error) {
	if ctas == nil {
		return "", "", domain.ErrValidation("malformed CREATE TABLE AS statement")
	}
	schemaName, dir, ok := e.cat.SchemaInfo(ctas.Schema)
	if !ok {
		return "", "", domain.ErrNotFound("schema %q is not attached", ctas.Schema)
	}

	outPath := filepath.Join(dir, ctas.Table+".csv")
	if _, err := os.Stat(outPath); err == nil && !ctas.OrReplace {
		return "", "", domain.ErrConflict("%s already exists, use CREATE OR REPLACE TABLE to overwrite", outPath)
	}

	// COPY goes to a staging file first so a failed query cannot truncate
	// an existing target. The dot prefix keeps the watcher quiet.
	tmp, err := os.CreateTemp(dir, "."+ctas.Table+"-*.csv")
	if err != nil {
		return "", "", fmt.Errorf("create staging file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath) //nolint:errcheck

	copyStmt := fmt.Sprintf("COPY (%s) TO %s (HEADER, DELIMITER ',')", ctas.Query, ddl.QuoteLiteral(tmpPath))
	if _, err := e.db.ExecContext(ctx, copyStmt); err != nil {
		return "", "", fmt.Errorf("materialize table: %w", err)
	}

	backup, err := backupFile(outPath, e.backupKeep)
	if err != nil {
		return "", "", err
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return "", "", fmt.Errorf("replace %s: %w", outPath, err)
	}
	e.recordBackup(ctx, outPath, backup, "ctas")

	if err := e.cat.Reregister(ctx, &domain.RegisteredTable{Schema: schemaName, Path: outPath}); err != nil {
		e.log.Warn("registration of materialized table failed", "path", outPath, "error", err)
	}

	e.log.Info("table materialized", "schema", schemaName, "table", ctas.Table, "path", outPath)
	return outPath, schemaName + "." + ctas.Table, nil
}
