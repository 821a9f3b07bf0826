package engine

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/xuri/excelize/v2"

	"fsql/internal/ddl"
	"fsql/internal/domain"
	"fsql/internal/sniff"
	"fsql/internal/sqlscript"
)

// runWriteBack applies a DML statement to a staging copy of the target table
// and rewrites the backing file with the staged result. The original file is
// backed up first, and the catalog registration is refreshed afterwards.
func (e *Engine) runWriteBack(ctx context.Context, stmt string) (string, int64, error) {
	target, ok := sqlscript.TargetTable(stmt)
	if !ok {
		return "", 0, domain.ErrValidation("cannot determine the target table of the write")
	}
	if target.Schema == "" {
		return "", 0, domain.ErrValidation("write target must be schema-qualified, e.g. sales_root.orders")
	}
	tbl, err := e.cat.Lookup(target.Schema, target.Display)
	if err != nil {
		return "", 0, err
	}
	if !tbl.Writable() {
		return "", 0, domain.ErrReadOnly("table %s.%s is backed by %s which cannot be rewritten",
			tbl.Schema, tbl.Display, tbl.Path)
	}

	staging := "__wb_" + tbl.Internal
	stagingQ := ddl.QuoteQualified(tbl.Schema, staging)
	source := ddl.QuoteQualified(tbl.Schema, tbl.Internal)

	if _, err := e.db.ExecContext(ctx, fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM %s", stagingQ, source)); err != nil {
		return "", 0, fmt.Errorf("stage table: %w", err)
	}
	defer func() {
		_, _ = e.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+stagingQ)
	}()

	// Point the DML at the staging table, whatever spelling it used.
	redirect := func(schema, name string) (string, bool) {
		if !strings.EqualFold(schema, tbl.Schema) {
			return "", false
		}
		if strings.EqualFold(name, tbl.Display) || name == tbl.Internal {
			return staging, true
		}
		return "", false
	}
	redirected := sqlscript.RewriteTables(stmt, redirect)

	res, err := e.db.ExecContext(ctx, redirected)
	if err != nil {
		return "", 0, fmt.Errorf("apply write: %w", err)
	}
	affected, _ := res.RowsAffected()

	backup, err := backupFile(tbl.Path, e.backupKeep)
	if err != nil {
		return "", 0, err
	}

	if err := e.writeTableToFile(ctx, stagingQ, tbl); err != nil {
		return "", 0, err
	}
	e.recordBackup(ctx, tbl.Path, backup, "write_back")

	if err := e.cat.Reregister(ctx, tbl); err != nil {
		e.log.Warn("re-registration after write failed", "path", tbl.Path, "error", err)
	}

	e.log.Info("write-back completed", "table", tbl.Schema+"."+tbl.Display, "rows", affected, "path", tbl.Path)
	return tbl.Schema + "." + tbl.Display, affected, nil
}

// writeTableToFile serializes a DuckDB table into the registered file's
// original format, replacing it atomically.
func (e *Engine) writeTableToFile(ctx context.Context, from string, tbl *domain.RegisteredTable) error {
	switch tbl.Kind {
	case domain.KindExcel:
		return e.writeWorkbookSheet(ctx, from, tbl)
	default:
		return e.writeDelimited(ctx, from, tbl)
	}
}

// writeDelimited rewrites a CSV-family file with the staged rows, preserving
// the sniffed delimiter and encoding.
func (e *Engine) writeDelimited(ctx context.Context, from string, tbl *domain.RegisteredTable) error {
	rows, err := e.db.QueryContext(ctx, "SELECT * FROM "+from)
	if err != nil {
		return fmt.Errorf("read staged rows: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	pending, err := renameio.NewPendingFile(tbl.Path)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer pending.Cleanup() //nolint:errcheck

	enc := sniff.Encoding(tbl.Encoding)
	if enc == "" {
		enc = sniff.EncUTF8
	}
	w := csv.NewWriter(enc.NewWriter(pending))
	if tbl.Delimiter != "" {
		w.Comma = []rune(tbl.Delimiter)[0]
	}

	if err := w.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(cols))
	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		for i, v := range vals {
			record[i] = formatCell(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", tbl.Path, err)
	}
	return nil
}

// writeWorkbookSheet replaces one worksheet of an xlsx workbook with the
// staged rows, leaving the other sheets alone.
func (e *Engine) writeWorkbookSheet(ctx context.Context, from string, tbl *domain.RegisteredTable) error {
	rows, err := e.db.QueryContext(ctx, "SELECT * FROM "+from)
	if err != nil {
		return fmt.Errorf("read staged rows: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	f, err := excelize.OpenFile(tbl.Path)
	if err != nil {
		return fmt.Errorf("open workbook %s: %w", tbl.Path, err)
	}
	defer f.Close() //nolint:errcheck

	sheet := tbl.Sheet
	if sheet == "" {
		sheet = f.GetSheetList()[0]
	}
	oldRows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	write := func(rowIdx int, values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := write(1, header); err != nil {
		return err
	}

	written := 1
	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		out := make([]interface{}, len(cols))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				out[i] = string(b)
			} else {
				out[i] = v
			}
		}
		written++
		if err := write(written, out); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Trim leftover rows from the previous content.
	for i := len(oldRows); i > written; i-- {
		if err := f.RemoveRow(sheet, i); err != nil {
			return fmt.Errorf("trim row %d: %w", i, err)
		}
	}

	pending, err := renameio.NewPendingFile(tbl.Path)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer pending.Cleanup() //nolint:errcheck
	if err := f.Write(pending); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", tbl.Path, err)
	}
	return nil
}

// formatCell renders a scanned DuckDB value the way it should appear in a
// delimited file. NULL becomes an empty field.
func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case time.Time:
		return strings.TrimSuffix(x.Format("2006-01-02 15:04:05"), " 00:00:00")
	default:
		return fmt.Sprint(x)
	}
}
