// Package engine executes SQL scripts against DuckDB and carries the results
// of write statements back to the files behind the catalog's tables.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"fsql/internal/catalog"
	"fsql/internal/domain"
	"fsql/internal/sqlscript"
)

// Engine runs scripts: SELECTs return rows, DML rewrites the backing file,
// CTAS materializes a new CSV in the target schema's folder.
type Engine struct {
	db         *sql.DB
	cat        *catalog.Catalog
	writeLog   domain.WriteLogRepository
	log        *slog.Logger
	rowCap     int
	backupKeep int
}

// New creates an Engine. rowCap caps bare SELECTs (0 disables) and
// backupKeep bounds how many .bak files are kept per source file.
func New(db *sql.DB, cat *catalog.Catalog, writeLog domain.WriteLogRepository, log *slog.Logger, rowCap, backupKeep int) *Engine {
	return &Engine{
		db:         db,
		cat:        cat,
		writeLog:   writeLog,
		log:        log,
		rowCap:     rowCap,
		backupKeep: backupKeep,
	}
}

// ExecuteScript splits a script into statements and runs them in order.
// Execution stops at the first failing statement. The returned result holds
// one outcome per completed statement.
func (e *Engine) ExecuteScript(ctx context.Context, script string) (*domain.ScriptResult, error) {
	stmts := sqlscript.Split(script)
	if len(stmts) == 0 {
		return nil, domain.ErrValidation("script contains no statements")
	}

	start := time.Now()
	res := &domain.ScriptResult{}
	for i, stmt := range stmts {
		outcome, err := e.executeStatement(ctx, stmt)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i+1, err)
		}
		res.Statements = append(res.Statements, *outcome)
		if outcome.Kind == domain.StmtWriteBack || outcome.Kind == domain.StmtCTAS {
			res.Refreshed = true
		}
	}
	res.DurationMs = time.Since(start).Milliseconds()
	return res, nil
}

func (e *Engine) executeStatement(ctx context.Context, stmt string) (*domain.StatementOutcome, error) {
	rewritten := sqlscript.RewriteTables(stmt, e.cat.Resolve)
	kind := sqlscript.Classify(rewritten)

	start := time.Now()
	outcome := &domain.StatementOutcome{Kind: kind}

	switch kind {
	case domain.StmtSelect:
		if err := e.validateRefs(rewritten); err != nil {
			return nil, err
		}
		capped, injected := sqlscript.EnsureLimit(rewritten, e.rowCap)
		result, err := e.runSelect(ctx, capped)
		if err != nil {
			return nil, err
		}
		result.Capped = injected && result.RowCount == e.rowCap
		outcome.Result = result

	case domain.StmtWriteBack:
		if err := e.validateRefs(rewritten); err != nil {
			return nil, err
		}
		table, affected, err := e.runWriteBack(ctx, rewritten)
		if err != nil {
			return nil, err
		}
		outcome.Table = table
		outcome.RowsAffected = affected

	case domain.StmtCTAS:
		ctas, _ := sqlscript.ParseCTAS(rewritten)
		outPath, table, err := e.runCTAS(ctx, ctas)
		if err != nil {
			return nil, err
		}
		outcome.OutPath = outPath
		outcome.Table = table

	default:
		if _, err := e.db.ExecContext(ctx, rewritten); err != nil {
			return nil, fmt.Errorf("execute: %w", err)
		}
	}

	outcome.DurationMs = time.Since(start).Milliseconds()
	e.log.Debug("statement executed", "kind", kind, "duration_ms", outcome.DurationMs)
	return outcome, nil
}

// Query runs a single SELECT-like statement with the row cap applied and
// returns its rows. Non-SELECT statements are rejected.
func (e *Engine) Query(ctx context.Context, stmt string) (*domain.QueryResult, error) {
	rewritten := sqlscript.RewriteTables(stmt, e.cat.Resolve)
	if sqlscript.Classify(rewritten) != domain.StmtSelect {
		return nil, domain.ErrValidation("only SELECT statements are allowed here")
	}
	if err := e.validateRefs(rewritten); err != nil {
		return nil, err
	}
	capped, injected := sqlscript.EnsureLimit(rewritten, e.rowCap)
	result, err := e.runSelect(ctx, capped)
	if err != nil {
		return nil, err
	}
	result.Capped = injected && result.RowCount == e.rowCap
	return result, nil
}

// validateRefs rejects statements referencing a table that an attached
// schema never registered, so the error names the table instead of
// surfacing a DuckDB binder message. References with an unknown schema or
// no schema pass through: they may be table functions or DuckDB's own
// catalog.
func (e *Engine) validateRefs(stmt string) error {
	for _, ref := range sqlscript.TableRefs(stmt) {
		if ref.Schema == "" {
			continue
		}
		if _, _, ok := e.cat.SchemaInfo(ref.Schema); !ok {
			continue
		}
		if _, err := e.cat.Lookup(ref.Schema, ref.Display); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runSelect(ctx context.Context, stmt string) (*domain.QueryResult, error) {
	rows, err := e.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	return scanRows(rows)
}

// scanRows converts sql.Rows into a QueryResult, keeping column order and
// turning byte slices into strings for JSON serialization.
func scanRows(rows *sql.Rows) (*domain.QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	resultRows := [][]interface{}{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]interface{}, len(vals))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.QueryResult{
		Columns:  cols,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}
