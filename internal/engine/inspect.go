package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fsql/internal/ddl"
	"fsql/internal/domain"
)

// Describe returns the column names and types of a registered table.
func (e *Engine) Describe(ctx context.Context, schema, name string) ([]domain.ColumnInfo, error) {
	tbl, err := e.cat.Lookup(schema, name)
	if err != nil {
		return nil, err
	}
	target := ddl.QuoteQualified(tbl.Schema, tbl.Internal)

	rows, err := e.db.QueryContext(ctx, "DESCRIBE SELECT * FROM "+target)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", target, err)
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []domain.ColumnInfo
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		ci := domain.ColumnInfo{
			Name: asString(vals[0]),
			Type: asString(vals[1]),
		}
		if len(vals) > 2 {
			ci.Nullable = !strings.EqualFold(asString(vals[2]), "NO")
		}
		out = append(out, ci)
	}
	return out, rows.Err()
}

// Preview returns the first rows of a registered table.
func (e *Engine) Preview(ctx context.Context, schema, name string, limit int) (*domain.QueryResult, error) {
	tbl, err := e.cat.Lookup(schema, name)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	target := ddl.QuoteQualified(tbl.Schema, tbl.Internal)
	return e.runSelect(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", target, limit))
}

// Profile computes per-column statistics for a registered table: counts,
// nulls, distinct values, min/max, and the mean where values are numeric.
func (e *Engine) Profile(ctx context.Context, schema, name string) ([]domain.ColumnProfile, error) {
	tbl, err := e.cat.Lookup(schema, name)
	if err != nil {
		return nil, err
	}
	target := ddl.QuoteQualified(tbl.Schema, tbl.Internal)

	columns, err := e.Describe(ctx, schema, name)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := e.db.QueryRowContext(ctx, "SELECT count(*) FROM "+target).Scan(&total); err != nil {
		return nil, fmt.Errorf("count %s: %w", target, err)
	}

	profiles := make([]domain.ColumnProfile, 0, len(columns))
	for _, col := range columns {
		q := ddl.QuoteIdentifier(col.Name)
		stmt := fmt.Sprintf(
			"SELECT count(%[1]s), count(DISTINCT %[1]s), min(%[1]s)::VARCHAR, max(%[1]s)::VARCHAR, avg(TRY_CAST(%[1]s AS DOUBLE)) FROM %[2]s",
			q, target)

		var (
			nonNull, distinct int64
			minV, maxV        sql.NullString
			avg               sql.NullFloat64
		)
		if err := e.db.QueryRowContext(ctx, stmt).Scan(&nonNull, &distinct, &minV, &maxV, &avg); err != nil {
			return nil, fmt.Errorf("profile column %s: %w", col.Name, err)
		}

		p := domain.ColumnProfile{
			Column:   col.Name,
			Type:     col.Type,
			Count:    nonNull,
			Nulls:    total - nonNull,
			Distinct: distinct,
		}
		if minV.Valid {
			p.Min = &minV.String
		}
		if maxV.Valid {
			p.Max = &maxV.String
		}
		if avg.Valid {
			p.Avg = &avg.Float64
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func asString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
