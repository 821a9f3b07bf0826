package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsql/internal/catalog"
	"fsql/internal/domain"
)

// memWriteLog is an in-memory WriteLogRepository for engine tests.
type memWriteLog struct {
	mu      sync.Mutex
	entries []domain.WriteLogEntry
}

func (m *memWriteLog) Insert(_ context.Context, e *domain.WriteLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memWriteLog) Latest(_ context.Context) (*domain.WriteLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil, nil
	}
	e := m.entries[len(m.entries)-1]
	return &e, nil
}

func (m *memWriteLog) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	return nil
}

func newTestEngine(t *testing.T, rowCap int) (*Engine, *catalog.Catalog, string) {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cat := catalog.New(db, log)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.csv"),
		[]byte("id,region,total\n1,west,10.5\n2,east,20\n3,west,7.25\n"), 0o600))

	_, err = cat.Attach(context.Background(), dir, "sales")
	require.NoError(t, err)

	return New(db, cat, &memWriteLog{}, log, rowCap, 3), cat, dir
}

func TestExecuteScriptSelect(t *testing.T) {
	e, _, _ := newTestEngine(t, 0)

	res, err := e.ExecuteScript(context.Background(), "SELECT id, region FROM sales_root.orders ORDER BY id")
	require.NoError(t, err)
	require.Len(t, res.Statements, 1)

	out := res.Statements[0]
	assert.Equal(t, domain.StmtSelect, out.Kind)
	require.NotNil(t, out.Result)
	assert.Equal(t, []string{"id", "region"}, out.Result.Columns)
	assert.Equal(t, 3, out.Result.RowCount)
	assert.False(t, out.Result.Capped)
	assert.False(t, res.Refreshed)
}

func TestExecuteScriptMultipleStatements(t *testing.T) {
	e, _, _ := newTestEngine(t, 0)

	res, err := e.ExecuteScript(context.Background(), "SELECT 1;\nGO\nSELECT 2; SELECT 3")
	require.NoError(t, err)
	assert.Len(t, res.Statements, 3)
}

func TestExecuteScriptStopsOnError(t *testing.T) {
	e, _, _ := newTestEngine(t, 0)

	_, err := e.ExecuteScript(context.Background(), "SELECT 1; SELECT * FROM sales_root.ghost; SELECT 2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 2")
}

func TestRowCapInjection(t *testing.T) {
	e, _, _ := newTestEngine(t, 2)

	res, err := e.Query(context.Background(), "SELECT * FROM sales_root.orders")
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowCount)
	assert.True(t, res.Capped)

	// An explicit LIMIT wins over the cap.
	res, err = e.Query(context.Background(), "SELECT * FROM sales_root.orders LIMIT 1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowCount)
	assert.False(t, res.Capped)
}

func TestRowCapSkipsMetaStatements(t *testing.T) {
	e, _, _ := newTestEngine(t, 2)

	// SHOW, DESCRIBE and PRAGMA return rows but reject a LIMIT clause,
	// so the cap must leave them alone.
	for _, stmt := range []string{
		"SHOW TABLES",
		"DESCRIBE sales_root.orders",
		"PRAGMA version",
	} {
		res, err := e.Query(context.Background(), stmt)
		require.NoError(t, err, stmt)
		assert.False(t, res.Capped, stmt)
	}
}

func TestRowCapWithTrailingComment(t *testing.T) {
	e, _, _ := newTestEngine(t, 2)

	res, err := e.Query(context.Background(), "SELECT * FROM sales_root.orders -- all orders")
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowCount)
	assert.True(t, res.Capped)
}

func TestQueryUnknownTableIsNotFound(t *testing.T) {
	e, _, _ := newTestEngine(t, 0)

	_, err := e.Query(context.Background(), "SELECT * FROM sales_root.ghost")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	// Schemas the catalog does not own are left for DuckDB to resolve.
	_, err = e.Query(context.Background(), "SELECT * FROM information_schema.tables")
	require.NoError(t, err)
}

func TestQueryRejectsDML(t *testing.T) {
	e, _, _ := newTestEngine(t, 0)

	_, err := e.Query(context.Background(), "DELETE FROM sales_root.orders")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestWriteBackUpdatesFile(t *testing.T) {
	ctx := context.Background()
	e, _, dir := newTestEngine(t, 0)

	res, err := e.ExecuteScript(ctx, "UPDATE sales_root.orders SET region = 'north' WHERE id = 1")
	require.NoError(t, err)
	require.Len(t, res.Statements, 1)
	assert.Equal(t, domain.StmtWriteBack, res.Statements[0].Kind)
	assert.Equal(t, int64(1), res.Statements[0].RowsAffected)
	assert.True(t, res.Refreshed)

	content, err := os.ReadFile(filepath.Join(dir, "orders.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "1,north,10.5")
	assert.NotContains(t, string(content), "1,west")

	// A timestamped backup of the original sits next to the file.
	backups, err := filepath.Glob(filepath.Join(dir, "orders.csv.*.bak"))
	require.NoError(t, err)
	require.Len(t, backups, 1)
	orig, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Contains(t, string(orig), "1,west,10.5")
}

func TestWriteBackDelete(t *testing.T) {
	ctx := context.Background()
	e, _, dir := newTestEngine(t, 0)

	res, err := e.ExecuteScript(ctx, "DELETE FROM sales_root.orders WHERE region = 'west'")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Statements[0].RowsAffected)

	content, err := os.ReadFile(filepath.Join(dir, "orders.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,region,total\n2,east,20\n", string(content))

	// The view reflects the rewritten file.
	q, err := e.Query(ctx, "SELECT count(*) FROM sales_root.orders")
	require.NoError(t, err)
	assert.EqualValues(t, 1, q.Rows[0][0])
}

func TestWriteBackRequiresQualifiedTarget(t *testing.T) {
	e, _, _ := newTestEngine(t, 0)

	_, err := e.ExecuteScript(context.Background(), "DELETE FROM orders")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestUndoRestoresFile(t *testing.T) {
	ctx := context.Background()
	e, _, dir := newTestEngine(t, 0)

	_, err := e.ExecuteScript(ctx, "DELETE FROM sales_root.orders WHERE id = 3")
	require.NoError(t, err)

	entry, err := e.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "orders.csv"), entry.SourcePath)

	content, err := os.ReadFile(filepath.Join(dir, "orders.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "3,west,7.25")

	// Nothing left to undo.
	_, err = e.Undo(ctx)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCTASMaterializesFile(t *testing.T) {
	ctx := context.Background()
	e, cat, dir := newTestEngine(t, 0)

	res, err := e.ExecuteScript(ctx,
		"CREATE TABLE sales_root.west_orders AS SELECT * FROM sales_root.orders WHERE region = 'west'")
	require.NoError(t, err)
	require.Len(t, res.Statements, 1)
	out := res.Statements[0]
	assert.Equal(t, domain.StmtCTAS, out.Kind)
	assert.Equal(t, filepath.Join(dir, "west_orders.csv"), out.OutPath)

	content, err := os.ReadFile(out.OutPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "1,west,10.5")

	// The new file is registered and immediately queryable.
	q, err := e.Query(ctx, "SELECT count(*) FROM sales_root.west_orders")
	require.NoError(t, err)
	assert.EqualValues(t, 2, q.Rows[0][0])
	_, err = cat.Lookup("sales_root", "west_orders")
	require.NoError(t, err)

	// Plain CREATE against the existing file conflicts.
	_, err = e.ExecuteScript(ctx,
		"CREATE TABLE sales_root.west_orders AS SELECT 1 AS id")
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	// CREATE OR REPLACE overwrites with a backup.
	_, err = e.ExecuteScript(ctx,
		"CREATE OR REPLACE TABLE sales_root.west_orders AS SELECT 9 AS id")
	require.NoError(t, err)
	backups, err := filepath.Glob(filepath.Join(dir, "west_orders.csv.*.bak"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestCTASFailureLeavesTargetIntact(t *testing.T) {
	ctx := context.Background()
	e, _, dir := newTestEngine(t, 0)

	_, err := e.ExecuteScript(ctx,
		"CREATE OR REPLACE TABLE sales_root.orders AS SELECT * FROM sales_root.ghost")
	require.Error(t, err)

	// The existing file is untouched and nothing was backed up or staged.
	content, err := os.ReadFile(filepath.Join(dir, "orders.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "1,west,10.5")

	backups, err := filepath.Glob(filepath.Join(dir, "orders.csv.*.bak"))
	require.NoError(t, err)
	assert.Empty(t, backups)

	leftovers, err := filepath.Glob(filepath.Join(dir, ".orders-*.csv"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestDescribe(t *testing.T) {
	e, _, _ := newTestEngine(t, 0)

	cols, err := e.Describe(context.Background(), "sales_root", "orders")
	require.NoError(t, err)
	require.Len(t, cols, 3)
	names := []string{cols[0].Name, cols[1].Name, cols[2].Name}
	assert.Equal(t, []string{"id", "region", "total"}, names)
}

func TestPreview(t *testing.T) {
	e, _, _ := newTestEngine(t, 0)

	res, err := e.Preview(context.Background(), "sales_root", "orders", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowCount)
}

func TestProfile(t *testing.T) {
	e, _, _ := newTestEngine(t, 0)

	profiles, err := e.Profile(context.Background(), "sales_root", "orders")
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	byName := map[string]domain.ColumnProfile{}
	for _, p := range profiles {
		byName[p.Column] = p
	}
	region := byName["region"]
	assert.EqualValues(t, 3, region.Count)
	assert.EqualValues(t, 0, region.Nulls)
	assert.EqualValues(t, 2, region.Distinct)
	require.NotNil(t, region.Min)
	assert.Equal(t, "east", *region.Min)

	total := byName["total"]
	require.NotNil(t, total.Avg)
	assert.InDelta(t, (10.5+20+7.25)/3, *total.Avg, 0.001)
}

func TestBackupPruning(t *testing.T) {
	ctx := context.Background()
	e, _, dir := newTestEngine(t, 0)

	for i := 0; i < 5; i++ {
		_, err := e.ExecuteScript(ctx, "UPDATE sales_root.orders SET total = total + 1 WHERE id = 1")
		require.NoError(t, err)
	}

	backups, err := filepath.Glob(filepath.Join(dir, "orders.csv.*.bak"))
	require.NoError(t, err)
	sort.Strings(backups)
	assert.LessOrEqual(t, len(backups), 3)
}
