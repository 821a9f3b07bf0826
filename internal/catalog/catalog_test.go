package catalog

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsql/internal/domain"
)

func newTestCatalog(t *testing.T) (*Catalog, *sql.DB) {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, slog.New(slog.NewTextHandler(os.Stderr, nil))), db
}

func seedFolder(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.csv"),
		[]byte("id,region,total\n1,west,10.5\n2,east,20.0\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Monthly Report.csv"),
		[]byte("month;revenue\njan;100\nfeb;200\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "HR Data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "HR Data", "people.csv"),
		[]byte("name,age\nana,30\n"), 0o600))
	return dir
}

func TestAttachAndQuery(t *testing.T) {
	ctx := context.Background()
	cat, db := newTestCatalog(t)
	dir := seedFolder(t)

	attached, err := cat.Attach(ctx, dir, "sales")
	require.NoError(t, err)
	assert.Equal(t, "sales", attached.Alias)
	require.Len(t, attached.Schemas, 2)
	assert.Equal(t, "sales_hr_data", attached.Schemas[0].Name)
	assert.Equal(t, "sales_root", attached.Schemas[1].Name)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT count(*) FROM sales_root.orders").Scan(&n))
	assert.Equal(t, 2, n)

	// Display name with a space resolves to an internal identifier.
	internal, ok := cat.Resolve("sales_root", "Monthly Report")
	require.True(t, ok)
	assert.Equal(t, "monthly_report", internal)

	require.NoError(t, db.QueryRowContext(ctx, "SELECT count(*) FROM sales_root.monthly_report").Scan(&n))
	assert.Equal(t, 2, n)

	require.NoError(t, db.QueryRowContext(ctx, "SELECT count(*) FROM sales_hr_data.people").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestAttachTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	dir := seedFolder(t)

	_, err := cat.Attach(ctx, dir, "sales")
	require.NoError(t, err)

	_, err = cat.Attach(ctx, dir, "sales")
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestAttachSameFolderUnderNewAliasConflicts(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	dir := seedFolder(t)

	_, err := cat.Attach(ctx, dir, "sales")
	require.NoError(t, err)

	_, err = cat.Attach(ctx, dir, "sales2")
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, err.Error(), "already attached")
}

func TestAttachDefaultAlias(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	dir := t.TempDir()
	sub := filepath.Join(dir, "My Data 2024")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "t.csv"), []byte("a\n1\n"), 0o600))

	attached, err := cat.Attach(ctx, sub, "")
	require.NoError(t, err)
	assert.Equal(t, "my_data_2024", attached.Alias)
}

func TestDetach(t *testing.T) {
	ctx := context.Background()
	cat, db := newTestCatalog(t)
	dir := seedFolder(t)

	_, err := cat.Attach(ctx, dir, "sales")
	require.NoError(t, err)
	require.NoError(t, cat.Detach(ctx, "sales"))

	var n int
	err = db.QueryRowContext(ctx, "SELECT count(*) FROM sales_root.orders").Scan(&n)
	require.Error(t, err)

	err = cat.Detach(ctx, "sales")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Empty(t, cat.Databases())
}

func TestRefreshPicksUpNewFiles(t *testing.T) {
	ctx := context.Background()
	cat, db := newTestCatalog(t)
	dir := seedFolder(t)

	_, err := cat.Attach(ctx, dir, "sales")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "returns.csv"),
		[]byte("id,reason\n1,damaged\n"), 0o600))

	_, err = cat.Refresh(ctx, "sales")
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT count(*) FROM sales_root.returns").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestLookupAndTables(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	dir := seedFolder(t)

	_, err := cat.Attach(ctx, dir, "sales")
	require.NoError(t, err)

	tbl, err := cat.Lookup("sales_root", "Monthly Report")
	require.NoError(t, err)
	assert.Equal(t, "monthly_report", tbl.Internal)
	assert.Equal(t, ";", tbl.Delimiter)
	assert.True(t, tbl.Writable())

	_, err = cat.Lookup("sales_root", "ghost")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	tables, err := cat.Tables("sales_root")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "monthly_report", tables[0].Internal)
	assert.Equal(t, "orders", tables[1].Internal)
}

func TestAliasForPath(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	dir := seedFolder(t)

	_, err := cat.Attach(ctx, dir, "sales")
	require.NoError(t, err)

	alias, ok := cat.AliasForPath(filepath.Join(dir, "HR Data", "people.csv"))
	require.True(t, ok)
	assert.Equal(t, "sales", alias)

	_, ok = cat.AliasForPath(t.TempDir())
	assert.False(t, ok)
}

func TestRegistrationFailureSkipsFile(t *testing.T) {
	ctx := context.Background()
	cat, _ := newTestCatalog(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.csv"), []byte("a,b\n1,2\n"), 0o600))
	// Zip local header but not a real workbook.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xlsx"), []byte("PK\x03\x04garbage"), 0o600))

	attached, err := cat.Attach(ctx, dir, "mix")
	require.NoError(t, err)
	require.Len(t, attached.Schemas, 1)

	tables, err := cat.Tables("mix_root")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "good", tables[0].Internal)
}

func TestRegisterDefaultSheetFallback(t *testing.T) {
	ctx := context.Background()
	cat, db := newTestCatalog(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "book.xlsx")
	writeWorkbook(t, path, map[string][][]interface{}{
		"Data": {{"a", "b"}, {1, 2}},
	})

	_, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS wb_root")
	require.NoError(t, err)
	sch := &schemaState{
		name:   "wb_root",
		path:   dir,
		names:  NewNames(),
		tables: make(map[string]domain.RegisteredTable),
	}

	fe := FileEntry{Path: path, Stem: "book", Kind: domain.KindExcel}
	require.NoError(t, cat.registerDefaultSheet(ctx, sch, fe))

	tbl, ok := sch.tables["book"]
	require.True(t, ok)
	assert.Equal(t, "book", tbl.Display)
	assert.Empty(t, tbl.Sheet)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT count(*) FROM wb_root.book").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSniffFallbackEncoding(t *testing.T) {
	ctx := context.Background()
	cat, db := newTestCatalog(t)
	dir := t.TempDir()

	// UTF-8 with BOM and semicolons still registers and queries.
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a;b\n1;2\n3;4\n")...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bom.csv"), content, 0o600))

	_, err := cat.Attach(ctx, dir, "enc")
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT count(*) FROM enc_root.bom").Scan(&n))
	assert.Equal(t, 2, n)
}
