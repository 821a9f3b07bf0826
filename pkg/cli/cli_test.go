package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with the given args under an isolated
// HOME, capturing stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	runErr := rootCmd.Execute()

	require.NoError(t, w.Close())
	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String(), runErr
}

// seedDataDir writes a small CSV folder for end-to-end commands.
func seedDataDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "sales")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.csv"),
		[]byte("id,region,total\n1,west,10.5\n2,east,20\n3,west,7.25\n"), 0o600))
	return dir
}

func metaFlag(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "meta.sqlite")
}

func TestQueryCommandJSON(t *testing.T) {
	dir := seedDataDir(t)
	out, err := runCLI(t, "--data", dir, "--meta", metaFlag(t), "--output", "json",
		"query", "SELECT region, count(*) AS n FROM sales_root.orders GROUP BY region ORDER BY region")
	require.NoError(t, err, out)

	var res struct {
		Statements []struct {
			Kind   string `json:"kind"`
			Result struct {
				RowCount int `json:"row_count"`
			} `json:"result"`
		} `json:"statements"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Statements, 1)
	assert.Equal(t, "select", res.Statements[0].Kind)
	assert.Equal(t, 2, res.Statements[0].Result.RowCount)
}

func TestQueryCommandRequiresSQL(t *testing.T) {
	dir := seedDataDir(t)
	_, err := runCLI(t, "--data", dir, "--meta", metaFlag(t), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no SQL given")
}

func TestQueryCommandRequiresData(t *testing.T) {
	_, err := runCLI(t, "--meta", metaFlag(t), "query", "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no folders attached")
}

func TestTablesCommand(t *testing.T) {
	dir := seedDataDir(t)
	out, err := runCLI(t, "--data", dir, "--meta", metaFlag(t), "--output", "json", "tables")
	require.NoError(t, err, out)

	var dbs []struct {
		Alias   string `json:"alias"`
		Schemas []struct {
			Name string `json:"name"`
		} `json:"schemas"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &dbs))
	require.Len(t, dbs, 1)
	require.Len(t, dbs[0].Schemas, 1)
	assert.Equal(t, dbs[0].Alias+"_root", dbs[0].Schemas[0].Name)
}

func TestExportCommand(t *testing.T) {
	dir := seedDataDir(t)
	outPath := filepath.Join(t.TempDir(), "out.json")
	out, err := runCLI(t, "--data", dir, "--meta", metaFlag(t),
		"export", "SELECT id FROM sales_root.orders ORDER BY id", "--out", outPath)
	require.NoError(t, err, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 3)
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := runCLI(t, "--output", "xml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fsql version")
}

func TestSplitTable(t *testing.T) {
	schema, table, err := splitTable("sales_root.Monthly Report")
	require.NoError(t, err)
	assert.Equal(t, "sales_root", schema)
	assert.Equal(t, "Monthly Report", table)

	_, _, err = splitTable("orders")
	require.Error(t, err)
	_, _, err = splitTable("schema.")
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 0))
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hel...", truncate("hello world", 6))
}
