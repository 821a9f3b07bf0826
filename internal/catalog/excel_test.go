package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string, sheets map[string][][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
}

func TestSheetNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeWorkbook(t, path, map[string][][]interface{}{
		"Summary": {{"a", "b"}, {1, 2}},
	})

	sheets, err := SheetNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Summary"}, sheets)
}

func TestMaterializeSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeWorkbook(t, path, map[string][][]interface{}{
		"Data": {{"name", "age"}, {"ana", 30}, {"bo", 25}},
	})

	tmp, err := MaterializeSheet(path, "Data")
	require.NoError(t, err)
	defer os.Remove(tmp) //nolint:errcheck

	content, err := os.ReadFile(tmp)
	require.NoError(t, err)
	assert.Equal(t, "name,age\nana,30\nbo,25\n", string(content))
}

func TestSheetTableName(t *testing.T) {
	assert.Equal(t, "book", sheetTableName("/x/book.xlsx", "Sheet1", 1))
	assert.Equal(t, "book__Q1", sheetTableName("/x/book.xlsx", "Q1", 3))
}
