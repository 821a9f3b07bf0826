package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// SheetNames lists the worksheets of an xlsx/xlsm workbook in workbook order.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck
	return f.GetSheetList(), nil
}

// MaterializeSheet writes one worksheet to a temporary CSV file and returns
// its path. Used as the registration fallback when DuckDB's excel reader
// cannot handle a workbook. The caller owns the returned file.
func MaterializeSheet(path, sheet string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	rows, err := f.Rows(sheet)
	if err != nil {
		return "", fmt.Errorf("read sheet %q of %s: %w", sheet, path, err)
	}
	defer rows.Close() //nolint:errcheck

	tmp, err := os.CreateTemp("", "fsql-sheet-*.csv")
	if err != nil {
		return "", fmt.Errorf("create temp csv: %w", err)
	}

	w := csv.NewWriter(tmp)
	width := 0
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			cleanup(tmp)
			return "", fmt.Errorf("read sheet %q of %s: %w", sheet, path, err)
		}
		// Pad to the header width so every record has the same arity.
		if width == 0 {
			width = len(cols)
		}
		for len(cols) < width {
			cols = append(cols, "")
		}
		if err := w.Write(cols); err != nil {
			cleanup(tmp)
			return "", fmt.Errorf("write temp csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		cleanup(tmp)
		return "", fmt.Errorf("write temp csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp csv: %w", err)
	}
	return tmp.Name(), nil
}

func cleanup(f *os.File) {
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
}

// sheetTableName builds the display name for one worksheet: the workbook's
// file stem plus the sheet name, joined with a double underscore. Workbooks
// with a single sheet use the stem alone.
func sheetTableName(path, sheet string, sheetCount int) string {
	base := filepath.Base(path)
	stem := base[:len(base)-len(filepath.Ext(base))]
	if sheetCount == 1 {
		return stem
	}
	return stem + "__" + sheet
}
