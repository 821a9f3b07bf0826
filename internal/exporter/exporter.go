// Package exporter serializes query results into the formats the UI and CLI
// offer for download: CSV, TSV, JSON records, and xlsx workbooks.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/xuri/excelize/v2"

	"fsql/internal/domain"
	"fsql/internal/sniff"
)

// Format identifies an export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a user-supplied format name (or file extension) to a
// Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "csv":
		return FormatCSV, nil
	case "tsv", "tab":
		return FormatTSV, nil
	case "json":
		return FormatJSON, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", domain.ErrValidation("unsupported export format %q (csv, tsv, json, xlsx)", s)
	}
}

// ContentType returns the MIME type served for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatTSV:
		return "text/tab-separated-values"
	default:
		return "text/csv"
	}
}

// Write serializes a result to w in the given format. CSV output carries a
// UTF-8 byte order mark so spreadsheet tools pick up the encoding.
func Write(w io.Writer, res *domain.QueryResult, format Format) error {
	switch format {
	case FormatCSV:
		return writeDelimited(sniff.EncUTF8Sig.NewWriter(w), res, ',')
	case FormatTSV:
		return writeDelimited(w, res, '\t')
	case FormatJSON:
		return writeJSON(w, res)
	case FormatXLSX:
		return writeXLSX(w, res)
	default:
		return domain.ErrValidation("unsupported export format %q", format)
	}
}

// WriteFile exports a result to path atomically, inferring the format from
// the file extension unless format is non-empty.
func WriteFile(path string, res *domain.QueryResult, format Format) error {
	if format == "" {
		dot := strings.LastIndex(path, ".")
		if dot < 0 {
			return domain.ErrValidation("cannot infer export format from %q, pass one explicitly", path)
		}
		f, err := ParseFormat(path[dot:])
		if err != nil {
			return err
		}
		format = f
	}
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer pending.Cleanup() //nolint:errcheck
	if err := Write(pending, res, format); err != nil {
		return err
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func writeDelimited(w io.Writer, res *domain.QueryResult, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(res.Columns); err != nil {
		return err
	}
	record := make([]string, len(res.Columns))
	for _, row := range res.Rows {
		for i, v := range row {
			record[i] = cellString(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, res *domain.QueryResult) error {
	records := make([]map[string]interface{}, len(res.Rows))
	for i, row := range res.Rows {
		rec := make(map[string]interface{}, len(res.Columns))
		for j, col := range res.Columns {
			rec[col] = row[j]
		}
		records[i] = rec
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeXLSX(w io.Writer, res *domain.QueryResult) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck
	const sheet = "Sheet1"

	header := make([]interface{}, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range res.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		out := make([]interface{}, len(row))
		copy(out, row)
		if err := f.SetSheetRow(sheet, cell, &out); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
