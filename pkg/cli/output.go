package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"fsql/internal/domain"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult renders a query result as an aligned table, truncating wide
// cells when stdout is a terminal.
func printResult(w io.Writer, res *domain.QueryResult) {
	maxWidth := cellWidthLimit()

	t := tablewriter.NewWriter(w)
	t.SetHeader(res.Columns)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetBorder(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, row := range res.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = truncate(cellText(v), maxWidth)
		}
		t.Append(record)
	}
	t.Render()

	if res.Capped {
		fmt.Fprintf(w, "(%d rows, capped)\n", res.RowCount)
	} else {
		fmt.Fprintf(w, "(%d rows)\n", res.RowCount)
	}
}

// printRows renders arbitrary tabular data, for listings like tables and
// history.
func printRows(w io.Writer, header []string, rows [][]string) {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetBorder(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.AppendBulk(rows)
	t.Render()
}

func cellText(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

// cellWidthLimit derives a per-cell width cap from the terminal width so a
// single long value cannot wreck the layout. Non-terminal output is not
// truncated.
func cellWidthLimit() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return 0
	}
	limit := width / 2
	if limit < 16 {
		limit = 16
	}
	return limit
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	if limit <= 3 {
		return s[:limit]
	}
	return s[:limit-3] + "..."
}
