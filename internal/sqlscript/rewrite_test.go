package sqlscript

import (
	"strings"
	"testing"
)

// testResolver resolves names in a single schema, case-insensitively.
func testResolver(schema string, names map[string]string) ResolveFunc {
	return func(s, display string) (string, bool) {
		if !strings.EqualFold(s, schema) {
			return "", false
		}
		internal, ok := names[strings.ToLower(display)]
		return internal, ok
	}
}

func TestRewriteTables(t *testing.T) {
	resolve := testResolver("sales_root", map[string]string{
		"monthly report": "monthly_report",
		"orders":         "orders",
	})

	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "quoted display name",
			sql:  `SELECT * FROM sales_root."Monthly Report"`,
			want: `SELECT * FROM sales_root."monthly_report"`,
		},
		{
			name: "bracketed display name",
			sql:  "SELECT * FROM sales_root.[Monthly Report]",
			want: `SELECT * FROM sales_root."monthly_report"`,
		},
		{
			name: "spaced dot",
			sql:  `SELECT * FROM sales_root . "Monthly Report"`,
			want: `SELECT * FROM sales_root . "monthly_report"`,
		},
		{
			name: "case-insensitive schema",
			sql:  `SELECT * FROM SALES_ROOT."Monthly Report"`,
			want: `SELECT * FROM SALES_ROOT."monthly_report"`,
		},
		{
			name: "already internal name untouched",
			sql:  "SELECT * FROM sales_root.orders",
			want: "SELECT * FROM sales_root.orders",
		},
		{
			name: "unknown schema untouched",
			sql:  `SELECT * FROM other."Monthly Report"`,
			want: `SELECT * FROM other."Monthly Report"`,
		},
		{
			name: "string literal untouched",
			sql:  `SELECT 'sales_root."Monthly Report"' FROM sales_root.orders`,
			want: `SELECT 'sales_root."Monthly Report"' FROM sales_root.orders`,
		},
		{
			name: "comment untouched",
			sql:  "SELECT 1 -- sales_root.\"Monthly Report\"\nFROM sales_root.orders",
			want: "SELECT 1 -- sales_root.\"Monthly Report\"\nFROM sales_root.orders",
		},
		{
			name: "column chain not mistaken for schema",
			sql:  `SELECT o.sales_root."Monthly Report" FROM t o`,
			want: `SELECT o.sales_root."Monthly Report" FROM t o`,
		},
		{
			name: "multiple references",
			sql:  `SELECT * FROM sales_root."Monthly Report" a JOIN sales_root.[Monthly Report] b ON a.id = b.id`,
			want: `SELECT * FROM sales_root."monthly_report" a JOIN sales_root."monthly_report" b ON a.id = b.id`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RewriteTables(tt.sql, resolve); got != tt.want {
				t.Errorf("RewriteTables() = %q, want %q", got, tt.want)
			}
		})
	}
}
