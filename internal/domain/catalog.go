package domain

import "time"

// FileKind classifies the on-disk format backing a registered table.
type FileKind string

const (
	KindDelimited FileKind = "delimited" // .csv, .tsv, .txt
	KindExcel     FileKind = "excel"     // .xlsx, .xls
)

// Database is an attached folder. Its root files form one schema and each
// immediate subfolder forms another.
type Database struct {
	Alias      string    `json:"alias"`
	Path       string    `json:"path"`
	Schemas    []Schema  `json:"schemas"`
	AttachedAt time.Time `json:"attached_at"`
}

// Schema is a named group of tables backed by a single folder.
type Schema struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Alias string `json:"alias"` // owning database alias
}

// TableRef identifies a table by schema and user-facing display name.
type TableRef struct {
	Schema  string `json:"schema"`
	Display string `json:"display"`
}

// RegisteredTable records how a display table maps onto a source file.
type RegisteredTable struct {
	Schema    string   `json:"schema"`
	Display   string   `json:"display"`
	Internal  string   `json:"internal"`
	Path      string   `json:"path"`
	Kind      FileKind `json:"kind"`
	Sheet     string   `json:"sheet,omitempty"`     // Excel only
	Delimiter string   `json:"delimiter,omitempty"` // delimited only
	Encoding  string   `json:"encoding,omitempty"`  // delimited only
}

// Writable reports whether the table's backing file accepts write-back.
func (t *RegisteredTable) Writable() bool {
	if t.Kind == KindExcel {
		// Legacy .xls workbooks are read-only.
		return len(t.Path) < 4 || t.Path[len(t.Path)-4:] != ".xls"
	}
	return true
}

// ColumnInfo describes one column of a table or result.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// ColumnProfile holds per-column statistics computed by the profiler.
type ColumnProfile struct {
	Column   string   `json:"column"`
	Type     string   `json:"type"`
	Count    int64    `json:"count"`
	Nulls    int64    `json:"nulls"`
	Distinct int64    `json:"distinct"`
	Min      *string  `json:"min,omitempty"`
	Max      *string  `json:"max,omitempty"`
	Avg      *float64 `json:"avg,omitempty"`
}
