package domain

import "time"

// QueryResult holds the structured output of a single SELECT statement.
type QueryResult struct {
	Columns  []string        `json:"columns"`
	Rows     [][]interface{} `json:"rows"`
	RowCount int             `json:"row_count"`
	Capped   bool            `json:"capped"` // true when a row cap was injected
}

// StatementKind classifies what a script statement did.
type StatementKind string

const (
	StmtSelect    StatementKind = "select"
	StmtWriteBack StatementKind = "write_back"
	StmtCTAS      StatementKind = "ctas"
	StmtUtility   StatementKind = "utility"
)

// StatementOutcome is the per-statement result of running a script.
type StatementOutcome struct {
	Kind         StatementKind `json:"kind"`
	Result       *QueryResult  `json:"result,omitempty"`   // SELECT only
	OutPath      string        `json:"out_path,omitempty"` // CTAS only
	Table        string        `json:"table,omitempty"`    // write-back target
	RowsAffected int64         `json:"rows_affected,omitempty"`
	DurationMs   int64         `json:"duration_ms"`
}

// ScriptResult aggregates the outcomes of all statements in a script.
type ScriptResult struct {
	Statements []StatementOutcome `json:"statements"`
	Refreshed  bool               `json:"refreshed"` // catalog re-scanned after writes
	DurationMs int64              `json:"duration_ms"`
}

// HistoryEntry records one executed script in the metastore.
type HistoryEntry struct {
	ID         string    `json:"id"`
	SQL        string    `json:"sql"`
	Status     string    `json:"status"` // "ok" or "error"
	Error      string    `json:"error,omitempty"`
	Rows       int64     `json:"rows"`
	DurationMs int64     `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
}

// SavedQuery is a named SQL script stored in the metastore.
type SavedQuery struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SQL       string    `json:"sql"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecentDatabase is a previously attached folder remembered across restarts.
type RecentDatabase struct {
	Path       string    `json:"path"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// WriteLogEntry records a backup created before a write-back or CTAS
// overwrite, enabling undo.
type WriteLogEntry struct {
	ID         string    `json:"id"`
	SourcePath string    `json:"source_path"`
	BackupPath string    `json:"backup_path"`
	Operation  string    `json:"operation"` // "write_back" or "ctas"
	CreatedAt  time.Time `json:"created_at"`
}
