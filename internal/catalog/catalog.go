package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"fsql/internal/ddl"
	"fsql/internal/domain"
	"fsql/internal/sniff"
)

// Catalog tracks attached folders and the DuckDB views registered for their
// files. One attach root becomes one database alias with an <alias>_root
// schema plus one schema per first-level subfolder.
type Catalog struct {
	db  *sql.DB
	log *slog.Logger

	mu        sync.RWMutex
	databases map[string]*databaseState // keyed by lowercase alias
}

type databaseState struct {
	alias      string
	path       string
	attachedAt time.Time
	schemas    map[string]*schemaState // keyed by lowercase schema name
}

type schemaState struct {
	name   string
	path   string
	names  *Names
	tables map[string]domain.RegisteredTable // keyed by internal name
}

// New creates a Catalog on top of an open DuckDB connection.
func New(db *sql.DB, log *slog.Logger) *Catalog {
	return &Catalog{
		db:        db,
		log:       log,
		databases: make(map[string]*databaseState),
	}
}

// Attach scans path and registers its files under alias. An empty alias
// defaults to the sanitized folder name. Attaching an alias that is already
// in use, or a folder that is already attached under another alias, is a
// conflict; the existing attachment stays untouched.
func (c *Catalog) Attach(ctx context.Context, path, alias string) (*domain.Database, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, domain.ErrValidation("invalid path %q: %v", path, err)
	}
	if alias == "" {
		alias = SafeName(filepath.Base(abs))
	}
	if err := ddl.ValidateIdentifier(alias); err != nil {
		return nil, domain.ErrValidation("invalid alias %q: %v", alias, err)
	}

	c.mu.Lock()
	if _, exists := c.databases[strings.ToLower(alias)]; exists {
		c.mu.Unlock()
		return nil, domain.ErrConflict("alias %q is already attached", alias)
	}
	for _, other := range c.databases {
		if other.path == abs {
			c.mu.Unlock()
			return nil, domain.ErrConflict("folder %q is already attached as %q", abs, other.alias)
		}
	}
	// Reserve the alias so concurrent attaches collide here, not in DuckDB.
	st := &databaseState{
		alias:      alias,
		path:       abs,
		attachedAt: time.Now().UTC(),
		schemas:    make(map[string]*schemaState),
	}
	c.databases[strings.ToLower(alias)] = st
	c.mu.Unlock()

	if err := c.populate(ctx, st); err != nil {
		c.mu.Lock()
		delete(c.databases, strings.ToLower(alias))
		c.mu.Unlock()
		return nil, err
	}

	db := c.snapshot(st)
	c.log.Info("folder attached", "alias", alias, "path", abs, "schemas", len(db.Schemas))
	return &db, nil
}

// populate scans the folder and registers every file, creating the schemas
// in DuckDB. Files that fail to register are skipped with a warning.
func (c *Catalog) populate(ctx context.Context, st *databaseState) error {
	scan, err := ScanFolder(st.path)
	if err != nil {
		return err
	}

	register := func(schemaName, dir string, files []FileEntry) error {
		sch := &schemaState{
			name:   schemaName,
			path:   dir,
			names:  NewNames(),
			tables: make(map[string]domain.RegisteredTable),
		}
		if _, err := c.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+ddl.QuoteIdentifier(schemaName)); err != nil {
			return fmt.Errorf("create schema %s: %w", schemaName, err)
		}
		for _, fe := range files {
			if err := c.registerFile(ctx, sch, fe); err != nil {
				c.log.Warn("file skipped", "path", fe.Path, "error", err)
			}
		}
		c.mu.Lock()
		st.schemas[strings.ToLower(schemaName)] = sch
		c.mu.Unlock()
		return nil
	}

	if err := register(st.alias+"_root", st.path, scan.Root); err != nil {
		return err
	}
	subNames := make([]string, 0, len(scan.Subfolders))
	for name := range scan.Subfolders {
		subNames = append(subNames, name)
	}
	sort.Strings(subNames)
	schemaNames := NewNames()
	schemaNames.Register(st.alias + "_root")
	for _, name := range subNames {
		schemaName := st.alias + "_" + SafeName(name)
		// Distinct subfolders can sanitize to the same schema name.
		schemaName = schemaNames.Register(schemaName)
		if err := register(schemaName, filepath.Join(st.path, name), scan.Subfolders[name]); err != nil {
			return err
		}
	}
	return nil
}

// registerFile registers the tables for one file: a single view for a
// delimited file, one view per worksheet for a workbook.
func (c *Catalog) registerFile(ctx context.Context, sch *schemaState, fe FileEntry) error {
	switch fe.Kind {
	case domain.KindExcel:
		return c.registerWorkbook(ctx, sch, fe)
	default:
		return c.registerDelimited(ctx, sch, fe)
	}
}

// registerDelimited tries the cheapest registration first and falls back to
// progressively more forgiving readers: read_csv_auto, then read_csv with
// sniffed options, then a transcoded all-varchar materialization for files
// DuckDB cannot read in place.
func (c *Catalog) registerDelimited(ctx context.Context, sch *schemaState, fe FileEntry) error {
	internal := sch.names.Register(fe.Stem)
	target := ddl.QuoteQualified(sch.name, internal)

	enc, delim, err := sniff.SniffFile(fe.Path)
	if err != nil {
		return err
	}

	var errs []error
	if enc.DuckDBName() == "utf-8" {
		q := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM read_csv_auto(%s)",
			target, ddl.QuoteLiteral(fe.Path))
		if _, err := c.db.ExecContext(ctx, q); err == nil {
			c.setTable(sch, internal, c.record(sch, fe, internal, "", delim, enc))
			return nil
		} else {
			errs = append(errs, err)
		}
	}

	if name := enc.DuckDBName(); name != "" {
		q := fmt.Sprintf(
			"CREATE OR REPLACE VIEW %s AS SELECT * FROM read_csv(%s, delim=%s, header=true, encoding=%s, null_padding=true)",
			target, ddl.QuoteLiteral(fe.Path), ddl.QuoteLiteral(string(delim)), ddl.QuoteLiteral(name))
		if _, err := c.db.ExecContext(ctx, q); err == nil {
			c.setTable(sch, internal, c.record(sch, fe, internal, "", delim, enc))
			return nil
		} else {
			errs = append(errs, err)
		}
	}

	// Last resort: transcode to UTF-8 and materialize everything as text.
	tmp, err := transcodeToTemp(fe.Path, enc)
	if err != nil {
		errs = append(errs, err)
		return joinErrs(errs)
	}
	defer os.Remove(tmp) //nolint:errcheck
	q := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv(%s, delim=%s, header=true, all_varchar=true, null_padding=true, ignore_errors=true)",
		target, ddl.QuoteLiteral(tmp), ddl.QuoteLiteral(string(delim)))
	if _, err := c.db.ExecContext(ctx, q); err != nil {
		errs = append(errs, err)
		return joinErrs(errs)
	}
	c.setTable(sch, internal, c.record(sch, fe, internal, "", delim, enc))
	return nil
}

// registerWorkbook registers one table per worksheet. A single-sheet
// workbook takes the file stem as its table name; multi-sheet workbooks get
// stem__sheet names. DuckDB's excel reader is tried first, then the sheet is
// materialized through a temporary CSV.
func (c *Catalog) registerWorkbook(ctx context.Context, sch *schemaState, fe FileEntry) error {
	if strings.EqualFold(filepath.Ext(fe.Path), ".xls") {
		return domain.ErrValidation("legacy .xls workbook %s is not supported, convert it to .xlsx", fe.Path)
	}
	sheets, err := SheetNames(fe.Path)
	if err != nil {
		// Sheet enumeration can fail on workbooks DuckDB still reads
		// fine. Fall back to a single table over the default sheet.
		c.log.Warn("sheet enumeration failed, registering default sheet",
			"path", fe.Path, "error", err)
		return c.registerDefaultSheet(ctx, sch, fe)
	}
	if len(sheets) == 0 {
		return domain.ErrValidation("workbook %s has no sheets", fe.Path)
	}

	var firstErr error
	registered := 0
	for _, sheet := range sheets {
		display := sheetTableName(fe.Path, sheet, len(sheets))
		internal := sch.names.Register(display)
		target := ddl.QuoteQualified(sch.name, internal)

		q := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM read_xlsx(%s, sheet=%s)",
			target, ddl.QuoteLiteral(fe.Path), ddl.QuoteLiteral(sheet))
		if _, err := c.db.ExecContext(ctx, q); err == nil {
			t := c.record(sch, fe, internal, sheet, 0, sniff.EncUTF8)
			t.Display = display
			c.setTable(sch, internal, t)
			registered++
			continue
		}

		tmp, err := MaterializeSheet(fe.Path, sheet)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			c.log.Warn("sheet skipped", "path", fe.Path, "sheet", sheet, "error", err)
			continue
		}
		q = fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv(%s, header=true, all_varchar=true, null_padding=true)",
			target, ddl.QuoteLiteral(tmp))
		_, execErr := c.db.ExecContext(ctx, q)
		_ = os.Remove(tmp)
		if execErr != nil {
			if firstErr == nil {
				firstErr = execErr
			}
			c.log.Warn("sheet skipped", "path", fe.Path, "sheet", sheet, "error", execErr)
			continue
		}
		t := c.record(sch, fe, internal, sheet, 0, sniff.EncUTF8)
		t.Display = display
		c.setTable(sch, internal, t)
		registered++
	}
	if registered == 0 && firstErr != nil {
		return firstErr
	}
	return nil
}

// registerDefaultSheet registers a workbook as one table over whatever sheet
// DuckDB's excel reader picks by default. The table takes the file stem as
// its name and no sheet name is recorded.
func (c *Catalog) registerDefaultSheet(ctx context.Context, sch *schemaState, fe FileEntry) error {
	display := sheetTableName(fe.Path, "", 1)
	internal := sch.names.Register(display)
	target := ddl.QuoteQualified(sch.name, internal)

	q := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM read_xlsx(%s)",
		target, ddl.QuoteLiteral(fe.Path))
	if _, err := c.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("register workbook %s: %w", fe.Path, err)
	}
	t := c.record(sch, fe, internal, "", 0, sniff.EncUTF8)
	t.Display = display
	c.setTable(sch, internal, t)
	return nil
}

// setTable publishes a registration. Attach-time registration happens before
// the schema is visible, but Reregister runs against live schemas.
func (c *Catalog) setTable(sch *schemaState, internal string, t domain.RegisteredTable) {
	c.mu.Lock()
	sch.tables[internal] = t
	c.mu.Unlock()
}

func (c *Catalog) record(sch *schemaState, fe FileEntry, internal, sheet string, delim rune, enc sniff.Encoding) domain.RegisteredTable {
	t := domain.RegisteredTable{
		Schema:   sch.name,
		Display:  fe.Stem,
		Internal: internal,
		Path:     fe.Path,
		Kind:     fe.Kind,
		Sheet:    sheet,
		Encoding: string(enc),
	}
	if delim != 0 {
		t.Delimiter = string(delim)
	}
	return t
}

// Reregister rebuilds the registrations backed by a file after its content
// changed on disk, so views over materialized fallbacks see the new data.
func (c *Catalog) Reregister(ctx context.Context, t *domain.RegisteredTable) error {
	c.mu.RLock()
	sch, ok := c.findSchema(t.Schema)
	c.mu.RUnlock()
	if !ok {
		return domain.ErrNotFound("schema %q is not attached", t.Schema)
	}
	fe, ok := dataFile(t.Path)
	if !ok {
		return domain.ErrValidation("%s is not a data file", t.Path)
	}
	return c.registerFile(ctx, sch, fe)
}

// Detach drops the alias's schemas and forgets its registrations.
func (c *Catalog) Detach(ctx context.Context, alias string) error {
	c.mu.Lock()
	st, ok := c.databases[strings.ToLower(alias)]
	if ok {
		delete(c.databases, strings.ToLower(alias))
	}
	c.mu.Unlock()
	if !ok {
		return domain.ErrNotFound("alias %q is not attached", alias)
	}

	for _, sch := range st.schemas {
		if _, err := c.db.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+ddl.QuoteIdentifier(sch.name)+" CASCADE"); err != nil {
			c.log.Warn("drop schema failed", "schema", sch.name, "error", err)
		}
	}
	c.log.Info("folder detached", "alias", st.alias, "path", st.path)
	return nil
}

// Refresh re-scans an attached folder, dropping and re-registering its
// schemas so new, changed and deleted files are picked up.
func (c *Catalog) Refresh(ctx context.Context, alias string) (*domain.Database, error) {
	c.mu.RLock()
	st, ok := c.databases[strings.ToLower(alias)]
	c.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound("alias %q is not attached", alias)
	}
	path := st.path
	name := st.alias
	if err := c.Detach(ctx, alias); err != nil {
		return nil, err
	}
	return c.Attach(ctx, path, name)
}

// RefreshAll re-registers every attached folder.
func (c *Catalog) RefreshAll(ctx context.Context) error {
	for _, db := range c.Databases() {
		if _, err := c.Refresh(ctx, db.Alias); err != nil {
			return err
		}
	}
	return nil
}

// AliasForPath returns the alias whose attach root contains path.
func (c *Catalog) AliasForPath(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, st := range c.databases {
		if abs == st.path || strings.HasPrefix(abs, st.path+string(filepath.Separator)) {
			return st.alias, true
		}
	}
	return "", false
}

// Databases lists the attached folders in alias order.
func (c *Catalog) Databases() []domain.Database {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Database, 0, len(c.databases))
	for _, st := range c.databases {
		out = append(out, c.snapshotLocked(st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

// Tables lists the registered tables of one schema in internal-name order.
func (c *Catalog) Tables(schema string) ([]domain.RegisteredTable, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sch, ok := c.findSchema(schema)
	if !ok {
		return nil, domain.ErrNotFound("schema %q is not attached", schema)
	}
	out := make([]domain.RegisteredTable, 0, len(sch.tables))
	for _, t := range sch.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Internal < out[j].Internal })
	return out, nil
}

// Lookup finds a registered table by schema and display or internal name.
func (c *Catalog) Lookup(schema, name string) (*domain.RegisteredTable, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sch, ok := c.findSchema(schema)
	if !ok {
		return nil, domain.ErrNotFound("schema %q is not attached", schema)
	}
	internal, ok := sch.names.Resolve(name)
	if !ok {
		return nil, domain.ErrNotFound("table %q is not registered in schema %q", name, schema)
	}
	t := sch.tables[internal]
	return &t, nil
}

// SchemaInfo returns the canonical name and folder of a schema.
func (c *Catalog) SchemaInfo(schema string) (name, path string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sch, ok := c.findSchema(schema)
	if !ok {
		return "", "", false
	}
	return sch.name, sch.path, true
}

// Resolve implements the table-name resolution the SQL rewriter needs.
func (c *Catalog) Resolve(schema, display string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sch, ok := c.findSchema(schema)
	if !ok {
		return "", false
	}
	return sch.names.Resolve(display)
}

// findSchema must be called with the mutex held.
func (c *Catalog) findSchema(schema string) (*schemaState, bool) {
	key := strings.ToLower(schema)
	for _, st := range c.databases {
		if sch, ok := st.schemas[key]; ok {
			return sch, true
		}
	}
	return nil, false
}

func (c *Catalog) snapshot(st *databaseState) domain.Database {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked(st)
}

func (c *Catalog) snapshotLocked(st *databaseState) domain.Database {
	db := domain.Database{
		Alias:      st.alias,
		Path:       st.path,
		AttachedAt: st.attachedAt,
	}
	for _, sch := range st.schemas {
		db.Schemas = append(db.Schemas, domain.Schema{
			Name:  sch.name,
			Path:  sch.path,
			Alias: st.alias,
		})
	}
	sort.Slice(db.Schemas, func(i, j int) bool { return db.Schemas[i].Name < db.Schemas[j].Name })
	return db
}

// transcodeToTemp decodes path into a temporary UTF-8 file.
func transcodeToTemp(path string, enc sniff.Encoding) (string, error) {
	src, err := os.Open(path) //nolint:gosec
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close() //nolint:errcheck

	tmp, err := os.CreateTemp("", "fsql-csv-*.csv")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.ReadFrom(enc.NewReader(src)); err != nil {
		cleanup(tmp)
		return "", fmt.Errorf("transcode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func joinErrs(errs []error) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("registration failed: %s", strings.Join(msgs, "; "))
}
