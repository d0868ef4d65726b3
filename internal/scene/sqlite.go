package scene

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/ohler55/ojg/oj"
	_ "modernc.org/sqlite"
)

// SQLiteWriter exports prims into a flat relational schema so a translated
// scene can be inspected with plain SQL.
type SQLiteWriter struct {
	db        *sql.DB
	tx        *sql.Tx
	stmtPrim  *sql.Stmt
	stmtAttr  *sql.Stmt
	stmtRel   *sql.Stmt
	stmtAPI   *sql.Stmt
	batchSize int
	count     int
	mu        sync.Mutex
}

// NewSQLiteWriter opens (or creates) dbPath and initializes the schema.
func NewSQLiteWriter(dbPath string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Performance tuning for bulk insert
	if _, err := db.Exec("PRAGMA synchronous = OFF"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS prims (
		path TEXT PRIMARY KEY,
		parent TEXT,
		name TEXT NOT NULL,
		specifier TEXT NOT NULL,
		type_name TEXT,
		kind TEXT
	);
	CREATE TABLE IF NOT EXISTS attributes (
		prim_path TEXT NOT NULL,
		name TEXT NOT NULL,
		type_name TEXT NOT NULL,
		value JSON,
		time_samples JSON,
		connections JSON,
		PRIMARY KEY (prim_path, name)
	) WITHOUT ROWID;
	CREATE TABLE IF NOT EXISTS relationships (
		prim_path TEXT NOT NULL,
		name TEXT NOT NULL,
		targets JSON NOT NULL,
		PRIMARY KEY (prim_path, name)
	) WITHOUT ROWID;
	CREATE TABLE IF NOT EXISTS api_schemas (
		prim_path TEXT NOT NULL,
		schema TEXT NOT NULL,
		PRIMARY KEY (schema, prim_path)
	) WITHOUT ROWID;
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &SQLiteWriter{db: db, batchSize: 5000}
	if err := w.beginTx(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLiteWriter) beginTx() error {
	var err error
	if w.tx, err = w.db.Begin(); err != nil {
		return err
	}
	if w.stmtPrim, err = w.tx.Prepare(`
		INSERT OR REPLACE INTO prims (path, parent, name, specifier, type_name, kind)
		VALUES (?, ?, ?, ?, ?, ?)
	`); err != nil {
		return err
	}
	if w.stmtAttr, err = w.tx.Prepare(`
		INSERT OR REPLACE INTO attributes (prim_path, name, type_name, value, time_samples, connections)
		VALUES (?, ?, ?, ?, ?, ?)
	`); err != nil {
		return err
	}
	if w.stmtRel, err = w.tx.Prepare(`INSERT OR REPLACE INTO relationships (prim_path, name, targets) VALUES (?, ?, ?)`); err != nil {
		return err
	}
	w.stmtAPI, err = w.tx.Prepare(`INSERT OR IGNORE INTO api_schemas (prim_path, schema) VALUES (?, ?)`)
	return err
}

func (w *SQLiteWriter) commitTx() error {
	for _, st := range []*sql.Stmt{w.stmtPrim, w.stmtAttr, w.stmtRel, w.stmtAPI} {
		if st != nil {
			_ = st.Close()
		}
	}
	return w.tx.Commit()
}

// WritePrim inserts one prim with its attributes, relationships and schemas.
func (w *SQLiteWriter) WritePrim(p *Prim) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var parent *string
	if pp := p.Path.Parent(); pp != AbsoluteRoot {
		s := string(pp)
		parent = &s
	}
	if _, err := w.stmtPrim.Exec(string(p.Path), parent, p.Name(), p.Specifier.String(), nullable(p.TypeName), nullable(p.Kind)); err != nil {
		return fmt.Errorf("insert prim %s: %w", p.Path, err)
	}

	for _, a := range p.Attributes() {
		doc := attributeDocument(a)
		if _, err := w.stmtAttr.Exec(string(p.Path), a.Name, string(a.Type),
			jsonOrNil(doc["value"]), jsonOrNil(doc["timeSamples"]), jsonOrNil(doc["connections"])); err != nil {
			return fmt.Errorf("insert attribute %s: %w", p.Path.AppendProperty(a.Name), err)
		}
	}
	for _, r := range p.Relationships() {
		if _, err := w.stmtRel.Exec(string(p.Path), r.Name, oj.JSON(pathsValue(r.Targets()))); err != nil {
			return fmt.Errorf("insert relationship %s: %w", p.Path.AppendProperty(r.Name), err)
		}
	}
	for _, api := range p.APISchemas() {
		if _, err := w.stmtAPI.Exec(string(p.Path), api); err != nil {
			return fmt.Errorf("insert api schema %s: %w", api, err)
		}
	}

	w.count++
	if w.count >= w.batchSize {
		if err := w.commitTx(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		if err := w.beginTx(); err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		w.count = 0
	}
	return nil
}

// Close commits pending rows and closes the database.
func (w *SQLiteWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.commitTx(); err != nil {
		_ = w.db.Close()
		return err
	}
	if _, err := w.db.Exec(`CREATE INDEX IF NOT EXISTS idx_prims_parent ON prims(parent, name)`); err != nil {
		_ = w.db.Close()
		return fmt.Errorf("create index: %w", err)
	}
	return w.db.Close()
}

// WriteSQLite exports the whole document to dbPath.
func WriteSQLite(dbPath string, s *Store) error {
	w, err := NewSQLiteWriter(dbPath)
	if err != nil {
		return err
	}
	if err := s.Walk(w.WritePrim); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func jsonOrNil(v any) any {
	if v == nil {
		return nil
	}
	return oj.JSON(v)
}
