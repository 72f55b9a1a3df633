// Package verify executes generated INSERT statements against a throwaway
// in-memory SQLite database to prove they run.
package verify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"
)

var (
	errNoColumns           = errors.New("table has no columns")
	errInvalidIdentifier   = errors.New("not a plain identifier")
	errUnexpectedStatement = errors.New("not an INSERT into the verified table")
)

// identPattern matches the names the verifier will paste into SQL it runs.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// Error reports the statement that SQLite rejected.
type Error struct {
	Statement int // 1-based; 0 when the failure happened before inserting
	Err       error
}

func (e *Error) Error() string {
	if e.Statement > 0 {
		return fmt.Sprintf("verify: statement %d: %v", e.Statement, e.Err)
	}
	return fmt.Sprintf("verify: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// SQLite runs verification in a fresh in-memory database per call.
type SQLite struct{}

// New returns a SQLite verifier.
func New() *SQLite { return &SQLite{} }

// Verify creates table with one TEXT column per name, executes every
// statement inside a transaction, and returns the resulting row count.
//
// The table must be "name" or "schema.name" and every column a plain
// identifier. Each statement must start with "INSERT INTO <table> (".
// Nothing is executed unless all of these hold.
func (SQLite) Verify(ctx context.Context, table string, columns, statements []string) (int, error) {
	if len(columns) == 0 {
		return 0, &Error{Err: errNoColumns}
	}
	if err := checkTable(table); err != nil {
		return 0, &Error{Err: err}
	}
	for _, c := range columns {
		if !identPattern.MatchString(c) {
			return 0, &Error{Err: fmt.Errorf("column %q: %w", c, errInvalidIdentifier)}
		}
	}
	prefix := "INSERT INTO " + table + " ("
	for i, stmt := range statements {
		if !strings.HasPrefix(stmt, prefix) {
			return 0, &Error{Statement: i + 1, Err: errUnexpectedStatement}
		}
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return 0, &Error{Err: fmt.Errorf("open sqlite: %w", err)}
	}
	defer db.Close()
	// Each connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	if schema, _, ok := strings.Cut(table, "."); ok {
		if _, err := db.ExecContext(ctx, "ATTACH DATABASE ':memory:' AS "+schema); err != nil {
			return 0, &Error{Err: fmt.Errorf("attach schema %s: %w", schema, err)}
		}
	}
	if _, err := db.ExecContext(ctx, createTableSQL(table, columns)); err != nil {
		return 0, &Error{Err: fmt.Errorf("create table: %w", err)}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &Error{Err: fmt.Errorf("begin: %w", err)}
	}
	defer tx.Rollback()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, &Error{Statement: i + 1, Err: err}
		}
	}

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, &Error{Err: fmt.Errorf("count rows: %w", err)}
	}
	if err := tx.Commit(); err != nil {
		return 0, &Error{Err: fmt.Errorf("commit: %w", err)}
	}
	return n, nil
}

// checkTable accepts "name" or "schema.name" made of plain identifiers.
func checkTable(table string) error {
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return fmt.Errorf("table %q: %w", table, errInvalidIdentifier)
	}
	for _, p := range parts {
		if !identPattern.MatchString(p) {
			return fmt.Errorf("table %q: %w", table, errInvalidIdentifier)
		}
	}
	return nil
}

func createTableSQL(table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = c + " TEXT"
	}
	return "CREATE TABLE " + table + " (" + strings.Join(defs, ", ") + ")"
}
