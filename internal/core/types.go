package core

import (
	"strings"
	"time"
)

// Cell is a single CSV value. It is either present (carrying text) or missing,
// in which case it renders as SQL NULL. The decoder decides which at parse time.
type Cell struct {
	text    string
	present bool
}

// Present returns a cell holding text.
func Present(text string) Cell {
	return Cell{text: text, present: true}
}

// Missing returns a cell with no value.
func Missing() Cell {
	return Cell{}
}

// IsMissing reports whether the cell has no value.
func (c Cell) IsMissing() bool {
	return !c.present
}

// Text returns the cell's text and whether it is present.
func (c Cell) Text() (string, bool) {
	return c.text, c.present
}

// Row is an ordered sequence of cells aligned with Table.Columns.
type Row []Cell

// Table is a decoded CSV: a header plus data rows.
// Column names are not required to be unique.
type Table struct {
	Columns []string
	Rows    []Row
}

// CaseTransform selects an optional case change applied to non-NULL values.
type CaseTransform string

const (
	CaseNone  CaseTransform = "none"
	CaseUpper CaseTransform = "uppercase"
	CaseLower CaseTransform = "lowercase"
)

// ParseCaseTransform maps a request parameter to a CaseTransform.
// Anything other than exactly "uppercase" or "lowercase" is CaseNone, never
// an error. Matching is case-sensitive and padding is not trimmed.
func ParseCaseTransform(s string) CaseTransform {
	switch CaseTransform(s) {
	case CaseUpper:
		return CaseUpper
	case CaseLower:
		return CaseLower
	default:
		return CaseNone
	}
}

// apply transforms text according to the case setting.
func (c CaseTransform) apply(s string) string {
	switch c {
	case CaseUpper:
		return strings.ToUpper(s)
	case CaseLower:
		return strings.ToLower(s)
	default:
		return s
	}
}

// Dialect names the SQL variant requested by the client.
//
// Output is identical for every dialect: ANSI-style INSERT with single-quoted
// string literals. The option is carried through so callers and history can
// record what was asked for.
type Dialect string

const (
	DialectPostgreSQL Dialect = "postgresql"
	DialectMySQL      Dialect = "mysql"
	DialectSQLServer  Dialect = "sqlserver"
	DialectOracle     Dialect = "oracle"
)

// DefaultDialect is used when the client does not send one.
const DefaultDialect = DialectPostgreSQL

// ParseDialect maps a request parameter to a Dialect. Unknown names are kept
// as given; an empty name becomes DefaultDialect.
func ParseDialect(s string) Dialect {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultDialect
	}
	return Dialect(strings.ToLower(s))
}

// Known reports whether d is one of the named dialects.
func (d Dialect) Known() bool {
	switch d {
	case DialectPostgreSQL, DialectMySQL, DialectSQLServer, DialectOracle:
		return true
	}
	return false
}

// DefaultTableName is the table used when the client does not name one.
const DefaultTableName = "sua_tabela"

// Options controls statement generation.
type Options struct {
	TableName     string        // Target table, emitted verbatim
	CaseTransform CaseTransform // Applied to non-NULL values only
	Dialect       Dialect       // Accepted but inert
}

// Request is a single upload to convert.
type Request struct {
	FileName string
	Size     int64 // Bytes, if known (0 otherwise)
	Options  Options
	Verify   bool // Load the output into a scratch database before returning
}

// Result is the outcome of a successful conversion.
type Result struct {
	ID           string
	FileName     string
	Options      Options
	SQL          string
	Statements   int
	Columns      []string
	BytesRead    int64
	VerifiedRows int  // Rows loaded by verification (0 if not requested)
	Verified     bool // True when verification ran
	Cached       bool // True when SQL came from the result cache
	ArchiveKey   string
	Duration     time.Duration
}
