package core

import (
	"errors"
	"strings"
	"testing"
)

// ----------------------------------------------------------------------------
// Generate Tests
// ----------------------------------------------------------------------------

func table(header []string, rows ...Row) Table {
	return Table{Columns: NormalizeColumns(header), Rows: rows}
}

func TestGenerateScenarios(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		opts  Options
		want  string
	}{
		{
			name:  "escaped quote and null",
			table: table([]string{"First Name", "Age"}, Row{Present("O'Brien"), Missing()}),
			opts:  Options{TableName: "people", CaseTransform: CaseNone},
			want:  "INSERT INTO people (first_name, age) VALUES ('O''Brien', NULL);",
		},
		{
			name:  "uppercase leaves null alone",
			table: table([]string{"First Name", "Age"}, Row{Present("O'Brien"), Missing()}),
			opts:  Options{TableName: "people", CaseTransform: CaseUpper},
			want:  "INSERT INTO people (first_name, age) VALUES ('O''BRIEN', NULL);",
		},
		{
			name:  "zero data rows",
			table: table([]string{"a", "b"}),
			opts:  Options{TableName: "t"},
			want:  "",
		},
		{
			name: "two rows joined by newline",
			table: table([]string{"A", "B"},
				Row{Present("1"), Present("2")},
				Row{Present("3"), Present("4")},
			),
			opts: Options{TableName: "t"},
			want: "INSERT INTO t (a, b) VALUES ('1', '2');\nINSERT INTO t (a, b) VALUES ('3', '4');",
		},
		{
			name:  "zero columns",
			table: Table{Rows: []Row{{}, {}}},
			opts:  Options{TableName: "t"},
			want:  "INSERT INTO t () VALUES ();\nINSERT INTO t () VALUES ();",
		},
		{
			name:  "lowercase",
			table: table([]string{"Name"}, Row{Present("ÁNGEL")}),
			opts:  Options{TableName: "t", CaseTransform: CaseLower},
			want:  "INSERT INTO t (name) VALUES ('ángel');",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.table, tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestGenerateRowCountPreserved(t *testing.T) {
	for _, n := range []int{0, 1, 7, 250} {
		tbl := Table{Columns: []string{"v"}}
		for i := 0; i < n; i++ {
			tbl.Rows = append(tbl.Rows, Row{Present("x\ny")})
		}
		stmts, err := Statements(tbl, Options{TableName: "t"})
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(stmts) != n {
			t.Errorf("n=%d: got %d statements", n, len(stmts))
		}
	}
}

func TestGenerateCaseScoping(t *testing.T) {
	tbl := Table{Columns: []string{"mixed_col"}, Rows: []Row{{Present("Value")}, {Missing()}}}

	got, err := Generate(tbl, Options{TableName: "My_Table", CaseTransform: CaseUpper})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "INSERT INTO My_Table (mixed_col) VALUES ('VALUE');\nINSERT INTO My_Table (mixed_col) VALUES (NULL);"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got, err = Generate(tbl, Options{TableName: "My_Table", CaseTransform: CaseLower})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "VALUES (NULL);") || strings.Contains(got, "null") {
		t.Errorf("lowercase touched the NULL token: %q", got)
	}
}

func TestGenerateUnknownTransformIsNoop(t *testing.T) {
	tbl := Table{Columns: []string{"a"}, Rows: []Row{{Present("MiXeD")}}}

	want, err := Generate(tbl, Options{TableName: "t", CaseTransform: CaseNone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, raw := range []string{"title", "UPPER", "", "snake_case", " uppercase", "uppercase ", " uppercase ", "Uppercase", "\tlowercase", "Lowercase"} {
		got, err := Generate(tbl, Options{TableName: "t", CaseTransform: ParseCaseTransform(raw)})
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", raw, err)
		}
		if got != want {
			t.Errorf("%q: got %q, want %q", raw, got, want)
		}
		// Unparsed values reach the generator too, e.g. from library callers.
		got, _ = Generate(tbl, Options{TableName: "t", CaseTransform: CaseTransform(raw)})
		if got != want {
			t.Errorf("raw %q: got %q, want %q", raw, got, want)
		}
	}
}

func TestGenerateDialectHasNoEffect(t *testing.T) {
	tbl := Table{Columns: []string{"a"}, Rows: []Row{{Present("1")}}}
	want, _ := Generate(tbl, Options{TableName: "t"})
	for _, d := range []Dialect{DialectPostgreSQL, DialectMySQL, DialectSQLServer, DialectOracle, "db2"} {
		got, err := Generate(tbl, Options{TableName: "t", Dialect: d})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", d, err)
		}
		if got != want {
			t.Errorf("%s: got %q, want %q", d, got, want)
		}
	}
}

func TestGenerateShortRowPadded(t *testing.T) {
	tbl := Table{Columns: []string{"a", "b", "c"}, Rows: []Row{{Present("1")}}}

	got, err := Generate(tbl, Options{TableName: "t"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "INSERT INTO t (a, b, c) VALUES ('1', NULL, NULL);"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGenerateLongRowRejected(t *testing.T) {
	tbl := Table{
		Columns: []string{"a"},
		Rows:    []Row{{Present("1")}, {Present("2"), Present("3")}},
	}

	got, err := Generate(tbl, Options{TableName: "t"})
	if got != "" {
		t.Errorf("expected no output, got %q", got)
	}
	var se *ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("expected *ShapeError, got %v", err)
	}
	if se.Row != 2 || se.Expected != 1 || se.Got != 2 {
		t.Errorf("ShapeError = %+v", se)
	}
}

// ----------------------------------------------------------------------------
// Literal Tests
// ----------------------------------------------------------------------------

func TestQuote(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "''"},
		{"plain", "'plain'"},
		{"'", "''''"},
		{"it's", "'it''s'"},
		{"''", "''''''"},
		{"a'b'c", "'a''b''c'"},
		{"NULL", "'NULL'"},
	}
	for _, tt := range tests {
		if got := Quote(tt.input); got != tt.want {
			t.Errorf("Quote(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestQuoteDoublesEveryQuote(t *testing.T) {
	inputs := []string{"'", "x'", "'x", "x''y", "'''", "no quotes"}
	for _, in := range inputs {
		got := Quote(in)
		if !strings.HasPrefix(got, "'") || !strings.HasSuffix(got, "'") {
			t.Fatalf("Quote(%q) = %q: missing outer quotes", in, got)
		}
		inner := got[1 : len(got)-1]
		if strings.Count(inner, "'") != 2*strings.Count(in, "'") {
			t.Errorf("Quote(%q) = %q: quote count mismatch", in, got)
		}
		if strings.ReplaceAll(inner, "''", "'") != in {
			t.Errorf("Quote(%q) = %q: does not unescape to input", in, got)
		}
	}
}

func TestLiteralMissingIsAlwaysNull(t *testing.T) {
	for _, ct := range []CaseTransform{CaseNone, CaseUpper, CaseLower, "other"} {
		if got := Literal(Missing(), ct); got != "NULL" {
			t.Errorf("Literal(Missing, %q) = %q, want NULL", ct, got)
		}
	}
}
