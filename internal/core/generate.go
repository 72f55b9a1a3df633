package core

// generate.go turns a decoded table into INSERT statements.
//
// One statement is produced per data row, in row order:
//
//	INSERT INTO {table} ({col}, {col}) VALUES ({val}, {val});
//
// Missing cells render as the bare token NULL. Present cells get the case
// transform, have every ' doubled, and are wrapped in single quotes. The table
// name and column names are emitted exactly as given.

import "strings"

// Statements returns one INSERT statement per row of t.
//
// Rows shorter than the header are padded with NULL. A row longer than the
// header fails the whole table with a *ShapeError; no statements are returned.
func Statements(t Table, opts Options) ([]string, error) {
	if len(t.Rows) == 0 {
		return nil, nil
	}

	prefix := "INSERT INTO " + opts.TableName + " (" + strings.Join(t.Columns, ", ") + ") VALUES ("
	width := len(t.Columns)

	out := make([]string, 0, len(t.Rows))
	values := make([]string, width)
	for i, row := range t.Rows {
		if len(row) > width {
			return nil, &ShapeError{Row: i + 1, Expected: width, Got: len(row)}
		}
		for j := 0; j < width; j++ {
			if j < len(row) {
				values[j] = Literal(row[j], opts.CaseTransform)
			} else {
				values[j] = "NULL"
			}
		}
		out = append(out, prefix+strings.Join(values, ", ")+");")
	}
	return out, nil
}

// Generate returns the statements for t joined by single newlines.
// An empty table yields the empty string.
func Generate(t Table, opts Options) (string, error) {
	stmts, err := Statements(t, opts)
	if err != nil {
		return "", err
	}
	return strings.Join(stmts, "\n"), nil
}

// Literal renders a cell as a SQL value token.
func Literal(c Cell, ct CaseTransform) string {
	text, ok := c.Text()
	if !ok {
		return "NULL"
	}
	return Quote(ct.apply(text))
}

// Quote wraps s in single quotes, doubling any quote inside it.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
