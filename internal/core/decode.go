package core

// decode.go parses uploaded bytes into a Table.
//
// Quoting and escaping follow encoding/csv (RFC 4180). Missing values are
// decided here, once, so the generator only ever sees Present or Missing
// cells. A cell is missing when it is empty or spelled like one of the
// common "not available" markers spreadsheets and dataframe tools write.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// naMarkers are the cell spellings read as missing. Matching is exact:
// case and surrounding whitespace matter.
var naMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNAMarker reports whether raw cell text is read as a missing value.
func IsNAMarker(s string) bool {
	_, ok := naMarkers[s]
	return ok
}

// ParseCell converts raw CSV text to a Cell.
func ParseCell(s string) Cell {
	if IsNAMarker(s) {
		return Missing()
	}
	return Present(s)
}

// DecodeCSV reads UTF-8, comma-delimited CSV from r. The first record is the
// header; header names are returned as written (not normalized). Blank lines
// are skipped. Rows keep their own length; the generator decides what to do
// with rows that don't match the header.
func DecodeCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(newTextReader(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return Table{}, &ParseError{Err: errNoColumns}
		}
		return Table{}, wrapReadError(err)
	}

	t := Table{Columns: headerNames(header)}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, wrapReadError(err)
		}
		row := make(Row, len(record))
		for i, v := range record {
			row[i] = ParseCell(v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// headerNames copies the header, naming blank columns by position.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	for i, h := range header {
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		names[i] = h
	}
	return names
}

// wrapReadError classifies an error from the CSV reader.
func wrapReadError(err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return de
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Err: err}
}
