package core

// errors.go defines the failures a conversion can produce.
//
// DecodeError, ParseError and ShapeError all describe a bad upload and are
// reported to the client the same way. ErrInvalidFileType is rejected before
// any bytes are read. ErrTooManyConversions means the limiter gave up waiting.

import (
	"errors"
	"fmt"
)

// ErrInvalidFileType is returned for uploads whose name does not end in .csv
// (or a supported compressed .csv suffix).
var ErrInvalidFileType = errors.New("invalid file format, please upload a .csv file")

// DecodeError reports upload bytes that are not valid UTF-8 text.
type DecodeError struct {
	Offset int64 // Byte offset of the first invalid sequence
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: invalid utf-8 at byte %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ParseError reports malformed CSV structure.
type ParseError struct {
	Line int // 1-based input line, 0 if unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ShapeError reports a data row with more cells than the header has columns.
// Short rows are padded with NULL and never produce this error.
type ShapeError struct {
	Row      int // 1-based data row (header excluded)
	Expected int
	Got      int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("row %d: expected %d fields, saw %d", e.Row, e.Expected, e.Got)
}

// errInvalidUTF8 is the cause wrapped by DecodeError.
var errInvalidUTF8 = errors.New("invalid byte sequence")

// errNoColumns is the cause wrapped by ParseError for input with no header.
var errNoColumns = errors.New("no columns to parse from file")

// IsInputError reports whether err describes a bad upload (decode, parse, or shape).
func IsInputError(err error) bool {
	var (
		de *DecodeError
		pe *ParseError
		se *ShapeError
	)
	return errors.As(err, &de) || errors.As(err, &pe) || errors.As(err, &se)
}
