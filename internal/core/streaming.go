package core

// streaming.go provides the readers that sit between the upload and the CSV
// parser:
//
//   - utf8Validator: passes text through rune by rune and fails with a
//     *DecodeError at the first invalid sequence
//   - countingReader: tracks raw bytes read for metrics and history
//
// Use newTextReader to strip a UTF-8 BOM and validate in one step.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// newTextReader wraps r so the UTF-8 BOM (common in files saved by Windows
// programs) is dropped and the remainder is checked for valid UTF-8.
func newTextReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return &utf8Validator{br: br}
}

// utf8Validator is an io.Reader that rejects invalid UTF-8.
// Memory use is bounded by the bufio buffer regardless of input size.
type utf8Validator struct {
	br      *bufio.Reader
	offset  int64  // bytes of valid text consumed so far
	pending []byte // tail of a rune that did not fit the caller's buffer
	err     error  // sticky; a *DecodeError or the underlying read error
}

// Read implements io.Reader. Valid runes are copied through unchanged.
func (v *utf8Validator) Read(p []byte) (int, error) {
	n := copy(p, v.pending)
	v.pending = v.pending[n:]

	for n < len(p) && v.err == nil {
		r, size, err := v.br.ReadRune()
		switch {
		case err != nil:
			v.err = err
		case r == utf8.RuneError && size == 1:
			v.err = &DecodeError{Offset: v.offset, Err: errInvalidUTF8}
		default:
			v.offset += int64(size)
			var buf [utf8.UTFMax]byte
			w := utf8.EncodeRune(buf[:], r)
			c := copy(p[n:], buf[:w])
			v.pending = append(v.pending, buf[c:w]...)
			n += c

			// Don't block on the underlying reader while we have data to hand back.
			if v.br.Buffered() == 0 {
				return n, nil
			}
		}
	}
	if n > 0 || v.err == nil {
		return n, nil
	}
	return 0, v.err
}

// countingReader wraps an io.Reader to track bytes read.
type countingReader struct {
	reader    io.Reader
	BytesRead int64
}

// newCountingReader creates a counting reader.
func newCountingReader(r io.Reader) *countingReader {
	return &countingReader{reader: r}
}

// Read implements io.Reader.
func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}
