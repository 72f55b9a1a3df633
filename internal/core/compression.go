package core

// compression.go lets clients upload compressed CSV files. The compression is
// picked from the file name suffix (data.csv.gz, data.csv.zst, ...) and the
// body is decompressed before decoding.

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression identifies how an upload is compressed.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGZ
	CompressionBZ2
	CompressionXZ
	CompressionZSTD
)

const csvExt = ".csv"

var compressionExts = map[Compression]string{
	CompressionGZ:   ".gz",
	CompressionBZ2:  ".bz2",
	CompressionXZ:   ".xz",
	CompressionZSTD: ".zst",
}

// Extension returns the file suffix for c ("" for CompressionNone).
func (c Compression) Extension() string {
	return compressionExts[c]
}

// String implements fmt.Stringer.
func (c Compression) String() string {
	switch c {
	case CompressionGZ:
		return "gzip"
	case CompressionBZ2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// DetectCompression returns the compression implied by name's suffix.
func DetectCompression(name string) Compression {
	for c, ext := range compressionExts {
		if strings.HasSuffix(name, ext) {
			return c
		}
	}
	return CompressionNone
}

// CheckFileName returns ErrInvalidFileType unless name ends in ".csv",
// optionally followed by one supported compression suffix.
func CheckFileName(name string) (Compression, error) {
	c := DetectCompression(name)
	if !strings.HasSuffix(strings.TrimSuffix(name, c.Extension()), csvExt) {
		return CompressionNone, ErrInvalidFileType
	}
	return c, nil
}

// decompress wraps r with a decompressing reader. The returned close func
// must be called once the reader is drained.
func decompress(r io.Reader, c Compression) (io.Reader, func() error, error) {
	switch c {
	case CompressionNone:
		return r, func() error { return nil }, nil

	case CompressionGZ:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, &DecodeError{Err: fmt.Errorf("gzip: %w", err)}
		}
		return gz, gz.Close, nil

	case CompressionBZ2:
		return bzip2.NewReader(r), func() error { return nil }, nil

	case CompressionXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, &DecodeError{Err: fmt.Errorf("xz: %w", err)}
		}
		return xr, func() error { return nil }, nil

	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, &DecodeError{Err: fmt.Errorf("zstd: %w", err)}
		}
		return dec, func() error {
			dec.Close()
			return nil
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported compression: %v", c)
	}
}
