// Package archive copies generated SQL to object storage so a conversion's
// output can be fetched again after the HTTP response is gone.
package archive

//go:generate mockgen -destination=mock_archive/mock_archive.go -package=mock_archive github.com/JonMunkholm/csvdml/internal/archive ObjectStore

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
)

// ContentType is the MIME type archived objects are stored with.
const ContentType = "application/sql; charset=utf-8"

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// ObjectStore writes objects to a bucket.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
}

// Archiver lays out conversion output under a date-partitioned prefix.
type Archiver struct {
	store  ObjectStore
	prefix string
}

// NewArchiver wraps store. prefix may be empty.
func NewArchiver(store ObjectStore, prefix string) *Archiver {
	return &Archiver{store: store, prefix: cleanPrefix(prefix)}
}

// Archive stores sql for conversion id and returns the object key.
func (a *Archiver) Archive(ctx context.Context, id string, at time.Time, sql string) (string, error) {
	key, err := BuildKey(a.prefix, id, at)
	if err != nil {
		return "", err
	}
	if err := a.store.Put(ctx, key, strings.NewReader(sql), int64(len(sql)), ContentType); err != nil {
		return "", fmt.Errorf("archive %s: %w", id, err)
	}
	return key, nil
}

// BuildKey returns prefix/date=YYYY-MM-DD/<id>.sql for a conversion.
func BuildKey(prefix, id string, at time.Time) (string, error) {
	if !idPattern.MatchString(id) {
		return "", fmt.Errorf("invalid conversion id: %q", id)
	}
	ts := at.UTC()
	return path.Join(
		prefix,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		id+".sql",
	), nil
}

func cleanPrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return path.Clean(prefix)
}
