// Package history keeps a record of recent conversions.
//
// Two stores are provided: MemoryStore, a bounded in-process ring used when no
// database is configured, and PostgresStore, which writes to a
// conversion_history table.
package history

import (
	"context"
	"time"
)

// Status values for Entry.Status.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Entry describes one conversion attempt.
type Entry struct {
	ID            string        `json:"id"`
	FileName      string        `json:"file_name"`
	TableName     string        `json:"table_name"`
	CaseTransform string        `json:"case_transform"`
	Dialect       string        `json:"sql_dialect"`
	Status        string        `json:"status"`
	Statements    int           `json:"statements"`
	BytesRead     int64         `json:"bytes_read"`
	Duration      time.Duration `json:"duration_ns"`
	Error         string        `json:"error,omitempty"`
	ArchiveKey    string        `json:"archive_key,omitempty"`
	ClientIP      string        `json:"client_ip,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Store records and lists conversions. Implementations are safe for
// concurrent use.
type Store interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// DefaultLimit is used by Recent callers that pass a non-positive limit.
const DefaultLimit = 50

// MaxLimit caps Recent requests.
const MaxLimit = 500

// ClampLimit bounds a requested listing size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
