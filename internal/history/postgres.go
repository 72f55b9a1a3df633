package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// DBConfig holds connection settings for PostgresStore.
type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// Open connects to PostgreSQL through the pgx driver and pings it.
func Open(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("history dsn is required")
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	return db, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS conversion_history (
    id             UUID PRIMARY KEY,
    file_name      TEXT NOT NULL,
    table_name     TEXT NOT NULL,
    case_transform TEXT NOT NULL,
    sql_dialect    TEXT NOT NULL,
    status         TEXT NOT NULL,
    statements     INTEGER NOT NULL,
    bytes_read     BIGINT NOT NULL,
    duration_ms    BIGINT NOT NULL,
    error          TEXT NOT NULL DEFAULT '',
    archive_key    TEXT NOT NULL DEFAULT '',
    client_ip      TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertSQL = `
INSERT INTO conversion_history
    (id, file_name, table_name, case_transform, sql_dialect, status, statements, bytes_read, duration_ms, error, archive_key, client_ip, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const recentSQL = `
SELECT id, file_name, table_name, case_transform, sql_dialect, status, statements, bytes_read, duration_ms, error, archive_key, client_ip, created_at
FROM conversion_history
ORDER BY created_at DESC
LIMIT $1`

// PostgresStore persists entries in the conversion_history table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the history table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create conversion_history: %w", err)
	}
	return nil
}

// Record implements Store.
func (s *PostgresStore) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, insertSQL,
		e.ID, e.FileName, e.TableName, e.CaseTransform, e.Dialect, e.Status,
		e.Statements, e.BytesRead, e.Duration.Milliseconds(), e.Error, e.ArchiveKey, e.ClientIP, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert conversion %s: %w", e.ID, err)
	}
	return nil
}

// Recent implements Store, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, recentSQL, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query conversion history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			durationMS int64
		)
		if err := rows.Scan(
			&e.ID, &e.FileName, &e.TableName, &e.CaseTransform, &e.Dialect, &e.Status,
			&e.Statements, &e.BytesRead, &durationMS, &e.Error, &e.ArchiveKey, &e.ClientIP, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan conversion history: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversion history: %w", err)
	}
	return out, nil
}
