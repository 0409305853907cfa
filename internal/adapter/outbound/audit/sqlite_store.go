// Package audit provides a sqlite-backed append-only log of component
// lifecycle and tool-call events, restoring the original implementation's
// src/database.rs run history (SPEC_FULL.md §12).
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Wasm-Cell/wasmcell/internal/domain/audit"
)

const schema = `
CREATE TABLE IF NOT EXISTS lifecycle_events (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	correlation_id TEXT NOT NULL,
	timestamp      INTEGER NOT NULL,
	kind           TEXT NOT NULL,
	component_id   TEXT NOT NULL DEFAULT '',
	tool_name      TEXT NOT NULL DEFAULT '',
	outcome        TEXT NOT NULL,
	detail         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_lifecycle_events_component ON lifecycle_events(component_id);
CREATE INDEX IF NOT EXISTS idx_lifecycle_events_kind ON lifecycle_events(kind);
`

// SQLiteStore implements audit.LifecycleStore over a single sqlite file.
// Writes are append-only; nothing ever updates or deletes a row.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (and if necessary creates) the audit database at
// path and ensures its schema exists.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; avoid SQLITE_BUSY churn

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit database: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Append inserts one lifecycle record. A write failure is logged and
// returned; the Lifecycle Manager's record helper discards the returned
// error, so auditing never fails a lifecycle operation.
func (s *SQLiteStore) Append(ctx context.Context, rec audit.LifecycleRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lifecycle_events (correlation_id, timestamp, kind, component_id, tool_name, outcome, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.CorrelationID, rec.Timestamp.UnixNano(), string(rec.Kind), rec.ComponentID, rec.ToolName, rec.Outcome, rec.Detail,
	)
	if err != nil {
		s.logger.Warn("audit append failed", "kind", rec.Kind, "component_id", rec.ComponentID, "error", err)
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// Query returns matching records newest-first.
func (s *SQLiteStore) Query(ctx context.Context, filter audit.LifecycleFilter) ([]audit.LifecycleRecord, error) {
	var clauses []string
	var args []any

	if filter.ComponentID != "" {
		clauses = append(clauses, "component_id = ?")
		args = append(args, filter.ComponentID)
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UnixNano())
	}

	query := "SELECT id, correlation_id, timestamp, kind, component_id, tool_name, outcome, detail FROM lifecycle_events"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []audit.LifecycleRecord
	for rows.Next() {
		var rec audit.LifecycleRecord
		var ts int64
		var kind string
		if err := rows.Scan(&rec.ID, &rec.CorrelationID, &ts, &kind, &rec.ComponentID, &rec.ToolName, &rec.Outcome, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.Timestamp = time.Unix(0, ts)
		rec.Kind = audit.LifecycleEventKind(kind)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
