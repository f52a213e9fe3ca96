package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/maildigest/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// UpsertMessage inserts a message if its id is new. Duplicate ids are
// silently ignored so re-ingesting an overlapping window is harmless. The
// indexed flag of an existing row is never touched here.
func (s *SQLiteStore) UpsertMessage(
	ctx context.Context,
	msg model.Message,
) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages (
			id, sender, subject, body, received_at, indexed
		) VALUES (?, ?, ?, ?, ?, 0)`,
		msg.ID, msg.Sender, msg.Subject, msg.Body, msg.ReceivedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("upserting message %s: %w", msg.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading upsert result for %s: %w", msg.ID, err)
	}

	return rows > 0, nil
}

// ListUnindexed returns every message whose chunks have not yet been
// committed to the vector index, in insertion order.
func (s *SQLiteStore) ListUnindexed(
	ctx context.Context,
) ([]model.Message, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, sender, subject, body, received_at, indexed
		FROM messages
		WHERE indexed = 0
		ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying unindexed messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// MarkIndexed flips the indexed flag for exactly the given ids in a single
// transaction. Callers invoke this once per run with the ids whose chunks
// were all durably upserted; an empty set is a no-op.
func (s *SQLiteStore) MarkIndexed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(
		"UPDATE messages SET indexed = 1 WHERE id IN (%s)", placeholders,
	)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("marking %d messages indexed: %w", len(ids), err)
	}

	return tx.Commit()
}

// CountMessages returns the total number of stored messages.
func (s *SQLiteStore) CountMessages(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM messages")
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

// RecordIndexRun persists the summary of one indexing pass.
func (s *SQLiteStore) RecordIndexRun(
	ctx context.Context,
	run model.IndexRun,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO index_runs (id, started_at, finished_at, processed, failed)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Processed, run.Failed,
	)
	if err != nil {
		return fmt.Errorf("recording index run %s: %w", run.ID, err)
	}
	return nil
}

// RecentIndexRuns returns the most recent run summaries, newest first.
func (s *SQLiteStore) RecentIndexRuns(
	ctx context.Context,
	limit int,
) ([]model.IndexRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, started_at, finished_at, processed, failed
		FROM index_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying index runs: %w", err)
	}
	defer rows.Close()

	var runs []model.IndexRun
	for rows.Next() {
		var run model.IndexRun
		if err := rows.StructScan(&run); err != nil {
			return nil, fmt.Errorf("scanning index run row: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// scanMessage scans a message row from a sqlx.Rows result set.
func scanMessage(rows *sqlx.Rows) (model.Message, error) {
	var (
		msg        model.Message
		receivedAt time.Time
		indexedInt int
	)

	err := rows.Scan(
		&msg.ID, &msg.Sender, &msg.Subject, &msg.Body,
		&receivedAt, &indexedInt,
	)
	if err != nil {
		return model.Message{}, fmt.Errorf("scanning message row: %w", err)
	}

	msg.ReceivedAt = receivedAt
	msg.Indexed = indexedInt != 0

	return msg, nil
}
