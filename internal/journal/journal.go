// Package journal persists committed history entries to SQLite so a play
// session's commands can be inspected after the fact. The journal is an
// append-only record; it is not consulted by undo/redo, which operate on
// the in-memory history stack.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wesleyzhao/duck-game/internal/engine"
)

//go:embed schema.sql
var schemaSQL string

// Journal provides durable storage for committed execution entries.
// Uses SQLite with WAL mode for concurrent read access.
type Journal struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically; safe to call on
// an existing database.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Append writes one committed entry. Idempotent on entry id: writing the
// same entry twice is silently ignored.
func (j *Journal) Append(ctx context.Context, entry engine.Entry) error {
	if entry.Result == nil {
		return fmt.Errorf("append entry %s: nil result", entry.ID)
	}
	changesJSON, err := json.Marshal(entry.Result.Changes)
	if err != nil {
		return fmt.Errorf("append entry %s: marshal changes: %w", entry.ID, err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO entries
		(id, committed_at, user_input, success, message, error, change_count, changes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		entry.ID,
		entry.Timestamp.UnixMilli(),
		entry.UserInput,
		boolToInt(entry.Result.Success),
		entry.Result.Message,
		entry.Result.Error,
		len(entry.Result.Changes),
		string(changesJSON),
	)
	if err != nil {
		return fmt.Errorf("append entry %s: %w", entry.ID, err)
	}
	return nil
}

// List returns up to limit entries, oldest first. limit <= 0 means all.
func (j *Journal) List(ctx context.Context, limit int) ([]engine.Entry, error) {
	query := `
		SELECT id, committed_at, user_input, success, message, error, changes
		FROM entries
		ORDER BY committed_at, id
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []engine.Entry
	for rows.Next() {
		var (
			entry       engine.Entry
			committedAt int64
			success     int
			result      engine.Result
			changesJSON string
		)
		if err := rows.Scan(
			&entry.ID,
			&committedAt,
			&entry.UserInput,
			&success,
			&result.Message,
			&result.Error,
			&changesJSON,
		); err != nil {
			return nil, fmt.Errorf("list entries: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(changesJSON), &result.Changes); err != nil {
			return nil, fmt.Errorf("list entries: unmarshal changes for %s: %w", entry.ID, err)
		}
		result.Success = success != 0
		entry.Timestamp = time.UnixMilli(committedAt).UTC()
		entry.Result = &result
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Count returns the number of journaled entries.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
