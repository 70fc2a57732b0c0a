// Package history keeps a per-root record of batch runs in a small SQLite
// database under the metadata directory. The report command reads it to show
// what happened across sessions; losing it loses nothing but the report.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// DBName is the history database file under the root metadata directory.
const DBName = "history.db"

// BatchRun is one recorded batch: which operation ran, when, for how long,
// and how the items came out.
type BatchRun struct {
	ID        int64
	BatchID   string
	Operation string
	StartedAt time.Time
	Duration  time.Duration

	Total     int
	Succeeded int
	Skipped   int
	Errored   int
	Cached    int
	Cancelled int
}

// Store manages the SQLite history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the history database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout first so the remaining pragmas wait on locks instead of
	// failing when another process holds the database.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// NewStoreForRoot opens the history database under root's metadata directory.
func NewStoreForRoot(root, metaDir string) (*Store, error) {
	return NewStore(filepath.Join(root, metaDir, DBName))
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, sqlText string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(sqlText)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun inserts a batch run and fills in its assigned ID.
func (s *Store) RecordRun(ctx context.Context, run *BatchRun) error {
	query := `INSERT INTO batch_runs
		(batch_id, operation, started_at, duration_secs, total, succeeded, skipped, errored, cached, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		run.BatchID,
		run.Operation,
		run.StartedAt.UTC(),
		run.Duration.Seconds(),
		run.Total,
		run.Succeeded,
		run.Skipped,
		run.Errored,
		run.Cached,
		run.Cancelled,
	)
	if err != nil {
		return fmt.Errorf("insert batch run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	run.ID = id
	return nil
}

// RecentRuns returns up to limit runs, most recent first. A non-empty
// operation filters to that operation only.
func (s *Store) RecentRuns(ctx context.Context, operation string, limit int) ([]*BatchRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, batch_id, operation, started_at, duration_secs, total, succeeded, skipped, errored, cached, cancelled
		FROM batch_runs`
	args := []any{}
	if operation != "" {
		query += ` WHERE operation = ?`
		args = append(args, operation)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query batch runs: %w", err)
	}
	defer rows.Close()

	var runs []*BatchRun
	for rows.Next() {
		var run BatchRun
		var durationSecs float64
		if err := rows.Scan(
			&run.ID,
			&run.BatchID,
			&run.Operation,
			&run.StartedAt,
			&durationSecs,
			&run.Total,
			&run.Succeeded,
			&run.Skipped,
			&run.Errored,
			&run.Cached,
			&run.Cancelled,
		); err != nil {
			return nil, fmt.Errorf("scan batch run: %w", err)
		}
		run.Duration = time.Duration(durationSecs * float64(time.Second))
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch runs: %w", err)
	}
	return runs, nil
}
