// Package rundb records one row per Executor.Run invocation, so that a
// caller can correlate a run's logs and metrics against its outcome
// after the fact. It is a history ledger, not graph-state persistence:
// nothing here lets a run resume from where a prior one left off.
package rundb

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a SQLite-backed run-history ledger.
type DB struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// applies pending migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// RecordStart inserts a started-run row.
func (d *DB) RecordStart(ctx context.Context, runID string, startedAt time.Time) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at) VALUES (?, ?)`,
		runID, startedAt)
	return err
}

// RecordFinish updates a run row with its terminal outcome.
func (d *DB) RecordFinish(ctx context.Context, runID string, finishedAt time.Time, success bool, errorMessage string) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, success = ?, error_message = ? WHERE run_id = ?`,
		finishedAt, success, errorMessage, runID)
	return err
}

// Run is one row of run-history.
type Run struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	Success      sql.NullBool
	ErrorMessage sql.NullString
}

// Get fetches a single run by ID.
func (d *DB) Get(ctx context.Context, runID string) (Run, error) {
	var r Run
	err := d.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, finished_at, success, error_message FROM runs WHERE run_id = ?`,
		runID).Scan(&r.RunID, &r.StartedAt, &r.FinishedAt, &r.Success, &r.ErrorMessage)
	return r, err
}

// Recent returns up to limit most recently started runs, newest first.
func (d *DB) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, success, error_message
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.FinishedAt, &r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
