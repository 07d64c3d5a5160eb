// Package history persists dispatch outcomes to a local SQLite file
// so past hook runs can be inspected and audited.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/watzon/hookline/internal/dispatch"
	"github.com/watzon/hookline/internal/hook"
)

const schema = `
CREATE TABLE IF NOT EXISTS dispatches (
	id          TEXT PRIMARY KEY,
	event       TEXT NOT NULL,
	tool        TEXT NOT NULL DEFAULT '',
	file_path   TEXT NOT NULL DEFAULT '',
	session_id  TEXT NOT NULL DEFAULT '',
	verdict     TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS hook_runs (
	dispatch_id TEXT NOT NULL REFERENCES dispatches(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	hook_name   TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	exit_code   INTEGER NOT NULL,
	timed_out   INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	stderr_tail TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (dispatch_id, position)
);

CREATE INDEX IF NOT EXISTS idx_dispatches_started_at ON dispatches(started_at);
CREATE INDEX IF NOT EXISTS idx_hook_runs_hook_name ON hook_runs(hook_name);
`

// Store handles database operations for dispatch history.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path, applying the
// schema and connection pragmas.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	// Pragmas are per-connection; a single connection keeps them in
	// force and suits SQLite's single-writer model anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DispatchRecord is one row of the dispatches table.
type DispatchRecord struct {
	ID        string
	Event     string
	Tool      string
	FilePath  string
	SessionID string
	Verdict   string
	StartedAt time.Time
	Duration  time.Duration
}

// HookRun is one hook execution within a recorded dispatch.
type HookRun struct {
	DispatchID string
	Position   int
	HookName   string
	Outcome    string
	ExitCode   int
	TimedOut   bool
	Duration   time.Duration
	StderrTail string
	Error      string
}

// Record persists a completed dispatch and its per-hook results in a
// single transaction.
func (s *Store) Record(ctx context.Context, ectx *hook.ExecutionContext, out *dispatch.Outcome, startedAt time.Time, total time.Duration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning history transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO dispatches (
			id, event, tool, file_path, session_id,
			verdict, started_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		out.DispatchID,
		string(out.Event),
		ectx.Tool,
		ectx.FilePath,
		ectx.SessionID,
		string(out.Verdict),
		startedAt.UTC().Format(time.RFC3339),
		total.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting dispatch record: %w", err)
	}

	for i, r := range out.Results {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO hook_runs (
				dispatch_id, position, hook_name, outcome,
				exit_code, timed_out, duration_ms, stderr_tail, error
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			out.DispatchID,
			i,
			r.HookName,
			string(r.Outcome),
			r.ExitCode,
			boolToInt(r.TimedOut),
			r.Duration.Milliseconds(),
			r.Stderr,
			r.Error,
		)
		if err != nil {
			return fmt.Errorf("inserting hook run %s: %w", r.HookName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history transaction: %w", err)
	}
	return nil
}

// Recent returns the most recent dispatches, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*DispatchRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event, tool, file_path, session_id,
		       verdict, started_at, duration_ms
		FROM dispatches
		ORDER BY started_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying dispatches: %w", err)
	}
	defer rows.Close()

	var records []*DispatchRecord
	for rows.Next() {
		var rec DispatchRecord
		var startedAt string
		var durationMs int64
		if err := rows.Scan(
			&rec.ID, &rec.Event, &rec.Tool, &rec.FilePath,
			&rec.SessionID, &rec.Verdict, &startedAt, &durationMs,
		); err != nil {
			return nil, fmt.Errorf("scanning dispatch record: %w", err)
		}
		rec.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Runs returns the per-hook results of one dispatch in run order.
func (s *Store) Runs(ctx context.Context, dispatchID string) ([]*HookRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dispatch_id, position, hook_name, outcome,
		       exit_code, timed_out, duration_ms, stderr_tail, error
		FROM hook_runs
		WHERE dispatch_id = ?
		ORDER BY position
	`, dispatchID)
	if err != nil {
		return nil, fmt.Errorf("querying hook runs: %w", err)
	}
	defer rows.Close()

	var runs []*HookRun
	for rows.Next() {
		var run HookRun
		var timedOut int
		var durationMs int64
		if err := rows.Scan(
			&run.DispatchID, &run.Position, &run.HookName, &run.Outcome,
			&run.ExitCode, &timedOut, &durationMs, &run.StderrTail, &run.Error,
		); err != nil {
			return nil, fmt.Errorf("scanning hook run: %w", err)
		}
		run.TimedOut = timedOut != 0
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// Get retrieves a single dispatch record by ID.
func (s *Store) Get(ctx context.Context, id string) (*DispatchRecord, error) {
	var rec DispatchRecord
	var startedAt string
	var durationMs int64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, event, tool, file_path, session_id,
		       verdict, started_at, duration_ms
		FROM dispatches
		WHERE id = ?
	`, id).Scan(
		&rec.ID, &rec.Event, &rec.Tool, &rec.FilePath,
		&rec.SessionID, &rec.Verdict, &startedAt, &durationMs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("dispatch not found: %s", id)
		}
		return nil, fmt.Errorf("querying dispatch: %w", err)
	}

	rec.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	return &rec, nil
}

// Prune deletes dispatches (and their hook runs, via cascade) that
// started before the cutoff. It returns the number of dispatches
// removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM dispatches WHERE started_at < ?
	`, before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("pruning dispatches: %w", err)
	}
	return result.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
