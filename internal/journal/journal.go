// Package journal keeps a history of task runs in SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Run is one finished task run.
type Run struct {
	ID       string
	Task     string
	Action   string
	Trigger  string
	Status   string
	Started  time.Time
	Finished time.Time

	FilesDeleted int
	FilesMoved   int
	BytesDeleted int64
	BytesMoved   int64
	DirsPruned   int
	Skipped      int

	// Error is the run level error, if any.
	Error    string
	Failures []Failure
}

// Failure is one per-path failure of a run.
type Failure struct {
	Path  string
	Op    string
	Error string
}

// Store is a SQLite backed run journal. It is safe for concurrent use.
type Store struct {
	db        *sql.DB
	keep      int
	closeOnce sync.Once

	insertRunStmt     *sql.Stmt
	insertFailureStmt *sql.Stmt
	failuresStmt      *sql.Stmt
	trimStmt          *sql.Stmt
}

// Open opens (or creates) the journal at path. keep > 0 trims the journal to
// the newest keep runs after every Record.
func Open(path string, keep int) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path cannot be empty")
	}

	// the driver cuts the DSN at the first '?' and treats "file:" names as URIs
	// where '#' and '%' are special, so the path is passed as a plain filename
	if strings.Contains(path, "?") {
		return nil, fmt.Errorf("journal path %q cannot contain '?'", path)
	}
	if strings.HasPrefix(path, "file:") {
		path = "." + string(filepath.Separator) + path
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, keep: keep}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing journal schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing journal statements: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		task TEXT NOT NULL,
		action TEXT NOT NULL,
		cause TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		files_deleted INTEGER NOT NULL,
		files_moved INTEGER NOT NULL,
		bytes_deleted INTEGER NOT NULL,
		bytes_moved INTEGER NOT NULL,
		dirs_pruned INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		error TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_task_started ON runs(task, started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS failures (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		op TEXT NOT NULL,
		error TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) prepareStatements() error {
	var err error

	s.insertRunStmt, err = s.db.Prepare(`
		INSERT INTO runs (id, task, action, cause, status, started_at, finished_at,
			files_deleted, files_moved, bytes_deleted, bytes_moved, dirs_pruned, skipped, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	s.insertFailureStmt, err = s.db.Prepare(`
		INSERT INTO failures (run_id, path, op, error) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("insert failure: %w", err)
	}

	s.failuresStmt, err = s.db.Prepare(`
		SELECT path, op, error FROM failures WHERE run_id = ? ORDER BY rowid
	`)
	if err != nil {
		return fmt.Errorf("select failures: %w", err)
	}

	s.trimStmt, err = s.db.Prepare(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
		)
	`)
	if err != nil {
		return fmt.Errorf("trim: %w", err)
	}

	return nil
}

// Record stores a run and its failures in one transaction.
func (s *Store) Record(ctx context.Context, r Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.StmtContext(ctx, s.insertRunStmt).ExecContext(ctx,
		r.ID, r.Task, r.Action, r.Trigger, r.Status,
		r.Started.UnixNano(), r.Finished.UnixNano(),
		r.FilesDeleted, r.FilesMoved, r.BytesDeleted, r.BytesMoved, r.DirsPruned, r.Skipped,
		r.Error,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}

	ins := tx.StmtContext(ctx, s.insertFailureStmt)
	for _, f := range r.Failures {
		if _, err := ins.ExecContext(ctx, r.ID, f.Path, f.Op, f.Error); err != nil {
			return fmt.Errorf("recording failure for %s: %w", f.Path, err)
		}
	}

	if s.keep > 0 {
		if _, err := tx.StmtContext(ctx, s.trimStmt).ExecContext(ctx, s.keep); err != nil {
			return fmt.Errorf("trimming journal: %w", err)
		}
	}

	return tx.Commit()
}

// Recent returns up to limit runs, newest first. An empty task means all
// tasks. Failures are loaded for every returned run.
func (s *Store) Recent(ctx context.Context, task string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, task, action, cause, status, started_at, finished_at,
			files_deleted, files_moved, bytes_deleted, bytes_moved, dirs_pruned, skipped, error
		FROM runs`
	args := []any{}
	if task != "" {
		query += ` WHERE task = ?`
		args = append(args, task)
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.Task, &r.Action, &r.Trigger, &r.Status, &started, &finished,
			&r.FilesDeleted, &r.FilesMoved, &r.BytesDeleted, &r.BytesMoved, &r.DirsPruned, &r.Skipped,
			&r.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Started = time.Unix(0, started)
		r.Finished = time.Unix(0, finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	// single connection: failures are read after the run cursor is closed
	for i := range runs {
		f, err := s.failures(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Failures = f
	}
	return runs, nil
}

func (s *Store) failures(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := s.failuresStmt.QueryContext(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Path, &f.Op, &f.Error); err != nil {
			return nil, fmt.Errorf("scanning failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Trim keeps only the newest keep runs.
func (s *Store) Trim(ctx context.Context, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := s.trimStmt.ExecContext(ctx, keep)
	return err
}

// Close releases the statements and the database.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		for _, st := range []*sql.Stmt{s.insertRunStmt, s.insertFailureStmt, s.failuresStmt, s.trimStmt} {
			if st != nil {
				st.Close()
			}
		}
		err = s.db.Close()
	})
	return err
}
