// Package history persists scenario results in SQLite so past runs can be
// listed and compared.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Pochyxi/e2ereport/internal/engine"
)

// Record is one stored scenario result.
type Record struct {
	ID          string        `json:"id"`
	RunID       string        `json:"run_id"`
	Project     string        `json:"project"`
	Scenario    string        `json:"scenario"`
	Passed      bool          `json:"passed"`
	Skipped     bool          `json:"skipped,omitempty"`
	StepsRun    int           `json:"steps_run"`
	StepsTotal  int           `json:"steps_total"`
	FailedAt    int           `json:"failed_at,omitempty"`
	FailingStep string        `json:"failing_step,omitempty"`
	Error       string        `json:"error,omitempty"`
	ReportPath  string        `json:"report_path,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
}

// Query filters List.
type Query struct {
	Project  string
	Scenario string
	Failed   bool // only results that did not pass
	Limit    int  // defaults to 20
}

// Store persists results in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating it and applying migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is required")
	}
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0o750); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	dsn := "file:" + clean + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// FromResult converts an engine result into a record with a fresh id.
func FromResult(r *engine.Result) Record {
	rec := Record{
		ID:         uuid.NewString(),
		RunID:      r.RunID,
		Project:    r.Project,
		Scenario:   r.Scenario,
		Passed:     r.Passed,
		Skipped:    r.Skipped,
		StepsRun:   r.StepsRun,
		StepsTotal: r.StepsTotal,
		FailedAt:   r.FailedAt,
		Error:      r.Error,
		ReportPath: r.ReportPath,
		StartedAt:  r.StartedAt,
		Duration:   r.Duration,
	}
	if r.FailingStep != nil {
		rec.FailingStep = r.FailingStep.Label
	}
	return rec
}

// Save inserts the results of one run in a single transaction.
func (s *Store) Save(ctx context.Context, results []*engine.Result) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, r := range results {
		if err := insert(ctx, tx, FromResult(r)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insert(ctx context.Context, tx *sql.Tx, rec Record) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO scenario_runs (
		id, run_id, project, scenario, passed, skipped, steps_run, steps_total,
		failed_at, failing_step, error, report_path, started_at, duration_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RunID, rec.Project, rec.Scenario, rec.Passed, rec.Skipped,
		rec.StepsRun, rec.StepsTotal, rec.FailedAt, rec.FailingStep, rec.Error,
		rec.ReportPath, rec.StartedAt.UTC().UnixMilli(), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert result %s/%s: %w", rec.Project, rec.Scenario, err)
	}
	return nil
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, q Query) ([]Record, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	var (
		where []string
		args  []any
	)
	if q.Project != "" {
		where = append(where, "project = ?")
		args = append(args, q.Project)
	}
	if q.Scenario != "" {
		where = append(where, "scenario = ?")
		args = append(args, q.Scenario)
	}
	if q.Failed {
		where = append(where, "passed = 0")
	}
	query := `SELECT id, run_id, project, scenario, passed, skipped, steps_run, steps_total,
		failed_at, failing_step, error, report_path, started_at, duration_ms
		FROM scenario_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec        Record
			startedMS  int64
			durationMS int64
		)
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Project, &rec.Scenario, &rec.Passed, &rec.Skipped,
			&rec.StepsRun, &rec.StepsTotal, &rec.FailedAt, &rec.FailingStep, &rec.Error,
			&rec.ReportPath, &startedMS, &durationMS); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedMS).UTC()
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}
