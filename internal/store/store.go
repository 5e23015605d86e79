// Package store persists reconciliation batch runs in SQLite so that the
// history command and the API can report on earlier runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/agentstation/fieldmatch/pkg/constants"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/reconcile"
	"github.com/agentstation/fieldmatch/pkg/similarity"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	source      TEXT NOT NULL,
	catalogue   TEXT NOT NULL,
	method      TEXT NOT NULL,
	threshold   REAL NOT NULL,
	workers     INTEGER NOT NULL,
	summary     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS outcomes (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	pos         INTEGER NOT NULL,
	idx         INTEGER NOT NULL,
	fields      TEXT,
	field_order TEXT,
	diagnostics TEXT,
	error       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, pos)
);
`

// Run is one persisted batch.
type Run struct {
	ID         string            `json:"id" yaml:"id"`
	StartedAt  time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time         `json:"finished_at" yaml:"finished_at"`
	Source     string            `json:"source" yaml:"source"`
	Catalogue  string            `json:"catalogue" yaml:"catalogue"`
	Config     reconcile.Config  `json:"config" yaml:"config"`
	Summary    reconcile.Summary `json:"summary" yaml:"summary"`

	// Outcomes are written by SaveRun and not loaded by Runs.
	Outcomes []reconcile.Outcome `json:"-" yaml:"-"`
}

// NewRun starts a run record with a fresh id.
func NewRun(source, catalogue string, cfg reconcile.Config) *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Source:    source,
		Catalogue: catalogue,
		Config:    cfg,
	}
}

// Finish attaches outcomes and stamps the finish time.
func (r *Run) Finish(outcomes []reconcile.Outcome) {
	r.FinishedAt = time.Now().UTC()
	r.Outcomes = outcomes
	r.Summary = reconcile.Summarize(outcomes)
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// StoredOutcome is the persisted form of one record outcome.
type StoredOutcome struct {
	Index       int                    `json:"index" yaml:"index"`
	Fields      map[string]string      `json:"fields,omitempty" yaml:"fields,omitempty"`
	Order       []string               `json:"order,omitempty" yaml:"order,omitempty"`
	Diagnostics []reconcile.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Error       string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

// Store is a SQLite-backed run history. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", filepath.Dir(path), err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.WrapIO("migrate", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun writes the run and its outcomes in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *Run) (err error) {
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapIO("begin", s.path, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, source, catalogue, method, threshold, workers, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.Source, run.Catalogue,
		string(run.Config.Method), run.Config.Threshold, run.Config.Workers, string(summary))
	if err != nil {
		return errors.WrapIO("insert run", s.path, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outcomes (run_id, pos, idx, fields, field_order, diagnostics, error) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.WrapIO("prepare", s.path, err)
	}
	defer func() { _ = stmt.Close() }()

	for pos, o := range run.Outcomes {
		var fields, order, diags sql.NullString
		if o.Result != nil {
			if fields, err = nullJSON(o.Result.Fields); err != nil {
				return err
			}
			if order, err = nullJSON(o.Result.Order); err != nil {
				return err
			}
			if diags, err = nullJSON(o.Result.Diagnostics); err != nil {
				return err
			}
		}
		if _, err = stmt.ExecContext(ctx, run.ID, pos, o.Index, fields, order, diags, o.ErrString()); err != nil {
			return errors.WrapIO("insert outcome", s.path, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.WrapIO("commit", s.path, err)
	}
	return nil
}

// Runs returns up to limit runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, source, catalogue, method, threshold, workers, summary
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, errors.WrapIO("query runs", s.path, err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Run returns one run by id, or an error matching errors.ErrNotFound.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, source, catalogue, method, threshold, workers, summary
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, errors.NewNotFoundError("run", id)
	}
	return run, err
}

// Outcomes returns the stored outcomes of a run in the order they ran.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]StoredOutcome, error) {
	if _, err := s.Run(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, fields, field_order, diagnostics, error FROM outcomes WHERE run_id = ? ORDER BY pos`, runID)
	if err != nil {
		return nil, errors.WrapIO("query outcomes", s.path, err)
	}
	defer func() { _ = rows.Close() }()

	var out []StoredOutcome
	for rows.Next() {
		var o StoredOutcome
		var fields, order, diags sql.NullString
		if err := rows.Scan(&o.Index, &fields, &order, &diags, &o.Error); err != nil {
			return nil, errors.WrapIO("scan outcome", s.path, err)
		}
		if err := unmarshalNull(fields, &o.Fields); err != nil {
			return nil, err
		}
		if err := unmarshalNull(order, &o.Order); err != nil {
			return nil, err
		}
		if err := unmarshalNull(diags, &o.Diagnostics); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run               Run
		started, finished string
		method, summary   string
	)
	err := sc.Scan(&run.ID, &started, &finished, &run.Source, &run.Catalogue,
		&method, &run.Config.Threshold, &run.Config.Workers, &summary)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, errors.WrapIO("scan run", "", err)
	}
	run.Config.Method = similarity.Method(method)
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, errors.WrapDecode("time", "runs.started_at", err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return Run{}, errors.WrapDecode("time", "runs.finished_at", err)
	}
	if err := json.Unmarshal([]byte(summary), &run.Summary); err != nil {
		return Run{}, errors.WrapDecode("json", "runs.summary", err)
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullJSON(v any) (sql.NullString, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalNull(ns sql.NullString, v any) error {
	if !ns.Valid {
		return nil
	}
	if err := json.Unmarshal([]byte(ns.String), v); err != nil {
		return errors.WrapDecode("json", "outcomes", err)
	}
	return nil
}
