// Package store keeps a history of batch runs in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/insightdelivered/statement-holder-extractor/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	dir         TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	success     INTEGER NOT NULL,
	partial     INTEGER NOT NULL,
	failed      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	file           TEXT NOT NULL,
	status         TEXT NOT NULL,
	customer_name  TEXT,
	name_tier      TEXT,
	entity_type    TEXT,
	account_number TEXT,
	method         TEXT,
	error_message  TEXT
);

CREATE INDEX IF NOT EXISTS idx_documents_run ON documents(run_id);
`

// timeLayout is fixed-width so that started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one row of the run history.
type Run struct {
	ID        string
	Dir       string
	StartedAt time.Time
	Duration  time.Duration
	Summary   models.BatchSummary
}

// Store is a SQLite-backed run history.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a batch report and all its document rows in one transaction.
func (s *Store) SaveRun(ctx context.Context, report *models.BatchReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	sum := report.Summary
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, dir, started_at, duration_ms, total, success, partial, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Dir, report.StartedAt.UTC().Format(timeLayout),
		report.Duration.Milliseconds(), sum.Total, sum.Success, sum.Partial, sum.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (run_id, file, status, customer_name, name_tier, entity_type, account_number, method, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare documents: %w", err)
	}
	defer stmt.Close()

	for _, d := range report.Documents {
		res := d.Result
		if _, err := stmt.ExecContext(ctx,
			report.RunID, d.File, string(d.Status),
			nullable(res.CustomerName), nullable(res.NameTier), nullable(string(res.EntityType)),
			nullable(res.AccountNumber), nullable(d.Method), nullable(d.Error),
		); err != nil {
			return fmt.Errorf("insert document %s: %w", d.File, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("store.run.saved", "run_id", report.RunID, "documents", len(report.Documents))
	return nil
}

// RecentRuns returns up to n runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, n int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dir, started_at, duration_ms, total, success, partial, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			started string
			ms      int64
		)
		if err := rows.Scan(&r.ID, &r.Dir, &started, &ms,
			&r.Summary.Total, &r.Summary.Success, &r.Summary.Partial, &r.Summary.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Documents returns the stored rows of one run in file order.
func (s *Store) Documents(ctx context.Context, runID string) ([]models.DocumentReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file, status, COALESCE(customer_name, ''), COALESCE(name_tier, ''), COALESCE(entity_type, ''),
		        COALESCE(account_number, ''), COALESCE(method, ''), COALESCE(error_message, '')
		 FROM documents WHERE run_id = ? ORDER BY file`, runID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.DocumentReport
	for rows.Next() {
		var (
			d              models.DocumentReport
			status, entity string
		)
		if err := rows.Scan(&d.File, &status, &d.Result.CustomerName, &d.Result.NameTier, &entity,
			&d.Result.AccountNumber, &d.Method, &d.Error); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Status = models.Status(status)
		d.Result.EntityType = models.EntityType(entity)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
