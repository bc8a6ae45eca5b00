package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'running',
	counts       TEXT,
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS audit_entries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	query_key  TEXT NOT NULL,
	query      TEXT NOT NULL,
	reason     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_audit_entries_run_id ON audit_entries(run_id);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		id, string(RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &Run{ID: id, Status: RunStatusRunning, StartedAt: now}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, status RunStatus, counts map[string]int64) error {
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal counts")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, counts = ?, completed_at = ? WHERE id = ?`,
		string(status), string(countsJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		run         Run
		status      string
		counts      sql.NullString
		completedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, counts, started_at, completed_at FROM runs WHERE id = ?`, runID,
	).Scan(&run.ID, &status, &counts, &run.StartedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}

	run.Status = RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if counts.Valid && counts.String != "" {
		if err := json.Unmarshal([]byte(counts.String), &run.Counts); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal counts")
		}
	}
	return &run, nil
}

func (s *SQLiteStore) AppendAudit(ctx context.Context, runID string, entry model.AuditEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_entries (run_id, query_key, query, reason) VALUES (?, ?, ?, ?)`,
		runID, entry.Key.String(), entry.Query, entry.Reason,
	)
	return eris.Wrap(err, "sqlite: insert audit entry")
}

func (s *SQLiteStore) ListAudit(ctx context.Context, runID string) ([]model.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT query_key, query, reason FROM audit_entries WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list audit entries")
	}
	defer rows.Close() //nolint:errcheck

	var entries []model.AuditEntry
	for rows.Next() {
		var (
			key   string
			entry model.AuditEntry
		)
		if err := rows.Scan(&key, &entry.Query, &entry.Reason); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan audit entry")
		}
		parsed, err := uuid.Parse(key)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse query key %q", key)
		}
		entry.Key = model.QueryKey(parsed)
		entries = append(entries, entry)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: iterate audit entries")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
