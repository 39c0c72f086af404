// Package store persists evaluation runs in a local SQLite database so
// repeated evaluations of the same case studies can be compared over time.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"agenteval/internal/evaluate"

	_ "modernc.org/sqlite"
)

// currentSchemaVersion is the target schema version for this build.
const currentSchemaVersion = 1

const schemaV1 = `
CREATE TABLE schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	case_id     TEXT NOT NULL,
	source      TEXT NOT NULL,
	title       TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	result_json TEXT NOT NULL
);

CREATE INDEX idx_runs_case_id ON runs(case_id);
`

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// Run is one persisted evaluation of a case study.
type Run struct {
	ID        int64
	CaseID    string
	Source    string
	Title     string
	CreatedAt string
	Result    evaluate.Result
}

// Store keeps evaluation runs in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory if it does not exist.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		// Fresh database.
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", currentSchemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) || v != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version %d (want %d)", v, currentSchemaVersion)
	}
	return nil
}

// SaveRun records one evaluation result and returns the new run id.
func (s *Store) SaveRun(caseID, source, title string, res evaluate.Result) (int64, error) {
	blob, err := json.Marshal(res)
	if err != nil {
		return 0, fmt.Errorf("marshal result: %w", err)
	}
	r, err := s.db.Exec(
		"INSERT INTO runs(case_id, source, title, created_at, result_json) VALUES(?,?,?,?,?)",
		caseID, source, title, nowUTC(), string(blob),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// History returns all recorded runs for a case study, oldest first.
func (s *Store) History(caseID string) ([]Run, error) {
	rows, err := s.db.Query(
		"SELECT id, case_id, source, title, created_at, result_json FROM runs WHERE case_id = ? ORDER BY id",
		caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// Latest returns the most recent run for a case study, or nil if none exist.
func (s *Store) Latest(caseID string) (*Run, error) {
	row := s.db.QueryRow(
		"SELECT id, case_id, source, title, created_at, result_json FROM runs WHERE case_id = ? ORDER BY id DESC LIMIT 1",
		caseID,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// CaseIDs returns the distinct case ids with at least one recorded run.
func (s *Store) CaseIDs() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT case_id FROM runs ORDER BY case_id")
	if err != nil {
		return nil, fmt.Errorf("query case ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan case id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var blob string
	if err := row.Scan(&r.ID, &r.CaseID, &r.Source, &r.Title, &r.CreatedAt, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(blob), &r.Result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &r, nil
}
