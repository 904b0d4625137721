// Package store keeps saved jeep solutions in SQLite. Every save is a new
// version linked to its parent; each task has one active version.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a version or an active pointer does not exist.
var ErrNotFound = errors.New("not found")

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS solution_versions (
	version_id    TEXT PRIMARY KEY,
	parent_id     TEXT,
	task_id       TEXT NOT NULL,
	level         INTEGER NOT NULL,
	steps_json    TEXT NOT NULL,
	scores_json   TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES solution_versions(version_id)
);

CREATE INDEX IF NOT EXISTS solution_versions_task ON solution_versions(task_id, created_at);

CREATE TABLE IF NOT EXISTS edit_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	task_id       TEXT NOT NULL,
	op            TEXT NOT NULL,
	value         INTEGER NOT NULL,
	solution_json TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	result_json   TEXT,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS active_solution (
	task_id       TEXT PRIMARY KEY,
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES solution_versions(version_id)
);
`

// #endregion schema

// #region store-struct
// Store manages versioned solutions in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// foreign_keys is per connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the edit log.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #region create-initial
// CreateInitial stores a root version for a task and makes it active.
func (s *Store) CreateInitial(rec SolutionRecord) (SolutionRecord, error) {
	rec.ParentID = ""
	return s.Commit(rec)
}

// #endregion create-initial

// #region get-current
// GetCurrent reads the active version of a task.
func (s *Store) GetCurrent(taskID string) (SolutionRecord, error) {
	var versionID string
	err := s.db.QueryRow(`SELECT version_id FROM active_solution WHERE task_id = ?`, taskID).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return SolutionRecord{}, fmt.Errorf("get active %s: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return SolutionRecord{}, fmt.Errorf("get active %s: %w", taskID, err)
	}
	return s.GetVersion(versionID)
}

// #endregion get-current

// #region get-version
// GetVersion retrieves a specific version by ID.
func (s *Store) GetVersion(id string) (SolutionRecord, error) {
	row := s.db.QueryRow(
		`SELECT version_id, parent_id, task_id, level, steps_json, scores_json, created_at
		 FROM solution_versions WHERE version_id = ?`, id,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SolutionRecord{}, fmt.Errorf("get version %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return SolutionRecord{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return rec, nil
}

// #endregion get-version

// #region commit
// Commit inserts a new version and moves the task's active pointer to it
// atomically. An empty VersionID or CreatedAt is filled in.
func (s *Store) Commit(rec SolutionRecord) (SolutionRecord, error) {
	if rec.VersionID == "" {
		rec.VersionID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Steps == nil {
		rec.Steps = []int{}
	}

	stepsJSON, err := json.Marshal(rec.Steps)
	if err != nil {
		return SolutionRecord{}, fmt.Errorf("marshal steps: %w", err)
	}
	scoresJSON, err := json.Marshal(rec.Scores)
	if err != nil {
		return SolutionRecord{}, fmt.Errorf("marshal scores: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return SolutionRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parentPtr interface{}
	if rec.ParentID != "" {
		parentPtr = rec.ParentID
	}

	_, err = tx.Exec(
		`INSERT INTO solution_versions (version_id, parent_id, task_id, level, steps_json, scores_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.VersionID, parentPtr, rec.TaskID, rec.Level, string(stepsJSON), string(scoresJSON),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return SolutionRecord{}, fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_solution (task_id, version_id) VALUES (?, ?)
		 ON CONFLICT(task_id) DO UPDATE SET version_id = excluded.version_id`,
		rec.TaskID, rec.VersionID,
	)
	if err != nil {
		return SolutionRecord{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return SolutionRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion commit

// #region rollback
// Rollback points a task's active version back at an earlier version of the same task.
func (s *Store) Rollback(taskID, targetVersionID string) error {
	var exists int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM solution_versions WHERE version_id = ? AND task_id = ?`, targetVersionID, taskID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("version %s of %s: %w", targetVersionID, taskID, ErrNotFound)
	}

	_, err = s.db.Exec(
		`INSERT INTO active_solution (task_id, version_id) VALUES (?, ?)
		 ON CONFLICT(task_id) DO UPDATE SET version_id = excluded.version_id`,
		taskID, targetVersionID,
	)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// #endregion rollback

// #region list-versions
// ListVersions returns the most recent versions of a task, newest first.
// An empty taskID lists every task.
func (s *Store) ListVersions(taskID string, limit int) ([]SolutionRecord, error) {
	rows, err := s.db.Query(
		`SELECT version_id, parent_id, task_id, level, steps_json, scores_json, created_at
		 FROM solution_versions WHERE ? = '' OR task_id = ?
		 ORDER BY created_at DESC LIMIT ?`, taskID, taskID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var records []SolutionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list-versions

// #region scan
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (SolutionRecord, error) {
	var rec SolutionRecord
	var parentID sql.NullString
	var stepsJSON, scoresJSON, createdStr string

	if err := row.Scan(&rec.VersionID, &parentID, &rec.TaskID, &rec.Level, &stepsJSON, &scoresJSON, &createdStr); err != nil {
		return SolutionRecord{}, err
	}
	if parentID.Valid {
		rec.ParentID = parentID.String
	}
	if err := json.Unmarshal([]byte(stepsJSON), &rec.Steps); err != nil {
		return SolutionRecord{}, fmt.Errorf("unmarshal steps: %w", err)
	}
	if err := json.Unmarshal([]byte(scoresJSON), &rec.Scores); err != nil {
		return SolutionRecord{}, fmt.Errorf("unmarshal scores: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// #endregion scan
