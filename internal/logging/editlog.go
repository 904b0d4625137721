// Package logging builds the service loggers and records every gated edit in
// the edit_log table, so sessions can be replayed and exported as fixtures.
package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-edit
// LogEdit writes an entry to the edit_log table.
func LogEdit(db *sql.DB, entry EditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO edit_log (session_id, task_id, op, value, solution_json, decision, reason, result_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.TaskID,
		entry.Op,
		entry.Value,
		nullIfEmpty(entry.SolutionJSON),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		nullIfEmpty(entry.ResultJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log edit: %w", err)
	}
	return nil
}

// #endregion log-edit

// #region list-edits
// ListEdits returns the edits of a session in the order they were made.
func ListEdits(db *sql.DB, sessionID string) ([]EditEntry, error) {
	rows, err := db.Query(
		`SELECT id, session_id, task_id, op, value, solution_json, decision, reason, result_json, created_at
		 FROM edit_log WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list edits: %w", err)
	}
	defer rows.Close()

	var entries []EditEntry
	for rows.Next() {
		var e EditEntry
		var solution, reason, result sql.NullString
		var createdStr string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.TaskID, &e.Op, &e.Value, &solution, &e.Decision, &reason, &result, &createdStr); err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		e.SolutionJSON = solution.String
		e.Reason = reason.String
		e.ResultJSON = result.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListSessions returns the ids of sessions with logged edits, most recent first.
func ListSessions(db *sql.DB, limit int) ([]string, error) {
	rows, err := db.Query(
		`SELECT session_id FROM edit_log GROUP BY session_id ORDER BY MAX(id) DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// #endregion list-edits

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
