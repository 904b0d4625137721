package logging

import "time"

// #region edit-entry
// EditEntry is a single row in the edit_log table.
type EditEntry struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	TaskID       string    `json:"task_id"`
	Op           string    `json:"op"` // "fuel" | "move" | "select" | "load"
	Value        int       `json:"value"`
	SolutionJSON string    `json:"solution_json,omitempty"` // solution after the edit
	Decision     string    `json:"decision"`                // "commit" | "reject"
	Reason       string    `json:"reason,omitempty"`
	ResultJSON   string    `json:"result_json,omitempty"` // scoring record after the edit
	CreatedAt    time.Time `json:"created_at"`
}

// #endregion edit-entry
