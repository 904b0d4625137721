package store

import (
	"time"

	"github.com/kiotasks/jeep/internal/eval"
	"github.com/kiotasks/jeep/internal/history"
)

// #region solution-record
// SolutionRecord is one saved version of a task attempt.
type SolutionRecord struct {
	VersionID string
	ParentID  string
	TaskID    string
	Level     int
	Steps     history.Solution
	Scores    eval.Result
	CreatedAt time.Time
}

// #endregion solution-record
