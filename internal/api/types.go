package api

import (
	"github.com/kiotasks/jeep/internal/eval"
	"github.com/kiotasks/jeep/internal/gate"
	"github.com/kiotasks/jeep/internal/history"
	"github.com/kiotasks/jeep/internal/task"
)

// #region requests
// CreateSessionRequest starts a task attempt. Resume loads the active saved
// solution of the task when there is one.
type CreateSessionRequest struct {
	Level  int  `json:"level" validate:"gte=0"`
	Resume bool `json:"resume"`
}

// FuelRequest carries a slider amount: positive picks, negative puts.
type FuelRequest struct {
	Amount *int `json:"amount" validate:"required"`
}

// MoveRequest carries the target cell of a drive.
type MoveRequest struct {
	Position *int `json:"position" validate:"required,gte=0"`
}

// SelectRequest moves the cursor.
type SelectRequest struct {
	Index *int `json:"index" validate:"required,gte=0"`
}

// SolutionRequest replaces the whole history.
type SolutionRequest struct {
	Solution history.Solution `json:"solution" validate:"required,min=1"`
}

// #endregion requests

// #region responses
// SessionResponse is a session and its current view.
type SessionResponse struct {
	ID   string    `json:"id"`
	View task.View `json:"view"`
}

// EditResponse is the gate decision of an edit and the view after it.
type EditResponse struct {
	Decision gate.GateDecision `json:"decision"`
	View     task.View         `json:"view"`
}

// SolutionResponse is the portable encoding of a session.
type SolutionResponse struct {
	TaskID   string           `json:"task_id"`
	Solution history.Solution `json:"solution"`
	Result   eval.Result      `json:"result"`
}

// SaveResponse describes the stored version.
type SaveResponse struct {
	VersionID string          `json:"version_id"`
	ParentID  string          `json:"parent_id,omitempty"`
	TaskID    string          `json:"task_id"`
	Result    eval.Result     `json:"result"`
	Eval      eval.EvalResult `json:"eval"`
}

// ParametersResponse describes the scored parameters of a level.
type ParametersResponse struct {
	TaskID     string                      `json:"task_id"`
	Level      task.LevelSpec              `json:"level"`
	Parameters []eval.ParameterDescription `json:"parameters"`
}

// ManifestResponse lists the preloaded resources.
type ManifestResponse struct {
	Resources []task.Resource `json:"resources"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Uptime   string `json:"uptime"`
}

// #endregion responses

// #region errors
// Error types returned in APIError.Type.
const (
	ErrTypeValidation  = "validation_error"
	ErrTypeNotFound    = "not_found"
	ErrTypeConflict    = "conflict"
	ErrTypeUnavailable = "unavailable"
	ErrTypeInternal    = "internal_error"
)

// APIError is the body of every error response.
type APIError struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (e APIError) Error() string {
	return e.Message
}

// #endregion errors
