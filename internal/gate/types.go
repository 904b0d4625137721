package gate

// #region veto-type
// VetoType enumerates the reasons an edit is rejected.
type VetoType string

const (
	VetoIllegalTransfer VetoType = "illegal_transfer"
	VetoIndexOutOfRange VetoType = "index_out_of_range"
	VetoStepLimit       VetoType = "step_limit"
	VetoHistoryError    VetoType = "history_error"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected veto condition.
type VetoSignal struct {
	Type   VetoType `json:"type"`
	Reason string   `json:"reason"`
}

// #endregion veto-signal

// #region gate-config
// GateConfig holds the limits the gate enforces on top of step legality.
type GateConfig struct {
	MaxSteps int // history length cap; 0 disables it
}

// DefaultGateConfig returns the limits used by the task when none are configured.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxSteps: 512,
	}
}

// #endregion gate-config

// #region gate-decision
const (
	ActionCommit = "commit"
	ActionReject = "reject"
)

// GateDecision is the outcome of one gated edit.
type GateDecision struct {
	Action      string       `json:"action"` // "commit" | "reject"
	Reason      string       `json:"reason"`
	Vetoed      bool         `json:"vetoed"`
	VetoSignals []VetoSignal `json:"veto_signals,omitempty"` // non-empty if vetoed
	Index       int          `json:"index"`                  // cursor after the edit
}

// Committed reports whether the edit reached the history.
func (d GateDecision) Committed() bool {
	return d.Action == ActionCommit
}

// #endregion gate-decision
