package eval

// #region parameters
// Ordering tells the leaderboard which direction of a parameter is better.
type Ordering string

const (
	Maximize Ordering = "maximize"
	Minimize Ordering = "minimize"
)

// ParameterDescription describes one scored parameter of the task.
type ParameterDescription struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Ordering Ordering `json:"ordering"`
}

// #endregion parameters

// #region result
// Result is the scoring record submitted to the host after every update.
type Result struct {
	FarWithReturn int `json:"far_with_return"`
	Far           int `json:"far"`
	TotalFuel     int `json:"total_fuel"`
	Steps         int `json:"steps"`
}

// #endregion result

// #region eval-config
// EvalConfig holds the goals a result is checked against.
type EvalConfig struct {
	TargetFar           int // blocking: cell the jeep must reach
	TargetFarWithReturn int // blocking: cell the jeep must reach and come back from
	MaxTotalFuel        int // informational; 0 disables
	MaxSteps            int // informational; 0 disables
}

// DefaultEvalConfig returns the goal of a track with the given number of
// cells: reach the far end, no return required.
func DefaultEvalConfig(cells int) EvalConfig {
	return EvalConfig{
		TargetFar: cells - 1,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single check result.
type EvalMetric struct {
	Name     string `json:"name"`
	Value    int    `json:"value"`
	Target   int    `json:"target"`
	Pass     bool   `json:"pass"`
	Blocking bool   `json:"blocking"`
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of checking a result against its goals.
type EvalResult struct {
	Passed  bool         `json:"passed"`
	Metrics []EvalMetric `json:"metrics"`
	Reason  string       `json:"reason"`
}

// #endregion eval-result
