// Package eval scores jeep attempts: it names the task parameters, turns
// history scores into the record the host ranks, and checks results against
// the goals of a level.
package eval

import (
	"fmt"

	"github.com/kiotasks/jeep/internal/history"
)

// #region parameters
var parameters = []ParameterDescription{
	{Name: "far_with_return", Title: "Distance with return", Ordering: Maximize},
	{Name: "far", Title: "Distance", Ordering: Maximize},
	{Name: "total_fuel", Title: "Fuel used", Ordering: Minimize},
	{Name: "steps", Title: "Number of steps", Ordering: Minimize},
}

// Parameters returns the scored parameters in leaderboard priority order.
func Parameters() []ParameterDescription {
	out := make([]ParameterDescription, len(parameters))
	copy(out, parameters)
	return out
}

// #endregion parameters

// #region result
// ResultFromScores builds the scoring record of a history.
func ResultFromScores(s history.Scores) Result {
	return Result{
		FarWithReturn: s.MaxFarWithReturn,
		Far:           s.MaxFar,
		TotalFuel:     s.TotalFuel,
		Steps:         s.LastCorrectStepIndex + 1,
	}
}

// Map returns the result as the flat name to value record the host expects.
func (r Result) Map() map[string]float64 {
	out := make(map[string]float64, len(parameters))
	for _, p := range parameters {
		out[p.Name] = float64(r.value(p.Name))
	}
	return out
}

// ResultFromMap is the inverse of Map. Missing names read as zero.
func ResultFromMap(m map[string]float64) Result {
	return Result{
		FarWithReturn: int(m["far_with_return"]),
		Far:           int(m["far"]),
		TotalFuel:     int(m["total_fuel"]),
		Steps:         int(m["steps"]),
	}
}

func (r Result) value(name string) int {
	switch name {
	case "far_with_return":
		return r.FarWithReturn
	case "far":
		return r.Far
	case "total_fuel":
		return r.TotalFuel
	case "steps":
		return r.Steps
	}
	return 0
}

// Compare orders results the way the leaderboard does: parameters are compared
// in priority order, each in its own direction. It returns a positive number
// when a is better than b, negative when worse and 0 on a tie.
func Compare(a, b Result) int {
	for _, p := range parameters {
		av, bv := a.value(p.Name), b.value(p.Name)
		if av == bv {
			continue
		}
		better := av > bv
		if p.Ordering == Minimize {
			better = !better
		}
		if better {
			return 1
		}
		return -1
	}
	return 0
}

// Better reports whether a ranks strictly above b.
func Better(a, b Result) bool {
	return Compare(a, b) > 0
}

// #endregion result

// #region eval-harness
// EvalHarness checks results against the goals of a level.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run checks r. Distance goals block; fuel and step budgets are informational.
func (h *EvalHarness) Run(r Result) EvalResult {
	metrics := []EvalMetric{
		atLeast("far", r.Far, h.config.TargetFar),
		atLeast("far_with_return", r.FarWithReturn, h.config.TargetFarWithReturn),
	}
	if h.config.MaxTotalFuel > 0 {
		metrics = append(metrics, atMost("total_fuel", r.TotalFuel, h.config.MaxTotalFuel))
	}
	if h.config.MaxSteps > 0 {
		metrics = append(metrics, atMost("steps", r.Steps, h.config.MaxSteps))
	}

	passed := true
	var failReasons []string
	for _, m := range metrics {
		if m.Blocking && !m.Pass {
			passed = false
			failReasons = append(failReasons, fmt.Sprintf("%s %d below target %d", m.Name, m.Value, m.Target))
		}
	}

	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  passed,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
func atLeast(name string, value, target int) EvalMetric {
	return EvalMetric{Name: name, Value: value, Target: target, Pass: value >= target, Blocking: true}
}

func atMost(name string, value, limit int) EvalMetric {
	return EvalMetric{Name: name, Value: value, Target: limit, Pass: value <= limit}
}

// #endregion helpers
