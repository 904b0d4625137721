package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiotasks/jeep/internal/history"
)

func TestParameters(t *testing.T) {
	params := Parameters()
	require.Len(t, params, 4)

	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"far_with_return", "far", "total_fuel", "steps"}, names)
	assert.Equal(t, Maximize, params[0].Ordering)
	assert.Equal(t, Maximize, params[1].Ordering)
	assert.Equal(t, Minimize, params[2].Ordering)
	assert.Equal(t, Minimize, params[3].Ordering)

	params[0].Name = "changed"
	assert.Equal(t, "far_with_return", Parameters()[0].Name)
}

func TestResultFromScores(t *testing.T) {
	r := ResultFromScores(history.Scores{MaxFar: 5, MaxFarWithReturn: 2, TotalFuel: 10, LastCorrectStepIndex: 2})
	assert.Equal(t, Result{FarWithReturn: 2, Far: 5, TotalFuel: 10, Steps: 3}, r)

	m := r.Map()
	assert.Equal(t, map[string]float64{"far": 5, "far_with_return": 2, "total_fuel": 10, "steps": 3}, m)
	assert.Equal(t, r, ResultFromMap(m))

	none := ResultFromScores(history.Scores{LastCorrectStepIndex: -1})
	assert.Equal(t, 0, none.Steps)
}

func TestCompare(t *testing.T) {
	base := Result{FarWithReturn: 3, Far: 7, TotalFuel: 20, Steps: 9}

	cases := []struct {
		name  string
		other Result
		want  int
	}{
		{"tie", base, 0},
		{"further with return wins over everything", Result{FarWithReturn: 4, Far: 4, TotalFuel: 99, Steps: 99}, 1},
		{"further wins on equal return", Result{FarWithReturn: 3, Far: 8, TotalFuel: 99, Steps: 99}, 1},
		{"less fuel wins on equal distances", Result{FarWithReturn: 3, Far: 7, TotalFuel: 19, Steps: 99}, 1},
		{"fewer steps break the last tie", Result{FarWithReturn: 3, Far: 7, TotalFuel: 20, Steps: 8}, 1},
		{"more fuel loses", Result{FarWithReturn: 3, Far: 7, TotalFuel: 21, Steps: 1}, -1},
		{"shorter loses", Result{FarWithReturn: 3, Far: 6, TotalFuel: 0, Steps: 0}, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compare(tc.other, base))
			assert.Equal(t, -tc.want, Compare(base, tc.other))
			assert.Equal(t, tc.want > 0, Better(tc.other, base))
		})
	}
}

func TestEvalPassesWhenFarEndReached(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig(16))
	result := h.Run(Result{Far: 15, TotalFuel: 40, Steps: 30})

	assert.True(t, result.Passed, result.Reason)
	assert.Equal(t, "all checks passed", result.Reason)
	assert.Len(t, result.Metrics, 2)
}

func TestEvalFailsShortOfTarget(t *testing.T) {
	config := DefaultEvalConfig(16)
	config.TargetFarWithReturn = 5
	h := NewEvalHarness(config)

	result := h.Run(Result{Far: 10, FarWithReturn: 4})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reason, "2 checks")

	var failed []string
	for _, m := range result.Metrics {
		if !m.Pass {
			failed = append(failed, m.Name)
		}
	}
	assert.Equal(t, []string{"far", "far_with_return"}, failed)
}

func TestEvalBudgetsInformationalOnly(t *testing.T) {
	config := DefaultEvalConfig(16)
	config.MaxTotalFuel = 30
	config.MaxSteps = 10
	h := NewEvalHarness(config)

	result := h.Run(Result{Far: 15, TotalFuel: 31, Steps: 11})
	require.Len(t, result.Metrics, 4)
	assert.True(t, result.Passed, "budgets must not block: %s", result.Reason)
	for _, m := range result.Metrics[2:] {
		assert.False(t, m.Pass, m.Name)
		assert.False(t, m.Blocking, m.Name)
	}
}
