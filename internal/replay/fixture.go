package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/kiotasks/jeep/internal/eval"
	"github.com/kiotasks/jeep/internal/gate"
	"github.com/kiotasks/jeep/internal/history"
	"github.com/kiotasks/jeep/internal/logging"
	"github.com/kiotasks/jeep/internal/task"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	Level           int                     `json:"level"`
	Seed            history.Solution        `json:"seed,omitempty"`
	Config          FixtureConfig           `json:"config"`
	Edits           []task.Edit             `json:"edits"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
	ExpectedFinal   *FixtureFinal           `json:"expected_final,omitempty"`
}

// FixtureConfig holds the limits and goals of a replay run. Zero values mean
// the defaults of the level.
type FixtureConfig struct {
	GateConfig FixtureGateConfig `json:"gate_config"`
	EvalConfig FixtureEvalConfig `json:"eval_config"`
}

// FixtureGateConfig mirrors gate.GateConfig with JSON tags.
type FixtureGateConfig struct {
	MaxSteps int `json:"max_steps"`
}

// FixtureEvalConfig mirrors eval.EvalConfig with JSON tags.
type FixtureEvalConfig struct {
	TargetFar           int `json:"target_far"`
	TargetFarWithReturn int `json:"target_far_with_return"`
	MaxTotalFuel        int `json:"max_total_fuel"`
	MaxSteps            int `json:"max_steps"`
}

// FixtureExpectedResult captures the expected action per edit.
type FixtureExpectedResult struct {
	Index  int    `json:"index"`
	Action string `json:"action"`
}

// FixtureFinal is the expected state after the last edit.
type FixtureFinal struct {
	Solution history.Solution `json:"solution"`
	Result   eval.Result      `json:"result"`
}

// Divergence is one place where a replay disagrees with its fixture.
type Divergence struct {
	Index    int // -1 for the final state
	Expected string
	Got      string
}

func (d Divergence) String() string {
	if d.Index < 0 {
		return fmt.Sprintf("final: expected %s, got %s", d.Expected, d.Got)
	}
	return fmt.Sprintf("edit %d: expected %s, got %s", d.Index, d.Expected, d.Got)
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.Level < 0 {
		return nil, fmt.Errorf("fixture %s: negative level %d", path, f.Level)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(f Fixture, path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ToReplayConfig converts the fixture config, filling zero values from the
// defaults of the fixture level.
func (f *Fixture) ToReplayConfig() ReplayConfig {
	c := DefaultReplayConfig(f.Level)
	if v := f.Config.GateConfig.MaxSteps; v > 0 {
		c.GateConfig.MaxSteps = v
	}
	ec := f.Config.EvalConfig
	if ec.TargetFar > 0 {
		c.EvalConfig.TargetFar = ec.TargetFar
	}
	if ec.TargetFarWithReturn > 0 {
		c.EvalConfig.TargetFarWithReturn = ec.TargetFarWithReturn
	}
	c.EvalConfig.MaxTotalFuel = ec.MaxTotalFuel
	c.EvalConfig.MaxSteps = ec.MaxSteps
	return c
}

// #endregion fixture-loader

// #region verify

// Verify compares replay results with the expectations of the fixture.
func (f *Fixture) Verify(results []ReplayResult) []Divergence {
	var out []Divergence
	if len(results) != len(f.ExpectedResults) {
		out = append(out, Divergence{
			Index:    -1,
			Expected: fmt.Sprintf("%d edits", len(f.ExpectedResults)),
			Got:      fmt.Sprintf("%d edits", len(results)),
		})
	}
	for i, exp := range f.ExpectedResults {
		if i >= len(results) {
			break
		}
		if got := results[i].Action; got != exp.Action {
			out = append(out, Divergence{Index: exp.Index, Expected: exp.Action, Got: got})
		}
	}
	if f.ExpectedFinal != nil && len(results) > 0 {
		last := results[len(results)-1]
		if !slices.Equal(last.Solution, f.ExpectedFinal.Solution) {
			out = append(out, Divergence{Index: -1, Expected: fmt.Sprint(f.ExpectedFinal.Solution), Got: fmt.Sprint(last.Solution)})
		}
		if last.Result != f.ExpectedFinal.Result {
			out = append(out, Divergence{Index: -1, Expected: fmt.Sprintf("%+v", f.ExpectedFinal.Result), Got: fmt.Sprintf("%+v", last.Result)})
		}
	}
	return out
}

// #endregion verify

// #region export

// FromEditLog builds a fixture from the logged edits of one session. Logged
// decisions become the expected actions, the last logged solution and result
// the expected final state.
func FromEditLog(level int, entries []logging.EditEntry) (Fixture, error) {
	f := Fixture{
		Description: fmt.Sprintf("session export: %d edits", len(entries)),
		Level:       level,
		Edits:       make([]task.Edit, 0, len(entries)),
	}
	for i, e := range entries {
		edit := task.Edit{Op: e.Op, Value: e.Value}
		if e.Op == task.OpLoad {
			edit.Value = 0
			// a committed load leaves exactly the loaded solution behind
			if e.Decision == gate.ActionCommit {
				if err := json.Unmarshal([]byte(e.SolutionJSON), &edit.Solution); err != nil {
					return Fixture{}, fmt.Errorf("edit %d: parse solution: %w", e.ID, err)
				}
			}
		}
		f.Edits = append(f.Edits, edit)
		f.ExpectedResults = append(f.ExpectedResults, FixtureExpectedResult{Index: i, Action: e.Decision})
	}

	if n := len(entries); n > 0 {
		last := entries[n-1]
		var final FixtureFinal
		if err := json.Unmarshal([]byte(last.SolutionJSON), &final.Solution); err != nil {
			return Fixture{}, fmt.Errorf("edit %d: parse solution: %w", last.ID, err)
		}
		if err := json.Unmarshal([]byte(last.ResultJSON), &final.Result); err != nil {
			return Fixture{}, fmt.Errorf("edit %d: parse result: %w", last.ID, err)
		}
		f.ExpectedFinal = &final
	}
	return f, nil
}

// #endregion export
