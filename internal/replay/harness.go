// Package replay re-runs recorded edit sequences against a fresh task, so a
// logged session or a hand-written fixture can be checked against the
// decisions and scores it produced when it was made.
package replay

import (
	"context"
	"fmt"

	"github.com/kiotasks/jeep/internal/eval"
	"github.com/kiotasks/jeep/internal/gate"
	"github.com/kiotasks/jeep/internal/history"
	"github.com/kiotasks/jeep/internal/task"
)

// #region types
// ReplayConfig bundles the task level and the gate and eval configs of a run.
type ReplayConfig struct {
	Level      int
	GateConfig gate.GateConfig
	EvalConfig eval.EvalConfig
}

// DefaultReplayConfig returns the configs a fresh task of level uses.
func DefaultReplayConfig(level int) ReplayConfig {
	return ReplayConfig{
		Level:      level,
		GateConfig: gate.DefaultGateConfig(),
		EvalConfig: eval.DefaultEvalConfig(task.LevelFor(level).Cells),
	}
}

// ReplayResult captures the outcome of replaying one edit.
type ReplayResult struct {
	Index    int
	Op       string
	Value    int
	Action   string // "commit" | "reject"
	Reason   string
	Decision gate.GateDecision

	// After this edit; unchanged from the previous edit when rejected.
	Result   eval.Result
	Solution history.Solution
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalEdits    int
	Commits       int
	Rejects       int
	VetoCounts    map[gate.VetoType]int
	FinalResult   eval.Result
	FinalSolution history.Solution
	Eval          eval.EvalResult
}

// #endregion types

// #region replay
// Replay builds a task of config.Level, loads seed when it is non-empty and
// applies edits in order. Edit rejections are results; an edit op Replay
// cannot interpret or a seed that does not load stops the run with an error.
func Replay(ctx context.Context, seed history.Solution, edits []task.Edit, config ReplayConfig) ([]ReplayResult, error) {
	tk, err := task.New(task.Settings{Level: config.Level}, task.WithGateConfig(config.GateConfig))
	if err != nil {
		return nil, fmt.Errorf("new task: %w", err)
	}
	if len(seed) > 0 {
		if err := tk.LoadSolution(ctx, seed); err != nil {
			return nil, fmt.Errorf("load seed: %w", err)
		}
	}

	results := make([]ReplayResult, 0, len(edits))
	for i, e := range edits {
		d, err := tk.Apply(ctx, e)
		if err != nil {
			return results, fmt.Errorf("edit %d: %w", i, err)
		}
		results = append(results, ReplayResult{
			Index:    i,
			Op:       e.Op,
			Value:    e.Value,
			Action:   d.Action,
			Reason:   d.Reason,
			Decision: d,
			Result:   tk.Result(),
			Solution: tk.Solution(),
		})
	}
	return results, nil
}

// Summarize computes aggregate stats from replay results and checks the final
// result against goals. With no results the final result is zero.
func Summarize(results []ReplayResult, goals eval.EvalConfig) ReplaySummary {
	s := ReplaySummary{
		TotalEdits: len(results),
		VetoCounts: make(map[gate.VetoType]int),
	}
	for _, r := range results {
		switch r.Action {
		case gate.ActionCommit:
			s.Commits++
		case gate.ActionReject:
			s.Rejects++
		}
		for _, v := range r.Decision.VetoSignals {
			s.VetoCounts[v.Type]++
		}
	}
	if n := len(results); n > 0 {
		s.FinalResult = results[n-1].Result
		s.FinalSolution = results[n-1].Solution
	}
	s.Eval = eval.NewEvalHarness(goals).Run(s.FinalResult)
	return s
}

// #endregion replay
