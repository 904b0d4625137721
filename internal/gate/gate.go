// Package gate puts a cursor over a history and decides whether user edits
// may reach it. Every edit is pre-checked against the state it would apply to;
// rejected edits leave the history and the cursor untouched.
package gate

import (
	"errors"
	"fmt"

	"github.com/kiotasks/jeep/internal/field"
	"github.com/kiotasks/jeep/internal/history"
	"github.com/kiotasks/jeep/internal/step"
)

// #region gate
// Gate is the edit cursor of one history.
//
//	state 0 - [step 0] - state 1 - [step 1] - state 2
//
// The step under the cursor applies to State(current) and produces State(current+1).
type Gate struct {
	config  GateConfig
	history *history.History
	current int
}

// NewGate creates a gate with the cursor on the last step of h.
func NewGate(h *history.History, config GateConfig) *Gate {
	return &Gate{config: config, history: h, current: h.Len() - 1}
}

// History returns the gated history.
func (g *Gate) History() *history.History {
	return g.history
}

// CurrentIndex returns the cursor.
func (g *Gate) CurrentIndex() int {
	return g.current
}

// CurrentStep returns the step under the cursor.
func (g *Gate) CurrentStep() (step.Step, bool) {
	return g.history.Step(g.current)
}

// Select moves the cursor to index.
func (g *Gate) Select(index int) error {
	if index < 0 || index >= g.history.Len() {
		return fmt.Errorf("select %d of %d steps: %w", index, g.history.Len(), history.ErrIndexOutOfRange)
	}
	g.current = index
	return nil
}

// Reset puts the cursor back on the last step, as after loading a solution.
func (g *Gate) Reset() {
	g.current = g.history.Len() - 1
}

// #endregion gate

// #region cursor-ops
// MayUpdateCurrent reports whether s could replace the step under the cursor.
func (g *Gate) MayUpdateCurrent(s step.Step) bool {
	return s.ChangePossible(g.history.State(g.current))
}

// UpdateCurrent replaces the step under the cursor.
func (g *Gate) UpdateCurrent(s step.Step) error {
	return g.history.Replace(g.current, s)
}

// MayUpdateNext reports whether s could become the step after the cursor.
func (g *Gate) MayUpdateNext(s step.Step) bool {
	if g.atLast() {
		return g.MayInsertNext(s)
	}
	return s.ChangePossible(g.history.State(g.current + 1))
}

// UpdateNext replaces the step after the cursor and advances to it. On the
// last step it inserts instead.
func (g *Gate) UpdateNext(s step.Step) error {
	if g.atLast() {
		return g.InsertNext(s)
	}
	if err := g.history.Replace(g.current+1, s); err != nil {
		return err
	}
	g.current++
	return nil
}

// MayInsertNext reports whether s could be inserted after the cursor.
func (g *Gate) MayInsertNext(s step.Step) bool {
	return s.ChangePossible(g.history.State(g.current + 1))
}

// InsertNext inserts s after the cursor and advances to it.
func (g *Gate) InsertNext(s step.Step) error {
	if err := g.history.Insert(g.current+1, s); err != nil {
		return err
	}
	g.current++
	return nil
}

func (g *Gate) atLast() bool {
	return g.current == g.history.Len()-1
}

// #endregion cursor-ops

// #region decisions
// Fuel applies a fuel amount from the slider: positive picks, negative puts.
// It rewrites the current fuel step, or the one after a drive step.
func (g *Gate) Fuel(amount int) GateDecision {
	return g.apply(step.PickOrPut(amount))
}

// Move drives to p from the field view. It rewrites the current drive step, or
// the one after a fuel step.
func (g *Gate) Move(p field.Position) GateDecision {
	if p == nil {
		return g.reject(VetoSignal{Type: VetoIllegalTransfer, Reason: "no target position"})
	}
	return g.apply(step.MoveTo(p))
}

// MoveToCell is Move with the target given as a cell index of the history's field.
func (g *Gate) MoveToCell(index int) GateDecision {
	p, ok := g.history.Initial().Field().Position(index)
	if !ok {
		return g.reject(VetoSignal{
			Type:   VetoIndexOutOfRange,
			Reason: fmt.Sprintf("no cell %d on a track of %d", index, g.history.Initial().Len()),
		})
	}
	return g.Move(p)
}

// SelectDecision wraps Select for callers that record every edit as a decision.
func (g *Gate) SelectDecision(index int) GateDecision {
	if err := g.Select(index); err != nil {
		return g.reject(VetoSignal{Type: VetoIndexOutOfRange, Reason: err.Error()})
	}
	return GateDecision{
		Action: ActionCommit,
		Reason: fmt.Sprintf("selected step %d", index),
		Index:  g.current,
	}
}

func (g *Gate) apply(s step.Step) GateDecision {
	current, ok := g.CurrentStep()
	onCurrent := ok && current.Category() == s.Category()

	var possible bool
	if onCurrent {
		possible = g.MayUpdateCurrent(s)
	} else {
		possible = g.MayUpdateNext(s)
	}
	if !possible {
		return g.reject(VetoSignal{
			Type:   VetoIllegalTransfer,
			Reason: fmt.Sprintf("%s not possible at step %d", s, g.target(onCurrent)),
		})
	}

	if !onCurrent && g.atLast() && g.config.MaxSteps > 0 && g.history.Len() >= g.config.MaxSteps {
		return g.reject(VetoSignal{
			Type:   VetoStepLimit,
			Reason: fmt.Sprintf("history already has %d steps, limit %d", g.history.Len(), g.config.MaxSteps),
		})
	}

	var err error
	if onCurrent {
		err = g.UpdateCurrent(s)
	} else {
		err = g.UpdateNext(s)
	}
	if err != nil {
		veto := VetoHistoryError
		if errors.Is(err, history.ErrIndexOutOfRange) {
			veto = VetoIndexOutOfRange
		}
		return g.reject(VetoSignal{Type: veto, Reason: err.Error()})
	}

	return GateDecision{
		Action: ActionCommit,
		Reason: fmt.Sprintf("%s at step %d", s, g.current),
		Index:  g.current,
	}
}

func (g *Gate) target(onCurrent bool) int {
	if onCurrent {
		return g.current
	}
	return g.current + 1
}

func (g *Gate) reject(vetoes ...VetoSignal) GateDecision {
	return GateDecision{
		Action:      ActionReject,
		Reason:      fmt.Sprintf("veto: %s", vetoes[0].Reason),
		Vetoed:      true,
		VetoSignals: vetoes,
		Index:       g.current,
	}
}

// #endregion decisions
