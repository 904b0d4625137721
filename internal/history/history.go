// Package history keeps the ordered log of jeep steps together with the chain
// of field states they produce. The chain is recomputed incrementally from the
// first edited index and stops at the first step that cannot be applied, so an
// illegal step invalidates everything after it until it is fixed.
package history

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kiotasks/jeep/internal/field"
	"github.com/kiotasks/jeep/internal/step"
)

var (
	ErrIndexOutOfRange = errors.New("step index out of range")
	ErrInvalidStep     = errors.New("invalid step")
	ErrReentrantEdit   = errors.New("history edited while notifying listeners")
)

// #region types
// Scores are the aggregates derived from the valid prefix of the history.
type Scores struct {
	MaxFar               int `json:"max_far"`
	MaxFarWithReturn     int `json:"max_far_with_return"`
	TotalFuel            int `json:"total_fuel"`
	LastCorrectStepIndex int `json:"last_correct_step_index"`
}

// Listener is called synchronously after every recomputation. It must not
// edit the history it is called for.
type Listener func(h *History)

// History is the step log of one task attempt. It is not safe for concurrent use.
//
//	steps  :   0   1   2   3
//	states : 0   1   2   3   4
type History struct {
	steps     []step.Step
	initial   field.State
	states    []field.State // nil until first evaluated
	scores    Scores
	listeners []Listener
	notifying bool
}

// #endregion types

// #region constructor
// New creates a history seeded with steps, starting from initial. The seed
// must be non-empty, start with a fuel step and alternate categories, and
// every drive step must target a cell of initial's field.
func New(steps []step.Step, initial field.State) (*History, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: empty seed", ErrInvalidStep)
	}
	h := &History{initial: initial}
	for i, s := range steps {
		if err := h.checkStep(s); err != nil {
			return nil, fmt.Errorf("seed step %d: %w", i, err)
		}
		if s.Category() != slotCategory(i) {
			return nil, fmt.Errorf("%w: seed step %d is %s, want %s", ErrInvalidStep, i, s.Category(), slotCategory(i))
		}
	}
	h.steps = slices.Clone(steps)
	return h, nil
}

// slotCategory is the category of the step at index in an alternating log.
func slotCategory(index int) step.Category {
	if index%2 == 0 {
		return step.Fuel
	}
	return step.Drive
}

// #endregion constructor

// #region accessors
// Len returns the number of steps.
func (h *History) Len() int {
	return len(h.steps)
}

// Steps returns a copy of the step log.
func (h *History) Steps() []step.Step {
	return slices.Clone(h.steps)
}

// Step returns the step at index.
func (h *History) Step(index int) (step.Step, bool) {
	if index < 0 || index >= len(h.steps) {
		return step.Step{}, false
	}
	return h.steps[index], true
}

// Initial returns the state before the first step.
func (h *History) Initial() field.State {
	return h.initial
}

// State returns the state before step index. Negative indexes give the initial
// state; indexes past the valid prefix give the last valid state.
func (h *History) State(index int) field.State {
	h.ensureEvaluated()
	if index < 0 {
		return h.initial
	}
	if index >= len(h.states) {
		return h.states[len(h.states)-1]
	}
	return h.states[index]
}

// States returns the valid state chain, initial state first.
func (h *History) States() []field.State {
	h.ensureEvaluated()
	return slices.Clone(h.states)
}

// LastCorrectStepIndex is the index of the last step that produced a state,
// -1 when even the first step is illegal.
func (h *History) LastCorrectStepIndex() int {
	h.ensureEvaluated()
	return len(h.states) - 2
}

// Scores returns the aggregates of the valid prefix.
func (h *History) Scores() Scores {
	h.ensureEvaluated()
	return h.scores
}

// AddListener registers l to be called after every change.
func (h *History) AddListener(l Listener) {
	h.listeners = append(h.listeners, l)
}

// #endregion accessors

// #region edits
// Replace overwrites the step at index with a step of the same category and
// recomputes from there.
func (h *History) Replace(index int, s step.Step) error {
	if err := h.checkEdit(s); err != nil {
		return err
	}
	if index < 0 || index >= len(h.steps) {
		return fmt.Errorf("%w: replace %d of %d steps", ErrIndexOutOfRange, index, len(h.steps))
	}
	if old := h.steps[index].Category(); s.Category() != old {
		return fmt.Errorf("%w: replace %s step %d with %s", ErrInvalidStep, old, index, s)
	}
	h.steps[index] = s
	h.update(index)
	return nil
}

// Insert puts s at index, padding with a no-op step of the other category
// where needed so that drive and fuel steps keep alternating.
func (h *History) Insert(index int, s step.Step) error {
	if err := h.checkEdit(s); err != nil {
		return err
	}
	if index < 0 || index > len(h.steps) {
		return fmt.Errorf("%w: insert at %d of %d steps", ErrIndexOutOfRange, index, len(h.steps))
	}

	previous := step.Drive
	if index > 0 {
		previous = h.steps[index-1].Category()
	}
	here := h.State(index).CarPosition()

	var inserted []step.Step
	switch {
	case index == len(h.steps) && s.Category() != previous:
		inserted = []step.Step{s}
	case s.Category() == step.Drive && previous == step.Fuel:
		inserted = []step.Step{s, step.PickOrPut(0)}
	case s.Category() == step.Fuel && previous == step.Drive:
		inserted = []step.Step{s, step.MoveTo(here)}
	case s.Category() == step.Drive:
		inserted = []step.Step{step.PickOrPut(0), s}
	default:
		inserted = []step.Step{step.MoveTo(here), s}
	}

	h.steps = slices.Insert(h.steps, index, inserted...)
	h.update(index)
	return nil
}

func (h *History) checkEdit(s step.Step) error {
	if h.notifying {
		return ErrReentrantEdit
	}
	return h.checkStep(s)
}

// checkStep rejects steps a solution could not encode: unusable arguments and
// drives to a cell of another field.
func (h *History) checkStep(s step.Step) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStep, s)
	}
	if s.Category() != step.Drive {
		return nil
	}
	own, ok := h.initial.Field().Position(s.Position().Index())
	if !ok || own != s.Position() {
		return fmt.Errorf("%w: %s is not on this track", ErrInvalidStep, s)
	}
	return nil
}

// #endregion edits

// #region recompute
func (h *History) ensureEvaluated() {
	if h.states != nil {
		return
	}
	h.states = []field.State{h.initial}
	h.extend(0)
	h.evaluateScores()
}

// update drops every state after the edited step and rebuilds the chain from it.
// An edit past the valid prefix cannot change the chain, only the listeners hear of it.
func (h *History) update(from int) {
	h.ensureEvaluated()
	if from < len(h.states) {
		h.states = h.states[:from+1]
		h.extend(from)
	}
	h.evaluateScores()
	h.notify()
}

// extend appends states for steps from index on, stopping at the first step
// that cannot be applied to the last state.
func (h *History) extend(from int) {
	last := h.states[len(h.states)-1]
	for i := from; i < len(h.steps); i++ {
		s := h.steps[i]
		if !s.ChangePossible(last) {
			break
		}
		next, err := s.ChangeState(last)
		if err != nil {
			panic(fmt.Sprintf("history: step %d %s passed its check but failed: %v", i, s, err))
		}
		h.states = append(h.states, next)
		last = next
	}
}

func (h *History) evaluateScores() {
	var scores Scores
	lastCell := h.initial.Len() - 1
	for i, st := range h.states {
		current := st.CarPosition().Index()
		scores.MaxFar = max(scores.MaxFar, current)
		if current == 0 || current == lastCell {
			scores.MaxFarWithReturn = max(scores.MaxFarWithReturn, scores.MaxFar)
		}

		if i < len(h.states)-1 {
			s := h.steps[i]
			if s.Category() == step.Fuel && current == 0 && s.FuelDelta() > 0 {
				scores.TotalFuel += s.FuelDelta()
			}
		}
	}
	scores.LastCorrectStepIndex = len(h.states) - 2
	h.scores = scores
}

func (h *History) notify() {
	h.notifying = true
	defer func() { h.notifying = false }()
	for _, l := range h.listeners {
		l(h)
	}
}

// #endregion recompute
