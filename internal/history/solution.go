package history

import (
	"errors"
	"fmt"

	"github.com/kiotasks/jeep/internal/field"
	"github.com/kiotasks/jeep/internal/step"
)

// ErrMalformedSolution is returned when a persisted solution cannot be turned
// back into steps.
var ErrMalformedSolution = errors.New("malformed solution")

// #region solution
// Solution is the portable encoding of a history: even slots hold signed fuel
// amounts (positive picks, negative puts), odd slots hold target cell indexes.
type Solution []int

// Solution encodes the step log.
func (h *History) Solution() Solution {
	out := make(Solution, len(h.steps))
	for i, s := range h.steps {
		if s.Category() == step.Fuel {
			out[i] = s.FuelDelta()
		} else {
			out[i] = s.Position().Index()
		}
	}
	return out
}

// Decode turns a solution back into steps, resolving cell indexes against positions.
func Decode(sol Solution, positions []field.Position) ([]step.Step, error) {
	if len(sol) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrMalformedSolution)
	}
	steps := make([]step.Step, len(sol))
	for i, v := range sol {
		if i%2 == 0 {
			steps[i] = step.PickOrPut(v)
			continue
		}
		if v < 0 || v >= len(positions) {
			return nil, fmt.Errorf("%w: slot %d moves to cell %d, track has %d cells",
				ErrMalformedSolution, i, v, len(positions))
		}
		steps[i] = step.MoveTo(positions[v])
	}
	return steps, nil
}

// Load replaces the step log with a decoded solution and recomputes every
// state. A malformed solution leaves the history untouched.
func (h *History) Load(sol Solution) error {
	if h.notifying {
		return ErrReentrantEdit
	}
	steps, err := Decode(sol, h.initial.Field().Positions())
	if err != nil {
		return err
	}
	h.steps = steps
	h.update(0)
	return nil
}

// #endregion solution
