// Package step defines the atomic actions that move the jeep world from one
// field.State to the next. The set of step kinds is closed; each kind is
// dispatched through a fixed behavior table.
package step

import (
	"fmt"
	"strconv"

	"github.com/kiotasks/jeep/internal/field"
)

// #region category
// Category separates driving steps from fuel steps. A canonical history
// alternates them.
type Category int

const (
	Drive Category = iota
	Fuel
)

func (c Category) String() string {
	switch c {
	case Drive:
		return "drive"
	case Fuel:
		return "fuel"
	default:
		return "unknown"
	}
}

// #endregion category

// #region kind
// Kind tags a step variant.
type Kind int

const (
	KindMoveTo Kind = iota + 1
	KindPick
	KindPut
	KindPickOrPut
)

func (k Kind) String() string {
	switch k {
	case KindMoveTo:
		return "move_to"
	case KindPick:
		return "pick"
	case KindPut:
		return "put"
	case KindPickOrPut:
		return "pick_or_put"
	default:
		return "invalid"
	}
}

// #endregion kind

// #region step
// Step is an immutable action. The zero value is not a valid step.
type Step struct {
	kind     Kind
	position field.Position
	amount   int
}

// MoveTo drives the car to p.
func MoveTo(p field.Position) Step {
	return Step{kind: KindMoveTo, position: p}
}

// Pick takes amount of fuel from the current cell.
func Pick(amount int) Step {
	return Step{kind: KindPick, amount: amount}
}

// Put leaves amount of fuel in the current cell.
func Put(amount int) Step {
	return Step{kind: KindPut, amount: amount}
}

// PickOrPut picks for a positive amount, puts for a negative one and does
// nothing for zero.
func PickOrPut(amount int) Step {
	return Step{kind: KindPickOrPut, amount: amount}
}

// Kind returns the variant tag.
func (s Step) Kind() Kind {
	return s.kind
}

// Position is the target of a MoveTo step, nil otherwise.
func (s Step) Position() field.Position {
	return s.position
}

// Amount is the raw amount a fuel step was built with.
func (s Step) Amount() int {
	return s.amount
}

// Valid reports whether the step was built by one of the constructors with
// usable arguments: MoveTo needs a position, Pick and Put a non-negative amount.
func (s Step) Valid() bool {
	switch s.kind {
	case KindMoveTo:
		return s.position != nil
	case KindPick, KindPut:
		return s.amount >= 0
	case KindPickOrPut:
		return true
	default:
		return false
	}
}

// Category returns Drive for MoveTo and Fuel for every transfer kind.
func (s Step) Category() Category {
	return s.behavior().category
}

// FuelDelta is the signed change of the car's fuel by a transfer: positive
// for a pick, negative for a put. It is zero for drive steps.
func (s Step) FuelDelta() int {
	return s.behavior().delta(s)
}

// ChangePossible reports whether the step can be applied to fs. It never fails.
func (s Step) ChangePossible(fs field.State) bool {
	if !s.Valid() {
		return false
	}
	return s.behavior().possible(s, fs)
}

// ChangeState applies the step to fs. Callers are expected to check
// ChangePossible first; a failure here wraps field.ErrInvalidTransfer.
func (s Step) ChangeState(fs field.State) (field.State, error) {
	if !s.Valid() {
		return field.State{}, fmt.Errorf("%w: %s step is not valid", field.ErrInvalidTransfer, s.kind)
	}
	return s.behavior().apply(s, fs)
}

// Text is the display caption of the step.
func (s Step) Text() string {
	return s.behavior().text(s)
}

// Value is the display value of the step.
func (s Step) Value() string {
	return s.behavior().value(s)
}

func (s Step) String() string {
	return fmt.Sprintf("%s(%s)", s.kind, s.Value())
}

// #endregion step

// #region behaviors
type behavior struct {
	category Category
	delta    func(Step) int
	possible func(Step, field.State) bool
	apply    func(Step, field.State) (field.State, error)
	text     func(Step) string
	value    func(Step) string
}

var behaviors = [...]behavior{
	KindMoveTo: {
		category: Drive,
		delta:    func(Step) int { return 0 },
		possible: func(s Step, fs field.State) bool { return fs.MayMove(s.position) },
		apply:    func(s Step, fs field.State) (field.State, error) { return fs.Move(s.position) },
		text:     func(Step) string { return "Move to" },
		value: func(s Step) string {
			if s.position == nil {
				return ""
			}
			return s.position.Label()
		},
	},
	KindPick: {
		category: Fuel,
		delta:    func(s Step) int { return s.amount },
		possible: func(s Step, fs field.State) bool { return fs.MayPick(s.amount) },
		apply:    func(s Step, fs field.State) (field.State, error) { return fs.Pick(s.amount) },
		text:     func(Step) string { return "Pick fuel" },
		value:    func(s Step) string { return strconv.Itoa(s.amount) },
	},
	KindPut: {
		category: Fuel,
		delta:    func(s Step) int { return -s.amount },
		possible: func(s Step, fs field.State) bool { return fs.MayPut(s.amount) },
		apply:    func(s Step, fs field.State) (field.State, error) { return fs.Put(s.amount) },
		text:     func(Step) string { return "Put fuel" },
		value:    func(s Step) string { return strconv.Itoa(s.amount) },
	},
	KindPickOrPut: {
		category: Fuel,
		delta:    func(s Step) int { return s.amount },
		possible: func(s Step, fs field.State) bool {
			if s.amount < 0 {
				return fs.MayPut(-s.amount)
			}
			return fs.MayPick(s.amount)
		},
		apply: func(s Step, fs field.State) (field.State, error) {
			if s.amount < 0 {
				return fs.Put(-s.amount)
			}
			return fs.Pick(s.amount)
		},
		text: func(s Step) string {
			switch {
			case s.amount == 0:
				return "Do nothing"
			case s.amount < 0:
				return "Leave fuel"
			default:
				return "Fill the tank"
			}
		},
		value: func(s Step) string {
			switch {
			case s.amount == 0:
				return ""
			case s.amount < 0:
				return strconv.Itoa(-s.amount)
			default:
				return strconv.Itoa(s.amount)
			}
		},
	},
}

// invalid answers for the zero Step and any unknown tag.
var invalid = behavior{
	category: Drive,
	delta:    func(Step) int { return 0 },
	possible: func(Step, field.State) bool { return false },
	apply: func(s Step, _ field.State) (field.State, error) {
		return field.State{}, fmt.Errorf("%w: unknown step kind %d", field.ErrInvalidTransfer, s.kind)
	},
	text:  func(Step) string { return "" },
	value: func(Step) string { return "" },
}

func (s Step) behavior() behavior {
	if s.kind <= 0 || int(s.kind) >= len(behaviors) {
		return invalid
	}
	return behaviors[s.kind]
}

// #endregion behaviors
