package field

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Unlimited marks a cell whose reserve never runs out. Only the origin is seeded with it.
const Unlimited = -1

// ErrInvalidTransfer is returned when a pick, put or move violates its precondition.
var ErrInvalidTransfer = errors.New("invalid transfer")

// #region state
// State is an immutable snapshot of the world: fuel reserves per cell, the car
// position and the fuel carried. Mutators return a new State; reserve slices are
// shared between snapshots and copied only when a cell changes.
type State struct {
	field    *Field
	reserves []int
	car      Position
	carFuel  int
}

// NewState returns the initial state of f: an unlimited origin, empty cells
// elsewhere and an empty car at the origin.
func NewState(f *Field) State {
	reserves := make([]int, f.Size())
	reserves[0] = Unlimited
	return State{
		field:    f,
		reserves: reserves,
		car:      f.InitialPosition(),
		carFuel:  0,
	}
}

// Field returns the field the state belongs to.
func (s State) Field() *Field {
	return s.field
}

// CarPosition returns where the car stands.
func (s State) CarPosition() Position {
	return s.car
}

// CarFuel returns the fuel in the tank.
func (s State) CarFuel() int {
	return s.carFuel
}

// Len returns the number of cells.
func (s State) Len() int {
	return len(s.reserves)
}

// Reserve returns the fuel cached at cell index, or Unlimited.
func (s State) Reserve(index int) int {
	return s.reserves[index]
}

// Reserves returns a copy of all cell reserves.
func (s State) Reserves() []int {
	out := make([]int, len(s.reserves))
	copy(out, s.reserves)
	return out
}

// AvailableToPick returns the reserve at the car position, or Unlimited.
func (s State) AvailableToPick() int {
	return s.reserves[s.car.Index()]
}

// PossibleToPick is the most fuel a single pick may take here.
func (s State) PossibleToPick() int {
	room := s.field.constants.CarMaxFuel - s.carFuel
	available := s.AvailableToPick()
	if available == Unlimited {
		return room
	}
	return min(available, room)
}

// #endregion state

// #region transfers
// MayPick reports whether Pick(amount) would succeed.
func (s State) MayPick(amount int) bool {
	return amount >= 0 && amount <= s.PossibleToPick()
}

// Pick moves amount of fuel from the current cell into the tank.
func (s State) Pick(amount int) (State, error) {
	if !s.MayPick(amount) {
		return State{}, fmt.Errorf("%w: pick %d with %d in the tank and %s available",
			ErrInvalidTransfer, amount, s.carFuel, reserveText(s.AvailableToPick()))
	}
	next := s
	next.reserves = s.withReserveDelta(s.car.Index(), -amount)
	next.carFuel = s.carFuel + amount
	return next, nil
}

// MayPut reports whether Put(amount) would succeed.
func (s State) MayPut(amount int) bool {
	return amount >= 0 && amount <= s.carFuel
}

// Put moves amount of fuel from the tank into the current cell.
func (s State) Put(amount int) (State, error) {
	if !s.MayPut(amount) {
		return State{}, fmt.Errorf("%w: put %d with only %d in the tank", ErrInvalidTransfer, amount, s.carFuel)
	}
	next := s
	next.reserves = s.withReserveDelta(s.car.Index(), amount)
	next.carFuel = s.carFuel - amount
	return next, nil
}

// MayMove reports whether Move(p) would succeed.
func (s State) MayMove(p Position) bool {
	if p == nil || p.Index() < 0 || p.Index() >= len(s.reserves) {
		return false
	}
	return s.car.Distance(p) <= s.carFuel
}

// Move drives the car to p, burning the distance in fuel.
func (s State) Move(p Position) (State, error) {
	if !s.MayMove(p) {
		return State{}, fmt.Errorf("%w: move from %s to %s with %d in the tank",
			ErrInvalidTransfer, s.car.Label(), positionLabel(p), s.carFuel)
	}
	next := s
	next.car = p
	next.carFuel = s.carFuel - s.car.Distance(p)
	return next, nil
}

// #endregion transfers

// #region helpers
// withReserveDelta returns reserves with cell index changed by delta. Unlimited
// cells absorb any delta, so the original slice is returned untouched.
func (s State) withReserveDelta(index, delta int) []int {
	if s.reserves[index] == Unlimited || delta == 0 {
		return s.reserves
	}
	out := make([]int, len(s.reserves))
	copy(out, s.reserves)
	out[index] += delta
	return out
}

// String renders the state as "<fuel> at <cell> (<reserves>)".
func (s State) String() string {
	parts := make([]string, len(s.reserves))
	for i, r := range s.reserves {
		parts[i] = reserveText(r)
	}
	return fmt.Sprintf("%d at %s (%s)", s.carFuel, s.car.Label(), strings.Join(parts, ","))
}

func reserveText(r int) string {
	if r == Unlimited {
		return "inf"
	}
	return strconv.Itoa(r)
}

func positionLabel(p Position) string {
	if p == nil {
		return "<nil>"
	}
	return p.Label()
}

// #endregion helpers
