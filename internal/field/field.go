package field

import (
	"fmt"
	"strconv"
)

// #region constants
// Constants are the world constants a field derives from task settings.
type Constants struct {
	CarMaxFuel  int `json:"car_max_fuel"`
	FuelPerUnit int `json:"fuel_per_unit"`
}

// DefaultConstants returns the constants used when a level does not override them.
func DefaultConstants() Constants {
	return Constants{
		CarMaxFuel:  12,
		FuelPerUnit: 1,
	}
}

// #endregion constants

// #region point
// Point is a canvas coordinate of a position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// #endregion point

// #region position
// Position is one addressable cell of a track.
type Position interface {
	Index() int
	// Distance returns the fuel needed to drive between this position and other.
	Distance(other Position) int
	Label() string
	Point() Point
}

// LinearPosition is a cell of a straight track.
type LinearPosition struct {
	field *Field
	index int
}

// Index returns the cell number, 0 being the origin.
func (p *LinearPosition) Index() int {
	return p.index
}

// Distance is the index delta times the fuel-per-unit constant.
func (p *LinearPosition) Distance(other Position) int {
	d := other.Index() - p.index
	if d < 0 {
		d = -d
	}
	return d * p.field.constants.FuelPerUnit
}

func (p *LinearPosition) Label() string {
	return strconv.Itoa(p.index)
}

// Point interpolates between the field endpoints.
func (p *LinearPosition) Point() Point {
	n := len(p.field.positions)
	vx := (p.field.finish.X - p.field.start.X) / float64(n-1)
	vy := (p.field.finish.Y - p.field.start.Y) / float64(n-1)
	return Point{
		X: p.field.start.X + float64(p.index)*vx,
		Y: p.field.start.Y + float64(p.index)*vy,
	}
}

// #endregion position

// #region field
// Field is the static track layout. It is immutable once built.
type Field struct {
	constants Constants
	start     Point
	finish    Point
	positions []Position
}

// NewLinearField builds a straight track of cells positions between start and finish.
func NewLinearField(constants Constants, start, finish Point, cells int) (*Field, error) {
	if cells < 2 {
		return nil, fmt.Errorf("linear field needs at least 2 cells, got %d", cells)
	}
	if constants.CarMaxFuel <= 0 {
		return nil, fmt.Errorf("car max fuel must be positive, got %d", constants.CarMaxFuel)
	}
	if constants.FuelPerUnit <= 0 {
		return nil, fmt.Errorf("fuel per unit must be positive, got %d", constants.FuelPerUnit)
	}

	f := &Field{
		constants: constants,
		start:     start,
		finish:    finish,
		positions: make([]Position, cells),
	}
	for i := range f.positions {
		f.positions[i] = &LinearPosition{field: f, index: i}
	}
	return f, nil
}

// Constants returns the world constants of the field.
func (f *Field) Constants() Constants {
	return f.constants
}

// Size returns the number of cells.
func (f *Field) Size() int {
	return len(f.positions)
}

// Positions returns all cells in track order.
func (f *Field) Positions() []Position {
	out := make([]Position, len(f.positions))
	copy(out, f.positions)
	return out
}

// Position returns the cell with the given index.
func (f *Field) Position(index int) (Position, bool) {
	if index < 0 || index >= len(f.positions) {
		return nil, false
	}
	return f.positions[index], true
}

// InitialPosition is the origin cell where the car starts.
func (f *Field) InitialPosition() Position {
	return f.positions[0]
}

// Endpoints returns the geometric start and finish of the track.
func (f *Field) Endpoints() (Point, Point) {
	return f.start, f.finish
}

// #endregion field
