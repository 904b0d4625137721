package step

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiotasks/jeep/internal/field"
)

func newField(t *testing.T) *field.Field {
	t.Helper()
	f, err := field.NewLinearField(field.Constants{CarMaxFuel: 10, FuelPerUnit: 1}, field.Point{}, field.Point{X: 150, Y: 0}, 16)
	require.NoError(t, err)
	return f
}

func at(t *testing.T, f *field.Field, i int) field.Position {
	t.Helper()
	p, ok := f.Position(i)
	require.True(t, ok)
	return p
}

func TestCategories(t *testing.T) {
	f := newField(t)
	assert.Equal(t, Drive, MoveTo(at(t, f, 3)).Category())
	assert.Equal(t, Fuel, Pick(1).Category())
	assert.Equal(t, Fuel, Put(1).Category())
	assert.Equal(t, Fuel, PickOrPut(-1).Category())
	assert.Equal(t, "drive", Drive.String())
	assert.Equal(t, "fuel", Fuel.String())
}

func TestPickOrPutDispatchesBySign(t *testing.T) {
	f := newField(t)
	s0 := field.NewState(f)

	s1, err := PickOrPut(7).ChangeState(s0)
	require.NoError(t, err)
	assert.Equal(t, 7, s1.CarFuel())

	assert.True(t, PickOrPut(-7).ChangePossible(s1))
	assert.False(t, PickOrPut(-8).ChangePossible(s1))
	s2, err := PickOrPut(-3).ChangeState(s1)
	require.NoError(t, err)
	assert.Equal(t, 4, s2.CarFuel())

	s3, err := PickOrPut(0).ChangeState(s2)
	require.NoError(t, err)
	assert.Equal(t, s2.CarFuel(), s3.CarFuel())
}

func TestChangePossibleMatchesChangeState(t *testing.T) {
	f := newField(t)
	s0 := field.NewState(f)
	s1, err := s0.Pick(5)
	require.NoError(t, err)

	steps := []Step{
		MoveTo(at(t, f, 5)), MoveTo(at(t, f, 6)), MoveTo(at(t, f, 0)),
		Pick(5), Pick(6), Put(5), Put(6), Put(-1), Pick(-1),
		PickOrPut(5), PickOrPut(6), PickOrPut(-5), PickOrPut(-6),
		{},
	}
	for _, st := range []field.State{s0, s1} {
		for _, s := range steps {
			_, err := s.ChangeState(st)
			if s.ChangePossible(st) {
				assert.NoError(t, err, "%s on %s", s, st)
			} else {
				assert.ErrorIs(t, err, field.ErrInvalidTransfer, "%s on %s", s, st)
			}
		}
	}
}

func TestFuelDelta(t *testing.T) {
	f := newField(t)
	assert.Equal(t, 4, Pick(4).FuelDelta())
	assert.Equal(t, -4, Put(4).FuelDelta())
	assert.Equal(t, -2, PickOrPut(-2).FuelDelta())
	assert.Equal(t, 0, MoveTo(at(t, f, 2)).FuelDelta())
}

func TestValidity(t *testing.T) {
	assert.False(t, Step{}.Valid())
	assert.False(t, MoveTo(nil).Valid())
	assert.False(t, Pick(-1).Valid())
	assert.False(t, Put(-1).Valid())
	assert.True(t, PickOrPut(-1).Valid())
	assert.Equal(t, "invalid", Step{}.Kind().String())
}

func TestDisplay(t *testing.T) {
	f := newField(t)
	assert.Equal(t, "Do nothing", PickOrPut(0).Text())
	assert.Equal(t, "", PickOrPut(0).Value())
	assert.Equal(t, "Leave fuel", PickOrPut(-3).Text())
	assert.Equal(t, "3", PickOrPut(-3).Value())
	assert.Equal(t, "Fill the tank", PickOrPut(3).Text())
	assert.Equal(t, "Move to", MoveTo(at(t, f, 12)).Text())
	assert.Equal(t, "12", MoveTo(at(t, f, 12)).Value())
	assert.Equal(t, "move_to(12)", MoveTo(at(t, f, 12)).String())
}
