package history

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiotasks/jeep/internal/field"
	"github.com/kiotasks/jeep/internal/step"
)

func newField(t *testing.T, cells, maxFuel int) *field.Field {
	t.Helper()
	f, err := field.NewLinearField(field.Constants{CarMaxFuel: maxFuel, FuelPerUnit: 1}, field.Point{}, field.Point{X: 100, Y: 0}, cells)
	require.NoError(t, err)
	return f
}

func newHistory(t *testing.T, f *field.Field, steps []step.Step) *History {
	t.Helper()
	h, err := New(steps, field.NewState(f))
	require.NoError(t, err)
	return h
}

func at(t *testing.T, f *field.Field, i int) field.Position {
	t.Helper()
	p, ok := f.Position(i)
	require.True(t, ok)
	return p
}

// firstIllegalStep applies the steps of h from its initial state and returns
// the index of the first one that cannot be applied, or Len() if all can.
func firstIllegalStep(h *History) int {
	st := h.Initial()
	for i, s := range h.Steps() {
		if !s.ChangePossible(st) {
			return i
		}
		var err error
		if st, err = s.ChangeState(st); err != nil {
			return i
		}
	}
	return h.Len()
}

// farPosition returns a cell of a longer track, outside f.
func farPosition(t *testing.T, index int) field.Position {
	t.Helper()
	big := newField(t, index+1, 10)
	return at(t, big, index)
}

func fuels(states []field.State) []int {
	out := make([]int, len(states))
	for i, s := range states {
		out[i] = s.CarFuel()
	}
	return out
}

func cells(states []field.State) []int {
	out := make([]int, len(states))
	for i, s := range states {
		out[i] = s.CarPosition().Index()
	}
	return out
}

func assertAlternates(t *testing.T, h *History) {
	t.Helper()
	steps := h.Steps()
	for i := 1; i < len(steps); i++ {
		require.NotEqual(t, steps[i-1].Category(), steps[i].Category(), "steps %d and %d share a category: %v", i-1, i, steps)
	}
}

func TestScenarioPickMovePick(t *testing.T) {
	f := newField(t, 16, 10)
	h := newHistory(t, f, []step.Step{step.Pick(10), step.MoveTo(at(t, f, 5)), step.Pick(0)})

	states := h.States()
	assert.Equal(t, []int{0, 10, 5, 5}, fuels(states))
	assert.Equal(t, []int{0, 0, 5, 5}, cells(states))

	scores := h.Scores()
	assert.Equal(t, 5, scores.MaxFar)
	assert.Equal(t, 0, scores.MaxFarWithReturn)
	assert.Equal(t, 10, scores.TotalFuel)
	assert.Equal(t, 2, h.LastCorrectStepIndex())
}

func TestStickyInvalidation(t *testing.T) {
	f := newField(t, 16, 10)
	h := newHistory(t, f, []step.Step{step.Pick(10), step.MoveTo(at(t, f, 5)), step.Pick(0)})
	require.Equal(t, 2, h.LastCorrectStepIndex())

	// a drive that is too far for the fuel sticks
	require.NoError(t, h.Replace(1, step.MoveTo(at(t, f, 11))))
	assert.Equal(t, 0, h.LastCorrectStepIndex())
	assert.Len(t, h.States(), 2)
	assert.Equal(t, 0, h.Scores().MaxFar)
	assert.Equal(t, 10, h.Scores().TotalFuel)

	require.NoError(t, h.Replace(1, step.MoveTo(at(t, f, 3))))
	assert.Equal(t, 2, h.LastCorrectStepIndex())
	assert.Equal(t, 3, h.Scores().MaxFar)
}

func TestStickyInvalidationIgnoresLaterLegalSteps(t *testing.T) {
	f := newField(t, 16, 10)
	steps := []step.Step{
		step.PickOrPut(10), step.MoveTo(at(t, f, 2)),
		step.PickOrPut(-4), step.MoveTo(at(t, f, 0)),
		step.PickOrPut(2), step.MoveTo(at(t, f, 1)),
	}
	h := newHistory(t, f, steps)
	require.Equal(t, 5, h.LastCorrectStepIndex())

	// putting more than the tank holds breaks step 2; step 4 would still be
	// legal against its old state
	require.NoError(t, h.Replace(2, step.PickOrPut(-9)))
	assert.Equal(t, 1, h.LastCorrectStepIndex())
	assert.Equal(t, 8, h.State(10).CarFuel())
}

func TestFirstStepIllegal(t *testing.T) {
	f := newField(t, 16, 10)
	h := newHistory(t, f, []step.Step{step.PickOrPut(-1)})
	assert.Equal(t, -1, h.LastCorrectStepIndex())
	assert.Len(t, h.States(), 1)
	assert.Equal(t, Scores{LastCorrectStepIndex: -1}, h.Scores())
}

func TestStateLookupClamps(t *testing.T) {
	f := newField(t, 16, 10)
	h := newHistory(t, f, []step.Step{step.Pick(10), step.MoveTo(at(t, f, 5))})

	assert.Equal(t, 0, h.State(-3).CarFuel())
	assert.Equal(t, 10, h.State(1).CarFuel())
	assert.Equal(t, 5, h.State(2).CarFuel())
	assert.Equal(t, 5, h.State(99).CarFuel())
}

func TestMaxFarWithReturn(t *testing.T) {
	f := newField(t, 6, 10)
	steps := []step.Step{
		step.PickOrPut(10), step.MoveTo(at(t, f, 3)),
		step.PickOrPut(-2), step.MoveTo(at(t, f, 0)),
		step.PickOrPut(5), step.MoveTo(at(t, f, 3)),
		step.PickOrPut(2), step.MoveTo(at(t, f, 5)),
	}
	h := newHistory(t, f, steps)
	require.Equal(t, 7, h.LastCorrectStepIndex())

	scores := h.Scores()
	assert.Equal(t, 5, scores.MaxFar)
	assert.Equal(t, 5, scores.MaxFarWithReturn, "reaching the far endpoint counts as a return")
	assert.Equal(t, 15, scores.TotalFuel, "fuel picked away from the origin does not count")

	require.NoError(t, h.Replace(7, step.MoveTo(at(t, f, 4))))
	scores = h.Scores()
	assert.Equal(t, 4, scores.MaxFar)
	assert.Equal(t, 3, scores.MaxFarWithReturn, "only the trip back to the origin counts")
}

func TestPutsAtOriginDoNotCount(t *testing.T) {
	f := newField(t, 6, 10)
	h := newHistory(t, f, []step.Step{step.Pick(8), step.MoveTo(at(t, f, 0)), step.Put(3)})
	assert.Equal(t, 8, h.Scores().TotalFuel)
}

func TestInsertPadding(t *testing.T) {
	f := newField(t, 16, 10)
	base := func() *History {
		return newHistory(t, f, []step.Step{step.PickOrPut(10), step.MoveTo(at(t, f, 4)), step.PickOrPut(-2), step.MoveTo(at(t, f, 6))})
	}

	t.Run("drive after fuel pads after", func(t *testing.T) {
		h := base()
		require.NoError(t, h.Insert(1, step.MoveTo(at(t, f, 2))))
		s := h.Steps()
		require.Len(t, s, 6)
		assert.Equal(t, 2, s[1].Position().Index())
		assert.Equal(t, step.PickOrPut(0), s[2])
		assertAlternates(t, h)
	})

	t.Run("fuel after drive pads after with a zero move", func(t *testing.T) {
		h := base()
		require.NoError(t, h.Insert(2, step.PickOrPut(-1)))
		s := h.Steps()
		require.Len(t, s, 6)
		assert.Equal(t, -1, s[2].FuelDelta())
		assert.Equal(t, step.Drive, s[3].Category())
		assert.Equal(t, 4, s[3].Position().Index())
		assertAlternates(t, h)
		assert.Equal(t, 5, h.LastCorrectStepIndex())
	})

	t.Run("drive after drive pads before", func(t *testing.T) {
		h := base()
		require.NoError(t, h.Insert(2, step.MoveTo(at(t, f, 5))))
		s := h.Steps()
		assert.Equal(t, step.PickOrPut(0), s[2])
		assert.Equal(t, 5, s[3].Position().Index())
		assertAlternates(t, h)
	})

	t.Run("fuel after fuel pads before", func(t *testing.T) {
		h := base()
		require.NoError(t, h.Insert(1, step.PickOrPut(-3)))
		s := h.Steps()
		assert.Equal(t, step.Drive, s[1].Category())
		assert.Equal(t, 0, s[1].Position().Index())
		assert.Equal(t, -3, s[2].FuelDelta())
		assertAlternates(t, h)
	})

	t.Run("index zero counts as after a drive", func(t *testing.T) {
		h := base()
		require.NoError(t, h.Insert(0, step.PickOrPut(3)))
		s := h.Steps()
		assert.Equal(t, 3, s[0].FuelDelta())
		assert.Equal(t, 0, s[1].Position().Index())
		assertAlternates(t, h)
	})

	t.Run("append of the other category adds one step", func(t *testing.T) {
		h := base()
		require.NoError(t, h.Insert(4, step.PickOrPut(1)))
		assert.Equal(t, 5, h.Len())
		assertAlternates(t, h)
	})

	t.Run("append of the same category pads", func(t *testing.T) {
		h := base()
		require.NoError(t, h.Insert(4, step.MoveTo(at(t, f, 7))))
		assert.Equal(t, 6, h.Len())
		assertAlternates(t, h)
		assert.Equal(t, 5, h.LastCorrectStepIndex())
	})
}

func TestRandomInsertsKeepAlternation(t *testing.T) {
	f := newField(t, 16, 10)
	rng := rand.New(rand.NewSource(7))
	h := newHistory(t, f, []step.Step{step.PickOrPut(0)})

	for i := 0; i < 300; i++ {
		index := rng.Intn(h.Len() + 1)
		var s step.Step
		if rng.Intn(2) == 0 {
			s = step.MoveTo(at(t, f, rng.Intn(f.Size())))
		} else {
			s = step.PickOrPut(rng.Intn(21) - 10)
		}
		require.NoError(t, h.Insert(index, s))
		assertAlternates(t, h)
		assert.Equal(t, step.Fuel, h.Steps()[0].Category())

		assert.Equal(t, firstIllegalStep(h)-1, h.LastCorrectStepIndex())
		assert.Len(t, h.States(), firstIllegalStep(h)+1)
	}
}

func TestEditErrors(t *testing.T) {
	f := newField(t, 16, 10)
	h := newHistory(t, f, []step.Step{step.PickOrPut(0)})

	assert.ErrorIs(t, h.Replace(1, step.PickOrPut(1)), ErrIndexOutOfRange)
	assert.ErrorIs(t, h.Replace(-1, step.PickOrPut(1)), ErrIndexOutOfRange)
	assert.ErrorIs(t, h.Insert(3, step.PickOrPut(1)), ErrIndexOutOfRange)
	assert.ErrorIs(t, h.Replace(0, step.Pick(-2)), ErrInvalidStep)
	assert.ErrorIs(t, h.Insert(0, step.MoveTo(nil)), ErrInvalidStep)
	assert.ErrorIs(t, h.Insert(1, step.MoveTo(farPosition(t, 20))), ErrInvalidStep)
	assert.ErrorIs(t, h.Insert(1, step.MoveTo(farPosition(t, 3))), ErrInvalidStep, "a cell of another track")
	assert.Equal(t, 1, h.Len())
}

func TestReplaceKeepsCategory(t *testing.T) {
	f := newField(t, 16, 10)
	h := newHistory(t, f, []step.Step{step.PickOrPut(10), step.MoveTo(at(t, f, 5)), step.PickOrPut(0)})
	var calls int
	h.AddListener(func(*History) { calls++ })

	assert.ErrorIs(t, h.Replace(2, step.MoveTo(at(t, f, 3))), ErrInvalidStep)
	assert.ErrorIs(t, h.Replace(1, step.Pick(2)), ErrInvalidStep)
	assert.Equal(t, Solution{10, 5, 0}, h.Solution())
	assert.Equal(t, 2, h.LastCorrectStepIndex())
	assert.Equal(t, 0, calls)

	require.NoError(t, h.Replace(2, step.Put(1)))
	assertAlternates(t, h)
}

func TestNewValidatesSeed(t *testing.T) {
	f := newField(t, 16, 10)
	cases := []struct {
		name  string
		steps []step.Step
	}{
		{"empty", nil},
		{"nil position", []step.Step{step.PickOrPut(1), step.MoveTo(nil)}},
		{"negative pick", []step.Step{step.Pick(-1)}},
		{"starts with a drive", []step.Step{step.MoveTo(at(t, f, 1))}},
		{"two fuel steps in a row", []step.Step{step.PickOrPut(1), step.PickOrPut(2)}},
		{"cell of another track", []step.Step{step.PickOrPut(1), step.MoveTo(farPosition(t, 2))}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := New(tc.steps, field.NewState(f))
			assert.ErrorIs(t, err, ErrInvalidStep)
			assert.Nil(t, h)
		})
	}
}

func TestListenersAndReentrancy(t *testing.T) {
	f := newField(t, 16, 10)
	h := newHistory(t, f, []step.Step{step.PickOrPut(0)})

	var calls int
	var reentrant error
	h.AddListener(func(got *History) {
		calls++
		assert.Same(t, h, got)
		reentrant = got.Replace(0, step.PickOrPut(1))
	})

	require.NoError(t, h.Replace(0, step.PickOrPut(5)))
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, reentrant, ErrReentrantEdit)
	assert.Equal(t, 5, h.State(1).CarFuel())

	require.NoError(t, h.Insert(1, step.MoveTo(at(t, f, 2))))
	assert.Equal(t, 2, calls)

	// the guard is released once notification is over
	require.NoError(t, h.Replace(0, step.PickOrPut(4)))
	assert.Equal(t, 3, calls)
}

func TestEditBeyondValidPrefixKeepsChain(t *testing.T) {
	f := newField(t, 16, 10)
	h := newHistory(t, f, []step.Step{step.PickOrPut(-1), step.MoveTo(at(t, f, 1)), step.PickOrPut(0)})
	require.Equal(t, -1, h.LastCorrectStepIndex())

	var calls int
	h.AddListener(func(*History) { calls++ })
	require.NoError(t, h.Replace(2, step.PickOrPut(-1)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, -1, h.LastCorrectStepIndex())

	require.NoError(t, h.Replace(0, step.PickOrPut(3)))
	assert.Equal(t, 2, h.LastCorrectStepIndex())
}
