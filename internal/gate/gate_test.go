package gate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiotasks/jeep/internal/field"
	"github.com/kiotasks/jeep/internal/history"
	"github.com/kiotasks/jeep/internal/step"
)

func makeGate(t *testing.T, config GateConfig) (*Gate, *field.Field) {
	t.Helper()
	f, err := field.NewLinearField(field.Constants{CarMaxFuel: 10, FuelPerUnit: 1}, field.Point{}, field.Point{X: 150, Y: 0}, 16)
	require.NoError(t, err)
	h, err := history.New([]step.Step{step.PickOrPut(0)}, field.NewState(f))
	require.NoError(t, err)
	return NewGate(h, config), f
}

func cell(t *testing.T, f *field.Field, i int) field.Position {
	t.Helper()
	p, ok := f.Position(i)
	require.True(t, ok)
	return p
}

func TestGateStartsOnLastStep(t *testing.T) {
	g, _ := makeGate(t, DefaultGateConfig())
	assert.Equal(t, 0, g.CurrentIndex())
	s, ok := g.CurrentStep()
	require.True(t, ok)
	assert.Equal(t, step.PickOrPut(0), s)
}

func TestGateEditSequence(t *testing.T) {
	g, f := makeGate(t, DefaultGateConfig())
	h := g.History()

	d := g.Fuel(10)
	require.True(t, d.Committed(), d.Reason)
	assert.Equal(t, 0, d.Index)
	assert.Equal(t, 1, h.Len())

	d = g.Move(cell(t, f, 5))
	require.True(t, d.Committed(), d.Reason)
	assert.Equal(t, 1, d.Index)
	assert.Equal(t, 2, h.Len())

	d = g.Move(cell(t, f, 12))
	assert.Equal(t, ActionReject, d.Action)
	assert.True(t, d.Vetoed)
	require.NotEmpty(t, d.VetoSignals)
	assert.Equal(t, VetoIllegalTransfer, d.VetoSignals[0].Type)
	assert.Equal(t, 1, d.Index)
	assert.Equal(t, history.Solution{10, 5}, h.Solution())

	d = g.Fuel(-3)
	require.True(t, d.Committed(), d.Reason)
	assert.Equal(t, 2, g.CurrentIndex())
	assert.Equal(t, history.Solution{10, 5, -3}, h.Solution())
	assert.Equal(t, 2, h.LastCorrectStepIndex())
}

func TestGateEditsInsideHistory(t *testing.T) {
	g, f := makeGate(t, DefaultGateConfig())
	h := g.History()
	require.NoError(t, h.Load(history.Solution{10, 5, -3}))
	g.Reset()
	require.Equal(t, 2, g.CurrentIndex())

	require.NoError(t, g.Select(0))
	d := g.Fuel(8)
	require.True(t, d.Committed(), d.Reason)
	assert.Equal(t, 0, g.CurrentIndex())
	assert.Equal(t, history.Solution{8, 5, -3}, h.Solution())
	assert.Equal(t, 2, h.LastCorrectStepIndex())

	// fuel step under the cursor: a move replaces the next step
	d = g.Move(cell(t, f, 2))
	require.True(t, d.Committed(), d.Reason)
	assert.Equal(t, 1, g.CurrentIndex())
	assert.Equal(t, history.Solution{8, 2, -3}, h.Solution())
	assert.Equal(t, 3, h.Len())

	d = g.Fuel(-20)
	assert.False(t, d.Committed())
	assert.Equal(t, history.Solution{8, 2, -3}, h.Solution())
}

func TestGateMayPredicatesMatchDecisions(t *testing.T) {
	g, f := makeGate(t, DefaultGateConfig())
	require.NoError(t, g.History().Load(history.Solution{10, 4}))
	g.Reset()

	assert.True(t, g.MayUpdateCurrent(step.MoveTo(cell(t, f, 10))))
	assert.False(t, g.MayUpdateCurrent(step.MoveTo(cell(t, f, 11))))
	assert.True(t, g.MayUpdateNext(step.PickOrPut(-6)))
	assert.False(t, g.MayUpdateNext(step.PickOrPut(-7)))
	assert.True(t, g.MayInsertNext(step.PickOrPut(0)))
	assert.False(t, g.MayInsertNext(step.PickOrPut(1)), "cell 4 is empty")
}

func TestGateSelect(t *testing.T) {
	g, _ := makeGate(t, DefaultGateConfig())

	err := g.Select(3)
	assert.ErrorIs(t, err, history.ErrIndexOutOfRange)
	assert.ErrorIs(t, g.Select(-1), history.ErrIndexOutOfRange)

	d := g.SelectDecision(9)
	assert.False(t, d.Committed())
	assert.Equal(t, VetoIndexOutOfRange, d.VetoSignals[0].Type)

	d = g.SelectDecision(0)
	assert.True(t, d.Committed())
	assert.Equal(t, 0, d.Index)
}

func TestGateStepLimit(t *testing.T) {
	g, f := makeGate(t, GateConfig{MaxSteps: 2})

	require.True(t, g.Fuel(10).Committed())
	require.True(t, g.Move(cell(t, f, 3)).Committed())

	d := g.Fuel(-1)
	assert.False(t, d.Committed())
	assert.Equal(t, VetoStepLimit, d.VetoSignals[0].Type)
	assert.Equal(t, 2, g.History().Len())

	// rewriting the current step does not grow the history
	assert.True(t, g.Move(cell(t, f, 4)).Committed())
}

func TestGateRejectsMissingPosition(t *testing.T) {
	g, _ := makeGate(t, DefaultGateConfig())
	d := g.Move(nil)
	assert.False(t, d.Committed())
	assert.Equal(t, VetoIllegalTransfer, d.VetoSignals[0].Type)
}

func TestGateRejectsEditsFromListeners(t *testing.T) {
	g, _ := makeGate(t, DefaultGateConfig())

	var inner GateDecision
	fired := false
	g.History().AddListener(func(*history.History) {
		if fired {
			return
		}
		fired = true
		inner = g.Fuel(1)
	})

	require.True(t, g.Fuel(5).Committed())
	assert.False(t, inner.Committed())
	assert.Equal(t, VetoHistoryError, inner.VetoSignals[0].Type)
	assert.Equal(t, history.Solution{5}, g.History().Solution())
}

func TestGateMoveToCell(t *testing.T) {
	g, _ := makeGate(t, DefaultGateConfig())
	require.True(t, g.Fuel(6).Committed())

	d := g.MoveToCell(16)
	assert.Equal(t, VetoIndexOutOfRange, d.VetoSignals[0].Type)
	d = g.MoveToCell(-1)
	assert.Equal(t, VetoIndexOutOfRange, d.VetoSignals[0].Type)

	d = g.MoveToCell(6)
	require.True(t, d.Committed(), d.Reason)
	assert.Equal(t, history.Solution{6, 6}, g.History().Solution())
}

func TestRandomGateEditsRoundTrip(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		g, f := makeGate(t, GateConfig{MaxSteps: 40})
		rng := rand.New(rand.NewSource(seed))

		for i := 0; i < 80; i++ {
			switch rng.Intn(3) {
			case 0:
				g.Fuel(rng.Intn(21) - 10)
			case 1:
				g.MoveToCell(rng.Intn(f.Size() + 2))
			default:
				g.SelectDecision(rng.Intn(g.History().Len() + 1))
			}

			h := g.History()
			other, err := history.New([]step.Step{step.PickOrPut(0)}, field.NewState(f))
			require.NoError(t, err)
			require.NoError(t, other.Load(h.Solution()), "seed %d edit %d", seed, i)
			require.Equal(t, h.Solution(), other.Solution())
			require.Equal(t, h.Scores(), other.Scores(), "seed %d edit %d: %v", seed, i, h.Solution())
			require.Equal(t, h.LastCorrectStepIndex(), other.LastCorrectStepIndex())
		}
	}
}
