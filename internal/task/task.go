// Package task is the jeep task as a host sees it: it builds the track for a
// level, owns the history and its edit gate, reports the scoring record after
// every committed edit and renders the view snapshot.
package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kiotasks/jeep/internal/eval"
	"github.com/kiotasks/jeep/internal/field"
	"github.com/kiotasks/jeep/internal/gate"
	"github.com/kiotasks/jeep/internal/history"
	"github.com/kiotasks/jeep/internal/logging"
	"github.com/kiotasks/jeep/internal/step"
	"github.com/kiotasks/jeep/internal/telemetry"
)

// ErrUnknownOp is returned by Apply for an edit it does not know.
var ErrUnknownOp = errors.New("unknown edit op")

// Track geometry of the task canvas.
var (
	trackStart  = field.Point{X: 30, Y: 81.5}
	trackFinish = field.Point{X: 870, Y: 81.5}
)

// #region levels
// LevelFor returns the track of a level. Unknown levels get the longest track.
func LevelFor(level int) LevelSpec {
	switch level {
	case 0:
		return LevelSpec{Cells: 16, CarMaxFuel: 10}
	case 1:
		return LevelSpec{Cells: 24, CarMaxFuel: 12}
	default:
		return LevelSpec{Cells: 32, CarMaxFuel: 12}
	}
}

// PreloadManifest lists the images the task view needs.
func PreloadManifest() []Resource {
	return []Resource{
		{ID: "jeep", Src: "jeep-resources/SimpleGreenCarTopView.png"},
		{ID: "barrel", Src: "jeep-resources/SteelBarrel.png"},
		{ID: "slider", Src: "jeep-resources/slider.png"},
		{ID: "slider-hover", Src: "jeep-resources/slider-hover.png"},
		{ID: "slider-line", Src: "jeep-resources/slider-line.png"},
		{ID: "cactus", Src: "jeep-resources/cactus.png"},
	}
}

// #endregion levels

// #region host
// Reporter receives the scoring record after every committed edit.
type Reporter interface {
	SubmitResult(ctx context.Context, r eval.Result) error
}

// ResourceResolver resolves preloaded resources by id.
type ResourceResolver interface {
	GetResource(ctx context.Context, id string) (Resource, error)
}

// ResolveManifest asks the host for every resource of the preload manifest.
func ResolveManifest(ctx context.Context, r ResourceResolver) ([]Resource, error) {
	manifest := PreloadManifest()
	out := make([]Resource, 0, len(manifest))
	for _, m := range manifest {
		res, err := r.GetResource(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve resource %s: %w", m.ID, err)
		}
		out = append(out, res)
	}
	return out, nil
}

// #endregion host

// #region task
// Task is one attempt at the jeep problem. It is not safe for concurrent use.
type Task struct {
	settings Settings
	spec     LevelSpec
	field    *field.Field
	history  *history.History
	gate     *gate.Gate
	reporter Reporter
	logger   *slog.Logger
	gateCfg  gate.GateConfig
}

// Option configures a Task.
type Option func(*Task)

// WithReporter sends scoring records to r.
func WithReporter(r Reporter) Option {
	return func(t *Task) { t.reporter = r }
}

// WithLogger sets the task logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Task) { t.logger = l }
}

// WithGateConfig overrides the edit limits.
func WithGateConfig(c gate.GateConfig) Option {
	return func(t *Task) { t.gateCfg = c }
}

// New builds the track of settings.Level and a history holding a single
// no-op fuel step.
func New(settings Settings, opts ...Option) (*Task, error) {
	if settings.Level < 0 {
		return nil, fmt.Errorf("level %d: must not be negative", settings.Level)
	}
	t := &Task{
		settings: settings,
		spec:     LevelFor(settings.Level),
		logger:   logging.Discard(),
		gateCfg:  gate.DefaultGateConfig(),
	}
	for _, opt := range opts {
		opt(t)
	}

	constants := field.DefaultConstants()
	constants.CarMaxFuel = t.spec.CarMaxFuel
	f, err := field.NewLinearField(constants, trackStart, trackFinish, t.spec.Cells)
	if err != nil {
		return nil, fmt.Errorf("build track: %w", err)
	}
	t.field = f
	h, err := history.New([]step.Step{step.PickOrPut(0)}, field.NewState(f))
	if err != nil {
		return nil, fmt.Errorf("seed history: %w", err)
	}
	t.history = h
	t.gate = gate.NewGate(t.history, t.gateCfg)
	t.logger = t.logger.With("task", t.ID())
	return t, nil
}

// ID is "jeep" followed by the level.
func (t *Task) ID() string {
	return "jeep" + strconv.Itoa(t.settings.Level)
}

// ParseID returns the level of a task id made by ID.
func ParseID(id string) (int, error) {
	rest, ok := strings.CutPrefix(id, "jeep")
	if !ok {
		return 0, fmt.Errorf("task id %q: not a jeep task", id)
	}
	level, err := strconv.Atoi(rest)
	if err != nil || level < 0 {
		return 0, fmt.Errorf("task id %q: bad level", id)
	}
	return level, nil
}

// Level returns the task level.
func (t *Task) Level() int {
	return t.settings.Level
}

// Spec returns the track of the level.
func (t *Task) Spec() LevelSpec {
	return t.spec
}

// Field returns the track.
func (t *Task) Field() *field.Field {
	return t.field
}

// History returns the step log.
func (t *Task) History() *history.History {
	return t.history
}

// Gate returns the edit cursor.
func (t *Task) Gate() *gate.Gate {
	return t.gate
}

// Parameters returns the scored parameters.
func (t *Task) Parameters() []eval.ParameterDescription {
	return eval.Parameters()
}

// Result returns the current scoring record.
func (t *Task) Result() eval.Result {
	return eval.ResultFromScores(t.history.Scores())
}

// Solution returns the portable encoding of the history.
func (t *Task) Solution() history.Solution {
	return t.history.Solution()
}

// #endregion task

// #region edits
// Fuel applies a slider amount at the cursor.
func (t *Task) Fuel(ctx context.Context, amount int) gate.GateDecision {
	return t.run(ctx, OpFuel, amount, func() gate.GateDecision { return t.gate.Fuel(amount) })
}

// Move drives to a cell at the cursor.
func (t *Task) Move(ctx context.Context, cell int) gate.GateDecision {
	return t.run(ctx, OpMove, cell, func() gate.GateDecision { return t.gate.MoveToCell(cell) })
}

// Select moves the cursor.
func (t *Task) Select(ctx context.Context, index int) gate.GateDecision {
	return t.run(ctx, OpSelect, index, func() gate.GateDecision { return t.gate.SelectDecision(index) })
}

// LoadSolution replaces the history with sol and puts the cursor on the last
// step. A malformed solution leaves everything as it was.
func (t *Task) LoadSolution(ctx context.Context, sol history.Solution) error {
	_, err := t.load(ctx, sol)
	return err
}

func (t *Task) load(ctx context.Context, sol history.Solution) (gate.GateDecision, error) {
	var loadErr error
	d := t.run(ctx, OpLoad, len(sol), func() gate.GateDecision {
		if loadErr = t.history.Load(sol); loadErr != nil {
			return gate.GateDecision{
				Action:      gate.ActionReject,
				Reason:      fmt.Sprintf("veto: %v", loadErr),
				Vetoed:      true,
				VetoSignals: []gate.VetoSignal{{Type: gate.VetoHistoryError, Reason: loadErr.Error()}},
				Index:       t.gate.CurrentIndex(),
			}
		}
		t.gate.Reset()
		return gate.GateDecision{
			Action: gate.ActionCommit,
			Reason: fmt.Sprintf("loaded %d steps", t.history.Len()),
			Index:  t.gate.CurrentIndex(),
		}
	})
	return d, loadErr
}

// Apply dispatches an edit. Rejected edits are reported in the decision; the
// error is reserved for edits Apply cannot interpret.
func (t *Task) Apply(ctx context.Context, e Edit) (gate.GateDecision, error) {
	switch e.Op {
	case OpFuel:
		return t.Fuel(ctx, e.Value), nil
	case OpMove:
		return t.Move(ctx, e.Value), nil
	case OpSelect:
		return t.Select(ctx, e.Value), nil
	case OpLoad:
		d, _ := t.load(ctx, e.Solution)
		return d, nil
	default:
		return gate.GateDecision{}, fmt.Errorf("%w: %q", ErrUnknownOp, e.Op)
	}
}

// run applies one gated edit, records it and reports the new result to the
// host when the edit was committed.
func (t *Task) run(ctx context.Context, op string, value int, edit func() gate.GateDecision) gate.GateDecision {
	start := time.Now()
	d := edit()

	vetoes := make([]string, len(d.VetoSignals))
	for i, v := range d.VetoSignals {
		vetoes[i] = string(v.Type)
	}
	telemetry.RecordEdit(op, d.Action, vetoes...)

	if !d.Committed() {
		t.logger.Info("edit rejected", "op", op, "value", value, "reason", d.Reason)
		return d
	}
	t.logger.Debug("edit committed", "op", op, "value", value, "index", d.Index)
	t.report(ctx)
	telemetry.ObserveEdit(op, time.Since(start), t.history.LastCorrectStepIndex()+1)
	return d
}

func (t *Task) report(ctx context.Context) {
	if t.reporter == nil {
		return
	}
	err := t.reporter.SubmitResult(ctx, t.Result())
	telemetry.RecordSubmit(err)
	if err != nil {
		t.logger.Warn("submit result failed", "error", err)
	}
}

// EditEntry builds the edit_log row of a decided edit from the state after it.
func (t *Task) EditEntry(sessionID, op string, value int, d gate.GateDecision) logging.EditEntry {
	solution, _ := json.Marshal(t.Solution())
	result, _ := json.Marshal(t.Result())
	return logging.EditEntry{
		SessionID:    sessionID,
		TaskID:       t.ID(),
		Op:           op,
		Value:        value,
		SolutionJSON: string(solution),
		Decision:     d.Action,
		Reason:       d.Reason,
		ResultJSON:   string(result),
	}
}

// #endregion edits

// #region view
// View renders the snapshot shown after an update.
//
//	pick - move - put - move
//	s0    s1     s2    s3    s4
//
// The car highlight comes from the state before a drive step or after a fuel
// step; the slider range comes from the state a fuel step applies to.
func (t *Task) View() View {
	current := t.gate.CurrentIndex()
	previous := t.history.State(current)
	next := t.history.State(current + 1)
	lastCorrect := t.history.LastCorrectStepIndex()

	v := View{
		TaskID:       t.ID(),
		Level:        t.settings.Level,
		Cells:        t.spec.Cells,
		CarMaxFuel:   t.spec.CarMaxFuel,
		CurrentIndex: current,
		Result:       t.Result(),
		Solution:     t.history.Solution(),
		Field: FieldView{
			Car:      CarView{Cell: next.CarPosition().Index(), Fuel: next.CarFuel()},
			Reserves: next.Reserves(),
		},
	}

	for i, s := range t.history.Steps() {
		v.Steps = append(v.Steps, StepView{
			Index:    i,
			Kind:     s.Kind().String(),
			Text:     s.Text(),
			Value:    s.Value(),
			Wrong:    i > lastCorrect,
			Selected: i == current,
		})
	}

	s, ok := t.history.Step(current)
	if !ok {
		return v
	}
	highlight, fuelInfo := next, next
	if s.Category() == step.Drive {
		highlight = previous
	} else {
		fuelInfo = previous
	}
	v.Highlight = CarView{Cell: highlight.CarPosition().Index(), Fuel: highlight.CarFuel()}
	v.Slider = SliderView{Min: -fuelInfo.CarFuel(), Max: fuelInfo.PossibleToPick()}
	if s.Category() == step.Fuel {
		v.Slider.Value = s.FuelDelta()
	}
	return v
}

// #endregion view
