package task

import (
	"github.com/kiotasks/jeep/internal/eval"
	"github.com/kiotasks/jeep/internal/history"
)

// #region settings
// Settings are handed to the task by its host.
type Settings struct {
	Level int `json:"level" yaml:"level" validate:"gte=0"`
}

// LevelSpec is the track length and tank size of a level.
type LevelSpec struct {
	Cells      int `json:"cells"`
	CarMaxFuel int `json:"car_max_fuel"`
}

// #endregion settings

// #region resources
// Resource is a preloaded asset the host serves to the task view.
type Resource struct {
	ID  string `json:"id"`
	Src string `json:"src"`
}

// #endregion resources

// #region edits
// Edit operations accepted by Apply.
const (
	OpFuel   = "fuel"
	OpMove   = "move"
	OpSelect = "select"
	OpLoad   = "load"
)

// Edit is one user action: a slider amount, a target cell, a cursor index or
// a whole solution to load.
type Edit struct {
	Op       string           `json:"op" validate:"oneof=fuel move select load"`
	Value    int              `json:"value,omitempty"`
	Solution history.Solution `json:"solution,omitempty"`
}

// #endregion edits

// #region view
// StepView is one row of the step list.
type StepView struct {
	Index    int    `json:"index"`
	Kind     string `json:"kind"`
	Text     string `json:"text"`
	Value    string `json:"value"`
	Wrong    bool   `json:"wrong"`
	Selected bool   `json:"selected"`
}

// CarView is where the car is drawn and with how much fuel.
type CarView struct {
	Cell int `json:"cell"`
	Fuel int `json:"fuel"`
}

// SliderView is the fuel slider: the allowed range and the current amount.
type SliderView struct {
	Min   int `json:"min"`
	Max   int `json:"max"`
	Value int `json:"value"`
}

// FieldView is the state drawn on the track.
type FieldView struct {
	Car      CarView `json:"car"`
	Reserves []int   `json:"reserves"` // -1 marks the unlimited origin
}

// View is a snapshot of everything the task shows after an update.
type View struct {
	TaskID       string      `json:"task_id"`
	Level        int         `json:"level"`
	Cells        int         `json:"cells"`
	CarMaxFuel   int         `json:"car_max_fuel"`
	CurrentIndex int         `json:"current_index"`
	Steps        []StepView  `json:"steps"`
	Highlight    CarView     `json:"highlight"`
	Slider       SliderView  `json:"slider"`
	Field        FieldView   `json:"field"`
	Result       eval.Result `json:"result"`
	Solution     []int       `json:"solution"`
}

// #endregion view
