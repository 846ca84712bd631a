// Package pipeline describes the fixed classification pipeline shown during
// processing and projects the progress estimate onto it.
package pipeline

// StageStatus is the derived per-stage state.
type StageStatus string

const (
	StatusWaiting    StageStatus = "waiting"
	StatusProcessing StageStatus = "processing"
	StatusDone       StageStatus = "done"
)

// Stage is one step of the displayed pipeline. The set of stages is fixed;
// only Status changes, and only via Project.
type Stage struct {
	ID     string
	Name   string
	Status StageStatus
}

var defaultStages = []Stage{
	{ID: "prepare", Name: "Preparing data"},
	{ID: "tile", Name: "Tiling"},
	{ID: "classify", Name: "Classification"},
	{ID: "merge", Name: "Merging"},
	{ID: "export", Name: "Exporting"},
}

// StageCount is the number of pipeline stages.
const StageCount = 5

// Stages returns a fresh copy of the stage list, all waiting.
func Stages() []Stage {
	out := make([]Stage, len(defaultStages))
	copy(out, defaultStages)
	for i := range out {
		out[i].Status = StatusWaiting
	}
	return out
}

// Project derives stage statuses from a progress estimate in [0, 100].
// Stage floor(p / (100/N)) is processing, earlier stages are done, later
// ones are waiting. At p >= 100 every stage is done. Pure and replayable:
// the result depends on nothing but the argument.
func Project(progress float64) []Stage {
	stages := Stages()
	if progress >= 100 {
		for i := range stages {
			stages[i].Status = StatusDone
		}
		return stages
	}
	if progress < 0 {
		progress = 0
	}
	active := int(progress / (100 / float64(len(stages))))
	if active >= len(stages) {
		active = len(stages) - 1
	}
	for i := range stages {
		switch {
		case i < active:
			stages[i].Status = StatusDone
		case i == active:
			stages[i].Status = StatusProcessing
		}
	}
	return stages
}
