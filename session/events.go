package session

import (
	"time"

	"github.com/rmera/mdwatch"
)

// Event is an input to the session: a user action or a clock tick.
type Event interface {
	event()
}

// Toggle starts (On) or stops the monitoring.
type Toggle struct {
	On bool
}

// Tick is the periodic poll.
type Tick struct {
	Now time.Time
}

// Select loads the whole report Name for display.
type Select struct {
	Name string
}

// SetSimulations sets how many of the most recent dynamics reports
// are included in the aggregate duration.
type SetSimulations struct {
	N int
}

// SetDir changes the monitored directory. It is only honored while the session is stopped.
type SetDir struct {
	Dir string
}

func (Toggle) event()         {}
func (Tick) event()           {}
func (Select) event()         {}
func (SetSimulations) event() {}
func (SetDir) event()         {}

// Patch is an output of the session: a change to apply to the display, or
// a command for whoever runs the session (Schedule and Cancel).
type Patch interface {
	patch()
}

// ResetSeries clears the displayed series.
type ResetSeries struct{}

// AppendSeries adds records at the end of the displayed series.
type AppendSeries struct {
	Table *mdwatch.Table
}

// ProgressPatch replaces the progress of the running job.
type ProgressPatch struct {
	Progress mdwatch.ProgressSnapshot
}

// DurationPatch replaces the aggregate duration.
type DurationPatch struct {
	Set mdwatch.SimulationSet
}

// FilesPatch replaces the list of report files. Live is the most recent one,
// Selected the one whose records are displayed.
type FilesPatch struct {
	Dir      string
	Files    []mdwatch.ReportFile
	Selected string
	Live     string
}

// Schedule asks for a Tick every Interval.
type Schedule struct {
	Interval time.Duration
}

// Cancel asks for the Ticks to stop.
type Cancel struct{}

func (ResetSeries) patch()   {}
func (AppendSeries) patch()  {}
func (ProgressPatch) patch() {}
func (DurationPatch) patch() {}
func (FilesPatch) patch()    {}
func (Schedule) patch()      {}
func (Cancel) patch()        {}
