/*
 * view.go, part of mdwatch.
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package session

import (
	"sync"

	"github.com/rmera/mdwatch"
)

// ViewState is a copy of what a display shows.
type ViewState struct {
	Running  bool
	Dir      string
	Files    []mdwatch.ReportFile
	Selected string
	Live     string
	Progress mdwatch.ProgressSnapshot
	Duration mdwatch.SimulationSet
	Records  int //length of the series
	Version  int //number of times the series was reset
}

// View is a Sink that keeps the result of all the patches applied to it, so displays
// that are not driven by the patches themselves (i.e. HTTP handlers) can read it.
// It is safe for concurrent use.
type View struct {
	mu     sync.RWMutex
	state  ViewState
	series *mdwatch.Table
}

// NewView returns an empty view.
func NewView() *View {
	return &View{series: mdwatch.NewTable(256)}
}

// Apply updates the view with the patches.
func (V *View) Apply(patches []Patch) {
	V.mu.Lock()
	defer V.mu.Unlock()
	for _, p := range patches {
		switch v := p.(type) {
		case ResetSeries:
			V.series.Reset()
			V.state.Version++
		case AppendSeries:
			V.series.AppendTable(v.Table)
		case ProgressPatch:
			V.state.Progress = v.Progress
		case DurationPatch:
			V.state.Duration = v.Set
		case FilesPatch:
			V.state.Dir = v.Dir
			V.state.Files = v.Files
			V.state.Selected = v.Selected
			V.state.Live = v.Live
		case Schedule:
			V.state.Running = true
		case Cancel:
			V.state.Running = false
		}
	}
	V.state.Records = V.series.Len()
}

// State returns a copy of the current state of the view.
func (V *View) State() ViewState {
	V.mu.RLock()
	defer V.mu.RUnlock()
	return V.state
}

// Series returns a copy of the records of the series from the index from on, and
// the series version. A client that saw another version needs to start from 0.
func (V *View) Series(from int) (*mdwatch.Table, int) {
	V.mu.RLock()
	defer V.mu.RUnlock()
	T := mdwatch.NewTable(V.series.Len())
	for _, v := range V.series.Rows(from) {
		T.Append(v)
	}
	return T, V.state.Version
}
