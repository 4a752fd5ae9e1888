/*
 * session.go, part of mdwatch.
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

// Package session drives the monitoring of a directory: a state machine
// that turns user actions and clock ticks into patches for a display.
//
// A Session is not safe for concurrent use. The Dispatcher runs one
// from a single goroutine.
package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/rmera/mdwatch"
	"github.com/rmera/mdwatch/discover"
	"github.com/rmera/mdwatch/mdinfo"
	"github.com/rmera/mdwatch/mdout"
)

// State of a session.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Options for a new session. Zero values are replaced by the defaults.
type Options struct {
	Dir         string
	Interval    time.Duration //10 s
	StatusFile  string        //mdinfo.DefaultName
	StaleAfter  time.Duration //mdinfo.DefaultStaleAfter
	Simulations int           //2
	ScanLines   int           //mdout.DefaultScanLines
	Workers     int           //for full report parsing, one per CPU if 0
	Logger      *slog.Logger
	Now         func() time.Time
}

func (O *Options) defaults() {
	if O.Dir == "" {
		O.Dir = "."
	}
	if O.Interval <= 0 {
		O.Interval = 10 * time.Second
	}
	if O.StatusFile == "" {
		O.StatusFile = mdinfo.DefaultName
	}
	if O.StaleAfter <= 0 {
		O.StaleAfter = mdinfo.DefaultStaleAfter
	}
	if O.Simulations < 1 {
		O.Simulations = 2
	}
	if O.ScanLines < 1 {
		O.ScanLines = mdout.DefaultScanLines
	}
	if O.Logger == nil {
		O.Logger = slog.Default()
	}
	if O.Now == nil {
		O.Now = time.Now
	}
}

// Session is the monitoring state of one directory.
type Session struct {
	opts      Options
	state     State
	cache     *mdout.ClassifierCache
	streamer  *mdinfo.Streamer
	extractor mdinfo.Extractor
	files     []mdwatch.ReportFile //last discovery, most recent first
	selected  string
	log       *slog.Logger
}

// New returns a stopped session.
func New(opts Options) *Session {
	opts.defaults()
	return &Session{
		opts:      opts,
		cache:     mdout.NewClassifierCache(),
		streamer:  mdinfo.NewStreamer(),
		extractor: mdinfo.Extractor{StaleAfter: opts.StaleAfter},
		log:       opts.Logger.With("component", "session"),
	}
}

// State returns the current state.
func (S *Session) State() State { return S.state }

// Dir returns the monitored directory.
func (S *Session) Dir() string { return S.opts.Dir }

// Interval returns the polling interval.
func (S *Session) Interval() time.Duration { return S.opts.Interval }

// Simulations returns the number of reports included in the aggregate duration.
func (S *Session) Simulations() int { return S.opts.Simulations }

// Selected returns the name of the report being displayed.
func (S *Session) Selected() string { return S.selected }

// Files returns the reports found in the last poll, most recent first.
func (S *Session) Files() []mdwatch.ReportFile { return slices.Clone(S.files) }

// Init returns the patches that bring a new display up to date
// with a session that was not started yet.
func (S *Session) Init() []Patch {
	return []Patch{S.filesPatch()}
}

// Handle applies the event ev and returns the resulting patches, in the order
// in which they must be applied. It returns nil if the event changes nothing.
func (S *Session) Handle(ctx context.Context, ev Event) []Patch {
	switch e := ev.(type) {
	case Toggle:
		return S.toggle(e.On)
	case Tick:
		if S.state != Running {
			return nil
		}
		return S.cycle(e.Now)
	case Select:
		return S.load(ctx, e.Name)
	case SetSimulations:
		if e.N < 1 || e.N == S.opts.Simulations {
			return nil
		}
		S.opts.Simulations = e.N
		if p := S.duration(); p != nil {
			return []Patch{p}
		}
		return nil
	case SetDir:
		return S.setDir(e.Dir)
	}
	S.log.Warn("unknown event", "event", ev)
	return nil
}

func (S *Session) toggle(on bool) []Patch {
	if on == (S.state == Running) {
		return nil
	}
	if !on {
		S.state = Stopped
		S.log.Info("monitoring stopped", "dir", S.opts.Dir)
		return []Patch{Cancel{}}
	}
	S.state = Running
	S.log.Info("monitoring started", "dir", S.opts.Dir, "interval", S.opts.Interval)
	S.streamer.Reset()
	ret := []Patch{ResetSeries{}}
	ret = append(ret, S.cycle(S.opts.Now())...)
	return append(ret, Schedule{Interval: S.opts.Interval})
}

func (S *Session) setDir(dir string) []Patch {
	if S.state == Running {
		S.log.Warn("the directory can't be changed while monitoring", "dir", dir)
		return nil
	}
	if dir == "" || dir == S.opts.Dir {
		return nil
	}
	S.opts.Dir = dir
	S.cache = mdout.NewClassifierCache()
	S.files = nil
	S.selected = ""
	S.streamer.Reset()
	return []Patch{ResetSeries{}, FilesPatch{Dir: dir}}
}

// skip logs an error that makes the session skip part of a poll.
func (S *Session) skip(what string, err error) {
	if errors.Is(err, mdwatch.ErrNotFound) {
		S.log.Debug("skipped", "step", what, "err", err)
		return
	}
	S.log.Warn("skipped", "step", what, "err", err)
}

// cycle is one poll: discovery, streaming, progress and aggregate duration.
// Errors only make it skip what can't be done.
func (S *Session) cycle(now time.Time) []Patch {
	var ret []Patch
	reps, err := discover.Reports(S.opts.Dir)
	if err != nil {
		S.skip("discovery", err)
		return nil
	}
	reps = S.cache.ClassifyAll(S.opts.Dir, reps)
	if p := S.discovered(reps); p != nil {
		ret = append(ret, p...)
	}
	if len(reps) == 0 {
		return ret
	}
	lines, mod, err := mdinfo.ReadStatus(S.opts.Dir, S.opts.StatusFile)
	if err != nil {
		S.skip("status", err)
	} else {
		if delta := S.streamer.Tick(reps[0], S.selected, lines); delta.Len() > 0 {
			ret = append(ret, AppendSeries{Table: delta})
		}
		ret = append(ret, ProgressPatch{Progress: S.extractor.Extract(lines, mod, now)})
	}
	if p := S.duration(); p != nil {
		ret = append(ret, p)
	}
	S.log.Debug("poll", "dir", S.opts.Dir, "files", len(reps), "patches", len(ret))
	return ret
}

// discovered stores the new discovery result, selects the most recent report
// if a new one appeared, and returns the patches for the display, if anything changed.
func (S *Session) discovered(reps []mdwatch.ReportFile) []Patch {
	var ret []Patch
	prev := S.files
	S.files = reps
	if discover.NewFileAppeared(prev, reps) && S.selected != reps[0].Name {
		S.log.Info("new report", "file", reps[0].Name)
		S.selected = reps[0].Name
		S.streamer.Reset()
		ret = append(ret, ResetSeries{})
	}
	if len(ret) > 0 || !sameFiles(prev, reps) {
		ret = append(ret, S.filesPatch())
	}
	return ret
}

func (S *Session) filesPatch() FilesPatch {
	F := FilesPatch{Dir: S.opts.Dir, Files: slices.Clone(S.files), Selected: S.selected}
	if len(S.files) > 0 {
		F.Live = S.files[0].Name
	}
	return F
}

func sameFiles(a, b []mdwatch.ReportFile) bool {
	return slices.EqualFunc(a, b, func(x, y mdwatch.ReportFile) bool {
		return x.Name == y.Name && x.Mode == y.Mode
	})
}

// duration returns the aggregate duration patch, or nil if it can't be computed.
func (S *Session) duration() Patch {
	if len(S.files) == 0 {
		return nil
	}
	set, err := mdout.Simulations(S.opts.Dir, S.files, S.opts.Simulations, S.opts.ScanLines)
	if err != nil {
		S.skip("duration", err)
		return nil
	}
	return DurationPatch{Set: set}
}

// load reads the whole report name, and replaces the series with it.
func (S *Session) load(ctx context.Context, name string) []Patch {
	R, ok := S.find(name)
	if !ok {
		R = S.cache.Classify(S.opts.Dir, name)
	}
	T, err := mdout.ReadReport(ctx, S.opts.Dir, R, S.opts.Workers)
	if err != nil {
		S.skip("load", err)
		return nil
	}
	S.log.Info("report loaded", "file", name, "records", T.Len(), "mode", R.Mode)
	S.selected = name
	S.streamer.Load(T)
	return []Patch{ResetSeries{}, AppendSeries{Table: T}, S.filesPatch()}
}

func (S *Session) find(name string) (mdwatch.ReportFile, bool) {
	for _, v := range S.files {
		if v.Name == name {
			return v, true
		}
	}
	return mdwatch.ReportFile{}, false
}
