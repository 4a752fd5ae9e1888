/*
 * handlers.go, part of mdwatch.
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

package web

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/plot"

	"github.com/rmera/mdwatch"
	"github.com/rmera/mdwatch/discover"
	"github.com/rmera/mdwatch/mdplot"
	"github.com/rmera/mdwatch/session"
)

type progress struct {
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Remaining int       `json:"remaining"`
	Steps     string    `json:"steps"`
	Percent   float64   `json:"percent"`
	NsPerDay  float64   `json:"ns_per_day"`
	ETA       string    `json:"eta"`
	Updated   time.Time `json:"updated"`
	Age       string    `json:"age"`
	Stale     bool      `json:"stale"`
}

type elapsed struct {
	Name     string  `json:"name"`
	Ns       float64 `json:"ns"`
	Fraction float64 `json:"fraction"`
}

type report struct {
	Name     string    `json:"name"`
	Mode     string    `json:"mode"`
	TimeStep float64   `json:"time_step,omitempty"`
	Modified time.Time `json:"modified"`
}

type state struct {
	Running  bool      `json:"running"`
	Dir      string    `json:"dir"`
	Selected string    `json:"selected"`
	Live     string    `json:"live"`
	Records  int       `json:"records"`
	Version  int       `json:"version"`
	Progress *progress `json:"progress,omitempty"`
	Duration []elapsed `json:"duration"`
	TotalNs  float64   `json:"total_ns"`
	Reports  []report  `json:"reports"`
}

func reports(rs []mdwatch.ReportFile) []report {
	ret := make([]report, len(rs))
	for i, v := range rs {
		ret[i] = report{Name: v.Name, Mode: v.Mode.String(), Modified: v.ModTime}
		if v.HasTimeStep {
			ret[i].TimeStep = v.TimeStep
		}
	}
	return ret
}

func newState(V session.ViewState) state {
	ret := state{
		Running:  V.Running,
		Dir:      V.Dir,
		Selected: V.Selected,
		Live:     V.Live,
		Records:  V.Records,
		Version:  V.Version,
		Duration: make([]elapsed, len(V.Duration)),
		TotalNs:  V.Duration.Total(),
		Reports:  reports(V.Files),
	}
	fr := V.Duration.Fractions()
	for i, v := range V.Duration {
		ret.Duration[i] = elapsed{Name: v.Name, Ns: v.Ns, Fraction: fr[i]}
	}
	P := V.Progress
	if P.HasSteps || P.HasSpeed || P.HasETA {
		ret.Progress = &progress{
			Total:     P.Total,
			Completed: P.Completed,
			Remaining: P.Remaining,
			Steps:     humanize.Comma(int64(P.Completed)) + " / " + humanize.Comma(int64(P.Total)),
			Percent:   P.Percent,
			NsPerDay:  P.NsPerDay,
			ETA:       P.ETA,
			Updated:   P.Updated,
			Age:       P.Age,
			Stale:     P.Stale,
		}
	}
	return ret
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// readBody decodes the JSON body of r into v.
func readBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (S *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newState(S.view.State()))
}

// column turns missing values into nulls, which JSON can carry.
func column(vals []float64) []*float64 {
	ret := make([]*float64, len(vals))
	for i := range vals {
		if !mdwatch.IsMissing(vals[i]) {
			ret[i] = &vals[i]
		}
	}
	return ret
}

type series struct {
	Version int                   `json:"version"`
	From    int                   `json:"from"`
	Reset   bool                  `json:"reset"`
	Steps   []int                 `json:"steps"`
	Columns map[string][]*float64 `json:"columns"`
}

// handleSeries returns the records from the index given in the query parameter from. A client
// that gives the version of the series it has, and is outdated, gets the whole series instead.
func (S *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := intParam(q.Get("from"), 0)
	if err != nil || from < 0 {
		httpError(w, http.StatusBadRequest, "invalid from")
		return
	}
	version, err := intParam(q.Get("version"), -1)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid version")
		return
	}
	T, v := S.view.Series(from)
	ret := series{Version: v, From: from}
	if version >= 0 && version != v {
		T, v = S.view.Series(0)
		ret = series{Version: v, From: 0, Reset: true}
	}
	ret.Steps = T.Steps
	ret.Columns = make(map[string][]*float64, mdwatch.NFields-1)
	for f := mdwatch.Time; f < mdwatch.NFields; f++ {
		ret.Columns[f.String()] = column(T.Column(f))
	}
	writeJSON(w, http.StatusOK, ret)
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

type file struct {
	Name     string    `json:"name"`
	Size     string    `json:"size"`
	Modified time.Time `json:"modified"`
}

func files(fs []discover.File) []file {
	ret := make([]file, len(fs))
	for i, v := range fs {
		ret[i] = file{Name: v.Name, Size: humanize.Bytes(uint64(v.Size)), Modified: v.ModTime}
	}
	return ret
}

func (S *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	V := S.view.State()
	ret := struct {
		Dir          string   `json:"dir"`
		Reports      []report `json:"reports"`
		Trajectories []file   `json:"trajectories"`
		Topologies   []file   `json:"topologies"`
	}{Dir: V.Dir, Reports: reports(V.Files)}
	trajs, err := discover.Trajectories(V.Dir)
	if err != nil && !errors.Is(err, mdwatch.ErrNotFound) {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tops, err := discover.Topologies(V.Dir)
	if err != nil && !errors.Is(err, mdwatch.ErrNotFound) {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ret.Trajectories = files(trajs)
	ret.Topologies = files(tops)
	writeJSON(w, http.StatusOK, ret)
}

// send queues ev for the session, and answers with 202 Accepted.
func (S *Server) send(w http.ResponseWriter, r *http.Request, ev session.Event) {
	if err := S.events.Send(r.Context(), ev); err != nil {
		httpError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

func (S *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		On bool `json:"on"`
	}
	if err := readBody(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	S.send(w, r, session.Toggle{On: req.On})
}

func (S *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readBody(r, &req); err != nil || req.Name == "" || filepath.Base(req.Name) != req.Name {
		httpError(w, http.StatusBadRequest, "a file name is needed")
		return
	}
	S.send(w, r, session.Select{Name: req.Name})
}

func (S *Server) handleSimulations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		N int `json:"n"`
	}
	if err := readBody(r, &req); err != nil || req.N < 1 {
		httpError(w, http.StatusBadRequest, "n must be at least 1")
		return
	}
	S.send(w, r, session.SetSimulations{N: req.N})
}

func (S *Server) handleDir(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dir string `json:"dir"`
	}
	if err := readBody(r, &req); err != nil || req.Dir == "" {
		httpError(w, http.StatusBadRequest, "a directory is needed")
		return
	}
	if S.view.State().Running {
		httpError(w, http.StatusConflict, "stop the monitoring before changing the directory")
		return
	}
	S.send(w, r, session.SetDir{Dir: req.Dir})
}

func (S *Server) writePNG(w http.ResponseWriter, p *plot.Plot) {
	w.Header().Set("Content-Type", "image/png")
	if err := mdplot.PNG(w, p, 0, 0); err != nil {
		//too late for another status code.
		S.log.Warn("can't write plot", "err", err)
	}
}

func (S *Server) handleSeriesPlot(w http.ResponseWriter, r *http.Request) {
	f, ok := mdwatch.FieldByName(r.PathValue("field"))
	if !ok {
		httpError(w, http.StatusNotFound, "unknown field")
		return
	}
	T, _ := S.view.Series(0)
	p, err := mdplot.Series(T, f, S.view.State().Selected)
	if err != nil {
		httpError(w, http.StatusNotFound, err.Error())
		return
	}
	S.writePNG(w, p)
}

func (S *Server) handleDurationPlot(w http.ResponseWriter, r *http.Request) {
	p, err := mdplot.Duration(S.view.State().Duration, "Simulated time")
	if err != nil {
		httpError(w, http.StatusNotFound, err.Error())
		return
	}
	S.writePNG(w, p)
}
