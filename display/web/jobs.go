/*
 * jobs.go, part of mdwatch.
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
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/rmera/mdwatch"
	"github.com/rmera/mdwatch/discover"
	"github.com/rmera/mdwatch/mdplot"
)

// Status of an RMSD job.
const (
	jobRunning = "running"
	jobDone    = "done"
	jobFailed  = "failed"
)

// job is an RMSD computation. Its fields are protected by the server mutex.
type job struct {
	ID       uuid.UUID
	Status   string
	Err      string
	Topology string
	Trajs    []string
	Started  time.Time
	Finished time.Time
	Series   *mdwatch.DeviationSeries
}

type jobResponse struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
	Topology     string     `json:"topology"`
	Trajectories []string   `json:"trajectories"`
	Started      time.Time  `json:"started"`
	Finished     *time.Time `json:"finished,omitempty"`
	Stride       int        `json:"stride,omitempty"`
	Frames       int        `json:"frames,omitempty"`
	Times        []float64  `json:"times,omitempty"`
	Values       []float64  `json:"values,omitempty"`
	Mean         float64    `json:"mean,omitempty"`
	StdDev       float64    `json:"std_dev,omitempty"`
	Max          float64    `json:"max,omitempty"`
}

func (J *job) response() jobResponse {
	ret := jobResponse{
		ID:           J.ID.String(),
		Status:       J.Status,
		Error:        J.Err,
		Topology:     J.Topology,
		Trajectories: J.Trajs,
		Started:      J.Started,
	}
	if !J.Finished.IsZero() {
		ret.Finished = &J.Finished
	}
	if D := J.Series; D != nil {
		st := D.Stats()
		ret.Stride, ret.Frames = D.Stride, D.Frames
		ret.Times, ret.Values = D.Times, D.Values
		ret.Mean, ret.StdDev, ret.Max = st.Mean, st.StdDev, st.Max
	}
	return ret
}

// inputs returns the topology and trajectory paths for an RMSD job. Names are
// relative to dir. Without a topology the first one in dir is used, without
// trajectories, all the ones in dir.
func inputs(dir, topology string, trajs []string) (string, []string, error) {
	for _, v := range append([]string{topology}, trajs...) {
		if v != "" && filepath.Base(v) != v {
			return "", nil, mdwatch.InputError("only names of files in the directory are accepted", v, "inputs", nil)
		}
	}
	if topology == "" {
		tops, err := discover.Topologies(dir)
		if err != nil {
			return "", nil, mdwatch.ErrDecorate(err, "inputs")
		}
		if len(tops) == 0 {
			return "", nil, mdwatch.InputError("no topology found", dir, "inputs", nil)
		}
		topology = tops[0].Name
	}
	if len(trajs) == 0 {
		fs, err := discover.Trajectories(dir)
		if err != nil {
			return "", nil, mdwatch.ErrDecorate(err, "inputs")
		}
		if len(fs) == 0 {
			return "", nil, mdwatch.InputError("no trajectories found", dir, "inputs", nil)
		}
		for _, v := range fs {
			trajs = append(trajs, v.Name)
		}
	}
	return topology, trajs, nil
}

func (S *Server) handleRMSD(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topology     string   `json:"topology"`
		Trajectories []string `json:"trajectories"`
	}
	if r.ContentLength != 0 {
		if err := readBody(r, &req); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	dir := S.view.State().Dir
	top, trajs, err := inputs(dir, req.Topology, req.Trajectories)
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, mdwatch.ErrNotFound) {
			code = http.StatusNotFound
		}
		httpError(w, code, err.Error())
		return
	}
	J := &job{ID: uuid.New(), Status: jobRunning, Topology: top, Trajs: trajs, Started: time.Now()}
	paths := make([]string, len(trajs))
	for i, v := range trajs {
		paths[i] = filepath.Join(dir, v)
	}
	S.mu.Lock()
	S.jobs[J.ID] = J
	ctx := S.ctx
	S.mu.Unlock()
	S.log.Info("rmsd job started", "id", J.ID, "topology", top, "trajectories", len(trajs))
	go func() {
		D, err := S.engine.ComputeFiles(ctx, filepath.Join(dir, top), paths)
		S.mu.Lock()
		defer S.mu.Unlock()
		J.Finished = time.Now()
		if err != nil {
			J.Status, J.Err = jobFailed, err.Error()
			S.log.Warn("rmsd job failed", "id", J.ID, "err", err)
			return
		}
		J.Status, J.Series = jobDone, D
		S.log.Info("rmsd job done", "id", J.ID, "frames", D.Frames, "stride", D.Stride, "took", J.Finished.Sub(J.Started))
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"id": J.ID.String()})
}

// job returns a copy of the job with the id in the request path.
func (S *Server) job(w http.ResponseWriter, r *http.Request) (job, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid job id")
		return job{}, false
	}
	S.mu.Lock()
	defer S.mu.Unlock()
	J, ok := S.jobs[id]
	if !ok {
		httpError(w, http.StatusNotFound, "no such job")
		return job{}, false
	}
	return *J, true
}

func (S *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	J, ok := S.job(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, J.response())
}

func (S *Server) handleJobPlot(w http.ResponseWriter, r *http.Request) {
	J, ok := S.job(w, r)
	if !ok {
		return
	}
	if J.Series == nil {
		httpError(w, http.StatusConflict, "the job is "+J.Status)
		return
	}
	p, err := mdplot.Deviation(J.Series, "Backbone RMSD")
	if err != nil {
		httpError(w, http.StatusNotFound, err.Error())
		return
	}
	S.writePNG(w, p)
}
