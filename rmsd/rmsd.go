/*
 * rmsd.go, part of mdwatch.
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

// Package rmsd computes the backbone RMSD along one or more trajectories of the same system,
// against their first frame. Long trajectories are sampled so only a bounded number of
// frames is compared. The comparisons run in parallel.
package rmsd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rmera/mdwatch"
	"github.com/rmera/mdwatch/top"
	"github.com/rmera/mdwatch/traj/amber"
	"github.com/rmera/mdwatch/traj/netcdf"
	v3 "github.com/rmera/mdwatch/v3"
)

// DefaultTargetFrames is the number of frames that the engine aims to compare.
const DefaultTargetFrames = 200

// The protein backbone, in Amber residue names.
var (
	BackboneResidues = []string{"ALA", "ARG", "ASH", "ASN", "ASP", "CYM", "CYS", "CYX", "GLH", "GLN", "GLU", "GLY", "HID", "HIE", "HIP", "HYP", "HIS", "ILE", "LEU", "LYN", "LYS", "MET", "PHE", "PRO", "SER", "THR", "TRP", "TYR", "VAL"}
	BackboneAtoms    = []string{"CA", "C", "O", "N"}
)

// Stride returns the number of frames between two sampled frames, so that about
// target frames are sampled from a trajectory of total frames.
func Stride(total, target int) int {
	if target < 1 || total <= target {
		return 1
	}
	return total / target
}

// BackboneIndexes returns the indexes of the backbone atoms in A. It returns
// an InputError if there are none.
func BackboneIndexes(A mdwatch.Atomer) ([]int, error) {
	ret := mdwatch.Select(A, BackboneResidues, BackboneAtoms)
	if len(ret) == 0 {
		return nil, mdwatch.InputError("no backbone atoms in the topology", "", "BackboneIndexes", nil)
	}
	return ret, nil
}

// OpenTraj opens the trajectory filename, with natoms atoms, choosing the reader
// from the file extension.
func OpenTraj(filename string, natoms int) (mdwatch.Traj, error) {
	name := strings.ToLower(filename)
	for _, ext := range []string{".gz", ".zst", ".bz2"} {
		name = strings.TrimSuffix(name, ext)
	}
	switch {
	case strings.HasSuffix(name, ".nc"), strings.HasSuffix(name, ".ncdf"):
		t, err := netcdf.New(filename)
		if err != nil {
			return nil, mdwatch.ErrDecorate(err, "OpenTraj")
		}
		return t, nil
	case strings.HasSuffix(name, ".mdcrd"), strings.HasSuffix(name, ".crd"):
		t, err := amber.New(filename, natoms)
		if err != nil {
			return nil, mdwatch.ErrDecorate(err, "OpenTraj")
		}
		return t, nil
	}
	return nil, mdwatch.InputError("unknown trajectory format", filename, "OpenTraj", nil)
}

func closeTraj(t mdwatch.Traj) {
	if c, ok := t.(mdwatch.Closer); ok {
		c.Close()
	}
}

// Engine computes RMSD series.
type Engine struct {
	TargetFrames int  //DefaultTargetFrames if < 1
	Workers      int  //runtime.NumCPU() if < 1
	Fit          bool //superimpose each frame on the reference before comparing
}

// NewEngine returns an Engine with the default settings.
func NewEngine() *Engine {
	return &Engine{TargetFrames: DefaultTargetFrames, Workers: runtime.NumCPU(), Fit: true}
}

// sample is a sampled frame, with only the backbone atoms.
type sample struct {
	index  int //in the concatenated trajectory
	time   float64
	coords *v3.Matrix
}

// sortByAge returns the filenames sorted by modification time, oldest first.
func sortByAge(filenames []string) ([]string, error) {
	type aged struct {
		name string
		mod  time.Time
	}
	a := make([]aged, len(filenames))
	for i, v := range filenames {
		info, err := os.Stat(v)
		if err != nil {
			return nil, mdwatch.FromOS(err, mdwatch.ErrInput, v, "sortByAge")
		}
		a[i] = aged{v, info.ModTime()}
	}
	sort.SliceStable(a, func(i, j int) bool { return a[i].mod.Before(a[j].mod) })
	ret := make([]string, len(a))
	for i, v := range a {
		ret[i] = v.name
	}
	return ret, nil
}

// countFrames returns the number of frames in the trajectory filename, reading
// it all if the format doesn't tell.
func countFrames(filename string, natoms int) (int, error) {
	t, err := OpenTraj(filename, natoms)
	if err != nil {
		return 0, mdwatch.ErrDecorate(err, "countFrames")
	}
	defer closeTraj(t)
	if t.Len() != natoms {
		return 0, mdwatch.InputError(fmt.Sprintf("trajectory has %d atoms, the topology %d", t.Len(), natoms), filename, "countFrames", nil)
	}
	if fc, ok := t.(mdwatch.FrameCounter); ok {
		return fc.NFrames(), nil
	}
	n := 0
	for {
		err := t.Next(nil)
		if mdwatch.IsLastFrame(err) {
			return n, nil
		}
		if err != nil {
			return 0, mdwatch.ErrDecorate(err, "countFrames")
		}
		n++
	}
}

// ComputeFiles reads the topology in topfile and computes the series for the
// trajectories trajs.
func (E *Engine) ComputeFiles(ctx context.Context, topfile string, trajs []string) (*mdwatch.DeviationSeries, error) {
	T, err := top.Read(topfile)
	if err != nil {
		return nil, mdwatch.ErrDecorate(err, "ComputeFiles")
	}
	return E.Compute(ctx, T, trajs)
}

// Compute returns the backbone RMSD, in A, of the frames in trajs against the first one.
// The trajectories are joined, oldest (by modification time) first, and one frame every
// Stride(total, E.TargetFrames) is compared. The time of each point is the one in the
// trajectory, in ps, or the index of the frame in the joined trajectory, if the format
// has no times. Unreadable files, or files that don't match the topology, give an InputError.
func (E *Engine) Compute(ctx context.Context, topology mdwatch.Atomer, trajs []string) (*mdwatch.DeviationSeries, error) {
	if len(trajs) == 0 {
		return nil, mdwatch.InputError("no trajectories given", "", "Compute", nil)
	}
	natoms := topology.Len()
	idx, err := BackboneIndexes(topology)
	if err != nil {
		return nil, mdwatch.ErrDecorate(err, "Compute")
	}
	trajs, err = sortByAge(trajs)
	if err != nil {
		return nil, mdwatch.ErrDecorate(err, "Compute")
	}
	total := 0
	for _, v := range trajs {
		n, err := countFrames(v, natoms)
		if err != nil {
			return nil, mdwatch.ErrDecorate(err, "Compute")
		}
		total += n
	}
	if total == 0 {
		return nil, mdwatch.InputError("the trajectories have no frames", trajs[0], "Compute", nil)
	}
	stride := Stride(total, E.TargetFrames)
	samples, err := readSamples(ctx, trajs, natoms, idx, stride, total)
	if err != nil {
		return nil, mdwatch.ErrDecorate(err, "Compute")
	}
	values, err := E.deviations(ctx, samples)
	if err != nil {
		return nil, mdwatch.ErrDecorate(err, "Compute")
	}
	ret := &mdwatch.DeviationSeries{
		Times:     make([]float64, len(samples)),
		Values:    values,
		Stride:    stride,
		Frames:    total,
		Reference: samples[0].index,
	}
	for i, s := range samples {
		ret.Times[i] = s.time
	}
	return ret, nil
}

// readSamples reads one frame every stride from the joined trajectories.
func readSamples(ctx context.Context, trajs []string, natoms int, idx []int, stride, total int) ([]sample, error) {
	samples := make([]sample, 0, total/stride+1)
	frame := v3.Zeros(natoms)
	g := 0 //index in the joined trajectory
	for _, name := range trajs {
		t, err := OpenTraj(name, natoms)
		if err != nil {
			return nil, mdwatch.ErrDecorate(err, "readSamples")
		}
		timer, hasTimer := t.(mdwatch.Timer)
		for ; g < total; g++ {
			if err := ctx.Err(); err != nil {
				closeTraj(t)
				return nil, err
			}
			var err error
			keep := g%stride == 0
			if keep {
				err = t.Next(frame)
			} else {
				err = t.Next(nil)
			}
			if mdwatch.IsLastFrame(err) {
				break
			}
			if err != nil {
				closeTraj(t)
				return nil, mdwatch.ErrDecorate(err, "readSamples")
			}
			if !keep {
				continue
			}
			s := sample{index: g, time: float64(g), coords: v3.Zeros(len(idx))}
			if err := s.coords.SomeVecsSafe(frame, idx); err != nil {
				closeTraj(t)
				return nil, mdwatch.InputError("backbone atoms out of the frame", name, "readSamples", err)
			}
			if hasTimer {
				if tm, ok := timer.Time(); ok {
					s.time = tm
				}
			}
			samples = append(samples, s)
		}
		closeTraj(t)
	}
	if len(samples) == 0 {
		return nil, mdwatch.InputError("no frames could be read", trajs[0], "readSamples", nil)
	}
	return samples, nil
}

// deviations compares every sample with the first one, in parallel. Each
// task writes only its own element of the result, which is indexed as samples.
func (E *Engine) deviations(ctx context.Context, samples []sample) ([]float64, error) {
	workers := E.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	rmsd := v3.RMSD
	if E.Fit {
		rmsd = v3.SuperRMSD
	}
	ref := samples[0].coords
	ret := make([]float64, len(samples))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := rmsd(ref, s.coords)
			if err != nil {
				return mdwatch.InputError(fmt.Sprintf("can't compare frame %d", s.index), "", "deviations", err)
			}
			ret[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ret, nil
}
