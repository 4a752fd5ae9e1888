/*
 * series.go, part of mdwatch.
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

package mdwatch

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Elapsed is the simulated time covered by one report file, in ns.
type Elapsed struct {
	Name string
	Ns   float64
}

// SimulationSet is an ordered set of report files with the simulated time each
// of them covers. It is recomputed on demand and never stored.
type SimulationSet []Elapsed

// Total returns the simulated time covered by all the files in the set, in ns.
func (S SimulationSet) Total() float64 {
	var t float64
	for _, v := range S {
		t += v.Ns
	}
	return t
}

// Fractions returns, for each file in the set, the fraction of
// the total simulated time that it covers.
func (S SimulationSet) Fractions() []float64 {
	ret := make([]float64, len(S))
	tot := S.Total()
	if tot == 0 {
		return ret
	}
	for i, v := range S {
		ret[i] = v.Ns / tot
	}
	return ret
}

// DeviationSeries is the RMSD, in A, along a trajectory. Times and
// Values are parallel slices, one element per sampled frame.
type DeviationSeries struct {
	Times     []float64
	Values    []float64
	Stride    int //only one frame each Stride was used
	Frames    int //total number of frames in the trajectory
	Reference int //index of the reference frame in the whole trajectory
}

// Len returns the number of points in the series.
func (D *DeviationSeries) Len() int {
	return len(D.Values)
}

// DeviationStats summarizes a DeviationSeries.
type DeviationStats struct {
	Mean   float64
	StdDev float64
	Max    float64
}

// Stats returns the mean, standard deviation and maximum of the series.
// The reference frame, which always has a deviation of 0, is included.
func (D *DeviationSeries) Stats() DeviationStats {
	if D.Len() == 0 {
		return DeviationStats{}
	}
	var ret DeviationStats
	ret.Mean, ret.StdDev = stat.MeanStdDev(D.Values, nil)
	if D.Len() == 1 {
		ret.StdDev = 0
	}
	ret.Max = floats.Max(D.Values)
	return ret
}
