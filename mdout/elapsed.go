/*
 * elapsed.go, part of mdwatch.
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

package mdout

import (
	"errors"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/rmera/mdwatch"
)

var nstepRe = regexp.MustCompile(`NSTEP =\s*(\d+)`)

// DefaultScanLines is how far from the end of a report the last step is looked for.
const DefaultScanLines = 150

// LastStep returns the last step written to the report filename, looking
// at most maxlines lines back from its end. ok is false if no step was found there.
func LastStep(filename string, maxlines int) (step int, ok bool, err error) {
	line, ok, err := mdwatch.ScanBack(filename, maxlines, nstepRe.MatchString)
	if err != nil || !ok {
		return 0, false, mdwatch.ErrDecorate(err, "LastStep")
	}
	m := nstepRe.FindStringSubmatch(line)
	step, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, false, nil
	}
	return step, true, nil
}

// ElapsedNs returns the simulated time, in ns, covered by the dynamics report R in dir:
// the last step times the time step of the report.
func ElapsedNs(dir string, R mdwatch.ReportFile, maxlines int) (float64, bool, error) {
	step, ok, err := LastStep(filepath.Join(dir, R.Name), maxlines)
	if err != nil || !ok {
		return 0, false, mdwatch.ErrDecorate(err, "ElapsedNs")
	}
	return float64(step) * R.Step() * 1e-3, true, nil
}

// Simulations returns the simulated time of the n most recent dynamics reports
// among reps, which must be classified and sorted by modification time, most recent first.
// Minimization reports are ignored, reports of unknown mode are taken as dynamics.
// Reports without a step near their end, and those that disappeared, are left out of the set.
func Simulations(dir string, reps []mdwatch.ReportFile, n, maxlines int) (mdwatch.SimulationSet, error) {
	ret := make(mdwatch.SimulationSet, 0, n)
	taken := 0
	for _, R := range reps {
		if taken >= n {
			break
		}
		if R.Mode.Effective() == mdwatch.Minimization {
			continue
		}
		taken++
		ns, ok, err := ElapsedNs(dir, R, maxlines)
		if errors.Is(err, mdwatch.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, mdwatch.ErrDecorate(err, "Simulations")
		}
		if ok {
			ret = append(ret, mdwatch.Elapsed{Name: R.Name, Ns: ns})
		}
	}
	return ret, nil
}
