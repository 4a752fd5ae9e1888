/*
 * classify.go, part of mdwatch.
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
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rmera/mdwatch"
)

var (
	iminRe = regexp.MustCompile(`imin\s*=\s*([01])`)
	dtRe   = regexp.MustCompile(`dt\s*=\s*([.0-9]+)`)
)

// No header field is written after this line.
const resultsMarker = "4.  RESULTS"

// ClassifierCache keeps the run mode and time step of every report file that
// has been classified. A report never changes its mode, so a file is
// never classified twice, unless the first attempt could not find the mode.
// It is not safe for concurrent use.
type ClassifierCache struct {
	known map[string]mdwatch.ReportFile
}

// NewClassifierCache returns an empty cache.
func NewClassifierCache() *ClassifierCache {
	return &ClassifierCache{known: make(map[string]mdwatch.ReportFile)}
}

// Len returns the number of files in the cache.
func (C *ClassifierCache) Len() int {
	return len(C.known)
}

// Classify returns the mode and time step of the report name in dir. The
// scan stops as soon as both header flags have been found. If the file can't
// be read, or doesn't have the flags, the mode is left Unknown, and the result is
// not cached, so the file is scanned again the next time. That is not an error.
// A dynamics without time step is only cached once the whole header is there.
func (C *ClassifierCache) Classify(dir, name string) mdwatch.ReportFile {
	if R, ok := C.known[name]; ok {
		return R
	}
	R, complete := readHeader(filepath.Join(dir, name))
	R.Name = name
	if R.Mode == mdwatch.Minimization || (R.Mode == mdwatch.Dynamics && (R.HasTimeStep || complete)) {
		C.known[name] = R
	}
	return R
}

// ClassifyAll classifies every file in reps, keeping their modification times.
func (C *ClassifierCache) ClassifyAll(dir string, reps []mdwatch.ReportFile) []mdwatch.ReportFile {
	ret := make([]mdwatch.ReportFile, len(reps))
	for i, v := range reps {
		R := C.Classify(dir, v.Name)
		R.ModTime = v.ModTime
		ret[i] = R
	}
	return ret
}

// ReadHeader scans the header of the report filename for the imin and dt flags.
// It never fails: on any problem the mode is left Unknown.
func ReadHeader(filename string) mdwatch.ReportFile {
	R, _ := readHeader(filename)
	return R
}

// readHeader is ReadHeader, and also tells whether the scan reached the results
// section, after which the header can't change.
func readHeader(filename string) (R mdwatch.ReportFile, complete bool) {
	R.Name = filepath.Base(filename)
	f, err := os.Open(filename)
	if err != nil {
		return R, false
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.Contains(line, resultsMarker) {
			complete = true
			break
		}
		if m := iminRe.FindStringSubmatch(line); m != nil {
			if m[1] == "1" {
				R.Mode = mdwatch.Minimization
			} else {
				R.Mode = mdwatch.Dynamics
			}
		}
		if m := dtRe.FindStringSubmatch(line); m != nil {
			if dt, err := strconv.ParseFloat(m[1], 64); err == nil {
				R.TimeStep = dt
				R.HasTimeStep = true
			}
		}
		if R.Mode != mdwatch.Unknown && R.HasTimeStep {
			break
		}
	}
	return R, complete
}
