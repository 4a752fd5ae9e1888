/*
 * progress.go, part of mdwatch.
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

package mdinfo

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rmera/mdwatch"
)

// DefaultName is the name of the status file that Amber engines write.
const DefaultName = "mdinfo"

// DefaultStaleAfter is how old the status file needs to be
// for the job to be considered not running anymore.
const DefaultStaleAfter = 3 * time.Minute

var (
	stepsRe  = regexp.MustCompile(`Total steps :\s*(\d+) \| Completed :\s*(\d+) \| Remaining :\s*(\d+)`)
	speedRe  = regexp.MustCompile(`ns/day =\s*([.0-9]+)`)
	etaRe    = regexp.MustCompile(`Estimated time remaining:\s*(.+)$`)
	timingRe = "Average timings for last"
)

// ReadStatus reads the whole status file name in dir, which is always small.
// It returns its lines and its modification time.
func ReadStatus(dir, name string) ([]string, time.Time, error) {
	filename := filepath.Join(dir, name)
	f, err := os.Open(filename)
	if err != nil {
		return nil, time.Time{}, mdwatch.FromOS(err, nil, filename, "ReadStatus")
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, time.Time{}, mdwatch.FromOS(err, nil, filename, "ReadStatus")
	}
	lines := make([]string, 0, 32)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, time.Time{}, mdwatch.FromOS(err, nil, filename, "ReadStatus")
	}
	return lines, info.ModTime(), nil
}

// Extractor builds progress snapshots from the lines of a status file.
type Extractor struct {
	StaleAfter time.Duration //DefaultStaleAfter if 0
}

// Extract is the same as Extractor.Extract with the default staleness threshold.
func Extract(lines []string, modTime, now time.Time) mdwatch.ProgressSnapshot {
	return Extractor{}.Extract(lines, modTime, now)
}

// Extract scans lines for the step counts, the speed and the estimated time remaining.
// The scan ends at the ETA line, which is the last useful one in the file. The snapshot
// is stale if modTime is older than the staleness threshold, at the time now.
// Values not found are left at zero, with their Has* flag false.
func (E Extractor) Extract(lines []string, modTime, now time.Time) mdwatch.ProgressSnapshot {
	var P mdwatch.ProgressSnapshot
	for i, line := range lines {
		if m := stepsRe.FindStringSubmatch(line); m != nil {
			P.Total, _ = strconv.Atoi(m[1])
			P.Completed, _ = strconv.Atoi(m[2])
			P.Remaining, _ = strconv.Atoi(m[3])
			P.HasSteps = true
			if P.Total > 0 {
				P.Percent = 100 * float64(P.Completed) / float64(P.Total)
			}
		}
		if strings.Contains(line, timingRe) && i+2 < len(lines) {
			if m := speedRe.FindStringSubmatch(lines[i+2]); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil {
					P.NsPerDay = v
					P.HasSpeed = true
				}
			}
		}
		if m := etaRe.FindStringSubmatch(line); m != nil {
			P.ETA = strings.TrimSuffix(strings.TrimSpace(m[1]), ".")
			P.HasETA = true
			break
		}
	}
	stale := E.StaleAfter
	if stale <= 0 {
		stale = DefaultStaleAfter
	}
	P.Updated = modTime
	P.Age = humanize.RelTime(modTime, now, "ago", "from now")
	P.Stale = now.Sub(modTime) > stale
	return P
}
