/*
 * report.go, part of mdwatch.
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
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rmera/mdwatch"
)

// The full report ends at the first of these lines. What
// follows are averages and fluctuations, not records.
var reportEnd = []string{
	"A V E R A G E S   O V E R",
	"Maximum number of minimization cycles reached",
}

// chunk is the number of lines given to each parsing task.
const chunk = 4096

// ReportLines returns the lines of the report filename up to (not including) the
// first line that closes the record section.
func ReportLines(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, mdwatch.FromOS(err, mdwatch.ErrInput, filename, "ReportLines")
	}
	defer f.Close()
	lines := make([]string, 0, 1024)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
scan:
	for sc.Scan() {
		line := sc.Text()
		for _, v := range reportEnd {
			if strings.Contains(line, v) {
				break scan
			}
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, mdwatch.FromOS(err, mdwatch.ErrInput, filename, "ReportLines")
	}
	return lines, nil
}

// ReadReport parses the whole report R in dir and returns its records, in file order.
// The lines are parsed by up to workers goroutines (runtime.NumCPU() if workers < 1).
// Each task gets a chunk of lines and returns its own result, the results are put
// back together by chunk index.
func ReadReport(ctx context.Context, dir string, R mdwatch.ReportFile, workers int) (*mdwatch.Table, error) {
	filename := filepath.Join(dir, R.Name)
	lines, err := ReportLines(filename)
	if err != nil {
		return nil, mdwatch.ErrDecorate(err, "ReadReport")
	}
	parse := Parser(R.Mode)
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	nchunks := (len(lines) + chunk - 1) / chunk
	results := make([][]mdwatch.Fields, nchunks)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c := 0; c < nchunks; c++ {
		from := c * chunk
		to := min(from+chunk, len(lines))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := make([]mdwatch.Fields, 0, to-from)
			for _, l := range lines[from:to] {
				if F := parse(l); len(F) > 0 {
					res = append(res, F)
				}
			}
			results[c] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	A := NewAccumulator()
	for _, res := range results {
		for _, F := range res {
			A.Add(F)
		}
	}
	return A.Table(), nil
}
