/*
 * stream.go, part of mdwatch.
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
	"github.com/rmera/mdwatch"
	"github.com/rmera/mdwatch/mdout"
)

// Record merges every field found in lines, parsed according to mode, into
// a single record. ok is false if no step was found, as then there is no record.
func Record(mode mdwatch.Mode, lines []string) (mdwatch.DataPoint, bool) {
	parse := mdout.Parser(mode)
	F := make(mdwatch.Fields, mdwatch.NFields)
	for _, l := range lines {
		F.Merge(parse(l))
	}
	s, ok := F[mdwatch.Step]
	if !ok {
		return mdwatch.DataPoint{}, false
	}
	D := mdwatch.NewDataPoint(int(s))
	for k, v := range F {
		if k != mdwatch.Step {
			D.Set(k, v)
		}
	}
	return D, true
}

// Streamer keeps the series of records shown for the live report, and
// only hands out the records that were not already in it.
// It is not safe for concurrent use.
type Streamer struct {
	live *mdwatch.Table
}

// NewStreamer returns a Streamer with an empty series.
func NewStreamer() *Streamer {
	return &Streamer{live: mdwatch.NewTable(256)}
}

// Tick parses the status file lines as a report of the mode of live, and returns
// the records to append to the display, which can be empty. There is something to
// append only if the display shows the live report (displayed == live.Name) and the
// status record differs from the last one in the series, and is not behind it.
func (S *Streamer) Tick(live mdwatch.ReportFile, displayed string, lines []string) *mdwatch.Table {
	delta := mdwatch.NewTable(1)
	if displayed != live.Name {
		return delta
	}
	D, ok := Record(live.Mode, lines)
	if !ok {
		return delta
	}
	//Steps in the series never go back. On an empty series any record is taken,
	//even one left in the status file by the previous run.
	if last, ok := S.live.Last(); ok && (last.Equal(D) || D.Step < last.Step) {
		return delta
	}
	S.live.Append(D)
	delta.Append(D)
	return delta
}

// Reset empties the series.
func (S *Streamer) Reset() {
	S.live.Reset()
}

// Load replaces the series with a copy of T, normally a whole report.
func (S *Streamer) Load(T *mdwatch.Table) {
	S.live.Reset()
	S.live.AppendTable(T)
}

// Series returns the series. It must not be modified.
func (S *Streamer) Series() *mdwatch.Table {
	return S.live
}
