/*
 * grammar.go, part of mdwatch.
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
	"regexp"
	"strconv"

	"github.com/rmera/mdwatch"
)

// A rule is one entry of a line grammar: a pattern and the fields
// that its capture groups hold, in order. A nil field skips the group.
type rule struct {
	re     *regexp.Regexp
	fields []mdwatch.Field
}

const num = `(-?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)`
const sci = `(-?[0-9]*\.[0-9]+[eE][-+]?[0-9]+)`

const skip = mdwatch.NFields

// The rules are applied in order, and all of them are tried on every line.
var dynamicsGrammar = []rule{
	{regexp.MustCompile(`NSTEP\s*=\s*(\d+)\s+TIME\(PS\)\s*=\s*` + num + `\s+TEMP\(K\)\s*=\s*` + num + `\s+PRESS\s*=\s*` + num),
		[]mdwatch.Field{mdwatch.Step, mdwatch.Time, mdwatch.Temperature, mdwatch.Pressure}},
	{regexp.MustCompile(`Etot\s*=\s*` + num + `\s+EKtot\s*=\s*` + num + `\s+EPtot\s*=\s*` + num),
		[]mdwatch.Field{mdwatch.Etot, mdwatch.EKtot, mdwatch.EPtot}},
	{regexp.MustCompile(`VOLUME\s*=\s*` + num),
		[]mdwatch.Field{mdwatch.Volume}},
	{regexp.MustCompile(`Density\s*=\s*` + num),
		[]mdwatch.Field{mdwatch.Density}},
}

// step, energy, rms, gmax, atom name, atom number.
var minimizationGrammar = []rule{
	{regexp.MustCompile(`^\s*(\d+)\s+` + sci + `\s+` + sci + `\s+` + sci + `\s+[A-Za-z0-9'*+-]+\s+\d+\s*$`),
		[]mdwatch.Field{mdwatch.Step, mdwatch.Etot, skip, skip}},
}

func apply(grammar []rule, line string) mdwatch.Fields {
	var ret mdwatch.Fields
rules:
	for _, r := range grammar {
		m := r.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		vals := make([]float64, len(r.fields))
		for i, f := range r.fields {
			if f == skip {
				continue
			}
			v, err := strconv.ParseFloat(m[i+1], 64)
			if err != nil {
				continue rules //The regexp makes this rather unlikely, but then it's not a match.
			}
			vals[i] = v
		}
		if ret == nil {
			ret = make(mdwatch.Fields, 4)
		}
		for i, f := range r.fields {
			if f != skip {
				ret[f] = vals[i]
			}
		}
	}
	return ret
}

// ParseDynamicsLine returns the fields found in a line of a dynamics
// report (or status file). It returns an empty set if nothing matched.
func ParseDynamicsLine(line string) mdwatch.Fields {
	return apply(dynamicsGrammar, line)
}

// ParseMinimizationLine returns the step and total energy from a values line
// of a minimization report. It returns an empty set if the line is not one.
// The rest of the fields of a minimization record are set as missing by Accumulate.
func ParseMinimizationLine(line string) mdwatch.Fields {
	return apply(minimizationGrammar, line)
}

// Parser returns the line parser for reports of mode m. Reports of
// unknown mode are parsed as dynamics.
func Parser(m mdwatch.Mode) func(string) mdwatch.Fields {
	if m.Effective() == mdwatch.Minimization {
		return ParseMinimizationLine
	}
	return ParseDynamicsLine
}

// Accumulator folds partial records into a table, in order. A Step field opens
// a new record, with every other value missing. Other fields fill in the open
// record. Fields that come before the first Step are ignored, as they can't belong
// to any record.
type Accumulator struct {
	T    *mdwatch.Table
	cur  mdwatch.DataPoint
	open bool
}

// NewAccumulator returns an Accumulator with an empty table.
func NewAccumulator() *Accumulator {
	return &Accumulator{T: mdwatch.NewTable(64)}
}

// Add folds F into the records.
func (A *Accumulator) Add(F mdwatch.Fields) {
	if len(F) == 0 {
		return
	}
	if s, ok := F[mdwatch.Step]; ok {
		A.flush()
		A.cur = mdwatch.NewDataPoint(int(s))
		A.open = true
	}
	if !A.open {
		return
	}
	for k, v := range F {
		if k != mdwatch.Step {
			A.cur.Set(k, v)
		}
	}
}

func (A *Accumulator) flush() {
	if A.open {
		A.T.Append(A.cur)
		A.open = false
	}
}

// Table closes the open record, if any, and returns the table.
// The Accumulator can be used again after calling Table.
func (A *Accumulator) Table() *mdwatch.Table {
	A.flush()
	return A.T
}

// Accumulate folds the partial records in fs into a table.
func Accumulate(fs []mdwatch.Fields) *mdwatch.Table {
	A := NewAccumulator()
	for _, F := range fs {
		A.Add(F)
	}
	return A.Table()
}
