/*
 * table.go, part of mdwatch.
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

// Table is a column-aligned set of records. Every column has the same
// length as Steps; missing values are stored as Missing, never omitted.
type Table struct {
	Steps []int
	cols  [NFields][]float64 //index Step is unused, steps live in Steps
}

// NewTable returns an empty table with room for n records.
func NewTable(n int) *Table {
	T := new(Table)
	T.Steps = make([]int, 0, n)
	for f := Time; f < NFields; f++ {
		T.cols[f] = make([]float64, 0, n)
	}
	return T
}

// Len returns the number of records in the table.
func (T *Table) Len() int {
	if T == nil {
		return 0
	}
	return len(T.Steps)
}

// Append adds the record D at the end of the table.
func (T *Table) Append(D DataPoint) {
	T.Steps = append(T.Steps, D.Step)
	for f := Time; f < NFields; f++ {
		T.cols[f] = append(T.cols[f], D.Get(f))
	}
}

// AppendTable adds all the records in A at the end of T.
func (T *Table) AppendTable(A *Table) {
	if A == nil {
		return
	}
	T.Steps = append(T.Steps, A.Steps...)
	for f := Time; f < NFields; f++ {
		T.cols[f] = append(T.cols[f], A.cols[f]...)
	}
}

// Row returns the ith record. It panics if i is out of range.
func (T *Table) Row(i int) DataPoint {
	D := DataPoint{Step: T.Steps[i]}
	for f := Time; f < NFields; f++ {
		D.Set(f, T.cols[f][i])
	}
	return D
}

// Last returns the last record in the table, and false if the table is empty.
func (T *Table) Last() (DataPoint, bool) {
	if T.Len() == 0 {
		return DataPoint{}, false
	}
	return T.Row(T.Len() - 1), true
}

// Rows returns the records from i (inclusive) to the end, as a slice.
func (T *Table) Rows(from int) []DataPoint {
	if from < 0 {
		from = 0
	}
	if from >= T.Len() {
		return nil
	}
	ret := make([]DataPoint, 0, T.Len()-from)
	for i := from; i < T.Len(); i++ {
		ret = append(ret, T.Row(i))
	}
	return ret
}

// Column returns the values of the field f. The slice is shared with the table
// for every field except Step, for which a new slice is returned.
func (T *Table) Column(f Field) []float64 {
	if f == Step {
		ret := make([]float64, len(T.Steps))
		for i, v := range T.Steps {
			ret[i] = float64(v)
		}
		return ret
	}
	return T.cols[f]
}

// Reset empties the table, keeping its memory.
func (T *Table) Reset() {
	T.Steps = T.Steps[:0]
	for f := Time; f < NFields; f++ {
		T.cols[f] = T.cols[f][:0]
	}
}

// Copy returns a deep copy of the table.
func (T *Table) Copy() *Table {
	ret := NewTable(T.Len())
	ret.AppendTable(T)
	return ret
}
