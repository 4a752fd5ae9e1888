/*
 * mdwatch.go, part of mdwatch.
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
	"fmt"
	"math"
	"time"
)

// Mode is the kind of run that produced a report file.
type Mode int

const (
	Unknown Mode = iota
	Minimization
	Dynamics
)

func (m Mode) String() string {
	switch m {
	case Minimization:
		return "minimization"
	case Dynamics:
		return "dynamics"
	}
	return "unknown"
}

// Effective returns the mode that should be used to pick a parser.
// A file whose header was not (yet) understood is read as a dynamics
// report, which is the only default in the library.
func (m Mode) Effective() Mode {
	if m == Unknown {
		return Dynamics
	}
	return m
}

// DefaultTimeStep is the integration time step (ps) assumed for
// dynamics reports whose header does not give one.
const DefaultTimeStep = 0.002

// ReportFile is an mdout file in the monitored directory. Mode and TimeStep are
// set once, when the file header is classified, and never change afterwards.
type ReportFile struct {
	Name        string
	ModTime     time.Time
	Mode        Mode
	TimeStep    float64 //in ps, only meaningful if HasTimeStep
	HasTimeStep bool
}

// Step returns the time step of the report, or DefaultTimeStep if the
// header did not have it.
func (R ReportFile) Step() float64 {
	if R.HasTimeStep {
		return R.TimeStep
	}
	return DefaultTimeStep
}

func (R ReportFile) String() string {
	if R.HasTimeStep {
		return fmt.Sprintf("%s (%s, dt=%g ps)", R.Name, R.Mode, R.TimeStep)
	}
	return fmt.Sprintf("%s (%s)", R.Name, R.Mode)
}

// Field identifies one column of a record.
type Field int

const (
	Step Field = iota
	Time
	Temperature
	Pressure
	Etot
	EKtot
	EPtot
	Volume
	Density
	NFields
)

var fieldNames = [NFields]string{"Nsteps", "Time", "Temperature", "Pressure", "Etot", "EKtot", "EPtot", "Volume", "Density"}

func (f Field) String() string {
	if f < 0 || f >= NFields {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// FieldByName returns the field with the given column name, case sensitive,
// as returned by Field.String.
func FieldByName(name string) (Field, bool) {
	for i, v := range fieldNames {
		if v == name {
			return Field(i), true
		}
	}
	return NFields, false
}

// Fields is the partial record obtained from a single line. An empty
// Fields means the line did not match anything.
type Fields map[Field]float64

// Merge copies the values in g into F, overwriting those already present.
func (F Fields) Merge(g Fields) {
	for k, v := range g {
		F[k] = v
	}
}

// Missing marks a value that is not present in a record.
var Missing = math.NaN()

// IsMissing returns true if f is the Missing sentinel.
func IsMissing(f float64) bool {
	return math.IsNaN(f)
}

// DataPoint is one record read from a report or status file. Minimization
// records only carry Step and Etot, the other values are Missing.
type DataPoint struct {
	Step        int
	Time        float64
	Temperature float64
	Pressure    float64
	Etot        float64
	EKtot       float64
	EPtot       float64
	Volume      float64
	Density     float64
}

// NewDataPoint returns a record with the given step and every other value Missing.
func NewDataPoint(step int) DataPoint {
	return DataPoint{
		Step:        step,
		Time:        Missing,
		Temperature: Missing,
		Pressure:    Missing,
		Etot:        Missing,
		EKtot:       Missing,
		EPtot:       Missing,
		Volume:      Missing,
		Density:     Missing,
	}
}

// Get returns the value of the field f.
func (D DataPoint) Get(f Field) float64 {
	switch f {
	case Step:
		return float64(D.Step)
	case Time:
		return D.Time
	case Temperature:
		return D.Temperature
	case Pressure:
		return D.Pressure
	case Etot:
		return D.Etot
	case EKtot:
		return D.EKtot
	case EPtot:
		return D.EPtot
	case Volume:
		return D.Volume
	case Density:
		return D.Density
	}
	panic(fmt.Sprintf("mdwatch: invalid field %d", int(f)))
}

// Set sets the value of the field f.
func (D *DataPoint) Set(f Field, v float64) {
	switch f {
	case Step:
		D.Step = int(v)
	case Time:
		D.Time = v
	case Temperature:
		D.Temperature = v
	case Pressure:
		D.Pressure = v
	case Etot:
		D.Etot = v
	case EKtot:
		D.EKtot = v
	case EPtot:
		D.EPtot = v
	case Volume:
		D.Volume = v
	case Density:
		D.Density = v
	default:
		panic(fmt.Sprintf("mdwatch: invalid field %d", int(f)))
	}
}

// Equal compares two records field by field. Two Missing values are equal.
func (D DataPoint) Equal(E DataPoint) bool {
	if D.Step != E.Step {
		return false
	}
	for f := Time; f < NFields; f++ {
		a, b := D.Get(f), E.Get(f)
		if IsMissing(a) && IsMissing(b) {
			continue
		}
		if a != b {
			return false
		}
	}
	return true
}

// ProgressSnapshot is the state of the running job as given by the status file.
// It is replaced as a whole every poll.
type ProgressSnapshot struct {
	Total     int
	Completed int
	Remaining int
	Percent   float64
	NsPerDay  float64
	ETA       string
	Updated   time.Time //modification time of the status file
	Age       string    //Updated, in words
	Stale     bool      //the status file was not updated recently
	HasSteps  bool
	HasSpeed  bool
	HasETA    bool
}
