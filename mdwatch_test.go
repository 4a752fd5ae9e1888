package mdwatch

import (
	"errors"
	"io/fs"
	"math"
	"testing"
)

func TestDataPointEqual(Te *testing.T) {
	a := NewDataPoint(10)
	a.Etot = -100.5
	b := NewDataPoint(10)
	b.Etot = -100.5
	if !a.Equal(b) {
		Te.Errorf("records with the same values and the same missing fields should be equal")
	}
	b.Temperature = 300
	if a.Equal(b) {
		Te.Errorf("a missing value should not equal a present one")
	}
	b = a
	b.Step = 11
	if a.Equal(b) {
		Te.Errorf("different steps should not be equal")
	}
}

func TestTableColumns(Te *testing.T) {
	T := NewTable(0)
	for i := 0; i < 3; i++ {
		d := NewDataPoint(i * 100)
		d.Temperature = 300 + float64(i)
		T.Append(d)
	}
	if T.Len() != 3 {
		Te.Fatalf("expected 3 rows, got %d", T.Len())
	}
	for f := Time; f < NFields; f++ {
		if len(T.Column(f)) != len(T.Steps) {
			Te.Errorf("column %s has length %d, steps have %d", f, len(T.Column(f)), len(T.Steps))
		}
	}
	last, ok := T.Last()
	if !ok || last.Step != 200 || last.Temperature != 302 || !IsMissing(last.Density) {
		Te.Errorf("wrong last row: %+v", last)
	}
	if rows := T.Rows(1); len(rows) != 2 || rows[0].Step != 100 {
		Te.Errorf("wrong rows from 1: %+v", rows)
	}
	C := T.Copy()
	T.Reset()
	if T.Len() != 0 || C.Len() != 3 {
		Te.Errorf("reset should only affect the original table")
	}
}

func TestFieldNames(Te *testing.T) {
	for f := Step; f < NFields; f++ {
		g, ok := FieldByName(f.String())
		if !ok || g != f {
			Te.Errorf("field %d does not round trip through its name", f)
		}
	}
}

func TestSimulationSet(Te *testing.T) {
	S := SimulationSet{{"md2.out", 3}, {"md1.out", 1}}
	if S.Total() != 4 {
		Te.Errorf("total should be 4, got %f", S.Total())
	}
	fr := S.Fractions()
	if math.Abs(fr[0]-0.75) > 1e-12 || math.Abs(fr[1]-0.25) > 1e-12 {
		Te.Errorf("wrong fractions %v", fr)
	}
}

func TestDeviationStats(Te *testing.T) {
	D := &DeviationSeries{Times: []float64{0, 1, 2}, Values: []float64{0, 1, 2}}
	st := D.Stats()
	if st.Mean != 1 || st.Max != 2 || math.Abs(st.StdDev-1) > 1e-12 {
		Te.Errorf("wrong stats %+v", st)
	}
}

func TestErrorKinds(Te *testing.T) {
	err := FromOS(fs.ErrNotExist, ErrInput, "md.out", "TestErrorKinds")
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, fs.ErrNotExist) {
		Te.Errorf("a missing file should be ErrNotFound and fs.ErrNotExist: %v", err)
	}
	var wrapped error = InputError("atom count mismatch", "prod.nc", "Compute", nil)
	ErrDecorate(wrapped, "caller")
	if !errors.Is(wrapped, ErrInput) || errors.Is(wrapped, ErrNotFound) {
		Te.Errorf("wrong kind for %v", wrapped)
	}
	var d Decorator
	if !errors.As(wrapped, &d) || len(d.Decorate("")) != 2 {
		Te.Errorf("the error should carry two decorations: %v", wrapped)
	}
	if !IsLastFrame(NewLastFrameError("prod.nc", "NetCDF", "Next")) {
		Te.Errorf("NewLastFrameError should be a LastFrameError")
	}
}
