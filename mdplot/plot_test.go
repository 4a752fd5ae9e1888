package mdplot

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rmera/mdwatch"
)

var pngMagic = []byte("\x89PNG")

func TestSeries(Te *testing.T) {
	T := mdwatch.NewTable(3)
	for i := 1; i <= 3; i++ {
		D := mdwatch.NewDataPoint(i * 500)
		D.Time = float64(i)
		D.Temperature = 300 + float64(i)
		T.Append(D)
	}
	p, err := Series(T, mdwatch.Temperature, "md1.out")
	if err != nil {
		Te.Fatal(err)
	}
	if p.X.Label.Text != "Time (ns)" {
		Te.Errorf("dynamics should be plotted against time, got %q", p.X.Label.Text)
	}
	var b bytes.Buffer
	if err := PNG(&b, p, 0, 0); err != nil {
		Te.Fatal(err)
	}
	if !bytes.HasPrefix(b.Bytes(), pngMagic) {
		Te.Errorf("not a PNG image")
	}
	//all missing.
	if _, err := Series(T, mdwatch.Density, ""); !errors.Is(err, mdwatch.ErrInput) {
		Te.Errorf("expected ErrInput, got %v", err)
	}
	if _, err := Series(T, mdwatch.Step, ""); err == nil {
		Te.Errorf("plotting the step should fail")
	}
}

func TestMinimizationSeries(Te *testing.T) {
	T := mdwatch.NewTable(2)
	for i, e := range []float64{-100, -150} {
		D := mdwatch.NewDataPoint(i * 50)
		D.Etot = e
		T.Append(D)
	}
	p, err := Series(T, mdwatch.Etot, "min.out")
	if err != nil {
		Te.Fatal(err)
	}
	if p.X.Label.Text != "Step" {
		Te.Errorf("minimizations should be plotted against the step, got %q", p.X.Label.Text)
	}
}

func TestDeviationAndDuration(Te *testing.T) {
	D := &mdwatch.DeviationSeries{Times: []float64{0, 10, 20}, Values: []float64{0, 1.2, 1.5}, Stride: 1, Frames: 3}
	p, err := Deviation(D, "RMSD")
	if err != nil {
		Te.Fatal(err)
	}
	var b bytes.Buffer
	if err := PNG(&b, p, 0, 0); err != nil || !bytes.HasPrefix(b.Bytes(), pngMagic) {
		Te.Errorf("can't write the RMSD plot: %v", err)
	}
	S := mdwatch.SimulationSet{{Name: "md1.out", Ns: 10}, {Name: "md2.out", Ns: 2.5}}
	p, err = Duration(S, "")
	if err != nil {
		Te.Fatal(err)
	}
	b.Reset()
	if err := PNG(&b, p, 0, 0); err != nil || !bytes.HasPrefix(b.Bytes(), pngMagic) {
		Te.Errorf("can't write the duration plot: %v", err)
	}
	if _, err := Duration(nil, ""); err == nil {
		Te.Errorf("an empty set should give an error")
	}
}

func TestColors(Te *testing.T) {
	a, b := colors(0, 2), colors(1, 2)
	if a == b {
		Te.Errorf("two series should have different colors")
	}
	if c := colors(0, 0); c.A != 255 {
		Te.Errorf("wrong color %v", c)
	}
}
