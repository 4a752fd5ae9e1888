package rmsd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rmera/mdwatch"
)

// two glycines and a water.
func testTopology() *mdwatch.Topology {
	var ats []*mdwatch.Atom
	id := 1
	for r, res := range []struct {
		name  string
		atoms []string
	}{
		{"GLY", []string{"N", "H", "CA", "HA2", "HA3", "C", "O"}},
		{"GLY", []string{"N", "H", "CA", "HA2", "HA3", "C", "O"}},
		{"WAT", []string{"O", "H1", "H2"}},
	} {
		for _, n := range res.atoms {
			ats = append(ats, &mdwatch.Atom{Name: n, Id: id, Molname: res.name, Molid: r + 1})
			id++
		}
	}
	return mdwatch.NewTopology("test", ats)
}

// reference coordinates of atom i.
func refCoord(i, j int) float64 {
	return float64((i*7+j*3)%11) - 5
}

// writeTraj writes an mdcrd where, in each frame, the atoms are displaced
// along x by the corresponding value of shifts.
func writeTraj(Te *testing.T, name string, natoms int, shifts []float64) {
	Te.Helper()
	var b bytes.Buffer
	b.WriteString("test trajectory\n")
	for _, s := range shifts {
		n := 0
		for i := 0; i < natoms; i++ {
			for j := 0; j < 3; j++ {
				v := refCoord(i, j)
				if j == 0 {
					v += s
				}
				fmt.Fprintf(&b, "%8.3f", v)
				n++
				if n%10 == 0 {
					b.WriteString("\n")
				}
			}
		}
		if n%10 != 0 {
			b.WriteString("\n")
		}
	}
	if err := os.WriteFile(name, b.Bytes(), 0o644); err != nil {
		Te.Fatal(err)
	}
}

func age(Te *testing.T, name string, d time.Duration) {
	Te.Helper()
	t := time.Now().Add(-d)
	if err := os.Chtimes(name, t, t); err != nil {
		Te.Fatal(err)
	}
}

func TestStride(Te *testing.T) {
	for _, v := range []struct{ total, target, stride int }{
		{5000, 200, 25},
		{150, 200, 1},
		{200, 200, 1},
		{401, 200, 2},
		{10, 0, 1},
	} {
		if s := Stride(v.total, v.target); s != v.stride {
			Te.Errorf("Stride(%d, %d) should be %d, is %d", v.total, v.target, v.stride, s)
		}
	}
}

func TestBackboneIndexes(Te *testing.T) {
	idx, err := BackboneIndexes(testTopology())
	if err != nil {
		Te.Fatal(err)
	}
	expected := []int{0, 2, 5, 6, 7, 9, 12, 13}
	if fmt.Sprint(idx) != fmt.Sprint(expected) {
		Te.Errorf("expected %v, got %v", expected, idx)
	}
	water := mdwatch.NewTopology("", []*mdwatch.Atom{{Name: "O", Molname: "WAT"}})
	if _, err := BackboneIndexes(water); !errors.Is(err, mdwatch.ErrInput) {
		Te.Errorf("expected ErrInput, got %v", err)
	}
}

func TestComputeJoined(Te *testing.T) {
	dir := Te.TempDir()
	T := testTopology()
	older := filepath.Join(dir, "b.mdcrd")
	newer := filepath.Join(dir, "a.mdcrd")
	writeTraj(Te, older, T.Len(), []float64{0, 1, 2})
	writeTraj(Te, newer, T.Len(), []float64{3, 4})
	age(Te, older, 2*time.Hour)
	age(Te, newer, time.Hour)
	E := &Engine{TargetFrames: DefaultTargetFrames, Workers: 2}
	D, err := E.Compute(context.Background(), T, []string{newer, older})
	if err != nil {
		Te.Fatal(err)
	}
	if D.Len() != 5 || D.Frames != 5 || D.Stride != 1 || D.Reference != 0 {
		Te.Fatalf("wrong series %+v", D)
	}
	for i, v := range D.Values {
		if math.Abs(v-float64(i)) > 1e-6 {
			Te.Errorf("point %d should be %d, is %f", i, i, v)
		}
		if D.Times[i] != float64(i) {
			Te.Errorf("mdcrd frames should be indexed by frame number, got %v", D.Times)
		}
	}
	//with the fit, a translation is no deviation at all.
	E.Fit = true
	D, err = E.Compute(context.Background(), T, []string{newer, older})
	if err != nil {
		Te.Fatal(err)
	}
	for i, v := range D.Values {
		if v > 1e-3 {
			Te.Errorf("point %d should be 0 after the fit, is %f", i, v)
		}
	}
}

func TestComputeStride(Te *testing.T) {
	T := testTopology()
	name := filepath.Join(Te.TempDir(), "prod.mdcrd")
	shifts := make([]float64, 11)
	for i := range shifts {
		shifts[i] = float64(i) / 10
	}
	writeTraj(Te, name, T.Len(), shifts)
	E := &Engine{TargetFrames: 5}
	D, err := E.Compute(context.Background(), T, []string{name})
	if err != nil {
		Te.Fatal(err)
	}
	if D.Stride != 2 || D.Frames != 11 {
		Te.Fatalf("expected a stride of 2 over 11 frames, got %d over %d", D.Stride, D.Frames)
	}
	expected := []float64{0, 2, 4, 6, 8, 10}
	if D.Len() != len(expected) {
		Te.Fatalf("expected %d points, got %d", len(expected), D.Len())
	}
	for i, v := range expected {
		if D.Times[i] != v || math.Abs(D.Values[i]-v/10) > 1e-6 {
			Te.Errorf("point %d is (%f, %f), want (%f, %f)", i, D.Times[i], D.Values[i], v, v/10)
		}
	}
	st := D.Stats()
	if math.Abs(st.Max-1) > 1e-6 || math.Abs(st.Mean-0.5) > 1e-6 {
		Te.Errorf("wrong stats %+v", st)
	}
}

func TestComputeErrors(Te *testing.T) {
	dir := Te.TempDir()
	T := testTopology()
	E := NewEngine()
	wrong := filepath.Join(dir, "wrong.mdcrd")
	writeTraj(Te, wrong, T.Len()+1, []float64{0, 1})
	if _, err := E.Compute(context.Background(), T, []string{wrong}); !errors.Is(err, mdwatch.ErrInput) {
		Te.Errorf("a trajectory of another system should give ErrInput, got %v", err)
	}
	if _, err := E.Compute(context.Background(), T, []string{filepath.Join(dir, "nope.nc")}); !errors.Is(err, mdwatch.ErrNotFound) {
		Te.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := E.Compute(context.Background(), T, nil); !errors.Is(err, mdwatch.ErrInput) {
		Te.Errorf("expected ErrInput, got %v", err)
	}
	if _, err := OpenTraj("prod.dcd", 3); !errors.Is(err, mdwatch.ErrInput) {
		Te.Errorf("expected ErrInput, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	good := filepath.Join(dir, "good.mdcrd")
	writeTraj(Te, good, T.Len(), []float64{0, 1})
	if _, err := E.Compute(ctx, T, []string{good}); !errors.Is(err, context.Canceled) {
		Te.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestComputeFiles(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "ala2.mdcrd")
	writeTraj(Te, name, 13, []float64{0, 0.5})
	D, err := NewEngine().ComputeFiles(context.Background(), "../test/ala2.prmtop", []string{name})
	if err != nil {
		Te.Fatal(err)
	}
	if D.Len() != 2 || D.Values[1] > 1e-3 {
		Te.Errorf("wrong series %+v", D)
	}
}
