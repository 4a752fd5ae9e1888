package mdout

import (
	"context"
	"fmt"
	"os"
	"strings"
	"path/filepath"
	"testing"

	"github.com/rmera/mdwatch"
)

func TestParseDynamicsLine(Te *testing.T) {
	F := ParseDynamicsLine("NSTEP = 100 TIME(PS) = 0.200 TEMP(K) = 300.00 PRESS = -12.5")
	want := mdwatch.Fields{mdwatch.Step: 100, mdwatch.Time: 0.2, mdwatch.Temperature: 300, mdwatch.Pressure: -12.5}
	if len(F) != len(want) {
		Te.Fatalf("got %v, want %v", F, want)
	}
	for k, v := range want {
		if F[k] != v {
			Te.Errorf("%s is %f, want %f", k, F[k], v)
		}
	}
	lines := map[string]mdwatch.Fields{
		" Etot   =    -72934.6478  EKtot   =     17983.6843  EPtot      =    -90918.3320": {mdwatch.Etot: -72934.6478, mdwatch.EKtot: 17983.6843, mdwatch.EPtot: -90918.3320},
		" EKCMT  =      8003.7349  VIRIAL  =      8029.7540  VOLUME     =    311568.7617": {mdwatch.Volume: 311568.7617},
		"                                                    Density    =         1.0146": {mdwatch.Density: 1.0146},
	}
	for l, want := range lines {
		F := ParseDynamicsLine(l)
		if len(F) != len(want) {
			Te.Errorf("%q: got %v, want %v", l, F, want)
			continue
		}
		for k, v := range want {
			if F[k] != v {
				Te.Errorf("%q: %s is %f, want %f", l, k, F[k], v)
			}
		}
	}
}

func TestParseMinimizationLine(Te *testing.T) {
	F := ParseMinimizationLine("     50      -4.0522E+04     1.9911E+00     3.5216E+01     O        4212")
	if len(F) != 2 || F[mdwatch.Step] != 50 || F[mdwatch.Etot] != -40522 {
		Te.Errorf("wrong fields %v", F)
	}
}

func TestParseMiss(Te *testing.T) {
	bad := []string{
		"",
		"   NSTEP       ENERGY          RMS            GMAX         NAME    NUMBER",
		" NSTEP = abc TIME(PS) = 0.200 TEMP(K) = 300.00 PRESS = -12.5",
		"| Total steps :   5000 | Completed :   1500 | Remaining :   3500",
		" BOND    =      546.0474  ANGLE   =     1467.5340  DIHED      =     1882.2150",
		"      A V E R A G E S   O V E R       3 S T E P S",
	}
	for _, l := range bad {
		if F := ParseDynamicsLine(l); len(F) != 0 {
			Te.Errorf("dynamics: %q should not match, got %v", l, F)
		}
		if F := ParseMinimizationLine(l); len(F) != 0 {
			Te.Errorf("minimization: %q should not match, got %v", l, F)
		}
	}
}

func TestAccumulate(Te *testing.T) {
	fs := []mdwatch.Fields{
		{mdwatch.Etot: 1}, //before any step, ignored
		{mdwatch.Step: 10, mdwatch.Etot: -5},
		{mdwatch.Step: 20},
		{mdwatch.Density: 1.01},
	}
	T := Accumulate(fs)
	if T.Len() != 2 {
		Te.Fatalf("expected 2 records, got %d", T.Len())
	}
	r0, r1 := T.Row(0), T.Row(1)
	if r0.Step != 10 || r0.Etot != -5 || !mdwatch.IsMissing(r0.Temperature) {
		Te.Errorf("wrong first record %+v", r0)
	}
	if r1.Step != 20 || r1.Density != 1.01 || !mdwatch.IsMissing(r1.Etot) {
		Te.Errorf("wrong second record %+v", r1)
	}
}

func TestClassify(Te *testing.T) {
	C := NewClassifierCache()
	R := C.Classify("../test", "md1.out")
	if R.Mode != mdwatch.Dynamics || !R.HasTimeStep || R.TimeStep != 0.002 {
		Te.Errorf("wrong classification for md1.out: %s", R)
	}
	R = C.Classify("../test", "min.out")
	if R.Mode != mdwatch.Minimization || R.HasTimeStep {
		Te.Errorf("wrong classification for min.out: %s", R)
	}
	if C.Len() != 2 {
		Te.Errorf("both files should be cached, %d are", C.Len())
	}
}

func TestClassifyIncomplete(Te *testing.T) {
	dir := Te.TempDir()
	name := filepath.Join(dir, "prod.out")
	if err := os.WriteFile(name, []byte("          Amber 20 PMEMD\n\nFile Assignments:\n"), 0o644); err != nil {
		Te.Fatal(err)
	}
	C := NewClassifierCache()
	if R := C.Classify(dir, "prod.out"); R.Mode != mdwatch.Unknown || C.Len() != 0 {
		Te.Errorf("an incomplete header should give an uncached Unknown mode, got %s", R)
	}
	if R := C.Classify(dir, "gone.out"); R.Mode != mdwatch.Unknown {
		Te.Errorf("a missing file should give an Unknown mode, got %s", R)
	}
	//the engine writes the rest of the header.
	if err := os.WriteFile(name, []byte(" &cntrl\n  imin=0, dt=0.004,\n /\n"), 0o644); err != nil {
		Te.Fatal(err)
	}
	if R := C.Classify(dir, "prod.out"); R.Mode != mdwatch.Dynamics || R.TimeStep != 0.004 {
		Te.Errorf("the file should be classified once its header is there, got %s", R)
	}
	//Cached from now on.
	os.Remove(name)
	if R := C.Classify(dir, "prod.out"); R.Mode != mdwatch.Dynamics {
		Te.Errorf("the cached result should be used, got %s", R)
	}
}

func TestClassifyNoTimeStepYet(Te *testing.T) {
	dir := Te.TempDir()
	name := filepath.Join(dir, "hmr.out")
	header := " &cntrl\n  imin = 0, nstlim = 5000,\n"
	if err := os.WriteFile(name, []byte(header), 0o644); err != nil {
		Te.Fatal(err)
	}
	C := NewClassifierCache()
	if R := C.Classify(dir, "hmr.out"); R.Mode != mdwatch.Dynamics || R.HasTimeStep || C.Len() != 0 {
		Te.Errorf("a dynamics without time step should not be cached yet, got %s (%d cached)", R, C.Len())
	}
	header += "  dt = 0.004,\n /\n   4.  RESULTS\n"
	if err := os.WriteFile(name, []byte(header), 0o644); err != nil {
		Te.Fatal(err)
	}
	if R := C.Classify(dir, "hmr.out"); R.Step() != 0.004 || C.Len() != 1 {
		Te.Errorf("the time step should be read once written, got %s", R)
	}
	//a whole header without dt keeps the default.
	if err := os.WriteFile(filepath.Join(dir, "nodt.out"), []byte(" imin = 0\n   4.  RESULTS\n"), 0o644); err != nil {
		Te.Fatal(err)
	}
	if R := C.Classify(dir, "nodt.out"); R.Step() != mdwatch.DefaultTimeStep || C.Len() != 2 {
		Te.Errorf("a complete header without dt should be cached with the default, got %s", R)
	}
}

// longReport writes a dynamics report with n records, each of 7 lines.
func longReport(Te *testing.T, name string, n int) {
	Te.Helper()
	var b strings.Builder
	b.WriteString(" &cntrl\n  imin = 0, dt = 0.002,\n /\n   4.  RESULTS\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, " NSTEP = %8d   TIME(PS) = %11.3f  TEMP(K) =   300.00  PRESS =     1.0\n", i*10, float64(i)*0.02)
		fmt.Fprintf(&b, " Etot   = %14.4f  EKtot   =     17983.6843  EPtot      =    -90918.3320\n", -float64(i))
		b.WriteString(" BOND   =       546.0474  ANGLE   =      1467.5340  DIHED      =      1882.2150\n")
		b.WriteString(" EKCMT  =      8003.7349  VIRIAL  =      8029.7540  VOLUME     =    311568.7617\n")
		b.WriteString("                                                    Density    =         1.0146\n")
		b.WriteString(" ------------------------------------------------------------------------------\n\n")
	}
	b.WriteString("      A V E R A G E S   O V E R    3000 S T E P S\n")
	if err := os.WriteFile(name, []byte(b.String()), 0o644); err != nil {
		Te.Fatal(err)
	}
}

func TestReadReportManyChunks(Te *testing.T) {
	dir := Te.TempDir()
	n := 3000 //about 5 chunks
	longReport(Te, filepath.Join(dir, "long.out"), n)
	C := NewClassifierCache()
	R := C.Classify(dir, "long.out")
	T, err := ReadReport(context.Background(), dir, R, 8)
	if err != nil {
		Te.Fatal(err)
	}
	if T.Len() != n {
		Te.Fatalf("expected %d records, got %d", n, T.Len())
	}
	for i := 0; i < n; i++ {
		r := T.Row(i)
		if r.Step != (i+1)*10 || r.Etot != -float64(i+1) {
			Te.Fatalf("record %d out of place: step %d, Etot %f", i, r.Step, r.Etot)
		}
	}
}

func TestReadReport(Te *testing.T) {
	C := NewClassifierCache()
	md := C.Classify("../test", "md1.out")
	T, err := ReadReport(context.Background(), "../test", md, 2)
	if err != nil {
		Te.Fatal(err)
	}
	if T.Len() != 3 {
		Te.Fatalf("md1.out has 3 records before the averages, got %d", T.Len())
	}
	last, _ := T.Last()
	if last.Step != 1500 || last.Temperature != 300.05 || last.Density != 1.0147 || last.Volume != 311560.12 {
		Te.Errorf("wrong last record %+v", last)
	}
	for i := 1; i < T.Len(); i++ {
		if T.Steps[i] < T.Steps[i-1] {
			Te.Errorf("records out of order: %v", T.Steps)
		}
	}
	mn := C.Classify("../test", "min.out")
	T, err = ReadReport(context.Background(), "../test", mn, 0)
	if err != nil {
		Te.Fatal(err)
	}
	if T.Len() != 3 || T.Steps[2] != 100 {
		Te.Fatalf("min.out has 3 records before the final results, got %v", T.Steps)
	}
	r := T.Row(1)
	if r.Etot != -40522 || !mdwatch.IsMissing(r.Temperature) || !mdwatch.IsMissing(r.Time) {
		Te.Errorf("wrong minimization record %+v", r)
	}
	if _, err := ReadReport(context.Background(), "../test", mdwatch.ReportFile{Name: "nope.out"}, 0); err == nil {
		Te.Errorf("reading a missing report should fail")
	}
}

func TestSimulations(Te *testing.T) {
	C := NewClassifierCache()
	reps := []mdwatch.ReportFile{{Name: "md1.out"}, {Name: "min.out"}}
	reps = C.ClassifyAll("../test", reps)
	S, err := Simulations("../test", reps, 2, DefaultScanLines)
	if err != nil {
		Te.Fatal(err)
	}
	if len(S) != 1 || S[0].Name != "md1.out" {
		Te.Fatalf("only md1.out should be in the set, got %v", S)
	}
	if d := S[0].Ns - 0.003; d > 1e-12 || d < -1e-12 {
		Te.Errorf("1500 steps of 2 fs are 0.003 ns, got %g", S[0].Ns)
	}
	//a file that disappeared is just left out.
	reps = append([]mdwatch.ReportFile{{Name: "md2.out", Mode: mdwatch.Dynamics}}, reps...)
	S, err = Simulations("../test", reps, 2, DefaultScanLines)
	if err != nil || len(S) != 1 {
		Te.Errorf("a missing file should be skipped silently, got %v, %v", S, err)
	}
}
