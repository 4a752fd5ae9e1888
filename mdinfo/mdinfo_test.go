package mdinfo

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rmera/mdwatch"
)

func TestExtract(Te *testing.T) {
	lines, mod, err := ReadStatus("../test", DefaultName)
	if err != nil {
		Te.Fatal(err)
	}
	P := Extract(lines, mod, mod.Add(time.Minute))
	if !P.HasSteps || P.Total != 5000 || P.Completed != 1500 || P.Remaining != 3500 || P.Percent != 30 {
		Te.Errorf("wrong steps in %+v", P)
	}
	if !P.HasSpeed || P.NsPerDay != 42.98 {
		Te.Errorf("the speed should be the one for the last steps, got %+v", P)
	}
	if !P.HasETA || P.ETA != "14.1 seconds" {
		Te.Errorf("wrong ETA %q", P.ETA)
	}
	if P.Stale || P.Age != "1 minute ago" {
		Te.Errorf("a status file 1 minute old is not stale: %+v", P)
	}
	P = Extract(lines, mod, mod.Add(4*time.Minute))
	if !P.Stale {
		Te.Errorf("a status file 4 minutes old is stale")
	}
	P = Extractor{StaleAfter: 10 * time.Minute}.Extract(lines, mod, mod.Add(4*time.Minute))
	if P.Stale {
		Te.Errorf("with a 10 minute threshold, 4 minutes is not stale")
	}
}

func TestExtractPartial(Te *testing.T) {
	now := time.Now()
	lines := []string{
		"| Total steps :   0 | Completed :   0 | Remaining :   0",
		"| Average timings for last     500 steps:",
		"|     Elapsed(s) =       2.01 Per Step(ms) =       4.02",
	}
	P := Extract(lines, now, now)
	if !P.HasSteps || P.Percent != 0 {
		Te.Errorf("zero total steps should give 0%%, got %+v", P)
	}
	if P.HasSpeed || P.HasETA {
		Te.Errorf("the speed is not there, neither is the ETA: %+v", P)
	}
	//Nothing after the ETA line is read.
	lines = []string{
		"| Estimated time remaining:       2.3 hours.",
		"| Total steps :   10 | Completed :   5 | Remaining :   5",
	}
	P = Extract(lines, now, now)
	if P.HasSteps || P.ETA != "2.3 hours" {
		Te.Errorf("the scan should end at the ETA line: %+v", P)
	}
}

func TestReadStatusMissing(Te *testing.T) {
	_, _, err := ReadStatus(Te.TempDir(), DefaultName)
	if !errors.Is(err, mdwatch.ErrNotFound) {
		Te.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStreamer(Te *testing.T) {
	lines, _, err := ReadStatus("../test", DefaultName)
	if err != nil {
		Te.Fatal(err)
	}
	live := mdwatch.ReportFile{Name: "md1.out", Mode: mdwatch.Dynamics}
	S := NewStreamer()
	d := S.Tick(live, "md1.out", lines)
	if d.Len() != 1 {
		Te.Fatalf("the first tick should always append, got %d records", d.Len())
	}
	r := d.Row(0)
	if r.Step != 1500 || r.Etot != -72910.1112 || r.Density != 1.0147 {
		Te.Errorf("wrong record %+v", r)
	}
	if d := S.Tick(live, "md1.out", lines); d.Len() != 0 {
		Te.Errorf("an unchanged status file should append nothing, got %d", d.Len())
	}
	//the user is looking at another file
	next := strings.Replace(strings.Join(lines, "\n"), "1500", "2000", 1)
	if d := S.Tick(live, "min.out", strings.Split(next, "\n")); d.Len() != 0 {
		Te.Errorf("nothing is streamed when the live file is not displayed")
	}
	d = S.Tick(live, "md1.out", strings.Split(next, "\n"))
	if d.Len() != 1 || d.Steps[0] != 2000 {
		Te.Errorf("a new step should be appended, got %v", d.Steps)
	}
	old := strings.Replace(strings.Join(lines, "\n"), "1500", "1000", 1)
	if d := S.Tick(live, "md1.out", strings.Split(old, "\n")); d.Len() != 0 {
		Te.Errorf("steps in the series can't go back, got %v", d.Steps)
	}
	steps := S.Series().Steps
	for i := 1; i < len(steps); i++ {
		if steps[i] < steps[i-1] {
			Te.Errorf("steps in the series are not monotonic: %v", steps)
		}
	}
	if d := S.Tick(live, "md1.out", []string{"| Total steps :   10 | Completed :   5 | Remaining :   5"}); d.Len() != 0 {
		Te.Errorf("a status file without a step has no record")
	}
	S.Reset()
	if d := S.Tick(live, "md1.out", lines); d.Len() != 1 {
		Te.Errorf("after a reset, the record should be appended again")
	}
}
