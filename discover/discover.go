// Package discover finds the files of an Amber job in its directory: reports (mdout),
// trajectories and topologies.
package discover

import (
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rmera/mdwatch"
)

var (
	reportRe = regexp.MustCompile(`.+\.m?d?out$`)
	trajRe   = regexp.MustCompile(`.+\.(nc|ncdf|mdcrd)(\.(gz|zst|bz2))?$`)
	topRes   = []*regexp.Regexp{
		regexp.MustCompile(`.+\.(prm)?top$`),
		regexp.MustCompile(`.+\.pa?rm7?$`),
	}
)

// A file whose name contains Noise looks like a report, but isn't one.
const Noise = "nohup.out"

// File is a regular file in a directory.
type File struct {
	Name    string
	ModTime time.Time
	Size    int64
}

// list returns the regular files in dir for which keep returns true.
func list(dir string, keep func(string) bool) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, mdwatch.FromOS(err, nil, dir, "list")
	}
	ret := make([]File, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !keep(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue //gone since ReadDir
		}
		ret = append(ret, File{Name: e.Name(), ModTime: info.ModTime(), Size: info.Size()})
	}
	return ret, nil
}

// newestFirst sorts by modification time, descending, and by name for equal times.
func newestFirst(fs []File) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].ModTime.Equal(fs[j].ModTime) {
			return fs[i].Name < fs[j].Name
		}
		return fs[i].ModTime.After(fs[j].ModTime)
	})
}

// IsReport returns true if name is the name of a report file.
func IsReport(name string) bool {
	return !strings.Contains(name, Noise) && reportRe.MatchString(name)
}

// Reports returns the report files in dir, the most recently modified first.
// The returned files are not classified (their Mode is Unknown).
func Reports(dir string) ([]mdwatch.ReportFile, error) {
	fs, err := list(dir, IsReport)
	if err != nil {
		return nil, mdwatch.ErrDecorate(err, "Reports")
	}
	newestFirst(fs)
	ret := make([]mdwatch.ReportFile, len(fs))
	for i, v := range fs {
		ret[i] = mdwatch.ReportFile{Name: v.Name, ModTime: v.ModTime}
	}
	return ret, nil
}

// NewFileAppeared returns true if cur, the result of a discovery, has more
// files than prev, the result of the previous one. That means that a new report
// appeared, and it is cur[0].
func NewFileAppeared(prev, cur []mdwatch.ReportFile) bool {
	return len(cur) > len(prev)
}

// Names returns the names of the files in reps, in the same order.
func Names(reps []mdwatch.ReportFile) []string {
	ret := make([]string, len(reps))
	for i, v := range reps {
		ret[i] = v.Name
	}
	return ret
}

// IsTrajectory returns true if name is the name of a trajectory file,
// NetCDF or ASCII, the latter maybe compressed.
func IsTrajectory(name string) bool {
	return trajRe.MatchString(name)
}

// Trajectories returns the trajectory files in dir, the most recently modified first.
func Trajectories(dir string) ([]File, error) {
	fs, err := list(dir, IsTrajectory)
	if err != nil {
		return nil, mdwatch.ErrDecorate(err, "Trajectories")
	}
	newestFirst(fs)
	return fs, nil
}

// IsTopology returns true if name is the name of an Amber topology file.
func IsTopology(name string) bool {
	for _, re := range topRes {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Topologies returns the topology files in dir, in directory (name) order.
// The first one is the one to use by default.
func Topologies(dir string) ([]File, error) {
	fs, err := list(dir, IsTopology)
	if err != nil {
		return nil, mdwatch.ErrDecorate(err, "Topologies")
	}
	return fs, nil
}
