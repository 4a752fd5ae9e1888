package netcdf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmera/mdwatch"
	v3 "github.com/rmera/mdwatch/v3"
)

// ncWriter writes small Amber NetCDF files for the tests.
type ncWriter struct {
	version  byte
	natoms   int
	nframes  int
	noTime   bool //only coordinates
	double   bool //double precision coordinates
	numrecs  uint32
	truncate int //bytes to remove from the end
}

func pad(b *bytes.Buffer) {
	for b.Len()%4 != 0 {
		b.WriteByte(0)
	}
}

func putName(b *bytes.Buffer, s string) {
	binary.Write(b, binary.BigEndian, uint32(len(s)))
	b.WriteString(s)
	pad(b)
}

func u32(b *bytes.Buffer, v uint32) { binary.Write(b, binary.BigEndian, v) }

type ncvar struct {
	name  string
	dims  []uint32
	typ   uint32
	vsize uint32
}

func (W ncWriter) vars() []ncvar {
	ctyp, csize := uint32(ncFloat), uint32(4)
	if W.double {
		ctyp, csize = ncDouble, 8
	}
	coords := ncvar{"coordinates", []uint32{0, 2, 1}, ctyp, uint32(W.natoms*3) * csize}
	if W.noTime {
		return []ncvar{coords}
	}
	return []ncvar{
		{"time", []uint32{0}, ncFloat, 4},
		coords,
		{"cell_lengths", []uint32{0, 3}, ncDouble, 24},
	}
}

func (W ncWriter) header(begins []int64) []byte {
	var b bytes.Buffer
	b.WriteString("CDF")
	b.WriteByte(W.version)
	u32(&b, W.numrecs)
	u32(&b, tagDimension)
	u32(&b, 4)
	for _, d := range []struct {
		n string
		l int
	}{{"frame", 0}, {"spatial", 3}, {"atom", W.natoms}, {"cell_spatial", 3}} {
		putName(&b, d.n)
		u32(&b, uint32(d.l))
	}
	u32(&b, tagAttribute)
	u32(&b, 1)
	putName(&b, "Conventions")
	u32(&b, ncChar)
	u32(&b, 5)
	b.WriteString("AMBER")
	pad(&b)
	vars := W.vars()
	u32(&b, tagVariable)
	u32(&b, uint32(len(vars)))
	for i, v := range vars {
		putName(&b, v.name)
		u32(&b, uint32(len(v.dims)))
		for _, d := range v.dims {
			u32(&b, d)
		}
		u32(&b, 0) //no attributes
		u32(&b, 0)
		u32(&b, v.typ)
		u32(&b, v.vsize)
		if W.version == 1 {
			u32(&b, uint32(begins[i]))
		} else {
			binary.Write(&b, binary.BigEndian, uint64(begins[i]))
		}
	}
	return b.Bytes()
}

func coord(f, i, j int) float64 {
	return float64(f) + float64(i)*0.5 + float64(j)*0.25
}

func (W ncWriter) write(Te *testing.T, name string) {
	Te.Helper()
	vars := W.vars()
	begins := make([]int64, len(vars))
	hlen := int64(len(W.header(begins)))
	off := hlen
	for i, v := range vars {
		begins[i] = off
		off += int64(v.vsize)
	}
	var b bytes.Buffer
	b.Write(W.header(begins))
	for f := 0; f < W.nframes; f++ {
		if !W.noTime {
			binary.Write(&b, binary.BigEndian, float32(f)*2)
		}
		for i := 0; i < W.natoms; i++ {
			for j := 0; j < 3; j++ {
				if W.double {
					binary.Write(&b, binary.BigEndian, coord(f, i, j))
				} else {
					binary.Write(&b, binary.BigEndian, float32(coord(f, i, j)))
				}
			}
		}
		if !W.noTime {
			binary.Write(&b, binary.BigEndian, []float64{40, 41, 42})
		}
	}
	data := b.Bytes()
	data = data[:len(data)-W.truncate]
	if err := os.WriteFile(name, data, 0o644); err != nil {
		Te.Fatal(err)
	}
}

func readAll(Te *testing.T, name string) (*NCObj, []*v3.Matrix, []float64, []float64) {
	Te.Helper()
	N, err := New(name)
	if err != nil {
		Te.Fatal(err)
	}
	defer N.Close()
	var frames []*v3.Matrix
	var times []float64
	box := make([]float64, 3)
	for {
		m := v3.Zeros(N.Len())
		err := N.Next(m, box)
		if mdwatch.IsLastFrame(err) {
			break
		}
		if err != nil {
			Te.Fatal(err)
		}
		frames = append(frames, m)
		if t, ok := N.Time(); ok {
			times = append(times, t)
		}
	}
	return N, frames, times, box
}

func check(Te *testing.T, frames []*v3.Matrix, nframes, natoms int) {
	Te.Helper()
	if len(frames) != nframes {
		Te.Fatalf("expected %d frames, got %d", nframes, len(frames))
	}
	for f, m := range frames {
		for i := 0; i < natoms; i++ {
			for j := 0; j < 3; j++ {
				if m.At(i, j) != coord(f, i, j) {
					Te.Fatalf("frame %d atom %d coord %d is %f, want %f", f, i, j, m.At(i, j), coord(f, i, j))
				}
			}
		}
	}
}

func TestCDF1(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "prod.nc")
	ncWriter{version: 1, natoms: 3, nframes: 5, numrecs: 5}.write(Te, name)
	N, frames, times, box := readAll(Te, name)
	check(Te, frames, 5, 3)
	if N.NFrames() != 5 {
		Te.Errorf("NFrames should be 5, is %d", N.NFrames())
	}
	if len(times) != 5 || times[4] != 8 {
		Te.Errorf("wrong times %v", times)
	}
	if box[0] != 40 || box[2] != 42 {
		Te.Errorf("wrong box %v", box)
	}
}

func TestCDF2Streaming(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "prod.nc")
	//the last frame is half written.
	ncWriter{version: 2, natoms: 4, nframes: 5, numrecs: streaming, truncate: 30}.write(Te, name)
	N, frames, _, _ := readAll(Te, name)
	check(Te, frames, 4, 4)
	if N.NFrames() != 4 {
		Te.Errorf("NFrames should be 4, is %d", N.NFrames())
	}
}

func TestHeaderBehindData(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "prod.nc")
	//the header was last synced two frames ago.
	ncWriter{version: 1, natoms: 2, nframes: 6, numrecs: 4}.write(Te, name)
	_, frames, _, _ := readAll(Te, name)
	check(Te, frames, 4, 2)
}

func TestSingleRecordVariable(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "prod.nc")
	ncWriter{version: 1, natoms: 3, nframes: 3, numrecs: 3, noTime: true, double: true}.write(Te, name)
	N, frames, times, _ := readAll(Te, name)
	check(Te, frames, 3, 3)
	if len(times) != 0 {
		Te.Errorf("there are no times in this trajectory, got %v", times)
	}
	if _, ok := N.Time(); ok {
		Te.Errorf("Time should not be available")
	}
}

func TestSkipFrames(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "prod.nc")
	ncWriter{version: 1, natoms: 3, nframes: 4, numrecs: 4}.write(Te, name)
	N, err := New(name)
	if err != nil {
		Te.Fatal(err)
	}
	defer N.Close()
	N.Next(nil)
	N.Next(nil)
	m := v3.Zeros(3)
	if err := N.Next(m); err != nil {
		Te.Fatal(err)
	}
	if m.At(2, 1) != coord(2, 2, 1) {
		Te.Errorf("wrong third frame:\n%s", m)
	}
	if t, _ := N.Time(); math.Abs(t-4) > 1e-9 {
		Te.Errorf("wrong time %f", t)
	}
}

func TestNotNetCDF(Te *testing.T) {
	if _, err := New("../../test/md1.out"); !errors.Is(err, mdwatch.ErrInput) {
		Te.Errorf("expected ErrInput, got %v", err)
	}
	if _, err := New("../../test/nope.nc"); !errors.Is(err, mdwatch.ErrNotFound) {
		Te.Errorf("expected ErrNotFound, got %v", err)
	}
}
