/*
 * netcdf.go, part of mdwatch.
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

/*
Package netcdf reads Amber NetCDF trajectories. Only the classic and 64-bit offset
formats (CDF-1 and CDF-2), which are the ones written by the Amber engines, are
supported. Frames are read directly from the file with ReadAt, one at the time, so
the trajectory is never loaded in memory. The number of frames is taken from the
header, but never more than the file can hold, so a trajectory that is still being
written can be read up to its last complete frame.
*/
package netcdf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/rmera/mdwatch"
	v3 "github.com/rmera/mdwatch/v3"
)

const format = "netcdf"

// header tags
const (
	tagDimension = 0x0A
	tagVariable  = 0x0B
	tagAttribute = 0x0C
)

// streaming means that the number of records is not in the header.
const streaming = 0xFFFFFFFF

// NetCDF external types
const (
	ncByte   = 1
	ncChar   = 2
	ncShort  = 3
	ncInt    = 4
	ncFloat  = 5
	ncDouble = 6
)

func typeSize(t uint32) int64 {
	switch t {
	case ncByte, ncChar:
		return 1
	case ncShort:
		return 2
	case ncInt, ncFloat:
		return 4
	case ncDouble:
		return 8
	}
	return 0
}

type dimension struct {
	name   string
	length int64 //0 for the record dimension
}

type variable struct {
	name   string
	dims   []int
	attrs  map[string]string //only text attributes are kept
	typ    uint32
	vsize  int64
	begin  int64
	record bool
	nelems int64 //elements per record (or in total, for non-record variables)
}

// header is the parsed header of a classic NetCDF file.
type header struct {
	version  byte
	numrecs  int64
	dims     []dimension
	attrs    map[string]string
	vars     map[string]*variable
	recsize  int64
	recstart int64 //offset of the first record
	recused  int64 //bytes of a record up to the end of its last variable
}

// hreader reads the big-endian header fields, keeping the first error.
type hreader struct {
	r   *bufio.Reader
	err error
}

func (h *hreader) u32() uint32 {
	var v uint32
	if h.err == nil {
		h.err = binary.Read(h.r, binary.BigEndian, &v)
	}
	return v
}

func (h *hreader) u64() uint64 {
	var v uint64
	if h.err == nil {
		h.err = binary.Read(h.r, binary.BigEndian, &v)
	}
	return v
}

// padded reads n bytes, and the padding up to the next 4-byte boundary.
func (h *hreader) padded(n int64) []byte {
	if h.err != nil {
		return nil
	}
	if n < 0 || n > 1<<24 {
		h.err = fmt.Errorf("unreasonable header field length %d", n)
		return nil
	}
	b := make([]byte, (n+3)/4*4)
	if _, err := io.ReadFull(h.r, b); err != nil {
		h.err = err
		return nil
	}
	return b[:n]
}

func (h *hreader) name() string {
	return string(h.padded(int64(h.u32())))
}

// list reads the tag and number of elements of a header list. An absent list has 0 elements.
func (h *hreader) list(tag uint32) int {
	t := h.u32()
	n := h.u32()
	if h.err != nil {
		return 0
	}
	if t == 0 && n == 0 {
		return 0
	}
	if t != tag {
		h.err = fmt.Errorf("expected header tag %#x, found %#x", tag, t)
		return 0
	}
	return int(n)
}

func (h *hreader) attributes() map[string]string {
	n := h.list(tagAttribute)
	ret := make(map[string]string, n)
	for i := 0; i < n && h.err == nil; i++ {
		name := h.name()
		typ := h.u32()
		nelems := h.u32()
		vals := h.padded(int64(nelems) * typeSize(typ))
		if typ == ncChar {
			ret[name] = strings.TrimRight(string(vals), "\x00")
		}
	}
	return ret
}

func readHeader(r *bufio.Reader) (*header, error) {
	h := &hreader{r: r}
	magic := h.padded(4)
	if h.err != nil {
		return nil, h.err
	}
	if string(magic[:3]) != "CDF" {
		return nil, fmt.Errorf("not a NetCDF file")
	}
	H := &header{version: magic[3], vars: make(map[string]*variable)}
	if H.version != 1 && H.version != 2 {
		return nil, fmt.Errorf("unsupported NetCDF format version %d (only classic and 64-bit offset are supported)", H.version)
	}
	nr := h.u32()
	H.numrecs = int64(nr)
	if nr == streaming {
		H.numrecs = -1
	}
	ndims := h.list(tagDimension)
	for i := 0; i < ndims && h.err == nil; i++ {
		d := dimension{name: h.name()}
		d.length = int64(h.u32())
		H.dims = append(H.dims, d)
	}
	H.attrs = h.attributes()
	nvars := h.list(tagVariable)
	nrecvars := 0
	for i := 0; i < nvars && h.err == nil; i++ {
		V := &variable{name: h.name()}
		nd := int(h.u32())
		if nd > len(H.dims) {
			return nil, fmt.Errorf("variable %s has %d dimensions, the file has %d", V.name, nd, len(H.dims))
		}
		V.nelems = 1
		for j := 0; j < nd && h.err == nil; j++ {
			id := int(h.u32())
			if id >= len(H.dims) {
				return nil, fmt.Errorf("variable %s has an invalid dimension id %d", V.name, id)
			}
			V.dims = append(V.dims, id)
			if H.dims[id].length == 0 {
				if j != 0 {
					return nil, fmt.Errorf("variable %s: only the first dimension can be the record dimension", V.name)
				}
				V.record = true
				continue
			}
			V.nelems *= H.dims[id].length
		}
		V.attrs = h.attributes()
		V.typ = h.u32()
		V.vsize = int64(h.u32())
		if H.version == 1 {
			V.begin = int64(h.u32())
		} else {
			V.begin = int64(h.u64())
		}
		if typeSize(V.typ) == 0 && h.err == nil {
			return nil, fmt.Errorf("variable %s has unknown type %d", V.name, V.typ)
		}
		if V.record {
			nrecvars++
			H.recsize += V.vsize
			if H.recstart == 0 || V.begin < H.recstart {
				H.recstart = V.begin
			}
		}
		H.vars[V.name] = V
	}
	if h.err != nil {
		return nil, h.err
	}
	for _, V := range H.vars {
		if !V.record {
			continue
		}
		//With only one record variable, records are not padded.
		if nrecvars == 1 {
			H.recsize = V.nelems * typeSize(V.typ)
		}
		H.recused = max(H.recused, V.begin-H.recstart+V.nelems*typeSize(V.typ))
	}
	return H, nil
}

func (H *header) dimension(name string) (int64, bool) {
	for _, d := range H.dims {
		if d.name == name {
			return d.length, true
		}
	}
	return 0, false
}

// NCObj is an Amber NetCDF trajectory open for reading.
type NCObj struct {
	f           *os.File
	filename    string
	h           *header
	natoms      int
	nframes     int
	current     int
	readable    bool
	coords      *variable
	time        *variable
	cellLengths *variable
	buf         []byte
	lastTime    float64
	hasTime     bool
}

// New opens the Amber NetCDF trajectory filename.
func New(filename string) (*NCObj, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, mdwatch.FromOS(err, mdwatch.ErrInput, filename, "netcdf.New")
	}
	N := &NCObj{f: f, filename: filename}
	if err := N.init(); err != nil {
		f.Close()
		return nil, mdwatch.InputError("can't read NetCDF trajectory", filename, "netcdf.New", err)
	}
	N.readable = true
	return N, nil
}

func (N *NCObj) init() error {
	var err error
	N.h, err = readHeader(bufio.NewReader(N.f))
	if err != nil {
		return err
	}
	if c, ok := N.h.attrs["Conventions"]; ok && c != "AMBER" {
		return fmt.Errorf("not an Amber trajectory (Conventions: %s)", c)
	}
	var ok bool
	if N.coords, ok = N.h.vars["coordinates"]; !ok || !N.coords.record {
		return fmt.Errorf("no coordinates variable")
	}
	if N.coords.typ != ncFloat && N.coords.typ != ncDouble {
		return fmt.Errorf("coordinates are of type %d, not float or double", N.coords.typ)
	}
	natoms, ok := N.h.dimension("atom")
	if !ok || natoms*3 != N.coords.nelems {
		return fmt.Errorf("coordinates don't match the atom dimension")
	}
	N.natoms = int(natoms)
	if t, ok := N.h.vars["time"]; ok && t.record && (t.typ == ncFloat || t.typ == ncDouble) {
		N.time = t
	}
	if c, ok := N.h.vars["cell_lengths"]; ok && c.record && c.nelems == 3 && c.typ == ncDouble {
		N.cellLengths = c
	}
	info, err := N.f.Stat()
	if err != nil {
		return err
	}
	N.nframes = N.h.frames(info.Size())
	N.buf = make([]byte, N.coords.nelems*typeSize(N.coords.typ))
	return nil
}

// frames returns the number of complete records in a file of the given size.
func (H *header) frames(size int64) int {
	if H.recsize <= 0 || size < H.recstart+H.recused {
		return 0
	}
	//the last record doesn't need its padding to be complete.
	fit := (size-H.recstart-H.recused)/H.recsize + 1
	if H.numrecs >= 0 && H.numrecs < fit {
		return int(H.numrecs)
	}
	return int(fit)
}

// Readable returns true if the object is ready to be read from.
func (N *NCObj) Readable() bool {
	return N.readable
}

// Len returns the number of atoms per frame.
func (N *NCObj) Len() int {
	return N.natoms
}

// NFrames returns the number of frames in the trajectory.
func (N *NCObj) NFrames() int {
	return N.nframes
}

// Time returns the time, in ps, of the last frame read, if the trajectory has times.
func (N *NCObj) Time() (float64, bool) {
	return N.lastTime, N.hasTime
}

// Close closes the file.
func (N *NCObj) Close() error {
	N.readable = false
	return N.f.Close()
}

// offset returns the position of the record rec of V in the file.
func (N *NCObj) offset(V *variable, rec int) int64 {
	return V.begin + int64(rec)*N.h.recsize
}

func (N *NCObj) readValues(V *variable, rec int, buf []byte, dst []float64) error {
	if _, err := N.f.ReadAt(buf, N.offset(V, rec)); err != nil {
		return err
	}
	switch V.typ {
	case ncFloat:
		for i := range dst {
			dst[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(buf[4*i:])))
		}
	case ncDouble:
		for i := range dst {
			dst[i] = math.Float64frombits(binary.BigEndian.Uint64(buf[8*i:]))
		}
	}
	return nil
}

// Next reads the next frame into keep, or skips it if keep is nil. If box is given and
// its first element has at least 3 elements, the box lengths are put there, if the
// trajectory has them. At the end of the trajectory it returns a LastFrameError.
func (N *NCObj) Next(keep *v3.Matrix, box ...[]float64) error {
	if !N.readable {
		return mdwatch.InputError("trajectory not readable", N.filename, "netcdf.Next", nil)
	}
	if N.current >= N.nframes {
		N.readable = false
		return mdwatch.NewLastFrameError(N.filename, format, "netcdf.Next")
	}
	rec := N.current
	N.current++
	if N.time != nil {
		var t [1]float64
		b := make([]byte, typeSize(N.time.typ))
		if err := N.readValues(N.time, rec, b, t[:]); err != nil {
			return mdwatch.InputError(fmt.Sprintf("can't read time of frame %d", rec), N.filename, "netcdf.Next", err)
		}
		N.lastTime, N.hasTime = t[0], true
	}
	if keep == nil {
		return nil
	}
	if keep.NVecs() != N.natoms {
		return mdwatch.InputError(fmt.Sprintf("matrix has %d vectors for %d atoms", keep.NVecs(), N.natoms), N.filename, "netcdf.Next", nil)
	}
	data := keep.RawMatrix().Data
	if keep.RawMatrix().Stride != 3 {
		data = make([]float64, 3*N.natoms)
	}
	if err := N.readValues(N.coords, rec, N.buf, data[:3*N.natoms]); err != nil {
		return mdwatch.InputError(fmt.Sprintf("can't read frame %d", rec), N.filename, "netcdf.Next", err)
	}
	if keep.RawMatrix().Stride != 3 {
		for i := 0; i < N.natoms; i++ {
			for j := 0; j < 3; j++ {
				keep.Set(i, j, data[3*i+j])
			}
		}
	}
	if N.cellLengths != nil && len(box) > 0 && len(box[0]) >= 3 {
		b := make([]byte, 24)
		if err := N.readValues(N.cellLengths, rec, b, box[0][:3]); err != nil {
			return mdwatch.InputError(fmt.Sprintf("can't read box of frame %d", rec), N.filename, "netcdf.Next", err)
		}
	}
	return nil
}
