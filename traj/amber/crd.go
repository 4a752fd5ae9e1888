/*
 * crd.go, part of mdwatch.
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

// Package amber reads ASCII Amber trajectories (mdcrd), plain or compressed
// with gzip, zstd or bzip2.
package amber

import (
	"bufio"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/rmera/mdwatch"
	v3 "github.com/rmera/mdwatch/v3"
)

const (
	fieldWidth = 8  //10F8.3
	perLine    = 10 //values per line
	format     = "mdcrd"
)

// Box line presence
const (
	boxUnknown = iota
	boxNo
	boxYes
)

// CrdObj is a container for an ASCII Amber trajectory file.
type CrdObj struct {
	natoms   int
	readable bool //Is it ready to be read?
	filename string
	f        *os.File
	dec      io.Closer //the decompressor, if any.
	crd      *bufio.Reader
	box      int
	pending  string //a line already read that belongs to the next frame
	havePend bool
	vals     []float64
	frames   int //frames read so far
}

// zstd.Decoder.Close has no return value.
type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// source opens the decompressor for the extension of C.filename, if needed, on top of the file.
func (C *CrdObj) source() (io.Reader, error) {
	buf := bufio.NewReader(C.f)
	switch {
	case strings.HasSuffix(C.filename, ".gz"):
		r, err := gzip.NewReader(buf)
		if err != nil {
			return nil, err
		}
		C.dec = r
		return r, nil
	case strings.HasSuffix(C.filename, ".zst"):
		r, err := zstd.NewReader(buf)
		if err != nil {
			return nil, err
		}
		C.dec = zstdCloser{r}
		return r, nil
	case strings.HasSuffix(C.filename, ".bz2"):
		return bzip2.NewReader(buf), nil
	}
	return buf, nil
}

// New opens the trajectory filename, with ats atoms per frame. The presence of the
// box line after each frame is detected on the first frame.
func New(filename string, ats int) (*CrdObj, error) {
	var err error
	if ats < 1 {
		return nil, mdwatch.InputError(fmt.Sprintf("invalid number of atoms: %d", ats), filename, "amber.New", nil)
	}
	C := &CrdObj{natoms: ats, filename: filename}
	C.f, err = os.Open(filename)
	if err != nil {
		return nil, mdwatch.FromOS(err, mdwatch.ErrInput, filename, "amber.New")
	}
	r, err := C.source()
	if err != nil {
		C.f.Close()
		return nil, mdwatch.InputError("can't decompress trajectory", filename, "amber.New", err)
	}
	C.crd = bufio.NewReader(r)
	//The first line is just a title.
	if _, err = C.crd.ReadString('\n'); err != nil {
		C.Close()
		return nil, mdwatch.InputError("can't read title line", filename, "amber.New", err)
	}
	C.vals = make([]float64, 0, perLine)
	C.readable = true
	return C, nil
}

// Readable returns true if the object is ready to be read from
// false otherwise. It doesn't guarantee that there is something
// to read.
func (C *CrdObj) Readable() bool {
	return C.readable
}

// Len returns the number of atoms per frame.
func (C *CrdObj) Len() int {
	return C.natoms
}

// Close closes the file. The object can't be read after this.
func (C *CrdObj) Close() error {
	C.readable = false
	if C.dec != nil {
		C.dec.Close()
	}
	return C.f.Close()
}

// line returns the next line, without the line terminator. A last line without
// its terminator is still being written, so it gives io.EOF.
func (C *CrdObj) line() (string, error) {
	if C.havePend {
		C.havePend = false
		return C.pending, nil
	}
	s, err := C.crd.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// values parses a fixed-width line into C.vals. Numbers in an mdcrd
// can touch each other, so the line can't be split by spaces.
func (C *CrdObj) values(s string) error {
	C.vals = C.vals[:0]
	for i := 0; i < len(s); i += fieldWidth {
		end := min(i+fieldWidth, len(s))
		field := strings.TrimSpace(s[i:end])
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return err
		}
		C.vals = append(C.vals, v)
	}
	return nil
}

// Next reads the next frame into keep, or discards it if keep is nil.
// If the frame has a box line, and box is given with at least 3 elements,
// the box lengths are put in box[0]. A frame cut short by the end of the file
// (i.e. one the engine is still writing) is not returned, and is taken as the end.
func (C *CrdObj) Next(keep *v3.Matrix, box ...[]float64) error {
	if !C.readable {
		return mdwatch.InputError("trajectory not readable", C.filename, "amber.Next", nil)
	}
	if keep != nil && keep.NVecs() != C.natoms {
		return mdwatch.InputError(fmt.Sprintf("matrix has %d vectors for %d atoms", keep.NVecs(), C.natoms), C.filename, "amber.Next", nil)
	}
	total := 3 * C.natoms
	read := 0
	for read < total {
		s, err := C.line()
		if err == io.EOF {
			C.readable = false
			return mdwatch.NewLastFrameError(C.filename, format, "amber.Next")
		}
		if err != nil {
			C.readable = false
			return mdwatch.InputError("error reading frame", C.filename, "amber.Next", err)
		}
		if err := C.values(s); err != nil {
			C.readable = false
			return mdwatch.InputError(fmt.Sprintf("wrong coordinates in frame %d", C.frames), C.filename, "amber.Next", err)
		}
		if read+len(C.vals) > total {
			C.readable = false
			return mdwatch.InputError(fmt.Sprintf("frame %d has more than %d coordinates. Wrong topology?", C.frames, total), C.filename, "amber.Next", nil)
		}
		if keep != nil {
			for _, v := range C.vals {
				keep.Set(read/3, read%3, v)
				read++
			}
		} else {
			read += len(C.vals)
		}
	}
	C.frames++
	return C.nextBox(box)
}

// nextBox reads the box line that may follow a frame.
func (C *CrdObj) nextBox(box [][]float64) error {
	if C.box == boxNo {
		return nil
	}
	s, err := C.line()
	if err == io.EOF {
		return nil //the next call to Next will find it.
	}
	if err != nil {
		return mdwatch.InputError("error reading box", C.filename, "amber.nextBox", err)
	}
	if err := C.values(s); err != nil {
		return mdwatch.InputError("wrong box", C.filename, "amber.nextBox", err)
	}
	if C.box == boxUnknown {
		C.box = boxNo
		//A line with 3 values can only be the start of the next frame if there is only 1 atom.
		if len(C.vals) == 3 && C.natoms > 1 {
			C.box = boxYes
		}
	}
	if C.box == boxNo {
		C.pending = s
		C.havePend = true
		return nil
	}
	if len(box) > 0 && len(box[0]) >= 3 && len(C.vals) >= 3 {
		copy(box[0], C.vals[:3])
	}
	return nil
}
