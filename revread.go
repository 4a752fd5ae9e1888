/*
 * revread.go, part of mdwatch.
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
	"bytes"
	"io"
	"os"
)

const revBlock = 4096

// ReverseReader reads a text file from the end to the begining, one line at the time.
// It never keeps more than a block plus the longest line in memory.
// A ReverseReader can't be rewound: open a new one to start again from the end.
type ReverseReader struct {
	f    *os.File
	pos  int64  //offset of the first byte of the file that has not been read yet.
	rest []byte //bytes read and not yet returned
	done bool
	name string
}

// NewReverseReader opens filename for reading backwards.
func NewReverseReader(filename string) (*ReverseReader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, FromOS(err, nil, filename, "NewReverseReader")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, FromOS(err, nil, filename, "NewReverseReader")
	}
	R := &ReverseReader{f: f, pos: info.Size(), name: filename}
	if R.pos == 0 {
		R.done = true
		return R, nil
	}
	if err := R.readBlock(); err != nil {
		f.Close()
		return nil, ErrDecorate(err, "NewReverseReader")
	}
	//a final newline ends the last line, it doesn't start a new, empty, one.
	if len(R.rest) > 0 && R.rest[len(R.rest)-1] == '\n' {
		R.rest = R.rest[:len(R.rest)-1]
	}
	return R, nil
}

// readBlock puts the block before R.pos in front of R.rest.
func (R *ReverseReader) readBlock() error {
	n := int64(revBlock)
	if R.pos < n {
		n = R.pos
	}
	R.pos -= n
	block := make([]byte, n, int(n)+len(R.rest))
	got, err := R.f.ReadAt(block, R.pos)
	if err != nil && err != io.EOF {
		return FromOS(err, nil, R.name, "readBlock")
	}
	//the file was truncated since we got its size.
	R.rest = append(block[:got], R.rest...)
	return nil
}

// Next returns the previous line in the file, without the line terminator.
// When there are no more lines, it returns io.EOF.
func (R *ReverseReader) Next() (string, error) {
	for {
		if R.done {
			return "", io.EOF
		}
		if i := bytes.LastIndexByte(R.rest, '\n'); i >= 0 {
			line := dropCR(R.rest[i+1:])
			R.rest = R.rest[:i]
			return line, nil
		}
		if R.pos == 0 {
			R.done = true
			line := dropCR(R.rest)
			R.rest = nil
			return line, nil
		}
		if err := R.readBlock(); err != nil {
			return "", ErrDecorate(err, "Next")
		}
	}
}

// Close closes the underlying file.
func (R *ReverseReader) Close() error {
	return R.f.Close()
}

func dropCR(b []byte) string {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		b = b[:len(b)-1]
	}
	return string(b)
}

// ScanBack reads filename backwards and returns the first line (that is, the closest to
// the end of the file) for which match returns true. It gives up after maxlines lines,
// returning false. A maxlines <= 0 means no limit. Not finding the line is not an error.
func ScanBack(filename string, maxlines int, match func(string) bool) (string, bool, error) {
	R, err := NewReverseReader(filename)
	if err != nil {
		return "", false, ErrDecorate(err, "ScanBack")
	}
	defer R.Close()
	for i := 0; maxlines <= 0 || i < maxlines; i++ {
		line, err := R.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", false, ErrDecorate(err, "ScanBack")
		}
		if match(line) {
			return line, true, nil
		}
	}
	return "", false, nil
}
