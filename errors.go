/*
 * errors.go, part of mdwatch.
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
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Kinds of errors. Errors returned by the library can be compared
// against these with errors.Is.
var (
	// ErrNotFound: the monitored directory, or a file in it, disappeared.
	ErrNotFound = errors.New("not found")
	// ErrInput: a topology or trajectory is unreadable or does not match the rest of the input.
	ErrInput = errors.New("invalid input")
	// ErrResourceBusy: a resource needed at start-up (i.e. a port) is already in use.
	ErrResourceBusy = errors.New("resource busy")
)

// Error is the general structure for errors in this library.
// It fullfills the Decorator and TrajError interfaces.
type Error struct {
	message  string
	filename string   //the input file that has problems, or empty string if none.
	deco     []string //the functions the error went through
	critical bool
	kind     error //one of the Err* sentinels, or nil
	cause    error //the error that originated this one, or nil
}

// NewError returns an error of the given kind (one of the Err* values, or nil).
// cause can be nil.
func NewError(kind error, message, filename, caller string, cause error) *Error {
	return &Error{message: message, filename: filename, deco: []string{caller}, critical: true, kind: kind, cause: cause}
}

// NotFound returns an ErrNotFound error for filename.
func NotFound(filename, caller string, cause error) *Error {
	return NewError(ErrNotFound, "file or directory not found", filename, caller, cause)
}

// InputError returns an ErrInput error for filename.
func InputError(message, filename, caller string, cause error) *Error {
	return NewError(ErrInput, message, filename, caller, cause)
}

// FromOS turns an error from the os package into an *Error, of kind ErrNotFound
// if the file does not exist, and kind (which can be nil) otherwise.
func FromOS(err error, kind error, filename, caller string) *Error {
	if errors.Is(err, fs.ErrNotExist) {
		return NotFound(filename, caller, err)
	}
	return NewError(kind, err.Error(), filename, caller, err)
}

func (err *Error) Error() string {
	var b strings.Builder
	if err.filename != "" {
		fmt.Fprintf(&b, "%s: ", err.filename)
	}
	b.WriteString(err.message)
	if err.cause != nil && !strings.Contains(err.message, err.cause.Error()) {
		fmt.Fprintf(&b, ": %v", err.cause)
	}
	if len(err.deco) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(err.deco, " < "))
	}
	return b.String()
}

// Decorate adds the name of the caller to the trail of the error, and returns the trail.
// If given an empty string it just returns the trail.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// Unwrap returns the kind and the cause of the error, the ones that are not nil.
func (err *Error) Unwrap() []error {
	ret := make([]error, 0, 2)
	if err.kind != nil {
		ret = append(ret, err.kind)
	}
	if err.cause != nil {
		ret = append(ret, err.cause)
	}
	return ret
}

// FileName returns the name of the file with problems, or an empty string.
func (err *Error) FileName() string { return err.filename }

// Critical is false for errors that still allow using the object that returned them.
func (err *Error) Critical() bool { return err.critical }

// Format returns a short name for the kind of error.
func (err *Error) Format() string {
	if err.kind == nil {
		return "mdwatch"
	}
	return err.kind.Error()
}

// ErrDecorate adds caller to the trail of err if err implements Decorator,
// and returns err. nil errors are returned as nil.
func ErrDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	var d Decorator
	if errors.As(err, &d) {
		d.Decorate(caller)
	}
	return err
}

// lastFrameError implements LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
	format   string
}

// NewLastFrameError returns the error that trajectory readers give
// when there are no more frames to read in fileName.
func NewLastFrameError(fileName, format, caller string) error {
	return &lastFrameError{deco: []string{caller}, fileName: fileName, format: format}
}

// NormalLastFrameTermination does nothing. It marks the error as a LastFrameError.
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return E.format }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// IsLastFrame returns true if err signals the normal end of a trajectory.
func IsLastFrame(err error) bool {
	var l LastFrameError
	return errors.As(err, &l)
}
