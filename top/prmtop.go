/*
 * prmtop.go, part of mdwatch.
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

/*
Package top reads Amber topologies (prmtop/parm7) into mdwatch.Topology objects.
Only the sections needed to select atoms are read: atom and residue names,
charges and masses. Old-style topologies, without %FLAG sections, are not supported.
*/
package top

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rmera/mdwatch"
)

// Amber stores charges multiplied by this factor.
const chargeFactor = 18.2223

// indexes in the POINTERS section.
const (
	pNatom = 0
	pNres  = 11
)

var formatRe = regexp.MustCompile(`%FORMAT\((\d+)([aAIiEeF])(\d+)`)

// format is a Fortran format: per fields per line, each width characters wide.
type format struct {
	per   int
	kind  byte
	width int
}

func parseFormat(line string) (format, error) {
	m := formatRe.FindStringSubmatch(line)
	if m == nil {
		return format{}, fmt.Errorf("unsupported format line: %q", line)
	}
	per, _ := strconv.Atoi(m[1])
	width, _ := strconv.Atoi(m[3])
	if per < 1 || width < 1 {
		return format{}, fmt.Errorf("unsupported format line: %q", line)
	}
	return format{per: per, kind: strings.ToLower(m[2])[0], width: width}, nil
}

// fields splits a data line in fixed-width fields.
func (f format) fields(line string) []string {
	ret := make([]string, 0, f.per)
	for i := 0; i < f.per && i*f.width < len(line); i++ {
		end := min((i+1)*f.width, len(line))
		ret = append(ret, line[i*f.width:end])
	}
	return ret
}

// prmtop keeps the raw sections of a topology, as strings.
type prmtop struct {
	sections map[string][]string
	title    string
}

// the sections that are kept.
var wanted = map[string]bool{
	"POINTERS":        true,
	"ATOM_NAME":       true,
	"CHARGE":          true,
	"MASS":            true,
	"RESIDUE_LABEL":   true,
	"RESIDUE_POINTER": true,
	"TITLE":           true,
}

func (P *prmtop) fill(r *bufio.Reader) error {
	var current string
	var f format
	var err error
	var s string
	flags := 0
	for s, err = r.ReadString('\n'); err == nil || (err == io.EOF && s != ""); s, err = r.ReadString('\n') {
		s = strings.TrimRight(s, "\r\n")
		switch {
		case strings.HasPrefix(s, "%VERSION"), strings.HasPrefix(s, "%COMMENT"):
			continue
		case strings.HasPrefix(s, "%FLAG"):
			flags++
			current = strings.TrimSpace(strings.TrimPrefix(s, "%FLAG"))
			f = format{}
			continue
		case strings.HasPrefix(s, "%FORMAT"):
			if f, err = parseFormat(s); err != nil {
				return err
			}
			continue
		}
		if !wanted[current] {
			continue
		}
		if f.per == 0 {
			return fmt.Errorf("section %s has no format", current)
		}
		if current == "TITLE" {
			P.title = strings.TrimSpace(s)
			continue
		}
		P.sections[current] = append(P.sections[current], f.fields(s)...)
	}
	if err != nil && err != io.EOF {
		return err
	}
	if flags == 0 {
		return fmt.Errorf("no %%FLAG sections, old-style topologies are not supported")
	}
	return nil
}

func (P *prmtop) ints(section string) ([]int, error) {
	raw := P.sections[section]
	ret := make([]int, len(raw))
	for i, v := range raw {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("section %s, element %d: %w", section, i, err)
		}
		ret[i] = n
	}
	return ret, nil
}

func (P *prmtop) floats(section string) ([]float64, error) {
	raw := P.sections[section]
	ret := make([]float64, len(raw))
	for i, v := range raw {
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("section %s, element %d: %w", section, i, err)
		}
		ret[i] = n
	}
	return ret, nil
}

// Read reads the Amber topology filename. Errors are of the mdwatch.ErrInput kind,
// or mdwatch.ErrNotFound if the file doesn't exist.
func Read(filename string) (*mdwatch.Topology, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, mdwatch.FromOS(err, mdwatch.ErrInput, filename, "top.Read")
	}
	defer file.Close()
	T, err := Parse(bufio.NewReader(file))
	if err != nil {
		return nil, mdwatch.InputError("can't read topology", filename, "top.Read", err)
	}
	return T, nil
}

// Parse reads an Amber topology from r.
func Parse(r *bufio.Reader) (*mdwatch.Topology, error) {
	P := &prmtop{sections: make(map[string][]string)}
	if err := P.fill(r); err != nil {
		return nil, err
	}
	pointers, err := P.ints("POINTERS")
	if err != nil {
		return nil, err
	}
	if len(pointers) <= pNres {
		return nil, fmt.Errorf("POINTERS section too short: %d elements", len(pointers))
	}
	natoms, nres := pointers[pNatom], pointers[pNres]
	names := P.sections["ATOM_NAME"]
	labels := P.sections["RESIDUE_LABEL"]
	respointers, err := P.ints("RESIDUE_POINTER")
	if err != nil {
		return nil, err
	}
	if len(names) != natoms || len(labels) != nres || len(respointers) != nres {
		return nil, fmt.Errorf("inconsistent topology: %d atoms, %d names, %d residues, %d labels, %d residue pointers",
			natoms, len(names), nres, len(labels), len(respointers))
	}
	//Both are optional for our purposes.
	charges, err := P.floats("CHARGE")
	if err != nil {
		return nil, err
	}
	masses, err := P.floats("MASS")
	if err != nil {
		return nil, err
	}
	ats := make([]*mdwatch.Atom, natoms)
	res := 0
	for i := 0; i < natoms; i++ {
		//residue pointers are 1-based indexes of the first atom of each residue.
		for res+1 < nres && respointers[res+1]-1 <= i {
			res++
		}
		at := &mdwatch.Atom{Name: strings.TrimSpace(names[i]), Id: i + 1, Molid: res + 1}
		if nres > 0 {
			at.Molname = strings.TrimSpace(labels[res])
		}
		if len(charges) == natoms {
			at.Charge = charges[i] / chargeFactor
		}
		if len(masses) == natoms {
			at.Mass = masses[i]
		}
		ats[i] = at
	}
	return mdwatch.NewTopology(P.title, ats), nil
}
