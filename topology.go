/*
 * topology.go, part of mdwatch.
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

import "strings"

// Atom contains the information about an atom that a topology gives.
// Coordinates are kept separately, in v3.Matrix objects.
type Atom struct {
	Name    string
	Id      int    //1-based, as in the topology file
	Molname string //residue name
	Molid   int    //1-based residue index
	Charge  float64
	Mass    float64
}

// Topology is a list of atoms. It implements Atomer.
type Topology struct {
	Title string
	Atoms []*Atom
}

// NewTopology returns a topology with the given atoms.
func NewTopology(title string, ats []*Atom) *Topology {
	return &Topology{Title: title, Atoms: ats}
}

// Atom returns the ith atom. It panics if i is out of range.
func (T *Topology) Atom(i int) *Atom {
	return T.Atoms[i]
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

// Select returns the indexes of the atoms whose residue name is in residues and
// whose atom name is in names. A nil residues or names slice matches everything.
func Select(A Atomer, residues, names []string) []int {
	ret := make([]int, 0, A.Len()/4)
	for i := 0; i < A.Len(); i++ {
		at := A.Atom(i)
		if residues != nil && !isInString(residues, strings.TrimSpace(at.Molname)) {
			continue
		}
		if names != nil && !isInString(names, strings.TrimSpace(at.Name)) {
			continue
		}
		ret = append(ret, i)
	}
	return ret
}

func isInString(container []string, test string) bool {
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}
