/*
 * doc.go, part of mdwatch.
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
Package mdwatch follows a running Amber molecular dynamics job from the files it leaves in its
working directory, and turns them into data that can be displayed while the job runs.

The root package holds the shared data model: report files and their run mode, the columnar
table of energies/temperatures/pressures read from mdout and mdinfo files, progress snapshots,
simulation-length sets and RMSD series. It also holds the trajectory and topology interfaces
implemented by the readers under traj/ and top/, the error types used across the library and a
reader that walks a text file backwards, line by line.

	**mdwatch packages**

	mdout:    line grammar for mdout/mdinfo records, run-mode classification, full report reading.
	mdinfo:   progress/ETA extraction and the delta-only streaming engine.
	discover: report, trajectory and topology discovery in a directory.
	v3:       sets of 3D vectors (coordinates) on top of gonum.
	top:      Amber prmtop topologies.
	traj:     Amber NetCDF and ASCII (mdcrd) trajectory readers.
	rmsd:     parallel backbone RMSD along a trajectory.
	session:  the poll session state machine and its dispatcher.
	mdplot:   PNG plots of the series, the simulated time and the RMSD.
	config:   YAML configuration, validated against a CUE schema.
	logging:  slog loggers.
	display:  the HTTP (display/web) and terminal (display/tui) front ends.

The mdwatch command, in cmd/mdwatch, puts them together.

Most functions that read files return errors that can be inspected with errors.Is against
ErrNotFound, ErrInput and ErrResourceBusy.
*/
package mdwatch
