/*
 * plot.go, part of mdwatch.
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

// Package mdplot draws the series that mdwatch collects, with gonum/plot.
package mdplot

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/rmera/mdwatch"
)

// Default size of the PNG images.
const (
	Width  = 16 * vg.Centimeter
	Height = 10 * vg.Centimeter
)

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

func line(p *plot.Plot, xy plotter.XYs, key, steps int) error {
	l, err := plotter.NewLine(xy)
	if err != nil {
		return err
	}
	l.LineStyle.Width = vg.Points(1.5)
	l.LineStyle.Color = colors(key, steps)
	p.Add(l)
	return nil
}

// Series plots the field f of the records in T. The X axis is the simulation
// time, in ns, or the step, if the records have no time (i.e. minimizations).
// Missing values are left out. It returns an error if there is nothing to plot.
func Series(T *mdwatch.Table, f mdwatch.Field, title string) (*plot.Plot, error) {
	if f == mdwatch.Step || f == mdwatch.Time {
		return nil, fmt.Errorf("mdplot: %s can't be plotted against time", f)
	}
	times := T.Column(mdwatch.Time)
	useTime := false
	for _, v := range times {
		if !mdwatch.IsMissing(v) {
			useTime = true
			break
		}
	}
	ys := T.Column(f)
	xy := make(plotter.XYs, 0, len(ys))
	for i, y := range ys {
		x := float64(T.Steps[i])
		if useTime {
			x = times[i] / 1000
		}
		if mdwatch.IsMissing(x) || mdwatch.IsMissing(y) {
			continue
		}
		xy = append(xy, plotter.XY{X: x, Y: y})
	}
	if len(xy) == 0 {
		return nil, mdwatch.InputError(fmt.Sprintf("no values of %s to plot", f), "", "mdplot.Series", nil)
	}
	xlabel := "Step"
	if useTime {
		xlabel = "Time (ns)"
	}
	p := basicPlot(title, xlabel, f.String())
	if err := line(p, xy, 0, 1); err != nil {
		return nil, err
	}
	return p, nil
}

// Deviation plots an RMSD series.
func Deviation(D *mdwatch.DeviationSeries, title string) (*plot.Plot, error) {
	if D.Len() == 0 {
		return nil, mdwatch.InputError("empty RMSD series", "", "mdplot.Deviation", nil)
	}
	xy := make(plotter.XYs, D.Len())
	for i := range D.Values {
		xy[i].X = D.Times[i]
		xy[i].Y = D.Values[i]
	}
	p := basicPlot(title, "Time", "RMSD (A)")
	if err := line(p, xy, 1, 3); err != nil {
		return nil, err
	}
	return p, nil
}

// Duration plots the simulated time of each report in S, as a bar chart.
func Duration(S mdwatch.SimulationSet, title string) (*plot.Plot, error) {
	if len(S) == 0 {
		return nil, mdwatch.InputError("no simulations", "", "mdplot.Duration", nil)
	}
	p := basicPlot(title, "", "Simulated time (ns)")
	names := make([]string, len(S))
	w := vg.Points(20)
	for i, v := range S {
		names[i] = v.Name
		vals := make(plotter.Values, len(S))
		vals[i] = v.Ns
		b, err := plotter.NewBarChart(vals, w)
		if err != nil {
			return nil, err
		}
		b.Color = colors(i, len(S))
		b.LineStyle.Width = 0
		p.Add(b)
	}
	p.NominalX(names...)
	return p, nil
}

// PNG writes p to w as a PNG image of the given size (the package defaults if 0).
func PNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	if width <= 0 {
		width = Width
	}
	if height <= 0 {
		height = Height
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
