// Brain-maturity-respiration: brain age, caffeine, and respiration
// analyses for preterm EEG cohort studies.
// Copyright (c) 2024 Coen Zandvoort.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

package app

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/CoenZandvoort/Brain-maturity-respiration/analysis"
)

// lineGridPoints is the resolution of the plotted regression line and its
// confidence band.
const lineGridPoints = 50

// PlotRegression renders the adjusted scatter with the reduced model's
// regression line and a 95% confidence band, annotated with the full
// model's statistics, and saves it to file (format by extension).
func PlotRegression(x, y []float64, reduced *analysis.FitResult, annotation, title, xlabel, ylabel, file string) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s\n%s", title, annotation)
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	if err := plotutil.AddScatters(p, pts); err != nil {
		panic(err)
	}

	lo := floats.Min(x)
	hi := floats.Max(x)
	grid := make([]float64, lineGridPoints)
	for i := range grid {
		grid[i] = lo + (hi-lo)*float64(i)/float64(lineGridPoints-1)
	}
	fit, se := reduced.FittedLine(grid)
	line := make(plotter.XYs, len(grid))
	upper := make(plotter.XYs, len(grid))
	lower := make(plotter.XYs, len(grid))
	for i := range grid {
		line[i].X = grid[i]
		line[i].Y = fit[i]
		upper[i].X = grid[i]
		upper[i].Y = fit[i] + 1.96*se[i]
		lower[i].X = grid[i]
		lower[i].Y = fit[i] - 1.96*se[i]
	}
	if err := plotutil.AddLines(p, "fit", line, "95% CI", upper, "", lower); err != nil {
		panic(err)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, file); err != nil {
		panic(err)
	}
	fmt.Println("Saved plot: ", file)
}
