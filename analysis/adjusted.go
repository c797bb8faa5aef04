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

package analysis

import "gonum.org/v1/gonum/stat"

// AdjustedResponse computes partial-regression plot coordinates for the
// primary predictor of a fitted confound model: each response with the
// confound effects held at their sample means, paired with the unchanged
// predictor value. Output order matches the input rows.
//
// The adjusted pairs feed a predictor-only mixed refit whose line is
// plotted; the refit's p-values are never reported, those come from the
// full confound model.
func AdjustedResponse(fit *FitResult) (x, y []float64) {
	ds := fit.ds
	spec := fit.spec
	n := ds.NumObs()

	x = make([]float64, n)
	copy(x, ds.Col(spec.Predictor()))
	y = make([]float64, n)
	copy(y, ds.Col(spec.Outcome))

	for j, name := range spec.Confounds() {
		col := ds.Col(name)
		m := stat.Mean(col, nil)
		b := fit.Coeff[j+2] // after intercept and predictor
		for i := 0; i < n; i++ {
			y[i] -= b * (col[i] - m)
		}
	}
	return x, y
}

// AdjustedDataset wraps adjusted coordinates as a dataset for the reduced,
// confound-free mixed model, keeping the infant grouping of the source
// cohort.
func AdjustedDataset(fit *FitResult, x, y []float64) *Dataset {
	return NewDataset([]string{"outcome", "predictor"}, [][]float64{y, x}, fit.ds.Group())
}
