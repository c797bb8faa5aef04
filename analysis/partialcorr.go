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

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// PartialCorrelation converts a fixed-effect t-statistic into a partial
// correlation coefficient:
//
//	rho = sign(t) * sqrt(t^2 / (n - rank(m) + t^2))
//
// where n is the number of observations in the fitted table and m holds
// the predictor column(s); rank(m) is 1 unless the predictor is collinear
// or degenerate. The sign of rho matches the sign of t and |rho| < 1 for
// finite t. The observed statistic and every bootstrap replicate go
// through this same function, so the two stay commensurable.
func PartialCorrelation(t float64, n int, m mat.Matrix) float64 {
	if t == 0 {
		return 0
	}
	rank := matrixRank(m)
	rho := math.Sqrt(t * t / (float64(n-rank) + t*t))
	if t < 0 {
		return -rho
	}
	return rho
}

// PredictorMatrix packs the primary predictor column of a dataset as a
// one-column matrix for the rank term of PartialCorrelation.
func PredictorMatrix(ds *Dataset, name string) mat.Matrix {
	col := ds.Col(name)
	m := mat.NewDense(len(col), 1, nil)
	for i, v := range col {
		m.Set(i, 0, v)
	}
	return m
}
