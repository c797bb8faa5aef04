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
	"testing"

	"gonum.org/v1/gonum/mat"
)

func predictorColumn(n int) mat.Matrix {
	m := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		m.Set(i, 0, float64(i)+0.5)
	}
	return m
}

func TestPartialCorrelationSignLaw(t *testing.T) {
	m := predictorColumn(20)
	for _, tstat := range []float64{-7.5, -2.1, -0.3, 0.3, 2.1, 7.5} {
		rho := PartialCorrelation(tstat, 20, m)
		if math.Signbit(rho) != math.Signbit(tstat) {
			t.Errorf("sign(rho) != sign(t) for t = %v: rho = %v", tstat, rho)
		}
	}
	if rho := PartialCorrelation(0, 20, m); rho != 0 {
		t.Errorf("rho(0) = %v, want 0", rho)
	}
}

func TestPartialCorrelationBound(t *testing.T) {
	m := predictorColumn(20)
	for _, tstat := range []float64{-100, -5, -0.001, 0.001, 5, 100} {
		rho := PartialCorrelation(tstat, 20, m)
		if math.Abs(rho) >= 1 || math.IsNaN(rho) {
			t.Errorf("|rho| = %v for t = %v, want < 1", math.Abs(rho), tstat)
		}
	}
}

func TestPartialCorrelationValue(t *testing.T) {
	// n = 10, rank 1, t = 3: rho = sqrt(9 / (9 + 9)) = sqrt(0.5)
	rho := PartialCorrelation(3, 10, predictorColumn(10))
	want := math.Sqrt(0.5)
	if math.Abs(rho-want) > 1e-12 {
		t.Errorf("rho = %v, want %v", rho, want)
	}
}

func TestPredictorMatrixRank(t *testing.T) {
	if rank := matrixRank(predictorColumn(10)); rank != 1 {
		t.Errorf("rank = %d, want 1", rank)
	}
	zero := mat.NewDense(10, 1, nil)
	if rank := matrixRank(zero); rank != 0 {
		t.Errorf("rank of zero column = %d, want 0", rank)
	}
}
