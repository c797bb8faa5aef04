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
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// BiasCorrect removes the systematic bias of a brain-age model. It fits
// predicted ~ 1 + true by least squares on the non-NaN pairs and subtracts
// the fitted bias (fitted value minus true age) from every prediction.
// NaN predictions stay NaN. The fit must cover the full candidate set of a
// run and is never cached across runs.
//
// Corrected values regress onto the true ages with zero residual bias, so
// a second correction is a no-op up to floating error.
func BiasCorrect(trueAge, predicted []float64) ([]float64, error) {
	if len(trueAge) != len(predicted) {
		return nil, fmt.Errorf("bias correction needs paired ages, got %d true and %d predicted", len(trueAge), len(predicted))
	}
	var xs, ys []float64
	for i := range trueAge {
		if !math.IsNaN(trueAge[i]) && !math.IsNaN(predicted[i]) {
			xs = append(xs, trueAge[i])
			ys = append(ys, predicted[i])
		}
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("bias correction needs at least 2 valid age pairs, got %d", len(xs))
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	corrected := make([]float64, len(predicted))
	for i, p := range predicted {
		bias := alpha + beta*trueAge[i] - trueAge[i]
		corrected[i] = p - bias
	}
	return corrected, nil
}
