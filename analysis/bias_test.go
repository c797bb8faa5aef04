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
)

func TestBiasCorrectConstantOffset(t *testing.T) {
	trueAge := []float64{30, 31, 32, 33, 34}
	predicted := make([]float64, len(trueAge))
	for i, v := range trueAge {
		predicted[i] = v + 2.0
	}
	corrected, err := BiasCorrect(trueAge, predicted)
	if err != nil {
		t.Fatal(err)
	}
	for i := range corrected {
		if math.Abs(corrected[i]-trueAge[i]) > 1e-6 {
			t.Errorf("corrected[%d] = %v, want %v", i, corrected[i], trueAge[i])
		}
	}
}

func TestBiasCorrectIdempotent(t *testing.T) {
	trueAge := []float64{28, 29.5, 31, 32, 33.5, 35, 36}
	predicted := []float64{30.1, 30.9, 33.2, 33.8, 35.6, 36.4, 38.3}
	once, err := BiasCorrect(trueAge, predicted)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := BiasCorrect(trueAge, once)
	if err != nil {
		t.Fatal(err)
	}
	for i := range once {
		if math.Abs(twice[i]-once[i]) > 1e-9 {
			t.Errorf("second correction moved value %d from %v to %v", i, once[i], twice[i])
		}
	}
}

func TestBiasCorrectKeepsNaN(t *testing.T) {
	trueAge := []float64{30, 31, 32, 33}
	predicted := []float64{32, math.NaN(), 34, 35}
	corrected, err := BiasCorrect(trueAge, predicted)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(corrected[1]) {
		t.Errorf("corrected[1] = %v, want NaN", corrected[1])
	}
	if math.IsNaN(corrected[0]) || math.IsNaN(corrected[2]) {
		t.Error("correction turned valid predictions into NaN")
	}
}

func TestBiasCorrectTooFewPairs(t *testing.T) {
	trueAge := []float64{30, 31, 32}
	predicted := []float64{32, math.NaN(), math.NaN()}
	if _, err := BiasCorrect(trueAge, predicted); err == nil {
		t.Error("expected an error with a single valid pair")
	}
}
