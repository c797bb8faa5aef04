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

	"gonum.org/v1/gonum/floats"
)

// adjData builds y = 2 + 3x + 1.5c without noise, so the confound effect
// can be removed exactly.
func adjData() *Dataset {
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	c := []float64{1, -1, 2, 0, -2, 1, 3, -1}
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 2 + 3*x[i] + 1.5*c[i]
	}
	group := []int{0, 0, 0, 0, 1, 1, 1, 1}
	return NewDataset([]string{"y", "x", "c"}, [][]float64{y, x, c}, group)
}

func TestAdjustedResponseRemovesConfound(t *testing.T) {
	ds := adjData()
	fit, err := FitLM(ds, ModelSpec{Outcome: "y", Fixed: []string{"x", "c"}})
	if err != nil {
		t.Fatal(err)
	}
	ax, ay := AdjustedResponse(fit)
	if !floats.EqualApprox(ax, ds.Col("x"), 1e-12) {
		t.Error("adjusted x differs from the predictor column")
	}
	// the adjusted pairs lie exactly on a line of slope 3
	reduced, err := FitLM(AdjustedDataset(fit, ax, ay), ModelSpec{Outcome: "outcome", Fixed: []string{"predictor"}})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(reduced.Coeff[1]-3) > 1e-8 {
		t.Errorf("adjusted slope = %v, want 3", reduced.Coeff[1])
	}
}

func TestAdjustedResponseOrderPreserved(t *testing.T) {
	ds := adjData()
	fit, err := FitLM(ds, ModelSpec{Outcome: "y", Fixed: []string{"x", "c"}})
	if err != nil {
		t.Fatal(err)
	}
	_, ay := AdjustedResponse(fit)
	if len(ay) != ds.NumObs() {
		t.Fatalf("adjusted response has %d rows, want %d", len(ay), ds.NumObs())
	}
	// each adjusted value follows the closed form y - b_c (c - mean(c))
	c := ds.Col("c")
	mean := floats.Sum(c) / float64(len(c))
	for i, yv := range ds.Col("y") {
		want := yv - fit.Coeff[2]*(c[i]-mean)
		if math.Abs(ay[i]-want) > 1e-10 {
			t.Errorf("adjusted y[%d] = %v, want %v", i, ay[i], want)
		}
	}
}

func TestAdjustedDatasetKeepsGrouping(t *testing.T) {
	ds := adjData()
	fit, err := FitLM(ds, ModelSpec{Outcome: "y", Fixed: []string{"x", "c"}})
	if err != nil {
		t.Fatal(err)
	}
	ax, ay := AdjustedResponse(fit)
	ads := AdjustedDataset(fit, ax, ay)
	for i, g := range ads.Group() {
		if g != ds.Group()[i] {
			t.Fatalf("row %d changed infant index from %d to %d", i, ds.Group()[i], g)
		}
	}
}
