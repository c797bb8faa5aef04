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

// bootData builds a grouped cohort-like dataset whose substitute
// predictor column carries a clear linear signal.
func bootData() *Dataset {
	nGroups := 6
	perGroup := 6
	n := nGroups * perGroup
	y := make([]float64, n)
	pma := make([]float64, n)
	group := make([]int, n)
	noise := []float64{0.11, -0.23, 0.05, -0.14, 0.31, -0.08}
	shifts := []float64{0.4, -0.3, 0.1, -0.5, 0.2, 0.0}
	for g := 0; g < nGroups; g++ {
		for j := 0; j < perGroup; j++ {
			i := g*perGroup + j
			pma[i] = 28 + float64(j) + 0.5*float64(g)
			y[i] = 1 + 0.8*pma[i] + shifts[g] + noise[(i*7)%len(noise)]
			group[i] = g
		}
	}
	return NewDataset([]string{"y", "pma"}, [][]float64{y, pma}, group)
}

func bootSpec() ModelSpec {
	return ModelSpec{
		Outcome: "y",
		Fixed:   []string{"pma"},
		Random:  &RandomSpec{Intercept: true, Slope: "pma"},
	}
}

func TestBootstrapDeterministic(t *testing.T) {
	ds := bootData()
	a := BootstrapPartialCorrelation(ds, bootSpec(), 0.5, 40, 17)
	b := BootstrapPartialCorrelation(ds, bootSpec(), 0.5, 40, 17)
	if a.P != b.P {
		t.Errorf("p-value not reproducible: %v vs %v", a.P, b.P)
	}
	if len(a.Rhos) != len(b.Rhos) {
		t.Fatalf("rho counts differ: %d vs %d", len(a.Rhos), len(b.Rhos))
	}
	for i := range a.Rhos {
		an, bn := math.IsNaN(a.Rhos[i]), math.IsNaN(b.Rhos[i])
		if an != bn || (!an && a.Rhos[i] != b.Rhos[i]) {
			t.Fatalf("resample %d not reproducible: %v vs %v", i, a.Rhos[i], b.Rhos[i])
		}
	}
}

func TestBootstrapBounds(t *testing.T) {
	ds := bootData()
	res := BootstrapPartialCorrelation(ds, bootSpec(), 1.0, 40, 17)
	if res.Valid == 0 {
		t.Fatal("no valid resamples")
	}
	if res.P != 1 {
		t.Errorf("rho = 1 should dominate all resamples, p = %v", res.P)
	}
	res = BootstrapPartialCorrelation(ds, bootSpec(), -1.0, 40, 17)
	if res.P != 0 {
		t.Errorf("rho = -1 should dominate no resamples, p = %v", res.P)
	}
}

func TestBootstrapFailedRefitsExcluded(t *testing.T) {
	ds := bootData()
	res := BootstrapPartialCorrelation(ds, bootSpec(), 0.0, 40, 17)
	nan := 0
	for _, rho := range res.Rhos {
		if math.IsNaN(rho) {
			nan++
		}
	}
	if res.Valid+nan != res.Iter {
		t.Errorf("valid (%d) + failed (%d) != iterations (%d)", res.Valid, nan, res.Iter)
	}
	if res.Valid > 0 && (res.P < 0 || res.P > 1) {
		t.Errorf("p-value %v outside [0, 1]", res.P)
	}
}
