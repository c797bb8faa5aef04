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

package utils

import (
	"math"
	"testing"
)

func TestNanMean(t *testing.T) {
	if got := NanMean([]float64{1, 2, 3}); got != 2 {
		t.Errorf("NanMean = %v, want 2", got)
	}
	if got := NanMean([]float64{1, math.NaN(), 3}); got != 2 {
		t.Errorf("NanMean with NaN = %v, want 2", got)
	}
	if got := NanMean([]float64{math.NaN()}); !math.IsNaN(got) {
		t.Errorf("NanMean of all-NaN = %v, want NaN", got)
	}
	if got := NanMean(nil); !math.IsNaN(got) {
		t.Errorf("NanMean of empty = %v, want NaN", got)
	}
}
