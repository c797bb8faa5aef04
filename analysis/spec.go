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

// ModelSpec describes a regression model over a Dataset: an outcome
// column, an ordered list of fixed-effect columns (the primary predictor
// first, confounds after it), and an optional random-effects term grouped
// by the dataset's infant index. An intercept is always included.
type ModelSpec struct {
	Outcome string
	Fixed   []string
	Random  *RandomSpec
}

// RandomSpec describes by-infant random effects: a random intercept and,
// when Slope names a column, a random slope on that column.
type RandomSpec struct {
	Intercept bool
	Slope     string
}

// Predictor returns the primary predictor, by convention the first fixed
// effect. Its coefficient sits in the second result row, after the
// intercept.
func (s ModelSpec) Predictor() string {
	return s.Fixed[0]
}

// Confounds returns the fixed-effect terms after the primary predictor.
func (s ModelSpec) Confounds() []string {
	return s.Fixed[1:]
}

// DegenerateModelError reports a design that cannot support the requested
// fit: rank-deficient fixed effects, too few observations, or fewer
// distinct infants than random-effect terms.
type DegenerateModelError struct {
	Reason string
}

func (e *DegenerateModelError) Error() string {
	return "degenerate model: " + e.Reason
}
