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

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// rankTol is the relative singular-value cutoff below which a design
// matrix counts as rank deficient.
const rankTol = 1e-10

// FitResult holds the estimates of a fitted linear or linear mixed model.
// Names[0] is the intercept; Names[1] is the primary predictor.
type FitResult struct {
	Names   []string
	Coeff   []float64
	StdErr  []float64
	TStats  []float64
	PValues []float64
	Sigma2  float64 // residual variance estimate
	DF      int     // residual degrees of freedom, n - rank(X)
	Theta   []float64

	spec ModelSpec
	ds   *Dataset
	vcov *mat.SymDense
}

// Predictor returns the row of the primary predictor: coefficient,
// t-statistic, and two-sided p-value.
func (r *FitResult) Predictor() (coeff, t, p float64) {
	return r.Coeff[1], r.TStats[1], r.PValues[1]
}

// FittedLine evaluates the fitted line of a predictor-only model over the
// given x values, together with the standard error of each fitted value.
func (r *FitResult) FittedLine(xs []float64) (fit, se []float64) {
	fit = make([]float64, len(xs))
	se = make([]float64, len(xs))
	for i, x := range xs {
		fit[i] = r.Coeff[0] + r.Coeff[1]*x
		v := r.vcov.At(0, 0) + 2*x*r.vcov.At(0, 1) + x*x*r.vcov.At(1, 1)
		se[i] = math.Sqrt(v)
	}
	return fit, se
}

// designMatrix builds the fixed-effects design with an intercept column
// followed by the listed columns, in order.
func designMatrix(ds *Dataset, fixed []string) (*mat.Dense, []string) {
	n := ds.NumObs()
	p := len(fixed) + 1
	x := mat.NewDense(n, p, nil)
	names := make([]string, p)
	names[0] = "(Intercept)"
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}
	for j, name := range fixed {
		col := ds.Col(name)
		names[j+1] = name
		for i := 0; i < n; i++ {
			x.Set(i, j+1, col[i])
		}
	}
	return x, names
}

// matrixRank counts the singular values of m above rankTol relative to the
// largest one.
func matrixRank(m mat.Matrix) int {
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDThin) {
		return 0
	}
	sv := svd.Values(nil)
	if len(sv) == 0 || sv[0] == 0 {
		return 0
	}
	rank := 0
	for _, s := range sv {
		if s > rankTol*sv[0] {
			rank++
		}
	}
	return rank
}

// FitLM fits the fixed-effects part of a model specification by ordinary
// least squares. Rank-deficient designs fail with a DegenerateModelError
// rather than returning an arbitrary estimate.
func FitLM(ds *Dataset, spec ModelSpec) (*FitResult, error) {
	n := ds.NumObs()
	x, names := designMatrix(ds, spec.Fixed)
	p := len(names)
	if n <= p {
		return nil, &DegenerateModelError{Reason: fmt.Sprintf("%d observations for %d coefficients", n, p)}
	}
	if rank := matrixRank(x); rank < p {
		return nil, &DegenerateModelError{Reason: fmt.Sprintf("fixed-effect design has rank %d, expected %d", rank, p)}
	}

	y := mat.NewVecDense(n, nil)
	for i, v := range ds.Col(spec.Outcome) {
		y.SetVec(i, v)
	}

	// Normal equations; the design is small and full rank here.
	xtx := mat.NewSymDense(p, nil)
	for j := 0; j < p; j++ {
		for k := j; k < p; k++ {
			s := 0.0
			for i := 0; i < n; i++ {
				s += x.At(i, j) * x.At(i, k)
			}
			xtx.SetSym(j, k, s)
		}
	}
	xty := mat.NewVecDense(p, nil)
	for j := 0; j < p; j++ {
		s := 0.0
		for i := 0; i < n; i++ {
			s += x.At(i, j) * y.AtVec(i)
		}
		xty.SetVec(j, s)
	}

	var chol mat.Cholesky
	if !chol.Factorize(xtx) {
		return nil, &DegenerateModelError{Reason: "normal equations are not positive definite"}
	}
	beta := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(beta, xty); err != nil {
		return nil, &DegenerateModelError{Reason: err.Error()}
	}

	rss := 0.0
	for i := 0; i < n; i++ {
		fv := 0.0
		for j := 0; j < p; j++ {
			fv += x.At(i, j) * beta.AtVec(j)
		}
		r := y.AtVec(i) - fv
		rss += r * r
	}
	df := n - p
	sigma2 := rss / float64(df)

	xtxi := mat.NewSymDense(p, nil)
	if err := chol.InverseTo(xtxi); err != nil {
		return nil, &DegenerateModelError{Reason: err.Error()}
	}
	vcov := mat.NewSymDense(p, nil)
	for j := 0; j < p; j++ {
		for k := j; k < p; k++ {
			vcov.SetSym(j, k, sigma2*xtxi.At(j, k))
		}
	}

	rslt := &FitResult{
		Names:  names,
		Coeff:  vecSlice(beta),
		Sigma2: sigma2,
		DF:     df,
		spec:   spec,
		ds:     ds,
		vcov:   vcov,
	}
	rslt.fillInference()
	return rslt, nil
}

// fillInference derives standard errors, t-statistics, and two-sided
// Student-t p-values from the coefficient covariance.
func (r *FitResult) fillInference() {
	p := len(r.Coeff)
	r.StdErr = make([]float64, p)
	r.TStats = make([]float64, p)
	r.PValues = make([]float64, p)
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(r.DF)}
	for j := 0; j < p; j++ {
		r.StdErr[j] = math.Sqrt(r.vcov.At(j, j))
		r.TStats[j] = r.Coeff[j] / r.StdErr[j]
		r.PValues[j] = 2 * tdist.CDF(-math.Abs(r.TStats[j]))
	}
}

func vecSlice(v *mat.VecDense) []float64 {
	s := make([]float64, v.Len())
	for i := range s {
		s[i] = v.AtVec(i)
	}
	return s
}
