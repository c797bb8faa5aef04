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
	"gonum.org/v1/gonum/optimize"
)

// lmmModel carries the fixed data of a mixed-model fit while the
// covariance parameters are optimized.
type lmmModel struct {
	x     *mat.Dense // fixed-effects design, n x p
	y     []float64
	z     []float64 // random-slope column, nil for intercept-only
	rows  [][]int   // row indices per infant group
	n, p  int
	nrand int // number of random-effect terms per infant
}

// profile computes, for covariance parameters theta, the profiled ML
// deviance together with the GLS coefficient solution and its scaled
// precision matrix. Failed factorizations yield +Inf deviance.
func (m *lmmModel) profile(theta []float64) (dev float64, beta *mat.VecDense, prec *mat.SymDense, sigma2 float64) {
	// Relative covariance factor Lambda (lower triangular); the random
	// effect covariance is sigma^2 * Lambda Lambda'.
	var p00, p01, p11 float64
	if m.nrand == 2 {
		a, b, c := theta[0], theta[1], theta[2]
		p00 = a * a
		p01 = a * b
		p11 = b*b + c*c
	} else {
		p00 = theta[0] * theta[0]
	}

	inf := math.Inf(1)
	a := mat.NewSymDense(m.p, nil)
	u := mat.NewVecDense(m.p, nil)
	q := 0.0
	logdet := 0.0

	for _, rows := range m.rows {
		ng := len(rows)
		// V = I + Z Psi Z' for this infant's rows
		v := mat.NewSymDense(ng, nil)
		for i := 0; i < ng; i++ {
			for j := i; j < ng; j++ {
				var zi, zj float64
				if m.z != nil {
					zi = m.z[rows[i]]
					zj = m.z[rows[j]]
				}
				e := p00 + p01*(zi+zj) + p11*zi*zj
				if i == j {
					e++
				}
				v.SetSym(i, j, e)
			}
		}
		var chol mat.Cholesky
		if !chol.Factorize(v) {
			return inf, nil, nil, 0
		}
		logdet += chol.LogDet()

		// Solve V^{-1} [X_g | y_g] and accumulate the GLS pieces.
		rhs := mat.NewDense(ng, m.p+1, nil)
		for i := 0; i < ng; i++ {
			for j := 0; j < m.p; j++ {
				rhs.Set(i, j, m.x.At(rows[i], j))
			}
			rhs.Set(i, m.p, m.y[rows[i]])
		}
		sol := mat.NewDense(ng, m.p+1, nil)
		if err := chol.SolveTo(sol, rhs); err != nil {
			return inf, nil, nil, 0
		}
		for j := 0; j < m.p; j++ {
			for k := j; k < m.p; k++ {
				s := a.At(j, k)
				for i := 0; i < ng; i++ {
					s += rhs.At(i, j) * sol.At(i, k)
				}
				a.SetSym(j, k, s)
			}
			s := u.AtVec(j)
			for i := 0; i < ng; i++ {
				s += rhs.At(i, j) * sol.At(i, m.p)
			}
			u.SetVec(j, s)
		}
		for i := 0; i < ng; i++ {
			q += rhs.At(i, m.p) * sol.At(i, m.p)
		}
	}

	var cholA mat.Cholesky
	if !cholA.Factorize(a) {
		return inf, nil, nil, 0
	}
	beta = mat.NewVecDense(m.p, nil)
	if err := cholA.SolveVecTo(beta, u); err != nil {
		return inf, nil, nil, 0
	}
	rss := q - mat.Dot(beta, u)
	sigma2 = rss / float64(m.n)
	if sigma2 <= 0 || math.IsNaN(sigma2) {
		return inf, nil, nil, 0
	}
	dev = float64(m.n)*math.Log(sigma2) + logdet
	return dev, beta, a, sigma2
}

// FitLMM fits a linear mixed-effects model with by-infant random effects
// by maximum likelihood. The covariance parameters are the entries of the
// lower-triangular relative covariance factor, profiled out of the
// deviance and minimized with Nelder-Mead; the fixed effects follow by
// generalized least squares at the optimum.
//
// The primary predictor's estimate, t-statistic, and p-value sit in the
// second result row. Degenerate designs (rank-deficient fixed effects,
// fewer distinct infants than random-effect terms, or too few
// observations) fail with a DegenerateModelError.
func FitLMM(ds *Dataset, spec ModelSpec) (*FitResult, error) {
	if spec.Random == nil {
		return FitLM(ds, spec)
	}
	n := ds.NumObs()
	x, names := designMatrix(ds, spec.Fixed)
	p := len(names)
	if n <= p {
		return nil, &DegenerateModelError{Reason: fmt.Sprintf("%d observations for %d coefficients", n, p)}
	}
	if rank := matrixRank(x); rank < p {
		return nil, &DegenerateModelError{Reason: fmt.Sprintf("fixed-effect design has rank %d, expected %d", rank, p)}
	}

	nrand := 0
	if spec.Random.Intercept {
		nrand++
	}
	var z []float64
	if spec.Random.Slope != "" {
		z = ds.Col(spec.Random.Slope)
		nrand++
	}
	if nrand == 0 {
		return FitLM(ds, spec)
	}
	ngroups := ds.NumGroups()
	if ngroups < nrand {
		return nil, &DegenerateModelError{Reason: fmt.Sprintf("%d infants for %d random-effect terms", ngroups, nrand)}
	}

	rowsByGroup := map[int][]int{}
	var order []int
	for i, g := range ds.Group() {
		if _, ok := rowsByGroup[g]; !ok {
			order = append(order, g)
		}
		rowsByGroup[g] = append(rowsByGroup[g], i)
	}
	rows := make([][]int, len(order))
	for i, g := range order {
		rows[i] = rowsByGroup[g]
	}

	model := &lmmModel{x: x, y: ds.Col(spec.Outcome), z: z, rows: rows, n: n, p: p, nrand: nrand}

	nt := 1
	if nrand == 2 {
		nt = 3
	}
	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			dev, _, _, _ := model.profile(theta)
			return dev
		},
	}
	theta0 := make([]float64, nt)
	for i := range theta0 {
		theta0[i] = 0.5
	}
	if nt == 3 {
		theta0[1] = 0
	}
	optrslt, err := optimize.Minimize(problem, theta0, nil, &optimize.NelderMead{})
	if err != nil {
		return nil, &DegenerateModelError{Reason: "mixed model fit did not converge: " + err.Error()}
	}
	dev, beta, prec, sigma2 := model.profile(optrslt.X)
	if math.IsInf(dev, 1) || beta == nil {
		return nil, &DegenerateModelError{Reason: "mixed model deviance is degenerate at the optimum"}
	}

	// vcov(beta) = sigma^2 * (sum_g X' V^{-1} X)^{-1}
	var cholPrec mat.Cholesky
	if !cholPrec.Factorize(prec) {
		return nil, &DegenerateModelError{Reason: "coefficient precision matrix is singular"}
	}
	preci := mat.NewSymDense(p, nil)
	if err := cholPrec.InverseTo(preci); err != nil {
		return nil, &DegenerateModelError{Reason: err.Error()}
	}
	vcov := mat.NewSymDense(p, nil)
	for j := 0; j < p; j++ {
		for k := j; k < p; k++ {
			vcov.SetSym(j, k, sigma2*preci.At(j, k))
		}
	}

	rslt := &FitResult{
		Names:  names,
		Coeff:  vecSlice(beta),
		Sigma2: sigma2,
		DF:     n - p,
		Theta:  optrslt.X,
		spec:   spec,
		ds:     ds,
		vcov:   vcov,
	}
	rslt.fillInference()
	return rslt, nil
}
