// Copyright 2010-2025 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bnb

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/google/or-tools-gep/ortools/gep/go/milp"
)

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
	lpFailed
)

// relaxation is the outcome of one LP solve. The objective is in
// minimization sense.
type relaxation struct {
	status    lpStatus
	objective float64
	x         []float64
	err       error
}

// column says how a model variable is rebuilt from standard-form columns:
// x = shift + y[pos] - y[neg]. A negative position means the part is absent.
type column struct {
	shift    float64
	pos, neg int
}

type entry struct {
	col int
	val float64
}

type stdRow struct {
	entries []entry
	rhs     float64
}

// standardForm is `min c.y  s.t.  A y = b, y >= 0`, kept sparse until the
// empty rows and columns are removed.
type standardForm struct {
	cols []column
	cost []float64
	rows []stdRow
}

func (sf *standardForm) newColumn(cost float64) int {
	sf.cost = append(sf.cost, cost)
	return len(sf.cost) - 1
}

// toStandardForm rewrites `m` restricted to the bounds `lb` and `ub`.
// It returns ok == false when the bounds are already contradictory.
func toStandardForm(m *milp.Model, lb, ub []float64) (*standardForm, bool) {
	sign := 1.0
	if m.Maximize {
		sign = -1
	}
	obj := make([]float64, len(m.Variables))
	for _, t := range m.Objective {
		obj[t.Var] += sign * t.Coeff
	}
	sf := &standardForm{cols: make([]column, len(m.Variables))}

	for j := range m.Variables {
		l, u := lb[j], ub[j]
		if l > u {
			return nil, false
		}
		c := column{pos: -1, neg: -1}
		switch {
		case !math.IsInf(l, -1):
			c.shift = l
			c.pos = sf.newColumn(obj[j])
			if !math.IsInf(u, 1) {
				s := sf.newColumn(0)
				sf.rows = append(sf.rows, stdRow{entries: []entry{{c.pos, 1}, {s, 1}}, rhs: u - l})
			}
		case !math.IsInf(u, 1):
			c.shift = u
			c.neg = sf.newColumn(-obj[j])
		default:
			c.pos = sf.newColumn(obj[j])
			c.neg = sf.newColumn(-obj[j])
		}
		sf.cols[j] = c
	}

	for _, r := range m.Rows {
		var entries []entry
		shift := 0.0
		for _, t := range r.Terms {
			c := sf.cols[t.Var]
			shift += t.Coeff * c.shift
			if c.pos >= 0 {
				entries = append(entries, entry{c.pos, t.Coeff})
			}
			if c.neg >= 0 {
				entries = append(entries, entry{c.neg, -t.Coeff})
			}
		}
		lo, up := r.Lower-shift, r.Upper-shift
		switch {
		case r.IsEquality():
			sf.rows = append(sf.rows, stdRow{entries: entries, rhs: lo})
		default:
			if !math.IsInf(lo, -1) {
				s := sf.newColumn(0)
				sf.rows = append(sf.rows, stdRow{entries: append(append([]entry(nil), entries...), entry{s, -1}), rhs: lo})
			}
			if !math.IsInf(up, 1) {
				s := sf.newColumn(0)
				sf.rows = append(sf.rows, stdRow{entries: append(append([]entry(nil), entries...), entry{s, 1}), rhs: up})
			}
		}
	}
	return sf, true
}

// solveRelaxation solves the LP relaxation of `m` under the bounds `lb` and `ub`.
func solveRelaxation(m *milp.Model, lb, ub []float64, tol float64) relaxation {
	sf, ok := toStandardForm(m, lb, ub)
	if !ok {
		return relaxation{status: lpInfeasible}
	}

	// Empty rows must be consistent and are dropped, since lp.Simplex rejects them.
	var rows []stdRow
	for _, r := range sf.rows {
		if len(r.entries) == 0 {
			if math.Abs(r.rhs) > tol {
				return relaxation{status: lpInfeasible}
			}
			continue
		}
		rows = append(rows, r)
	}

	// Empty columns sit at zero unless their cost makes the LP unbounded.
	used := make([]bool, len(sf.cost))
	for _, r := range rows {
		for _, e := range r.entries {
			used[e.col] = true
		}
	}
	keep := make([]int, len(sf.cost))
	nCols := 0
	for j := range sf.cost {
		if !used[j] {
			if sf.cost[j] < 0 {
				return relaxation{status: lpUnbounded}
			}
			keep[j] = -1
			continue
		}
		keep[j] = nCols
		nCols++
	}

	y := make([]float64, len(sf.cost))
	if len(rows) > 0 {
		c := make([]float64, nCols)
		for j, k := range keep {
			if k >= 0 {
				c[k] = sf.cost[j]
			}
		}
		a := mat.NewDense(len(rows), nCols, nil)
		b := make([]float64, len(rows))
		for i, r := range rows {
			s := 1.0
			if r.rhs < 0 {
				s = -1
			}
			for _, e := range r.entries {
				a.Set(i, keep[e.col], a.At(i, keep[e.col])+s*e.val)
			}
			b[i] = s * r.rhs
		}
		opt, status, err := solveStandard(c, a, b, tol)
		if status != lpOptimal {
			return relaxation{status: status, err: err}
		}
		for j, k := range keep {
			if k >= 0 {
				y[j] = opt[k]
			}
		}
	}

	x := make([]float64, len(m.Variables))
	for j, c := range sf.cols {
		x[j] = c.shift
		if c.pos >= 0 {
			x[j] += y[c.pos]
		}
		if c.neg >= 0 {
			x[j] -= y[c.neg]
		}
	}
	sign := 1.0
	if m.Maximize {
		sign = -1
	}
	return relaxation{status: lpOptimal, objective: sign * m.ObjectiveValue(x), x: x}
}

// Penalties tried, relative to the problem scale, on the artificial columns
// of solveWithArtificials.
var artificialPenalties = []float64{1e3, 1e6}

// solveStandard solves `min c·y, Ay = b, y ≥ 0` with b ≥ 0.
//
// lp.Simplex finds its starting basis with a phase one that can report
// infeasibility, or fail to factor, on degenerate but feasible problems. Only
// unboundedness is taken as reported. Every other outcome, including an
// optimum that does not satisfy Ay = b, is settled by solveWithArtificials.
func solveStandard(c []float64, a *mat.Dense, b []float64, tol float64) ([]float64, lpStatus, error) {
	_, y, err := simplex(c, a, b, tol, nil)
	switch {
	case errors.Is(err, lp.ErrUnbounded):
		return nil, lpUnbounded, nil
	case err == nil && residual(a, b, y) <= feasibilityTolerance(b):
		return y, lpOptimal, nil
	}
	return solveWithArtificials(c, a, b, tol)
}

// solveWithArtificials solves `min c·y + M·Σr, Ay + r = b, y, r ≥ 0` starting
// from the basis of the artificial columns r, which is feasible since b ≥ 0
// and has full row rank whatever the rank of A.
//
// A solution with Σr = 0 is optimal for the original problem. The problem is
// reported infeasible only when Σr stays positive under the largest penalty.
func solveWithArtificials(c []float64, a *mat.Dense, b []float64, tol float64) ([]float64, lpStatus, error) {
	m, n := a.Dims()
	scale := 1.0
	for _, v := range c {
		scale = math.Max(scale, math.Abs(v))
	}
	maxCoeff := 1.0
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			maxCoeff = math.Max(maxCoeff, math.Abs(a.At(i, j)))
		}
	}
	scale *= maxCoeff

	ext := mat.NewDense(m, n+m, nil)
	ext.Slice(0, m, 0, n).(*mat.Dense).Copy(a)
	basis := make([]int, m)
	for i := range basis {
		ext.Set(i, n+i, 1)
		basis[i] = n + i
	}
	feasTol := feasibilityTolerance(b)
	var lastErr error
	for _, penalty := range artificialPenalties {
		ce := make([]float64, n+m)
		copy(ce, c)
		for i := n; i < n+m; i++ {
			ce[i] = penalty * scale
		}
		_, y, err := simplex(ce, ext, b, tol, basis)
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		art := 0.0
		for _, v := range y[n:] {
			art += v
		}
		if art <= feasTol {
			return y[:n], lpOptimal, nil
		}
	}
	if lastErr != nil {
		return nil, lpFailed, lastErr
	}
	return nil, lpInfeasible, nil
}

// feasibilityTolerance is the largest residual accepted on `Ay = b`.
func feasibilityTolerance(b []float64) float64 {
	bMax := 1.0
	for _, v := range b {
		bMax = math.Max(bMax, math.Abs(v))
	}
	return 1e-7 * bMax
}

// residual returns max |Ay - b|, or +Inf when y is negative beyond rounding.
func residual(a *mat.Dense, b, y []float64) float64 {
	m, n := a.Dims()
	if len(y) != n {
		return math.Inf(1)
	}
	worst := 0.0
	for _, v := range y {
		if v < -feasibilityTolerance(b) {
			return math.Inf(1)
		}
	}
	for i := 0; i < m; i++ {
		s := -b[i]
		for j := 0; j < n; j++ {
			s += a.At(i, j) * y[j]
		}
		worst = math.Max(worst, math.Abs(s))
	}
	return worst
}

// simplex calls lp.Simplex, turning its shape panics into errors.
func simplex(c []float64, a *mat.Dense, b []float64, tol float64, initialBasic []int) (f float64, x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex: %v", r)
		}
	}()
	return lp.Simplex(c, a, b, tol, initialBasic)
}
