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

// Package milp describes mixed-integer linear programs independently of the
// solver that will process them.
//
// A `Model` is a flat list of bounded variables, a flat list of ranged linear
// rows and a linear objective. Models are created with a `Builder`, which
// checks names and indices as rows are added and reports the first problem it
// found from `Model()`. Solvers implement the `Solver` interface and register
// themselves by name, so that the caller only has to link the implementation
// it wants:
//
//	import _ "github.com/google/or-tools-gep/ortools/gep/go/milp/bnb"
//
//	s, err := milp.Lookup("bnb")
package milp

import (
	"errors"
	"fmt"
	"math"

	log "github.com/golang/glog"
)

// ErrInvalidModel is wrapped by every error reported by a Builder.
var ErrInvalidModel = errors.New("invalid model")

type (
	// VarIndex is the position of a variable in Model.Variables.
	VarIndex int32
	// RowIndex is the position of a row in Model.Rows.
	RowIndex int32
)

// Variable is a column of the model.
type Variable struct {
	Name    string
	Lower   float64
	Upper   float64
	Integer bool
}

// Term is a coefficient applied to a variable.
type Term struct {
	Var   VarIndex
	Coeff float64
}

// Row is the ranged linear constraint `Lower <= sum(Terms) <= Upper`. Use
// infinite bounds for one-sided rows and `Lower == Upper` for equalities.
type Row struct {
	Name  string
	Lower float64
	Upper float64
	Terms []Term
}

// IsEquality reports whether both bounds of the row coincide.
func (r Row) IsEquality() bool {
	return r.Lower == r.Upper
}

// Model is the solver-neutral description of a MILP.
type Model struct {
	Name            string
	Maximize        bool
	ObjectiveOffset float64
	Objective       []Term
	Variables       []Variable
	Rows            []Row
}

// NumVariables returns the number of columns.
func (m *Model) NumVariables() int {
	return len(m.Variables)
}

// NumRows returns the number of constraints.
func (m *Model) NumRows() int {
	return len(m.Rows)
}

// NumIntegers returns the number of integer columns.
func (m *Model) NumIntegers() int {
	n := 0
	for _, v := range m.Variables {
		if v.Integer {
			n++
		}
	}
	return n
}

// Activity returns the value of the linear part of row `r` at point `x`.
func (m *Model) Activity(r RowIndex, x []float64) float64 {
	return dot(m.Rows[r].Terms, x)
}

// ObjectiveValue returns the objective, offset included, at point `x`.
func (m *Model) ObjectiveValue(x []float64) float64 {
	return m.ObjectiveOffset + dot(m.Objective, x)
}

// MaxViolation returns the largest absolute violation of a variable bound or a
// row bound at point `x`. It is zero for a feasible point.
func (m *Model) MaxViolation(x []float64) float64 {
	worst := 0.0
	for i, v := range m.Variables {
		worst = math.Max(worst, v.Lower-x[i])
		worst = math.Max(worst, x[i]-v.Upper)
	}
	for r := range m.Rows {
		a := m.Activity(RowIndex(r), x)
		worst = math.Max(worst, m.Rows[r].Lower-a)
		worst = math.Max(worst, a-m.Rows[r].Upper)
	}
	return worst
}

func dot(terms []Term, x []float64) float64 {
	s := 0.0
	for _, t := range terms {
		s += t.Coeff * x[t.Var]
	}
	return s
}

// LinearExpr is a container for a linear expression with a constant offset.
type LinearExpr struct {
	terms  []Term
	offset float64
}

// NewLinearExpr creates a new empty LinearExpr.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// NewConstant creates and returns a LinearExpr containing the constant `c`.
func NewConstant(c float64) *LinearExpr {
	return &LinearExpr{offset: c}
}

// AddTerm adds `coeff * v` to the LinearExpr and returns itself.
func (l *LinearExpr) AddTerm(v VarIndex, coeff float64) *LinearExpr {
	l.terms = append(l.terms, Term{Var: v, Coeff: coeff})
	return l
}

// AddSum adds the sum of the variables to the LinearExpr and returns itself.
func (l *LinearExpr) AddSum(vs ...VarIndex) *LinearExpr {
	for _, v := range vs {
		l.AddTerm(v, 1)
	}
	return l
}

// AddConstant adds the constant to the LinearExpr and returns itself.
func (l *LinearExpr) AddConstant(c float64) *LinearExpr {
	l.offset += c
	return l
}

// AddScaled adds `c * e` to the LinearExpr and returns itself.
func (l *LinearExpr) AddScaled(e *LinearExpr, c float64) *LinearExpr {
	for _, t := range e.terms {
		l.terms = append(l.terms, Term{Var: t.Var, Coeff: t.Coeff * c})
	}
	l.offset += e.offset * c
	return l
}

// Offset returns the constant part of the expression.
func (l *LinearExpr) Offset() float64 {
	return l.offset
}

// Terms returns the terms of the expression with duplicated variables merged in
// order of first appearance. Terms whose merged coefficient is zero are dropped.
func (l *LinearExpr) Terms() []Term {
	pos := make(map[VarIndex]int, len(l.terms))
	var merged []Term
	for _, t := range l.terms {
		if i, ok := pos[t.Var]; ok {
			merged[i].Coeff += t.Coeff
			continue
		}
		pos[t.Var] = len(merged)
		merged = append(merged, t)
	}
	out := merged[:0]
	for _, t := range merged {
		if t.Coeff != 0 {
			out = append(out, t)
		}
	}
	return out
}

// Builder creates a Model row by row.
type Builder struct {
	m        *Model
	varNames map[string]VarIndex
	rowNames map[string]RowIndex
	// The first and only the first error is reported in Model.
	err error
}

// NewBuilder creates and returns a new Builder for a model called `name`.
func NewBuilder(name string) *Builder {
	return &Builder{
		m:        &Model{Name: name},
		varNames: make(map[string]VarIndex),
		rowNames: make(map[string]RowIndex),
	}
}

func (b *Builder) setErrorf(format string, a ...any) {
	args := make([]any, len(a)+1)
	copy(args, a)
	args[len(a)] = ErrInvalidModel
	err := fmt.Errorf(format+": %w", args...)
	log.Errorf("%v", err)
	if b.err == nil {
		b.err = err
	}
}

// NewVar creates and returns a new variable with bounds `[lb, ub]`.
//
// Make `name` an empty string if you would like a unique variable name to be
// generated. A name that already exists is an error reported by Model().
func (b *Builder) NewVar(lb, ub float64, integer bool, name string) VarIndex {
	ind := VarIndex(len(b.m.Variables))
	if name == "" {
		name = fmt.Sprintf("x%d", ind)
	}
	if _, ok := b.varNames[name]; ok {
		b.setErrorf("variable with name %s already exists", name)
	}
	if math.IsNaN(lb) || math.IsNaN(ub) || lb > ub || math.IsInf(lb, 1) || math.IsInf(ub, -1) {
		b.setErrorf("variable %s has invalid bounds [%v, %v]", name, lb, ub)
	}
	b.varNames[name] = ind
	b.m.Variables = append(b.m.Variables, Variable{Name: name, Lower: lb, Upper: ub, Integer: integer})
	return ind
}

// LookupVar returns the variable with the given name.
func (b *Builder) LookupVar(name string) (VarIndex, bool) {
	v, ok := b.varNames[name]
	return v, ok
}

// NumVariables returns the number of variables created so far.
func (b *Builder) NumVariables() int {
	return len(b.m.Variables)
}

// NumRows returns the number of rows created so far.
func (b *Builder) NumRows() int {
	return len(b.m.Rows)
}

func (b *Builder) checkTerms(owner string, terms []Term) bool {
	for _, t := range terms {
		if t.Var < 0 || int(t.Var) >= len(b.m.Variables) {
			b.setErrorf("%s references unknown variable %d", owner, t.Var)
			return false
		}
		if math.IsNaN(t.Coeff) || math.IsInf(t.Coeff, 0) {
			b.setErrorf("%s has a non-finite coefficient %v on %s", owner, t.Coeff, b.m.Variables[t.Var].Name)
			return false
		}
	}
	return true
}

// AddRow adds the constraint `lb <= expr <= ub`. The constant offset of `expr`
// is moved into the bounds.
func (b *Builder) AddRow(expr *LinearExpr, lb, ub float64, name string) RowIndex {
	ind := RowIndex(len(b.m.Rows))
	if name == "" {
		name = fmt.Sprintf("c%d", ind)
	}
	if _, ok := b.rowNames[name]; ok {
		b.setErrorf("constraint with name %s already exists", name)
	}
	if math.IsNaN(lb) || math.IsNaN(ub) || lb > ub {
		b.setErrorf("constraint %s has invalid bounds [%v, %v]", name, lb, ub)
	}
	terms := expr.Terms()
	b.checkTerms("constraint "+name, terms)
	b.rowNames[name] = ind
	b.m.Rows = append(b.m.Rows, Row{
		Name:  name,
		Lower: lb - expr.offset,
		Upper: ub - expr.offset,
		Terms: terms,
	})
	return ind
}

// AddEquality adds the constraint `lhs == rhs`.
func (b *Builder) AddEquality(lhs *LinearExpr, rhs float64, name string) RowIndex {
	return b.AddRow(lhs, rhs, rhs, name)
}

// AddLessOrEqual adds the constraint `lhs <= rhs`.
func (b *Builder) AddLessOrEqual(lhs *LinearExpr, rhs float64, name string) RowIndex {
	return b.AddRow(lhs, math.Inf(-1), rhs, name)
}

// AddGreaterOrEqual adds the constraint `lhs >= rhs`.
func (b *Builder) AddGreaterOrEqual(lhs *LinearExpr, rhs float64, name string) RowIndex {
	return b.AddRow(lhs, rhs, math.Inf(1), name)
}

// Minimize sets a linear minimization objective.
func (b *Builder) Minimize(obj *LinearExpr) {
	b.setObjective(obj, false)
}

// Maximize sets a linear maximization objective.
func (b *Builder) Maximize(obj *LinearExpr) {
	b.setObjective(obj, true)
}

func (b *Builder) setObjective(obj *LinearExpr, maximize bool) {
	terms := obj.Terms()
	if !b.checkTerms("objective", terms) {
		return
	}
	b.m.Objective = terms
	b.m.ObjectiveOffset = obj.offset
	b.m.Maximize = maximize
}

// Model returns the built model. The model returned is the one owned by the
// Builder; further calls to the Builder modify it.
//
// Model returns an error when invalid parameters have been used during model
// building.
func (b *Builder) Model() (*Model, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.m, nil
}
