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

// Package gepmodel formulates two-stage stochastic generation expansion
// planning as a mixed-integer linear program.
//
// Installed units are decided once, before the scenario is known. Dispatch and
// unserved energy are decided per scenario and priced at their expected value.
// An Instance binds data to the formulation; Solve hands its model to a
// milp.Solver and Extract reads the investment plan back.
package gepmodel

import (
	"fmt"
)

// Set names.
const (
	SetPeriod     = "p"
	SetScenario   = "sc"
	SetTechnology = "g"
)

// Set is an ordered collection of unique element identifiers.
type Set struct {
	name  string
	elems []string
	index map[string]int
}

// NewSet returns the set `name` holding `elems` in declaration order. Empty or
// repeated identifiers are a SchemaError.
func NewSet(name string, elems []string) (*Set, error) {
	s := &Set{name: name, elems: make([]string, 0, len(elems)), index: make(map[string]int, len(elems))}
	for _, e := range elems {
		if e == "" {
			return nil, &SchemaError{Set: name, Element: e, Reason: "empty identifier"}
		}
		if _, ok := s.index[e]; ok {
			return nil, &SchemaError{Set: name, Element: e, Reason: "declared more than once"}
		}
		s.index[e] = len(s.elems)
		s.elems = append(s.elems, e)
	}
	return s, nil
}

// Name returns the name of the set.
func (s *Set) Name() string {
	return s.name
}

// Len returns the number of elements.
func (s *Set) Len() int {
	return len(s.elems)
}

// Element returns the i-th element in declaration order.
func (s *Set) Element(i int) string {
	return s.elems[i]
}

// Elements returns a copy of the elements in declaration order.
func (s *Set) Elements() []string {
	return append([]string(nil), s.elems...)
}

// Index returns the position of `e`.
func (s *Set) Index(e string) (int, bool) {
	i, ok := s.index[e]
	return i, ok
}

// mustIndex returns the position of `e` or a SchemaError.
func (s *Set) mustIndex(e string) (int, error) {
	i, ok := s.index[e]
	if !ok {
		return 0, &SchemaError{Set: s.name, Element: e, Reason: "not declared"}
	}
	return i, nil
}

// Domain is the domain of a parameter or decision variable.
type Domain int

const (
	NonNegativeReals Domain = iota
	PositiveReals
	NonNegativeIntegers
	UnitInterval
	Binary
)

var domainNames = map[Domain]string{
	NonNegativeReals:    "NonNegativeReals",
	PositiveReals:       "PositiveReals",
	NonNegativeIntegers: "NonNegativeIntegers",
	UnitInterval:        "UnitInterval",
	Binary:              "Binary",
}

func (d Domain) String() string {
	if n, ok := domainNames[d]; ok {
		return n
	}
	return fmt.Sprintf("Domain(%d)", int(d))
}

// Contains reports whether `v` lies in the domain.
func (d Domain) Contains(v float64) bool {
	switch d {
	case NonNegativeReals:
		return v >= 0
	case PositiveReals:
		return v > 0
	case NonNegativeIntegers:
		return v >= 0 && v == float64(int64(v))
	case UnitInterval:
		return v >= 0 && v <= 1
	case Binary:
		return v == 0 || v == 1
	}
	return false
}

// Declaration describes a parameter or decision variable of the model.
type Declaration struct {
	Name string
	// Index lists the sets the entity is indexed by, empty for scalars.
	Index  []string
	Domain Domain
	Unit   string
	Doc    string
}

// Parameter names.
const (
	ParamScenarioProbability = "pScProb"
	ParamDemand              = "pDemand"
	ParamVariableCost        = "pVarCost"
	ParamInvestmentCost      = "pInvCost"
	ParamUnitCapacity        = "pUnitCap"
	ParamIsRenewable         = "pIsRenew"
	ParamWeight              = "pWeight"
	ParamUnservedCost        = "pENSCost"
	ParamAvailability        = "pAviProf"
)

// Parameters declares the input data of the model.
var Parameters = []Declaration{
	{Name: ParamScenarioProbability, Index: []string{SetScenario}, Domain: UnitInterval, Unit: "p.u.", Doc: "scenario probability"},
	{Name: ParamDemand, Index: []string{SetPeriod}, Domain: NonNegativeReals, Unit: "MW", Doc: "demand per time period"},
	{Name: ParamVariableCost, Index: []string{SetTechnology}, Domain: NonNegativeReals, Unit: "kEUR/MWh", Doc: "variable cost of generation units"},
	{Name: ParamInvestmentCost, Index: []string{SetTechnology}, Domain: NonNegativeReals, Unit: "kEUR/MW/year", Doc: "investment cost of generation units"},
	{Name: ParamUnitCapacity, Index: []string{SetTechnology}, Domain: PositiveReals, Unit: "MW", Doc: "capacity of generation units"},
	{Name: ParamIsRenewable, Index: []string{SetTechnology}, Domain: Binary, Doc: "renewable units indicator"},
	{Name: ParamWeight, Domain: NonNegativeReals, Unit: "days", Doc: "weight of the representative period"},
	{Name: ParamUnservedCost, Domain: NonNegativeReals, Unit: "kEUR/MWh", Doc: "energy not supplied cost"},
	{Name: ParamAvailability, Index: []string{SetScenario, SetTechnology, SetPeriod}, Domain: UnitInterval, Unit: "p.u.", Doc: "availability profile, 1 when not given"},
}

// Variable names.
const (
	VarInvestmentCost = "vInvesCost"
	VarOperatingCost  = "vOperaCost"
	VarProduction     = "vProduct"
	VarInstalledUnits = "vInstalUnits"
	VarUnserved       = "vENS"
)

// Variables declares the decision variables of the model. Installed units
// carry no scenario index: they are the first-stage decision.
var Variables = []Declaration{
	{Name: VarInvestmentCost, Domain: NonNegativeReals, Unit: "kEUR", Doc: "total investment cost"},
	{Name: VarOperatingCost, Domain: NonNegativeReals, Unit: "kEUR", Doc: "total operating cost"},
	{Name: VarProduction, Index: []string{SetScenario, SetTechnology, SetPeriod}, Domain: NonNegativeReals, Unit: "MW", Doc: "generation production per scenario"},
	{Name: VarInstalledUnits, Index: []string{SetTechnology}, Domain: NonNegativeIntegers, Unit: "N", Doc: "number of installed generation units"},
	{Name: VarUnserved, Index: []string{SetScenario, SetPeriod}, Domain: NonNegativeReals, Unit: "MW", Doc: "energy not supplied per scenario"},
}

// Constraint names.
const (
	RowInvestmentCost = "eInvesCost"
	RowOperatingCost  = "eOperaCost"
	RowBalance        = "eBalance"
	RowCapacity       = "eMaxProd"
	RowUnserved       = "eENSProd"
)

// Lookup returns the declaration called `name` from `decls`.
func Lookup(decls []Declaration, name string) (Declaration, bool) {
	for _, d := range decls {
		if d.Name == name {
			return d, true
		}
	}
	return Declaration{}, false
}

// indexedName returns `name(e1,e2,...)`, or `name` for scalars.
func indexedName(name string, elems ...string) string {
	if len(elems) == 0 {
		return name
	}
	n := name + "("
	for i, e := range elems {
		if i > 0 {
			n += ","
		}
		n += e
	}
	return n + ")"
}
