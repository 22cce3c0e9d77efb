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

package gepmodel

import (
	"fmt"
	"io"
	"math"

	log "github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/google/or-tools-gep/ortools/gep/go/milp"
)

// DefaultProbabilityTolerance is the largest accepted deviation of the sum of
// scenario probabilities from 1.
const DefaultProbabilityTolerance = 1e-6

// Technology holds the per-technology parameters.
type Technology struct {
	VariableCost   float64
	InvestmentCost float64
	UnitCapacity   float64
	IsRenewable    bool
}

// AvailabilityKey indexes an availability factor.
type AvailabilityKey struct {
	Scenario   string
	Technology string
	Period     string
}

// Data holds the sets and parameter tables of one planning problem.
type Data struct {
	// Set elements in declaration order.
	Periods      []string
	Scenarios    []string
	Technologies []string

	// Scalars is keyed by ParamWeight and ParamUnservedCost.
	Scalars     map[string]float64
	Demand      map[string]float64
	Generation  map[string]Technology
	Probability map[string]float64
	// Availability may be sparse. Missing entries are 1.
	Availability map[AvailabilityKey]float64
}

type buildOptions struct {
	probabilityTolerance float64
	name                 string
}

// BuildOption customizes Build.
type BuildOption func(*buildOptions)

// WithProbabilityTolerance sets the accepted deviation of the probability sum
// from 1.
func WithProbabilityTolerance(tol float64) BuildOption {
	return func(o *buildOptions) {
		o.probabilityTolerance = tol
	}
}

// WithName sets the name of the generated MILP model.
func WithName(name string) BuildOption {
	return func(o *buildOptions) {
		o.name = name
	}
}

// Instance is a planning problem with every parameter bound and every
// constraint row materialized.
//
// An Instance is not safe for concurrent use.
type Instance struct {
	id   uuid.UUID
	name string

	periods      *Set
	scenarios    *Set
	technologies *Set

	weight       float64
	unservedCost float64
	demand       []float64
	generation   []Technology
	probability  []float64
	availability map[[3]int]float64

	vars  variables
	model *milp.Model

	status milp.Status
	values []float64
}

// Build validates `data` and returns the corresponding Instance.
//
// Undeclared or duplicated set elements are reported as a SchemaError, missing
// or out-of-domain values as a DataError.
func Build(data Data, opts ...BuildOption) (*Instance, error) {
	o := buildOptions{probabilityTolerance: DefaultProbabilityTolerance, name: "mGEP"}
	for _, opt := range opts {
		opt(&o)
	}
	if !(o.probabilityTolerance >= 0) {
		return nil, fmt.Errorf("invalid probability tolerance %v", o.probabilityTolerance)
	}

	in := &Instance{id: uuid.New(), name: o.name}
	var err error
	if in.periods, err = NewSet(SetPeriod, data.Periods); err != nil {
		return nil, err
	}
	if in.scenarios, err = NewSet(SetScenario, data.Scenarios); err != nil {
		return nil, err
	}
	if in.technologies, err = NewSet(SetTechnology, data.Technologies); err != nil {
		return nil, err
	}
	if err := in.bindScalars(data.Scalars); err != nil {
		return nil, err
	}
	if err := in.bindDemand(data.Demand); err != nil {
		return nil, err
	}
	if err := in.bindGeneration(data.Generation); err != nil {
		return nil, err
	}
	if err := in.bindProbability(data.Probability, o.probabilityTolerance); err != nil {
		return nil, err
	}
	if err := in.bindAvailability(data.Availability); err != nil {
		return nil, err
	}
	if err := in.materialize(); err != nil {
		return nil, err
	}
	if log.V(1) {
		log.Infof("instance %s: %d periods, %d scenarios, %d technologies, %d variables, %d constraints",
			in.id, in.periods.Len(), in.scenarios.Len(), in.technologies.Len(), in.NumVariables(), in.NumConstraints())
	}
	return in, nil
}

func checkValue(param string, d Domain, v float64, index ...string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &DataError{Parameter: param, Index: index, Reason: fmt.Sprintf("non-finite value %v", v)}
	}
	if !d.Contains(v) {
		return &DataError{Parameter: param, Index: index, Reason: fmt.Sprintf("value %v outside %v", v, d)}
	}
	return nil
}

func (in *Instance) bindScalars(scalars map[string]float64) error {
	for k := range scalars {
		if k != ParamWeight && k != ParamUnservedCost {
			return &SchemaError{Set: "scalars", Element: k, Reason: "not declared"}
		}
	}
	for _, p := range []struct {
		name string
		dst  *float64
	}{{ParamWeight, &in.weight}, {ParamUnservedCost, &in.unservedCost}} {
		v, ok := scalars[p.name]
		if !ok {
			return &DataError{Parameter: p.name, Reason: "missing"}
		}
		if err := checkValue(p.name, NonNegativeReals, v); err != nil {
			return err
		}
		*p.dst = v
	}
	return nil
}

func (in *Instance) bindDemand(demand map[string]float64) error {
	for p := range demand {
		if _, err := in.periods.mustIndex(p); err != nil {
			return err
		}
	}
	in.demand = make([]float64, in.periods.Len())
	for i, p := range in.periods.elems {
		v, ok := demand[p]
		if !ok {
			return &DataError{Parameter: ParamDemand, Index: []string{p}, Reason: "missing"}
		}
		if err := checkValue(ParamDemand, NonNegativeReals, v, p); err != nil {
			return err
		}
		in.demand[i] = v
	}
	return nil
}

func (in *Instance) bindGeneration(gen map[string]Technology) error {
	for g := range gen {
		if _, err := in.technologies.mustIndex(g); err != nil {
			return err
		}
	}
	in.generation = make([]Technology, in.technologies.Len())
	for i, g := range in.technologies.elems {
		t, ok := gen[g]
		if !ok {
			return &DataError{Parameter: ParamUnitCapacity, Index: []string{g}, Reason: "missing technology data"}
		}
		if err := checkValue(ParamVariableCost, NonNegativeReals, t.VariableCost, g); err != nil {
			return err
		}
		if err := checkValue(ParamInvestmentCost, NonNegativeReals, t.InvestmentCost, g); err != nil {
			return err
		}
		if err := checkValue(ParamUnitCapacity, PositiveReals, t.UnitCapacity, g); err != nil {
			return err
		}
		in.generation[i] = t
	}
	return nil
}

func (in *Instance) bindProbability(prob map[string]float64, tol float64) error {
	for sc := range prob {
		if _, err := in.scenarios.mustIndex(sc); err != nil {
			return err
		}
	}
	in.probability = make([]float64, in.scenarios.Len())
	sum := 0.0
	for i, sc := range in.scenarios.elems {
		v, ok := prob[sc]
		if !ok {
			return &DataError{Parameter: ParamScenarioProbability, Index: []string{sc}, Reason: "missing"}
		}
		if err := checkValue(ParamScenarioProbability, UnitInterval, v, sc); err != nil {
			return err
		}
		if v == 0 {
			return &DataError{Parameter: ParamScenarioProbability, Index: []string{sc}, Reason: "zero probability"}
		}
		in.probability[i] = v
		sum += v
	}
	if math.Abs(sum-1) > tol {
		return &DataError{Parameter: ParamScenarioProbability, Reason: fmt.Sprintf("probabilities sum to %v, want 1 within %v", sum, tol)}
	}
	return nil
}

func (in *Instance) availabilityIndex(k AvailabilityKey) ([3]int, error) {
	var idx [3]int
	var err error
	if idx[0], err = in.scenarios.mustIndex(k.Scenario); err != nil {
		return idx, err
	}
	if idx[1], err = in.technologies.mustIndex(k.Technology); err != nil {
		return idx, err
	}
	if idx[2], err = in.periods.mustIndex(k.Period); err != nil {
		return idx, err
	}
	return idx, nil
}

func (in *Instance) bindAvailability(avail map[AvailabilityKey]float64) error {
	in.availability = make(map[[3]int]float64, len(avail))
	for k, v := range avail {
		idx, err := in.availabilityIndex(k)
		if err != nil {
			return err
		}
		if err := checkValue(ParamAvailability, UnitInterval, v, k.Scenario, k.Technology, k.Period); err != nil {
			return err
		}
		in.availability[idx] = v
	}
	return nil
}

// availabilityAt returns the availability of technology g in period p under
// scenario sc, 1 when none was given.
func (in *Instance) availabilityAt(sc, g, p int) float64 {
	if v, ok := in.availability[[3]int{sc, g, p}]; ok {
		return v
	}
	return 1
}

// Availability returns the availability factor in effect for `k`.
func (in *Instance) Availability(k AvailabilityKey) (float64, error) {
	idx, err := in.availabilityIndex(k)
	if err != nil {
		return 0, err
	}
	return in.availabilityAt(idx[0], idx[1], idx[2]), nil
}

// SetAvailability replaces one availability factor and rebuilds the constraint
// rows. Any solution held by the Instance is discarded.
func (in *Instance) SetAvailability(k AvailabilityKey, v float64) error {
	idx, err := in.availabilityIndex(k)
	if err != nil {
		return err
	}
	if err := checkValue(ParamAvailability, UnitInterval, v, k.Scenario, k.Technology, k.Period); err != nil {
		return err
	}
	in.availability[idx] = v
	if log.V(1) {
		log.Infof("instance %s: %s(%s,%s,%s) = %v", in.id, ParamAvailability, k.Scenario, k.Technology, k.Period, v)
	}
	return in.materialize()
}

// materialize generates the MILP model from the bound data.
func (in *Instance) materialize() error {
	b := milp.NewBuilder(in.name)
	v := declareVariables(b, in)
	addInvestmentCostRow(b, in, v)
	addOperatingCostRow(b, in, v)
	addBalanceRows(b, in, v)
	addCapacityRows(b, in, v)
	addUnservedCeilingRows(b, in, v)
	b.Minimize(milp.NewLinearExpr().AddTerm(v.investmentCost, 1).AddTerm(v.operatingCost, 1))
	m, err := b.Model()
	if err != nil {
		return fmt.Errorf("materializing instance %s: %w", in.id, err)
	}
	in.vars = v
	in.model = m
	in.status = milp.NotSolved
	in.values = nil
	return nil
}

// ID returns the unique identifier of the Instance.
func (in *Instance) ID() uuid.UUID {
	return in.id
}

// Periods returns the period set.
func (in *Instance) Periods() *Set {
	return in.periods
}

// Scenarios returns the scenario set.
func (in *Instance) Scenarios() *Set {
	return in.scenarios
}

// Technologies returns the technology set.
func (in *Instance) Technologies() *Set {
	return in.technologies
}

// Model returns the materialized MILP model. It must not be modified.
func (in *Instance) Model() *milp.Model {
	return in.model
}

// NumVariables returns the number of decision variables.
func (in *Instance) NumVariables() int {
	return in.model.NumVariables()
}

// NumConstraints returns the number of constraint rows.
func (in *Instance) NumConstraints() int {
	return in.model.NumRows()
}

// Status returns the status of the last solve, NotSolved if there was none.
func (in *Instance) Status() milp.Status {
	return in.status
}

// Solved reports whether the Instance holds solution values.
func (in *Instance) Solved() bool {
	return in.values != nil
}

// WriteLP writes the model in LP format.
func (in *Instance) WriteLP(w io.Writer) error {
	return milp.WriteLP(w, in.model)
}

// MarshalModel returns the model as a serialized MPModelProto.
func (in *Instance) MarshalModel() ([]byte, error) {
	return milp.MarshalMPModel(in.model)
}
