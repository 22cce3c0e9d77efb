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
	"math"

	"github.com/google/or-tools-gep/ortools/gep/go/milp"
)

// TechnologyResult is the investment decision for one technology.
type TechnologyResult struct {
	Technology        string
	InstalledUnits    int64
	InstalledCapacity float64
	IsRenewable       bool
}

// Result is the investment plan of a solved Instance.
type Result struct {
	Status milp.Status
	// Technologies follow the declaration order of the technology set.
	Technologies   []TechnologyResult
	InvestmentCost float64
	OperatingCost  float64
	TotalCost      float64
}

// DispatchRecord is the production of one technology in one period of one
// scenario.
type DispatchRecord struct {
	Scenario   string
	Technology string
	Period     string
	Production float64
}

// UnservedRecord is the unserved energy in one period of one scenario.
type UnservedRecord struct {
	Scenario string
	Period   string
	Unserved float64
}

func (in *Instance) value(v milp.VarIndex) float64 {
	return in.values[v]
}

func (in *Instance) checkSolved() error {
	if in.values == nil {
		return fmt.Errorf("instance %s (status %v): %w", in.id, in.status, ErrNotSolved)
	}
	return nil
}

// Extract returns the investment plan of `in`, or ErrNotSolved when the last
// solve did not end Optimal or Feasible.
func Extract(in *Instance) (*Result, error) {
	if err := in.checkSolved(); err != nil {
		return nil, err
	}
	r := &Result{
		Status:         in.status,
		Technologies:   make([]TechnologyResult, in.technologies.Len()),
		InvestmentCost: in.value(in.vars.investmentCost),
		OperatingCost:  in.value(in.vars.operatingCost),
	}
	r.TotalCost = r.InvestmentCost + r.OperatingCost
	for t, gen := range in.generation {
		units := int64(math.Round(in.value(in.vars.installed[t])))
		r.Technologies[t] = TechnologyResult{
			Technology:        in.technologies.Element(t),
			InstalledUnits:    units,
			InstalledCapacity: gen.UnitCapacity * float64(units),
			IsRenewable:       gen.IsRenewable,
		}
	}
	return r, nil
}

// Dispatch returns the production of every (sc,g,p) in set order.
func Dispatch(in *Instance) ([]DispatchRecord, error) {
	if err := in.checkSolved(); err != nil {
		return nil, err
	}
	var recs []DispatchRecord
	for s, byTech := range in.vars.production {
		for t, byPeriod := range byTech {
			for q, v := range byPeriod {
				recs = append(recs, DispatchRecord{
					Scenario:   in.scenarios.Element(s),
					Technology: in.technologies.Element(t),
					Period:     in.periods.Element(q),
					Production: in.value(v),
				})
			}
		}
	}
	return recs, nil
}

// UnservedEnergy returns the unserved energy of every (sc,p) in set order.
func UnservedEnergy(in *Instance) ([]UnservedRecord, error) {
	if err := in.checkSolved(); err != nil {
		return nil, err
	}
	var recs []UnservedRecord
	for s, byPeriod := range in.vars.unserved {
		for q, v := range byPeriod {
			recs = append(recs, UnservedRecord{
				Scenario: in.scenarios.Element(s),
				Period:   in.periods.Element(q),
				Unserved: in.value(v),
			})
		}
	}
	return recs, nil
}
