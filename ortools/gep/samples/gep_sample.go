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

// [START program]
// The gep_sample_go command plans gas and solar capacity for a sunny and a
// cloudy year.
package main

import (
	"context"
	"fmt"

	log "github.com/golang/glog"

	"github.com/google/or-tools-gep/ortools/gep/go/gepmodel"
	"github.com/google/or-tools-gep/ortools/gep/go/milp"
	"github.com/google/or-tools-gep/ortools/gep/go/milp/bnb"
)

// solarProfile is the solar availability per period of each scenario.
var solarProfile = map[string][]float64{
	"sunny":  {0, 0.8, 1, 0.2},
	"cloudy": {0, 0.3, 0.5, 0.1},
}

func sampleData() gepmodel.Data {
	d := gepmodel.Data{
		Periods:      []string{"h1", "h2", "h3", "h4"},
		Scenarios:    []string{"sunny", "cloudy"},
		Technologies: []string{"gas", "solar"},
		Scalars:      map[string]float64{gepmodel.ParamWeight: 365, gepmodel.ParamUnservedCost: 10},
		Demand:       map[string]float64{"h1": 40, "h2": 60, "h3": 80, "h4": 50},
		Generation: map[string]gepmodel.Technology{
			"gas":   {VariableCost: 0.05, InvestmentCost: 60, UnitCapacity: 20},
			"solar": {VariableCost: 0, InvestmentCost: 40, UnitCapacity: 10, IsRenewable: true},
		},
		Probability:  map[string]float64{"sunny": 0.6, "cloudy": 0.4},
		Availability: make(map[gepmodel.AvailabilityKey]float64),
	}
	for sc, profile := range solarProfile {
		for i, v := range profile {
			d.Availability[gepmodel.AvailabilityKey{Scenario: sc, Technology: "solar", Period: d.Periods[i]}] = v
		}
	}
	return d
}

func gepSample() error {
	in, err := gepmodel.Build(sampleData())
	if err != nil {
		return fmt.Errorf("failed to build the instance: %w", err)
	}
	fmt.Printf("Number of variables: %d\n", in.NumVariables())
	fmt.Printf("Number of constraints: %d\n", in.NumConstraints())

	out := gepmodel.Solve(context.Background(), in, bnb.New(), milp.DefaultParameters())
	if !out.Status.HasSolution() {
		fmt.Printf("The problem is not optimal: %v\n", out)
		return nil
	}
	r, err := gepmodel.Extract(in)
	if err != nil {
		return err
	}
	fmt.Printf("Status: %v\n", out.Status)
	for _, t := range r.Technologies {
		fmt.Printf("%-6s %2d units %6.1f MW\n", t.Technology, t.InstalledUnits, t.InstalledCapacity)
	}
	fmt.Printf("total cost: %.2f (investment %.2f, operating %.2f)\n", r.TotalCost, r.InvestmentCost, r.OperatingCost)
	return nil
}

func main() {
	if err := gepSample(); err != nil {
		log.Exitf("gepSample returned with error: %v", err)
	}
}

// [END program]
