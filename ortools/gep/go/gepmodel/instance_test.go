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
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/google/or-tools-gep/ortools/gep/go/milp"
	"github.com/google/or-tools-gep/ortools/gep/go/milp/bnb"
)

const tol = 1e-6

// singlePlant is one scenario, two periods and one technology.
func singlePlant() Data {
	return Data{
		Periods:      []string{"p1", "p2"},
		Scenarios:    []string{"sc1"},
		Technologies: []string{"g1"},
		Scalars:      map[string]float64{ParamWeight: 1, ParamUnservedCost: 1000},
		Demand:       map[string]float64{"p1": 5, "p2": 15},
		Generation: map[string]Technology{
			"g1": {VariableCost: 0.01, InvestmentCost: 1, UnitCapacity: 10},
		},
		Probability: map[string]float64{"sc1": 1},
	}
}

// wetAndDry has two equiprobable scenarios; in the dry one g1 is derated in p2.
func wetAndDry() Data {
	d := singlePlant()
	d.Scenarios = []string{"wet", "dry"}
	d.Probability = map[string]float64{"wet": 0.5, "dry": 0.5}
	d.Availability = map[AvailabilityKey]float64{{Scenario: "dry", Technology: "g1", Period: "p2"}: 0.5}
	return d
}

func mustBuild(t *testing.T, d Data, opts ...BuildOption) *Instance {
	t.Helper()
	in, err := Build(d, opts...)
	if err != nil {
		t.Fatalf("Build() returned with unexpected error %v", err)
	}
	return in
}

func solveOptimal(t *testing.T, in *Instance) Outcome {
	t.Helper()
	p := milp.DefaultParameters()
	p.RelativeGap = 0
	out := Solve(context.Background(), in, bnb.New(), p)
	if out.Status != milp.Optimal {
		t.Fatalf("Solve() = %v, want status %v", out, milp.Optimal)
	}
	return out
}

func mustExtract(t *testing.T, in *Instance) *Result {
	t.Helper()
	r, err := Extract(in)
	if err != nil {
		t.Fatalf("Extract() returned with unexpected error %v", err)
	}
	return r
}

func TestBuildErrors(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(d *Data)
		opts   []BuildOption
		want   error
	}{
		{
			name:   "DuplicatePeriod",
			modify: func(d *Data) { d.Periods = append(d.Periods, "p1") },
			want:   ErrSchema,
		},
		{
			name:   "EmptyTechnologyName",
			modify: func(d *Data) { d.Technologies = append(d.Technologies, "") },
			want:   ErrSchema,
		},
		{
			name:   "DemandForUndeclaredPeriod",
			modify: func(d *Data) { d.Demand["p9"] = 1 },
			want:   ErrSchema,
		},
		{
			name:   "UnknownScalar",
			modify: func(d *Data) { d.Scalars["pDiscount"] = 0.05 },
			want:   ErrSchema,
		},
		{
			name: "AvailabilityForUndeclaredTechnology",
			modify: func(d *Data) {
				d.Availability = map[AvailabilityKey]float64{{Scenario: "sc1", Technology: "g9", Period: "p1"}: 0.5}
			},
			want: ErrSchema,
		},
		{
			name:   "MissingDemand",
			modify: func(d *Data) { delete(d.Demand, "p2") },
			want:   ErrData,
		},
		{
			name:   "MissingScalar",
			modify: func(d *Data) { delete(d.Scalars, ParamUnservedCost) },
			want:   ErrData,
		},
		{
			name:   "MissingTechnology",
			modify: func(d *Data) { delete(d.Generation, "g1") },
			want:   ErrData,
		},
		{
			name:   "NegativeInvestmentCost",
			modify: func(d *Data) { d.Generation["g1"] = Technology{InvestmentCost: -1, UnitCapacity: 10} },
			want:   ErrData,
		},
		{
			name:   "ZeroUnitCapacity",
			modify: func(d *Data) { d.Generation["g1"] = Technology{InvestmentCost: 1} },
			want:   ErrData,
		},
		{
			name:   "NaNDemand",
			modify: func(d *Data) { d.Demand["p1"] = math.NaN() },
			want:   ErrData,
		},
		{
			name:   "NegativeWeight",
			modify: func(d *Data) { d.Scalars[ParamWeight] = -1 },
			want:   ErrData,
		},
		{
			name:   "ProbabilitiesDoNotSumToOne",
			modify: func(d *Data) { d.Probability["sc1"] = 0.9 },
			want:   ErrData,
		},
		{
			name:   "ZeroProbability",
			modify: func(d *Data) { d.Scenarios = append(d.Scenarios, "sc2"); d.Probability["sc2"] = 0 },
			want:   ErrData,
		},
		{
			name:   "ProbabilityAboveTightTolerance",
			modify: func(d *Data) { d.Probability["sc1"] = 1 - 1e-7 },
			opts:   []BuildOption{WithProbabilityTolerance(1e-9)},
			want:   ErrData,
		},
		{
			name: "AvailabilityAboveOne",
			modify: func(d *Data) {
				d.Availability = map[AvailabilityKey]float64{{Scenario: "sc1", Technology: "g1", Period: "p1"}: 1.5}
			},
			want: ErrData,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := singlePlant()
			tc.modify(&d)
			if _, err := Build(d, tc.opts...); !errors.Is(err, tc.want) {
				t.Errorf("Build() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBuildAcceptsProbabilityWithinTolerance(t *testing.T) {
	d := singlePlant()
	d.Probability["sc1"] = 1 - 1e-7
	mustBuild(t, d)
}

func TestDataErrorFields(t *testing.T) {
	d := singlePlant()
	delete(d.Demand, "p2")
	_, err := Build(d)
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("Build() error = %v, want a *DataError", err)
	}
	want := &DataError{Parameter: ParamDemand, Index: []string{"p2"}, Reason: "missing"}
	if diff := cmp.Diff(want, de); diff != "" {
		t.Errorf("Build() returned unexpected DataError diff (-want+got):\n%s", diff)
	}
	if got, want := de.Error(), "gep: data error: pDemand[p2]: missing"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestInstanceSize(t *testing.T) {
	d := wetAndDry()
	d.Periods = []string{"p1", "p2", "p3"}
	d.Demand["p3"] = 7
	d.Technologies = []string{"g1", "g2"}
	d.Generation["g2"] = Technology{VariableCost: 0, InvestmentCost: 2, UnitCapacity: 5, IsRenewable: true}
	in := mustBuild(t, d)
	// 2 totals + 2*2*3 production + 2 installed + 2*3 unserved.
	if got, want := in.NumVariables(), 22; got != want {
		t.Errorf("NumVariables() = %d, want %d", got, want)
	}
	// 2 cost rows + 2*3 balance + 2*2*3 capacity + 2*3 ceiling.
	if got, want := in.NumConstraints(), 26; got != want {
		t.Errorf("NumConstraints() = %d, want %d", got, want)
	}
	if got := in.Model().NumIntegers(); got != 2 {
		t.Errorf("Model().NumIntegers() = %d, want 2", got)
	}
}

func TestInstalledUnitsAreScenarioIndependent(t *testing.T) {
	d := wetAndDry()
	d.Technologies = []string{"g1", "g2"}
	d.Generation["g2"] = Technology{InvestmentCost: 2, UnitCapacity: 5}
	in := mustBuild(t, d)
	m := in.Model()

	installed := map[string]milp.VarIndex{}
	for i, v := range m.Variables {
		if !strings.HasPrefix(v.Name, VarInstalledUnits+"(") {
			continue
		}
		if !v.Integer || v.Lower != 0 {
			t.Errorf("variable %s: integer = %v, lower = %v, want integer non-negative", v.Name, v.Integer, v.Lower)
		}
		for _, sc := range d.Scenarios {
			if strings.Contains(v.Name, sc) {
				t.Errorf("variable %s is indexed by scenario %s", v.Name, sc)
			}
		}
		installed[v.Name] = milp.VarIndex(i)
	}
	if len(installed) != len(d.Technologies) {
		t.Fatalf("found %d installed units variables, want %d", len(installed), len(d.Technologies))
	}

	rowsPerUnitsVar := map[milp.VarIndex]int{}
	for _, r := range m.Rows {
		if !strings.HasPrefix(r.Name, RowCapacity+"(") {
			continue
		}
		for _, term := range r.Terms {
			if strings.HasPrefix(m.Variables[term.Var].Name, VarInstalledUnits+"(") {
				rowsPerUnitsVar[term.Var]++
			}
		}
	}
	for name, v := range installed {
		// Every (sc,p) capacity row of the technology uses the same variable.
		if got, want := rowsPerUnitsVar[v], len(d.Scenarios)*len(d.Periods); got != want {
			t.Errorf("%s appears in %d capacity rows, want %d", name, got, want)
		}
	}
}

func TestSolveSinglePlant(t *testing.T) {
	in := mustBuild(t, singlePlant())
	out := solveOptimal(t, in)
	if math.Abs(out.Objective-20.2) > tol {
		t.Errorf("Solve().Objective = %v, want 20.2", out.Objective)
	}

	got := mustExtract(t, in)
	want := &Result{
		Status:         milp.Optimal,
		Technologies:   []TechnologyResult{{Technology: "g1", InstalledUnits: 2, InstalledCapacity: 20}},
		InvestmentCost: 20,
		OperatingCost:  0.2,
		TotalCost:      20.2,
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, tol)); diff != "" {
		t.Errorf("Extract() returned unexpected diff (-want+got):\n%s", diff)
	}

	dispatch, err := Dispatch(in)
	if err != nil {
		t.Fatalf("Dispatch() returned with unexpected error %v", err)
	}
	wantDispatch := []DispatchRecord{
		{Scenario: "sc1", Technology: "g1", Period: "p1", Production: 5},
		{Scenario: "sc1", Technology: "g1", Period: "p2", Production: 15},
	}
	if diff := cmp.Diff(wantDispatch, dispatch, cmpopts.EquateApprox(0, tol)); diff != "" {
		t.Errorf("Dispatch() returned unexpected diff (-want+got):\n%s", diff)
	}

	ens, err := UnservedEnergy(in)
	if err != nil {
		t.Fatalf("UnservedEnergy() returned with unexpected error %v", err)
	}
	for _, r := range ens {
		if math.Abs(r.Unserved) > tol {
			t.Errorf("UnservedEnergy() %s/%s = %v, want 0", r.Scenario, r.Period, r.Unserved)
		}
	}
}

func TestSolutionProperties(t *testing.T) {
	d := wetAndDry()
	in := mustBuild(t, d)
	solveOptimal(t, in)
	r := mustExtract(t, in)
	dispatch, err := Dispatch(in)
	if err != nil {
		t.Fatalf("Dispatch() returned with unexpected error %v", err)
	}
	ens, err := UnservedEnergy(in)
	if err != nil {
		t.Fatalf("UnservedEnergy() returned with unexpected error %v", err)
	}

	if got := r.Technologies[0].InstalledUnits; got != 3 {
		t.Errorf("InstalledUnits = %d, want 3", got)
	}

	// Balance is exact per (sc,p).
	served := map[[2]string]float64{}
	for _, rec := range dispatch {
		served[[2]string{rec.Scenario, rec.Period}] += rec.Production
	}
	for _, rec := range ens {
		served[[2]string{rec.Scenario, rec.Period}] += rec.Unserved
		if rec.Unserved < -tol || rec.Unserved > d.Demand[rec.Period]+tol {
			t.Errorf("unserved %s/%s = %v outside [0, %v]", rec.Scenario, rec.Period, rec.Unserved, d.Demand[rec.Period])
		}
	}
	for k, v := range served {
		if math.Abs(v-d.Demand[k[1]]) > tol {
			t.Errorf("production + unserved for %v = %v, want %v", k, v, d.Demand[k[1]])
		}
	}

	// Production respects derated capacity.
	for _, rec := range dispatch {
		avail, err := in.Availability(AvailabilityKey{Scenario: rec.Scenario, Technology: rec.Technology, Period: rec.Period})
		if err != nil {
			t.Fatalf("Availability() returned with unexpected error %v", err)
		}
		limit := avail * r.Technologies[0].InstalledCapacity
		if rec.Production > limit+tol {
			t.Errorf("production %s/%s = %v above %v", rec.Scenario, rec.Period, rec.Production, limit)
		}
	}

	// Cost identities.
	gen := d.Generation["g1"]
	wantInvestment := gen.InvestmentCost * gen.UnitCapacity * float64(r.Technologies[0].InstalledUnits)
	if math.Abs(r.InvestmentCost-wantInvestment) > tol {
		t.Errorf("InvestmentCost = %v, want %v", r.InvestmentCost, wantInvestment)
	}
	wantOperating := 0.0
	for _, rec := range dispatch {
		wantOperating += d.Probability[rec.Scenario] * gen.VariableCost * rec.Production
	}
	for _, rec := range ens {
		wantOperating += d.Probability[rec.Scenario] * d.Scalars[ParamUnservedCost] * rec.Unserved
	}
	wantOperating *= d.Scalars[ParamWeight]
	if math.Abs(r.OperatingCost-wantOperating) > tol {
		t.Errorf("OperatingCost = %v, want %v", r.OperatingCost, wantOperating)
	}
	if math.Abs(r.TotalCost-30.2) > tol {
		t.Errorf("TotalCost = %v, want 30.2", r.TotalCost)
	}
}

func TestInvestmentVersusUnservedEnergy(t *testing.T) {
	testCases := []struct {
		name         string
		unservedCost float64
		wantUnits    int64
		wantTotal    float64
	}{
		{name: "ExpensiveShortfallBuilds", unservedCost: 1000, wantUnits: 1, wantTotal: 10},
		{name: "CheapShortfallDoesNotBuild", unservedCost: 0.5, wantUnits: 0, wantTotal: 5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := singlePlant()
			d.Periods = []string{"p1"}
			d.Demand = map[string]float64{"p1": 10}
			d.Generation["g1"] = Technology{InvestmentCost: 1, UnitCapacity: 10}
			d.Scalars[ParamUnservedCost] = tc.unservedCost
			in := mustBuild(t, d)
			solveOptimal(t, in)
			r := mustExtract(t, in)
			if got := r.Technologies[0].InstalledUnits; got != tc.wantUnits {
				t.Errorf("InstalledUnits = %d, want %d", got, tc.wantUnits)
			}
			if math.Abs(r.TotalCost-tc.wantTotal) > tol {
				t.Errorf("TotalCost = %v, want %v", r.TotalCost, tc.wantTotal)
			}
		})
	}
}

func TestTotalCostGrowsWithDemand(t *testing.T) {
	low := mustBuild(t, singlePlant())
	solveOptimal(t, low)
	d := singlePlant()
	d.Demand["p2"] = 25
	high := mustBuild(t, d)
	solveOptimal(t, high)

	lowCost, highCost := mustExtract(t, low).TotalCost, mustExtract(t, high).TotalCost
	if highCost < lowCost-tol {
		t.Errorf("total cost with higher demand = %v, want at least %v", highCost, lowCost)
	}
	if math.Abs(highCost-30.3) > tol {
		t.Errorf("total cost with higher demand = %v, want 30.3", highCost)
	}
}

func TestTotalCostFallsWithUnservedCost(t *testing.T) {
	var costs []float64
	for _, c := range []float64{1000, 10, 0.5, 0} {
		d := singlePlant()
		d.Scalars[ParamUnservedCost] = c
		in := mustBuild(t, d)
		solveOptimal(t, in)
		costs = append(costs, mustExtract(t, in).TotalCost)
	}
	for i := 1; i < len(costs); i++ {
		if costs[i] > costs[i-1]+tol {
			t.Errorf("total costs %v are not non-increasing as the unserved energy cost falls", costs)
		}
	}
	want := []float64{20.2, 20.2, 10, 0}
	if diff := cmp.Diff(want, costs, cmpopts.EquateApprox(0, tol)); diff != "" {
		t.Errorf("total costs returned unexpected diff (-want+got):\n%s", diff)
	}
}

func TestResolveAfterSetAvailability(t *testing.T) {
	in := mustBuild(t, singlePlant())
	solveOptimal(t, in)

	k := AvailabilityKey{Scenario: "sc1", Technology: "g1", Period: "p2"}
	if err := in.SetAvailability(k, 0.5); err != nil {
		t.Fatalf("SetAvailability() returned with unexpected error %v", err)
	}
	if in.Solved() {
		t.Error("Solved() = true after SetAvailability, want false")
	}
	if _, err := Extract(in); !errors.Is(err, ErrNotSolved) {
		t.Errorf("Extract() error = %v, want %v", err, ErrNotSolved)
	}

	solveOptimal(t, in)
	r := mustExtract(t, in)
	if got := r.Technologies[0].InstalledUnits; got != 3 {
		t.Errorf("InstalledUnits after derating = %d, want 3", got)
	}
	if math.Abs(r.TotalCost-30.2) > tol {
		t.Errorf("TotalCost after derating = %v, want 30.2", r.TotalCost)
	}
}

func TestSetAvailabilityErrors(t *testing.T) {
	in := mustBuild(t, singlePlant())
	if err := in.SetAvailability(AvailabilityKey{Scenario: "sc1", Technology: "g1", Period: "p1"}, -0.1); !errors.Is(err, ErrData) {
		t.Errorf("SetAvailability(-0.1) error = %v, want %v", err, ErrData)
	}
	if err := in.SetAvailability(AvailabilityKey{Scenario: "sc2", Technology: "g1", Period: "p1"}, 0.5); !errors.Is(err, ErrSchema) {
		t.Errorf("SetAvailability(undeclared scenario) error = %v, want %v", err, ErrSchema)
	}
	got, err := in.Availability(AvailabilityKey{Scenario: "sc1", Technology: "g1", Period: "p1"})
	if err != nil || got != 1 {
		t.Errorf("Availability() = %v, %v, want 1, nil", got, err)
	}
}

type fakeSolver struct {
	resp *milp.Response
	err  error
}

func (f *fakeSolver) Name() string {
	return "fake"
}

func (f *fakeSolver) Solve(context.Context, *milp.Model, milp.Parameters) (*milp.Response, error) {
	return f.resp, f.err
}

func TestSolveOutcomes(t *testing.T) {
	testCases := []struct {
		name       string
		solver     *fakeSolver
		wantStatus milp.Status
		wantDetail string
	}{
		{
			name:       "Infeasible",
			solver:     &fakeSolver{resp: &milp.Response{Status: milp.Infeasible, BestBound: math.NaN()}},
			wantStatus: milp.Infeasible,
		},
		{
			name:       "Unbounded",
			solver:     &fakeSolver{resp: &milp.Response{Status: milp.Unbounded, BestBound: math.NaN()}},
			wantStatus: milp.Unbounded,
		},
		{
			name:       "SolverError",
			solver:     &fakeSolver{err: errors.New("license expired")},
			wantStatus: milp.Error,
			wantDetail: "license expired",
		},
		{
			name:       "WrongNumberOfValues",
			solver:     &fakeSolver{resp: &milp.Response{Status: milp.Optimal, Values: []float64{1}}},
			wantStatus: milp.Error,
			wantDetail: "1 values for 7 variables",
		},
		{
			name:       "NoStatus",
			solver:     &fakeSolver{resp: &milp.Response{}},
			wantStatus: milp.Error,
			wantDetail: "without a status",
		},
		{
			name:       "NilResponse",
			solver:     &fakeSolver{},
			wantStatus: milp.Error,
			wantDetail: "no response",
		},
		{
			name: "FeasibleAboveGapTolerance",
			solver: &fakeSolver{resp: &milp.Response{
				Status:    milp.Feasible,
				Objective: 30,
				BestBound: 20,
				Values:    make([]float64, 7),
				Detail:    "node limit reached",
			}},
			wantStatus: milp.Error,
			wantDetail: "node limit reached: gap 0.333 above tolerance 0.0001",
		},
		{
			name: "FeasibleWithUnknownBound",
			solver: &fakeSolver{resp: &milp.Response{
				Status:    milp.Feasible,
				Objective: 30,
				BestBound: math.NaN(),
				Values:    make([]float64, 7),
			}},
			wantStatus: milp.Error,
			wantDetail: "gap +Inf above tolerance",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := mustBuild(t, singlePlant())
			solveOptimal(t, in)

			out := Solve(context.Background(), in, tc.solver, milp.DefaultParameters())
			if out.Status != tc.wantStatus {
				t.Errorf("Solve().Status = %v, want %v", out.Status, tc.wantStatus)
			}
			if !strings.Contains(out.Detail, tc.wantDetail) {
				t.Errorf("Solve().Detail = %q, want it to contain %q", out.Detail, tc.wantDetail)
			}
			if in.Status() != tc.wantStatus {
				t.Errorf("Status() = %v, want %v", in.Status(), tc.wantStatus)
			}
			if _, err := Extract(in); !errors.Is(err, ErrNotSolved) {
				t.Errorf("Extract() error = %v, want %v", err, ErrNotSolved)
			}
			if _, err := Dispatch(in); !errors.Is(err, ErrNotSolved) {
				t.Errorf("Dispatch() error = %v, want %v", err, ErrNotSolved)
			}
		})
	}
}

func TestSolveAcceptsFeasibleWithinGap(t *testing.T) {
	in := mustBuild(t, singlePlant())
	values := []float64{20, 0.2, 5, 15, 2, 0, 0}
	solver := &fakeSolver{resp: &milp.Response{
		Status:    milp.Feasible,
		Objective: 20.2,
		BestBound: 20.199,
		Values:    values,
	}}
	p := milp.DefaultParameters()
	out := Solve(context.Background(), in, solver, p)
	if out.Status != milp.Feasible {
		t.Fatalf("Solve() = %v, want status %v", out, milp.Feasible)
	}
	if out.Gap > p.RelativeGap {
		t.Errorf("Solve().Gap = %v, want at most %v", out.Gap, p.RelativeGap)
	}
	if _, err := Extract(in); err != nil {
		t.Errorf("Extract() returned with unexpected error %v", err)
	}
}

func TestSolveNodeLimitWithoutProvenGap(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	in := mustBuild(t, randomPlan(rng))
	solver := bnb.New()
	solver.MaxNodes = 1
	p := milp.DefaultParameters()
	p.RelativeGap = 0
	out := Solve(context.Background(), in, solver, p)
	if out.Status.HasSolution() && out.Gap > p.RelativeGap {
		t.Errorf("Solve() = %v, accepted a gap above %v", out, p.RelativeGap)
	}
	if out.Status != milp.Optimal {
		if _, err := Extract(in); !errors.Is(err, ErrNotSolved) {
			t.Errorf("Extract() error = %v, want %v", err, ErrNotSolved)
		}
	}
}

func TestExtractBeforeSolve(t *testing.T) {
	in := mustBuild(t, singlePlant())
	if _, err := Extract(in); !errors.Is(err, ErrNotSolved) {
		t.Errorf("Extract() error = %v, want %v", err, ErrNotSolved)
	}
	if _, err := UnservedEnergy(in); !errors.Is(err, ErrNotSolved) {
		t.Errorf("UnservedEnergy() error = %v, want %v", err, ErrNotSolved)
	}
	if got := in.Status(); got != milp.NotSolved {
		t.Errorf("Status() = %v, want %v", got, milp.NotSolved)
	}
}

func TestWriteLP(t *testing.T) {
	in := mustBuild(t, singlePlant())
	var buf bytes.Buffer
	if err := in.WriteLP(&buf); err != nil {
		t.Fatalf("WriteLP() returned with unexpected error %v", err)
	}
	lp := buf.String()
	for _, want := range []string{
		"eBalance(sc1_p2): + 1 vProduct(sc1_g1_p2) + 1 vENS(sc1_p2) = 15",
		"eMaxProd(sc1_g1_p1): + 1 vProduct(sc1_g1_p1) - 10 vInstalUnits(g1) <= 0",
		"general",
	} {
		if !strings.Contains(lp, want) {
			t.Errorf("WriteLP() output does not contain %q:\n%s", want, lp)
		}
	}

	b, err := in.MarshalModel()
	if err != nil {
		t.Fatalf("MarshalModel() returned with unexpected error %v", err)
	}
	m, err := milp.UnmarshalMPModel(b)
	if err != nil {
		t.Fatalf("UnmarshalMPModel() returned with unexpected error %v", err)
	}
	if m.NumVariables() != in.NumVariables() || m.NumRows() != in.NumConstraints() {
		t.Errorf("UnmarshalMPModel() has %d variables and %d rows, want %d and %d",
			m.NumVariables(), m.NumRows(), in.NumVariables(), in.NumConstraints())
	}
}

func ExampleBuild() {
	in, err := Build(singlePlant())
	if err != nil {
		return
	}
	p := milp.DefaultParameters()
	out := Solve(context.Background(), in, bnb.New(), p)
	if !out.Status.HasSolution() {
		return
	}
	r, _ := Extract(in)
	for _, tr := range r.Technologies {
		fmt.Printf("%s: %d units, %v MW\n", tr.Technology, tr.InstalledUnits, tr.InstalledCapacity)
	}
	fmt.Printf("total cost: %.1f\n", r.TotalCost)
	// Output:
	// g1: 2 units, 20 MW
	// total cost: 20.2
}

func TestDeclarations(t *testing.T) {
	d, ok := Lookup(Variables, VarInstalledUnits)
	if !ok {
		t.Fatalf("Lookup(Variables, %q) found nothing", VarInstalledUnits)
	}
	if diff := cmp.Diff([]string{SetTechnology}, d.Index); diff != "" {
		t.Errorf("%s index returned unexpected diff (-want+got):\n%s", VarInstalledUnits, diff)
	}
	if d.Domain != NonNegativeIntegers {
		t.Errorf("%s domain = %v, want %v", VarInstalledUnits, d.Domain, NonNegativeIntegers)
	}
	if _, ok := Lookup(Parameters, "pDiscount"); ok {
		t.Error("Lookup(Parameters, \"pDiscount\") found an undeclared parameter")
	}
	for _, tc := range []struct {
		d    Domain
		v    float64
		want bool
	}{
		{UnitInterval, 1, true},
		{UnitInterval, 1.5, false},
		{PositiveReals, 0, false},
		{NonNegativeIntegers, 2.5, false},
		{Binary, 1, true},
	} {
		if got := tc.d.Contains(tc.v); got != tc.want {
			t.Errorf("%v.Contains(%v) = %v, want %v", tc.d, tc.v, got, tc.want)
		}
	}
}
