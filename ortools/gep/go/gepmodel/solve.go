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
	"context"
	"fmt"
	"math"
	"time"

	log "github.com/golang/glog"

	"github.com/google/or-tools-gep/ortools/gep/go/milp"
)

// Outcome is the termination outcome of a solve.
type Outcome struct {
	Status milp.Status
	// Objective and BestBound are meaningful only when Status has a solution.
	Objective float64
	BestBound float64
	Gap       float64
	Nodes     int64
	// Detail is the solver's explanation of a non-optimal status.
	Detail  string
	Solver  string
	Elapsed time.Duration
}

func (o Outcome) String() string {
	s := fmt.Sprintf("%v (solver %s, %v)", o.Status, o.Solver, o.Elapsed.Round(time.Millisecond))
	if o.Status.HasSolution() {
		s += fmt.Sprintf(" objective %v, gap %.3g", o.Objective, o.Gap)
	}
	if o.Detail != "" {
		s += ": " + o.Detail
	}
	return s
}

// Solve submits the model of `in` to `solver` with parameters `p`.
//
// Solve never fails: solver errors are reported as an Error outcome. A
// Feasible response whose gap exceeds p.RelativeGap is an Error too. The
// Instance holds solution values after Solve only when the outcome is Optimal
// or Feasible; any previous solution is discarded.
func Solve(ctx context.Context, in *Instance, solver milp.Solver, p milp.Parameters) Outcome {
	in.status = milp.NotSolved
	in.values = nil
	out := Outcome{
		Status:    milp.Error,
		BestBound: math.NaN(),
		Gap:       math.Inf(1),
		Solver:    solver.Name(),
	}
	if log.V(1) {
		log.Infof("instance %s: solving %d variables, %d constraints with %s (relative gap %v, time limit %v)",
			in.id, in.NumVariables(), in.NumConstraints(), solver.Name(), p.RelativeGap, p.TimeLimit)
	}
	start := time.Now()
	resp, err := solver.Solve(ctx, in.model, p)
	out.Elapsed = time.Since(start)
	switch {
	case err != nil:
		out.Detail = err.Error()
	case resp == nil:
		out.Detail = "solver returned no response"
	case resp.Status == milp.NotSolved:
		out.Detail = "solver returned without a status"
	case resp.Status.HasSolution() && len(resp.Values) != in.NumVariables():
		out.Detail = fmt.Sprintf("solver returned %d values for %d variables", len(resp.Values), in.NumVariables())
	case resp.Status == milp.Feasible && !(resp.Gap() <= p.RelativeGap):
		out.Nodes = resp.Nodes
		out.Detail = fmt.Sprintf("gap %.3g above tolerance %v", resp.Gap(), p.RelativeGap)
		if resp.Detail != "" {
			out.Detail = resp.Detail + ": " + out.Detail
		}
	default:
		out.Status = resp.Status
		out.Nodes = resp.Nodes
		out.Detail = resp.Detail
		if resp.Status.HasSolution() {
			out.Objective = resp.Objective
			out.BestBound = resp.BestBound
			out.Gap = resp.Gap()
			in.values = append([]float64(nil), resp.Values...)
		}
	}
	in.status = out.Status

	if out.Status.HasSolution() {
		if log.V(1) {
			log.Infof("instance %s: %v", in.id, out)
		}
	} else {
		log.Warningf("instance %s: %v", in.id, out)
	}
	return out
}
