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

package milp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Status is the termination outcome of a solve.
type Status int

const (
	// NotSolved is the status of a model that was never handed to a solver.
	NotSolved Status = iota
	// Optimal means the solver proved the returned solution optimal.
	Optimal
	// Feasible means a solution was found, but the search stopped on the gap
	// tolerance or on a limit before proving optimality.
	Feasible
	// Infeasible means the model has no feasible point.
	Infeasible
	// Unbounded means the objective can decrease without limit.
	Unbounded
	// Error means the solver failed; Response.Detail says why.
	Error
)

var statusNames = map[Status]string{
	NotSolved:  "NOT_SOLVED",
	Optimal:    "OPTIMAL",
	Feasible:   "FEASIBLE",
	Infeasible: "INFEASIBLE",
	Unbounded:  "UNBOUNDED",
	Error:      "ERROR",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// HasSolution reports whether variable values come with the status.
func (s Status) HasSolution() bool {
	return s == Optimal || s == Feasible
}

// Parameters are the solver settings shared by all backends.
type Parameters struct {
	// RelativeGap is the MIP optimality gap at which the search may stop.
	RelativeGap float64
	// TimeLimit bounds the wall time of the solve. Zero means no limit.
	TimeLimit time.Duration
	// Threads is passed to backends that run in parallel. Zero lets the backend decide.
	Threads int
	// Verbose enables the backend's own progress output.
	Verbose bool
}

// DefaultParameters returns the parameters used when nothing is configured.
func DefaultParameters() Parameters {
	return Parameters{RelativeGap: 1e-4}
}

// Validate checks the parameters for values no backend can honor.
func (p Parameters) Validate() error {
	if math.IsNaN(p.RelativeGap) || p.RelativeGap < 0 {
		return fmt.Errorf("relative gap %v must be non-negative", p.RelativeGap)
	}
	if p.TimeLimit < 0 {
		return fmt.Errorf("time limit %v must be non-negative", p.TimeLimit)
	}
	if p.Threads < 0 {
		return fmt.Errorf("threads %d must be non-negative", p.Threads)
	}
	return nil
}

// Response is what a solver returns.
type Response struct {
	Status Status
	// Objective is the objective value of Values. Only meaningful when
	// Status.HasSolution().
	Objective float64
	// BestBound is the proven bound on the optimal objective. NaN when unknown.
	BestBound float64
	// Values holds one value per model variable, or nil.
	Values []float64
	// Nodes is the number of branch-and-bound nodes explored, when reported.
	Nodes int64
	Detail string
}

// Gap returns the relative gap between the objective and the best bound.
func (r *Response) Gap() float64 {
	return RelativeGap(r.Objective, r.BestBound)
}

// RelativeGap returns `|objective - bound| / |objective|`, guarded against a
// zero objective. An unknown bound yields +Inf.
func RelativeGap(objective, bound float64) float64 {
	if math.IsNaN(bound) || math.IsInf(bound, 0) {
		return math.Inf(1)
	}
	return math.Abs(objective-bound) / math.Max(math.Abs(objective), 1e-10)
}

// Solver is implemented by every MILP backend.
type Solver interface {
	// Name is the identity under which the solver is registered.
	Name() string
	// Solve runs the backend on `m`. The returned error is reserved for
	// failures to run the backend at all; solve outcomes are statuses.
	Solve(ctx context.Context, m *Model, p Parameters) (*Response, error)
}

// ErrUnknownSolver is returned by Lookup for names nobody registered.
var ErrUnknownSolver = errors.New("unknown solver")

var registry = struct {
	sync.RWMutex
	solvers map[string]Solver
}{solvers: make(map[string]Solver)}

// Register makes a solver available by name. It panics if the name is
// already taken, since that can only be a linking mistake.
func Register(s Solver) {
	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.solvers[s.Name()]; dup {
		panic("milp: Register called twice for solver " + s.Name())
	}
	registry.solvers[s.Name()] = s
}

// Lookup returns the solver registered under `name`.
func Lookup(name string) (Solver, error) {
	registry.RLock()
	defer registry.RUnlock()
	s, ok := registry.solvers[name]
	if !ok {
		return nil, fmt.Errorf("solver %q not linked (registered: %s)."+
			" Make sure to import the package implementing it: %w",
			name, strings.Join(registeredLocked(), ", "), ErrUnknownSolver)
	}
	return s, nil
}

// Registered returns the sorted names of all linked solvers.
func Registered() []string {
	registry.RLock()
	defer registry.RUnlock()
	return registeredLocked()
}

func registeredLocked() []string {
	names := make([]string, 0, len(registry.solvers))
	for n := range registry.solvers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
