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

// Package bnb is a pure Go MILP solver: best-bound branch and bound over LP
// relaxations solved with gonum's simplex.
//
// It is meant for small and medium models and for tests. Linking this package
// registers it with milp under the name "bnb".
package bnb

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/golang/glog"

	"github.com/google/or-tools-gep/ortools/gep/go/milp"
)

// Name is the identity under which the solver is registered.
const Name = "bnb"

// closedGap is the relative gap under which the search counts as proven optimal.
const closedGap = 1e-9

func init() {
	milp.Register(New())
}

// Solver is the branch-and-bound backend. It ignores Parameters.Threads.
type Solver struct {
	// IntegralityTolerance is the distance to the nearest integer under which
	// an integer variable counts as integral.
	IntegralityTolerance float64
	// SimplexTolerance is passed to lp.Simplex.
	SimplexTolerance float64
	// MaxNodes stops the search after that many LP solves. Zero means no limit.
	MaxNodes int64
}

// New returns a Solver with default tolerances.
func New() *Solver {
	return &Solver{
		IntegralityTolerance: 1e-6,
		SimplexTolerance:     1e-10,
		MaxNodes:             1000000,
	}
}

// Name implements milp.Solver.
func (s *Solver) Name() string {
	return Name
}

type node struct {
	lb, ub []float64
	// bound is the LP objective of the parent, a lower bound for this subtree.
	bound float64
	depth int
}

func (n *node) child(bound float64) *node {
	return &node{
		lb:    append([]float64(nil), n.lb...),
		ub:    append([]float64(nil), n.ub...),
		bound: bound,
		depth: n.depth + 1,
	}
}

// nodeQueue orders open nodes by bound, deeper nodes first on ties.
type nodeQueue []*node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].bound != q[j].bound {
		return q[i].bound < q[j].bound
	}
	return q[i].depth > q[j].depth
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(*node)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// search holds the state of one Solve call. Objectives are in minimization sense.
type search struct {
	s         *Solver
	m         *milp.Model
	sign      float64
	queue     nodeQueue
	incumbent []float64
	incObj    float64
	nodes     int64
	// lostBound is the smallest bound of subtrees dropped after an LP failure.
	lostBound float64
	lastErr   error
}

// Solve implements milp.Solver.
func (s *Solver) Solve(ctx context.Context, m *milp.Model, p milp.Parameters) (*milp.Response, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.TimeLimit)
		defer cancel()
	}
	start := time.Now()

	st := &search{s: s, m: m, sign: 1, incObj: math.Inf(1), lostBound: math.Inf(1)}
	if m.Maximize {
		st.sign = -1
	}
	root := &node{
		lb:    make([]float64, len(m.Variables)),
		ub:    make([]float64, len(m.Variables)),
		bound: math.Inf(-1),
	}
	for j, v := range m.Variables {
		root.lb[j], root.ub[j] = v.Lower, v.Upper
		if v.Integer {
			root.lb[j] = math.Ceil(v.Lower - s.IntegralityTolerance)
			root.ub[j] = math.Floor(v.Upper + s.IntegralityTolerance)
		}
	}
	st.queue = nodeQueue{root}

	resp := st.run(ctx, p)
	if p.Verbose || bool(log.V(1)) {
		log.Infof("bnb: %s after %d nodes in %v, objective %v, bound %v", resp.Status, resp.Nodes, time.Since(start), resp.Objective, resp.BestBound)
	}
	return resp, nil
}

func (st *search) run(ctx context.Context, p milp.Parameters) *milp.Response {
	for st.queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			detail := "interrupted"
			if errors.Is(err, context.DeadlineExceeded) {
				detail = "time limit reached"
			}
			return st.stopped(detail)
		}
		if st.s.MaxNodes > 0 && st.nodes >= st.s.MaxNodes {
			return st.stopped("node limit reached")
		}

		best := math.Min(st.queue[0].bound, st.lostBound)
		if st.incumbent != nil {
			if gap := milp.RelativeGap(st.incObj, best); best >= st.incObj || gap <= p.RelativeGap {
				status := milp.Feasible
				if best >= st.incObj || gap <= closedGap {
					status = milp.Optimal
				}
				return st.response(status, math.Min(best, st.incObj), "")
			}
		}

		nd := heap.Pop(&st.queue).(*node)
		if st.pruned(nd.bound) {
			continue
		}
		st.nodes++
		rel := solveRelaxation(st.m, nd.lb, nd.ub, st.s.SimplexTolerance)
		switch rel.status {
		case lpInfeasible:
			continue
		case lpUnbounded:
			return st.response(milp.Unbounded, math.NaN(), "LP relaxation is unbounded")
		case lpFailed:
			if st.nodes == 1 {
				return st.response(milp.Error, math.NaN(), fmt.Sprintf("root LP relaxation failed: %v", rel.err))
			}
			log.Warningf("bnb: dropping node at depth %d: %v", nd.depth, rel.err)
			st.lostBound = math.Min(st.lostBound, nd.bound)
			st.lastErr = rel.err
			continue
		}
		if st.pruned(rel.objective) {
			continue
		}

		j := st.branchingVariable(rel.x)
		if j < 0 {
			x := st.roundIntegers(rel.x)
			if obj := st.sign * st.m.ObjectiveValue(x); obj < st.incObj {
				st.incObj, st.incumbent = obj, x
				if log.V(2) {
					log.Infof("bnb: node %d depth %d: new incumbent %v", st.nodes, nd.depth, st.sign*obj)
				}
			}
			continue
		}

		v := rel.x[j]
		down := nd.child(rel.objective)
		down.ub[j] = math.Floor(v)
		up := nd.child(rel.objective)
		up.lb[j] = math.Ceil(v)
		heap.Push(&st.queue, down)
		heap.Push(&st.queue, up)
		if log.V(2) {
			log.Infof("bnb: node %d depth %d: LP %v, branching on %s = %v", st.nodes, nd.depth, st.sign*rel.objective, st.m.Variables[j].Name, v)
		}
	}

	// Every subtree was explored or pruned.
	switch {
	case st.incumbent == nil && st.lastErr != nil:
		return st.response(milp.Error, math.NaN(), fmt.Sprintf("LP relaxation failed: %v", st.lastErr))
	case st.incumbent == nil:
		return st.response(milp.Infeasible, math.NaN(), "")
	case st.lastErr != nil:
		return st.response(milp.Feasible, math.Min(st.lostBound, st.incObj), fmt.Sprintf("subtrees dropped after LP failure: %v", st.lastErr))
	}
	return st.response(milp.Optimal, st.incObj, "")
}

// pruned reports whether a subtree with the given bound cannot beat the incumbent.
func (st *search) pruned(bound float64) bool {
	if st.incumbent == nil {
		return false
	}
	return bound >= st.incObj-closedGap*math.Max(1, math.Abs(st.incObj))
}

// stopped builds the response of a search cut short by a limit.
func (st *search) stopped(detail string) *milp.Response {
	if st.incumbent == nil {
		return st.response(milp.Error, math.NaN(), detail+" before a feasible solution was found")
	}
	best := st.lostBound
	if st.queue.Len() > 0 {
		best = math.Min(best, st.queue[0].bound)
	}
	return st.response(milp.Feasible, math.Min(best, st.incObj), detail)
}

func (st *search) response(status milp.Status, bound float64, detail string) *milp.Response {
	r := &milp.Response{
		Status:    status,
		BestBound: st.sign * bound,
		Nodes:     st.nodes,
		Detail:    detail,
	}
	if status.HasSolution() {
		r.Objective = st.sign * st.incObj
		r.Values = st.incumbent
	}
	return r
}

// branchingVariable returns the most fractional integer variable, or -1.
func (st *search) branchingVariable(x []float64) int {
	best, bestFrac := -1, st.s.IntegralityTolerance
	for j, v := range st.m.Variables {
		if !v.Integer {
			continue
		}
		frac := math.Abs(x[j] - math.Round(x[j]))
		if frac > bestFrac {
			best, bestFrac = j, frac
		}
	}
	return best
}

func (st *search) roundIntegers(x []float64) []float64 {
	out := append([]float64(nil), x...)
	for j, v := range st.m.Variables {
		if v.Integer {
			out[j] = math.Round(out[j])
		}
	}
	return out
}
