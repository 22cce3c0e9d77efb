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
	"math"

	"github.com/google/or-tools-gep/ortools/gep/go/milp"
)

// variables holds the MILP indices of the decision variables.
type variables struct {
	investmentCost milp.VarIndex
	operatingCost  milp.VarIndex
	production     [][][]milp.VarIndex // [sc][g][p]
	installed      []milp.VarIndex     // [g]
	unserved       [][]milp.VarIndex   // [sc][p]
}

func declareVariables(b *milp.Builder, in *Instance) variables {
	inf := math.Inf(1)
	sc, g, p := in.scenarios, in.technologies, in.periods
	var v variables
	v.investmentCost = b.NewVar(0, inf, false, VarInvestmentCost)
	v.operatingCost = b.NewVar(0, inf, false, VarOperatingCost)
	v.production = make([][][]milp.VarIndex, sc.Len())
	for s := range v.production {
		v.production[s] = make([][]milp.VarIndex, g.Len())
		for t := range v.production[s] {
			v.production[s][t] = make([]milp.VarIndex, p.Len())
			for q := range v.production[s][t] {
				v.production[s][t][q] = b.NewVar(0, inf, false,
					indexedName(VarProduction, sc.Element(s), g.Element(t), p.Element(q)))
			}
		}
	}
	v.installed = make([]milp.VarIndex, g.Len())
	for t := range v.installed {
		v.installed[t] = b.NewVar(0, inf, true, indexedName(VarInstalledUnits, g.Element(t)))
	}
	v.unserved = make([][]milp.VarIndex, sc.Len())
	for s := range v.unserved {
		v.unserved[s] = make([]milp.VarIndex, p.Len())
		for q := range v.unserved[s] {
			v.unserved[s][q] = b.NewVar(0, inf, false, indexedName(VarUnserved, sc.Element(s), p.Element(q)))
		}
	}
	return v
}

// addInvestmentCostRow adds
//
//	vInvesCost == sum_g pInvCost[g] * pUnitCap[g] * vInstalUnits[g]
func addInvestmentCostRow(b *milp.Builder, in *Instance, v variables) {
	e := milp.NewLinearExpr().AddTerm(v.investmentCost, 1)
	for t, gen := range in.generation {
		e.AddTerm(v.installed[t], -(gen.InvestmentCost * gen.UnitCapacity))
	}
	b.AddEquality(e, 0, RowInvestmentCost)
}

// addOperatingCostRow adds
//
//	vOperaCost == pWeight * (sum_{sc,g,p} pScProb[sc] * pVarCost[g] * vProduct[sc,g,p]
//	                       + sum_{sc,p} pScProb[sc] * pENSCost * vENS[sc,p])
func addOperatingCostRow(b *milp.Builder, in *Instance, v variables) {
	e := milp.NewLinearExpr().AddTerm(v.operatingCost, 1)
	for s, prob := range in.probability {
		for t, gen := range in.generation {
			for q := range in.demand {
				e.AddTerm(v.production[s][t][q], -in.weight*(prob*gen.VariableCost))
			}
		}
		for q := range in.demand {
			e.AddTerm(v.unserved[s][q], -in.weight*(prob*in.unservedCost))
		}
	}
	b.AddEquality(e, 0, RowOperatingCost)
}

// addBalanceRows adds, for every (sc,p),
//
//	sum_g vProduct[sc,g,p] + vENS[sc,p] == pDemand[p]
func addBalanceRows(b *milp.Builder, in *Instance, v variables) {
	for s := range in.probability {
		for q, d := range in.demand {
			e := milp.NewLinearExpr()
			for t := range in.generation {
				e.AddTerm(v.production[s][t][q], 1)
			}
			e.AddTerm(v.unserved[s][q], 1)
			b.AddEquality(e, d, indexedName(RowBalance, in.scenarios.Element(s), in.periods.Element(q)))
		}
	}
}

// addCapacityRows adds, for every (sc,g,p),
//
//	vProduct[sc,g,p] <= pAviProf[sc,g,p] * pUnitCap[g] * vInstalUnits[g]
//
// The installed units term is the same variable in every scenario.
func addCapacityRows(b *milp.Builder, in *Instance, v variables) {
	for s := range in.probability {
		for t, gen := range in.generation {
			for q := range in.demand {
				e := milp.NewLinearExpr().
					AddTerm(v.production[s][t][q], 1).
					AddTerm(v.installed[t], -(in.availabilityAt(s, t, q) * gen.UnitCapacity))
				b.AddLessOrEqual(e, 0, indexedName(RowCapacity,
					in.scenarios.Element(s), in.technologies.Element(t), in.periods.Element(q)))
			}
		}
	}
}

// addUnservedCeilingRows adds, for every (sc,p),
//
//	vENS[sc,p] <= pDemand[p]
func addUnservedCeilingRows(b *milp.Builder, in *Instance, v variables) {
	for s := range in.probability {
		for q, d := range in.demand {
			b.AddLessOrEqual(milp.NewLinearExpr().AddTerm(v.unserved[s][q], 1), d,
				indexedName(RowUnserved, in.scenarios.Element(s), in.periods.Element(q)))
		}
	}
}
