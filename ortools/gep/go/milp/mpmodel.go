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
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of operations_research.MPModelProto and its sub-messages, as
// declared in linear_solver.proto.
const (
	mpModelMaximize        protowire.Number = 1
	mpModelObjectiveOffset protowire.Number = 2
	mpModelVariable        protowire.Number = 3
	mpModelConstraint      protowire.Number = 4
	mpModelName            protowire.Number = 5

	mpVariableLowerBound           protowire.Number = 1
	mpVariableUpperBound           protowire.Number = 2
	mpVariableObjectiveCoefficient protowire.Number = 3
	mpVariableIsInteger            protowire.Number = 4
	mpVariableName                 protowire.Number = 5

	mpConstraintLowerBound  protowire.Number = 2
	mpConstraintUpperBound  protowire.Number = 3
	mpConstraintName        protowire.Number = 4
	mpConstraintVarIndex    protowire.Number = 6
	mpConstraintCoefficient protowire.Number = 7
)

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

// MarshalMPModel encodes `m` as a serialized MPModelProto, the model format
// read by the or-tools linear solver wrappers and their solve binaries.
//
// Bounds are always written because the proto defaults are infinite.
func MarshalMPModel(m *Model) ([]byte, error) {
	obj := make([]float64, len(m.Variables))
	for _, t := range m.Objective {
		if int(t.Var) >= len(obj) || t.Var < 0 {
			return nil, fmt.Errorf("objective references unknown variable %d: %w", t.Var, ErrInvalidModel)
		}
		obj[t.Var] += t.Coeff
	}

	var b []byte
	if m.Maximize {
		b = appendBool(b, mpModelMaximize, true)
	}
	if m.ObjectiveOffset != 0 {
		b = appendDouble(b, mpModelObjectiveOffset, m.ObjectiveOffset)
	}
	for i, v := range m.Variables {
		var vb []byte
		vb = appendDouble(vb, mpVariableLowerBound, v.Lower)
		vb = appendDouble(vb, mpVariableUpperBound, v.Upper)
		if obj[i] != 0 {
			vb = appendDouble(vb, mpVariableObjectiveCoefficient, obj[i])
		}
		if v.Integer {
			vb = appendBool(vb, mpVariableIsInteger, true)
		}
		vb = appendString(vb, mpVariableName, v.Name)
		b = protowire.AppendTag(b, mpModelVariable, protowire.BytesType)
		b = protowire.AppendBytes(b, vb)
	}
	for _, r := range m.Rows {
		var cb []byte
		cb = appendDouble(cb, mpConstraintLowerBound, r.Lower)
		cb = appendDouble(cb, mpConstraintUpperBound, r.Upper)
		cb = appendString(cb, mpConstraintName, r.Name)
		if len(r.Terms) > 0 {
			var idx, coeffs []byte
			for _, t := range r.Terms {
				if int(t.Var) >= len(m.Variables) || t.Var < 0 {
					return nil, fmt.Errorf("constraint %s references unknown variable %d: %w", r.Name, t.Var, ErrInvalidModel)
				}
				idx = protowire.AppendVarint(idx, uint64(t.Var))
				coeffs = protowire.AppendFixed64(coeffs, math.Float64bits(t.Coeff))
			}
			cb = protowire.AppendTag(cb, mpConstraintVarIndex, protowire.BytesType)
			cb = protowire.AppendBytes(cb, idx)
			cb = protowire.AppendTag(cb, mpConstraintCoefficient, protowire.BytesType)
			cb = protowire.AppendBytes(cb, coeffs)
		}
		b = protowire.AppendTag(b, mpModelConstraint, protowire.BytesType)
		b = protowire.AppendBytes(b, cb)
	}
	if m.Name != "" {
		b = appendString(b, mpModelName, m.Name)
	}
	return b, nil
}

// UnmarshalMPModel decodes a serialized MPModelProto. Fields this package does
// not model (hints, general constraints, quadratic objective) are skipped.
func UnmarshalMPModel(b []byte) (*Model, error) {
	m := &Model{}
	var obj []float64
	err := forEachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch {
		case num == mpModelMaximize && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(v)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.Maximize = protowire.DecodeBool(x)
		case num == mpModelObjectiveOffset && typ == protowire.Fixed64Type:
			x, n := protowire.ConsumeFixed64(v)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.ObjectiveOffset = math.Float64frombits(x)
		case num == mpModelName && typ == protowire.BytesType:
			m.Name = string(v)
		case num == mpModelVariable && typ == protowire.BytesType:
			variable, c, err := unmarshalVariable(v)
			if err != nil {
				return fmt.Errorf("variable %d: %w", len(m.Variables), err)
			}
			m.Variables = append(m.Variables, variable)
			obj = append(obj, c)
		case num == mpModelConstraint && typ == protowire.BytesType:
			row, err := unmarshalConstraint(v)
			if err != nil {
				return fmt.Errorf("constraint %d: %w", len(m.Rows), err)
			}
			m.Rows = append(m.Rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing MPModelProto: %w", err)
	}
	for i, c := range obj {
		if c != 0 {
			m.Objective = append(m.Objective, Term{Var: VarIndex(i), Coeff: c})
		}
	}
	for _, r := range m.Rows {
		for _, t := range r.Terms {
			if int(t.Var) >= len(m.Variables) {
				return nil, fmt.Errorf("constraint %s references unknown variable %d: %w", r.Name, t.Var, ErrInvalidModel)
			}
		}
	}
	return m, nil
}

// forEachField calls `f` with the raw value of every top-level field of `b`.
// For length-delimited fields `v` is the payload without its length prefix.
func forEachField(b []byte, f func(num protowire.Number, typ protowire.Type, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return protowire.ParseError(m)
		}
		v := b[:m]
		if typ == protowire.BytesType {
			payload, k := protowire.ConsumeBytes(v)
			if k < 0 {
				return protowire.ParseError(k)
			}
			v = payload
		}
		if err := f(num, typ, v); err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

func consumeDouble(v []byte) (float64, error) {
	x, n := protowire.ConsumeFixed64(v)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return math.Float64frombits(x), nil
}

func unmarshalVariable(b []byte) (Variable, float64, error) {
	v := Variable{Lower: math.Inf(-1), Upper: math.Inf(1)}
	var obj float64
	err := forEachField(b, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		var err error
		switch {
		case num == mpVariableLowerBound && typ == protowire.Fixed64Type:
			v.Lower, err = consumeDouble(raw)
		case num == mpVariableUpperBound && typ == protowire.Fixed64Type:
			v.Upper, err = consumeDouble(raw)
		case num == mpVariableObjectiveCoefficient && typ == protowire.Fixed64Type:
			obj, err = consumeDouble(raw)
		case num == mpVariableIsInteger && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return protowire.ParseError(n)
			}
			v.Integer = protowire.DecodeBool(x)
		case num == mpVariableName && typ == protowire.BytesType:
			v.Name = string(raw)
		}
		return err
	})
	return v, obj, err
}

func unmarshalConstraint(b []byte) (Row, error) {
	r := Row{Lower: math.Inf(-1), Upper: math.Inf(1)}
	var idx []VarIndex
	var coeffs []float64
	err := forEachField(b, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		var err error
		switch {
		case num == mpConstraintLowerBound && typ == protowire.Fixed64Type:
			r.Lower, err = consumeDouble(raw)
		case num == mpConstraintUpperBound && typ == protowire.Fixed64Type:
			r.Upper, err = consumeDouble(raw)
		case num == mpConstraintName && typ == protowire.BytesType:
			r.Name = string(raw)
		case num == mpConstraintVarIndex && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return protowire.ParseError(n)
			}
			idx = append(idx, VarIndex(int32(x)))
		case num == mpConstraintVarIndex && typ == protowire.BytesType:
			for len(raw) > 0 {
				x, n := protowire.ConsumeVarint(raw)
				if n < 0 {
					return protowire.ParseError(n)
				}
				idx = append(idx, VarIndex(int32(x)))
				raw = raw[n:]
			}
		case num == mpConstraintCoefficient && typ == protowire.Fixed64Type:
			var c float64
			c, err = consumeDouble(raw)
			coeffs = append(coeffs, c)
		case num == mpConstraintCoefficient && typ == protowire.BytesType:
			for len(raw) > 0 {
				c, cerr := consumeDouble(raw)
				if cerr != nil {
					return cerr
				}
				coeffs = append(coeffs, c)
				raw = raw[8:]
			}
		}
		return err
	})
	if err != nil {
		return Row{}, err
	}
	if len(idx) != len(coeffs) {
		return Row{}, fmt.Errorf("%d var_index for %d coefficient: %w", len(idx), len(coeffs), ErrInvalidModel)
	}
	for i := range idx {
		if idx[i] < 0 {
			return Row{}, fmt.Errorf("negative var_index %d: %w", idx[i], ErrInvalidModel)
		}
		r.Terms = append(r.Terms, Term{Var: idx[i], Coeff: coeffs[i]})
	}
	return r, nil
}
