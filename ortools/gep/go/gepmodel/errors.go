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
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema is wrapped by every SchemaError.
	ErrSchema = errors.New("gep: schema error")
	// ErrData is wrapped by every DataError.
	ErrData = errors.New("gep: data error")
	// ErrNotSolved is returned when results are read from an Instance that holds
	// no solution.
	ErrNotSolved = errors.New("gep: instance has no solution")
)

// SchemaError reports an index that references an undeclared or duplicated
// set element.
type SchemaError struct {
	Set     string
	Element string
	Reason  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: set %s, element %q: %s", ErrSchema, e.Set, e.Element, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// DataError reports a missing or out-of-domain parameter value.
type DataError struct {
	Parameter string
	// Index holds the set elements the value is indexed by, empty for scalars.
	Index  []string
	Reason string
}

func (e *DataError) Error() string {
	name := e.Parameter
	if len(e.Index) > 0 {
		name = fmt.Sprintf("%s[%s]", e.Parameter, strings.Join(e.Index, ","))
	}
	return fmt.Sprintf("%v: %s: %s", ErrData, name, e.Reason)
}

func (e *DataError) Unwrap() error {
	return ErrData
}
