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
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// termsPerLine keeps LP lines well under the 560 characters readers accept.
const termsPerLine = 8

// LPNames returns the LP-legal names of the variables and rows of `m`.
//
// Characters LP readers reject are replaced by '_', and names that collide
// after the replacement get a numeric suffix, starting at their index, that
// no earlier name uses.
func LPNames(m *Model) (vars, rows []string) {
	seen := make(map[string]bool)
	unique := func(name string, i int) string {
		n := sanitizeLPName(name)
		for base, k := n, i; seen[n]; k++ {
			n = base + "_" + strconv.Itoa(k)
		}
		seen[n] = true
		return n
	}
	vars = make([]string, len(m.Variables))
	for i, v := range m.Variables {
		vars[i] = unique(v.Name, i)
	}
	seen = make(map[string]bool)
	rows = make([]string, len(m.Rows))
	for i, r := range m.Rows {
		rows[i] = unique(r.Name, i)
	}
	return vars, rows
}

func sanitizeLPName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case strings.ContainsRune("_().", r):
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	n := sb.String()
	if n == "" {
		return "_"
	}
	// Names may not look like numbers.
	if c := n[0]; (c >= '0' && c <= '9') || c == '.' || ((c == 'e' || c == 'E') && len(n) > 1 && n[1] >= '0' && n[1] <= '9') {
		n = "_" + n
	}
	return n
}

func formatLPNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeLPTerms(w *bufio.Writer, terms []Term, names []string) {
	for i, t := range terms {
		if i > 0 && i%termsPerLine == 0 {
			w.WriteString("\n  ")
		}
		if t.Coeff < 0 {
			fmt.Fprintf(w, " - %s %s", formatLPNumber(-t.Coeff), names[t.Var])
		} else {
			fmt.Fprintf(w, " + %s %s", formatLPNumber(t.Coeff), names[t.Var])
		}
	}
}

// WriteLP writes `m` in CPLEX LP format.
//
// Ranged rows are written as two one-sided rows suffixed `_lo` and `_up`.
func WriteLP(w io.Writer, m *Model) error {
	if len(m.Variables) == 0 {
		return fmt.Errorf("cannot export a model without variables as LP format: %w", ErrInvalidModel)
	}
	vars, rows := LPNames(m)
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\\* %s *\\\n\n", m.Name)
	if m.Maximize {
		bw.WriteString("maximize\n")
	} else {
		bw.WriteString("minimize\n")
	}
	bw.WriteString(" obj:")
	writeLPTerms(bw, m.Objective, vars)
	if m.ObjectiveOffset != 0 {
		fmt.Fprintf(bw, " + %s", formatLPNumber(m.ObjectiveOffset))
	}
	if len(m.Objective) == 0 && m.ObjectiveOffset == 0 {
		fmt.Fprintf(bw, " 0 %s", vars[0])
	}
	bw.WriteString("\n\nsubject to\n")

	writeRow := func(name string, terms []Term, op string, rhs float64) {
		fmt.Fprintf(bw, " %s:", name)
		writeLPTerms(bw, terms, vars)
		if len(terms) == 0 {
			fmt.Fprintf(bw, " 0 %s", vars[0])
		}
		fmt.Fprintf(bw, " %s %s\n", op, formatLPNumber(rhs))
	}
	for i, r := range m.Rows {
		lo, up := !math.IsInf(r.Lower, -1), !math.IsInf(r.Upper, 1)
		switch {
		case r.IsEquality():
			writeRow(rows[i], r.Terms, "=", r.Lower)
		case lo && up:
			writeRow(rows[i]+"_lo", r.Terms, ">=", r.Lower)
			writeRow(rows[i]+"_up", r.Terms, "<=", r.Upper)
		case lo:
			writeRow(rows[i], r.Terms, ">=", r.Lower)
		case up:
			writeRow(rows[i], r.Terms, "<=", r.Upper)
		}
	}

	bw.WriteString("\nbounds\n")
	for i, v := range m.Variables {
		lo, up := !math.IsInf(v.Lower, -1), !math.IsInf(v.Upper, 1)
		switch {
		case v.Lower == 0 && !up:
			// Default LP bounds.
		case v.Lower == v.Upper:
			fmt.Fprintf(bw, " %s = %s\n", vars[i], formatLPNumber(v.Lower))
		case !lo && !up:
			fmt.Fprintf(bw, " %s free\n", vars[i])
		case !up:
			fmt.Fprintf(bw, " %s >= %s\n", vars[i], formatLPNumber(v.Lower))
		default:
			fmt.Fprintf(bw, " %s <= %s <= %s\n", formatLPNumber(v.Lower), vars[i], formatLPNumber(v.Upper))
		}
	}

	if m.NumIntegers() > 0 {
		bw.WriteString("\ngeneral\n")
		for i, v := range m.Variables {
			if v.Integer {
				fmt.Fprintf(bw, " %s\n", vars[i])
			}
		}
	}
	bw.WriteString("\nend\n")
	return bw.Flush()
}
