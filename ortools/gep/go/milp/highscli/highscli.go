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

// Package highscli solves models with the HiGHS command line executable.
//
// The model is written in LP format to a scratch directory, HiGHS is run on it
// and its raw solution file is read back. Linking this package registers the
// backend with milp under the name "highs", using the `highs` binary found on
// PATH.
package highscli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/golang/glog"

	"github.com/google/or-tools-gep/ortools/gep/go/milp"
)

// Name is the identity under which the solver is registered.
const Name = "highs"

func init() {
	milp.Register(&Solver{Executable: "highs"})
}

// Solver runs the HiGHS executable.
type Solver struct {
	// Executable is the path or name of the HiGHS binary.
	Executable string
}

// Name implements milp.Solver.
func (s *Solver) Name() string {
	return Name
}

// WriteOptions writes a HiGHS options file carrying the parameters.
func WriteOptions(w io.Writer, p milp.Parameters) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "mip_rel_gap = %s\n", strconv.FormatFloat(p.RelativeGap, 'g', -1, 64))
	if p.TimeLimit > 0 {
		fmt.Fprintf(bw, "time_limit = %s\n", strconv.FormatFloat(p.TimeLimit.Seconds(), 'g', -1, 64))
	}
	if p.Threads > 0 {
		fmt.Fprintf(bw, "threads = %d\n", p.Threads)
	}
	fmt.Fprintf(bw, "output_flag = %t\n", p.Verbose)
	bw.WriteString("write_solution_style = 0\n")
	return bw.Flush()
}

// Solve implements milp.Solver.
func (s *Solver) Solve(ctx context.Context, m *milp.Model, p milp.Parameters) (*milp.Response, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	exe, err := exec.LookPath(s.Executable)
	if err != nil {
		return nil, fmt.Errorf("HiGHS executable %q not found: %w", s.Executable, err)
	}
	dir, err := os.MkdirTemp("", "highs-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	modelFile := filepath.Join(dir, "model.lp")
	optionsFile := filepath.Join(dir, "highs.opt")
	solutionFile := filepath.Join(dir, "model.sol")
	if err := writeFile(modelFile, func(w io.Writer) error { return milp.WriteLP(w, m) }); err != nil {
		return nil, fmt.Errorf("writing LP model: %w", err)
	}
	if err := writeFile(optionsFile, func(w io.Writer) error { return WriteOptions(w, p) }); err != nil {
		return nil, fmt.Errorf("writing HiGHS options: %w", err)
	}

	cmd := exec.CommandContext(ctx, exe,
		"--model_file", modelFile,
		"--options_file", optionsFile,
		"--solution_file", solutionFile)
	out, runErr := cmd.CombinedOutput()
	if p.Verbose {
		log.Infof("highs output:\n%s", out)
	}
	f, err := os.Open(solutionFile)
	if err != nil {
		if runErr != nil {
			return &milp.Response{Status: milp.Error, BestBound: math.NaN(), Detail: fmt.Sprintf("highs failed: %v: %s", runErr, lastLine(out))}, nil
		}
		return nil, fmt.Errorf("reading HiGHS solution: %w", err)
	}
	defer f.Close()
	return ParseSolution(f, m)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return lines[len(lines)-1]
}

// errMalformed is wrapped by every solution file parsing error.
var errMalformed = errors.New("malformed HiGHS solution file")

// ParseSolution reads a raw-style HiGHS solution file for model `m`.
//
// Column names are matched against the LP names of the model variables.
func ParseSolution(r io.Reader, m *milp.Model) (*milp.Response, error) {
	names, _ := milp.LPNames(m)
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var (
		modelStatus string
		primalValid bool
		objective   = math.NaN()
		values      []float64
	)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "Model status":
			if !sc.Scan() {
				return nil, fmt.Errorf("missing model status: %w", errMalformed)
			}
			modelStatus = strings.TrimSpace(sc.Text())
		case line == "# Primal solution values":
			if !sc.Scan() {
				return nil, fmt.Errorf("missing primal solution status: %w", errMalformed)
			}
			primalValid = strings.TrimSpace(sc.Text()) == "Feasible"
		case strings.HasPrefix(line, "Objective ") && primalValid && values == nil:
			v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "Objective ")), 64)
			if err != nil {
				return nil, fmt.Errorf("objective %q: %w", line, errMalformed)
			}
			objective = v
		case strings.HasPrefix(line, "# Columns ") && primalValid && values == nil:
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "# Columns ")))
			if err != nil {
				return nil, fmt.Errorf("column count %q: %w", line, errMalformed)
			}
			values = make([]float64, len(m.Variables))
			seen := 0
			for i := 0; i < n; i++ {
				if !sc.Scan() {
					return nil, fmt.Errorf("expected %d columns, got %d: %w", n, i, errMalformed)
				}
				fields := strings.Fields(sc.Text())
				if len(fields) < 2 {
					return nil, fmt.Errorf("column line %q: %w", sc.Text(), errMalformed)
				}
				j, ok := index[fields[0]]
				if !ok {
					return nil, fmt.Errorf("unknown column %q: %w", fields[0], errMalformed)
				}
				v, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, fmt.Errorf("column %s value %q: %w", fields[0], fields[1], errMalformed)
				}
				values[j] = v
				seen++
			}
			if seen != len(m.Variables) {
				return nil, fmt.Errorf("solution has %d columns, model has %d: %w", seen, len(m.Variables), errMalformed)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if modelStatus == "" {
		return nil, fmt.Errorf("no model status: %w", errMalformed)
	}

	resp := &milp.Response{BestBound: math.NaN(), Detail: modelStatus}
	switch status := mapStatus(modelStatus); {
	case status == milp.Optimal && values != nil:
		resp.Status = milp.Optimal
		resp.BestBound = objective
		resp.Detail = ""
	case status == milp.Feasible && values != nil:
		resp.Status = milp.Feasible
	case status == milp.Optimal || status == milp.Feasible:
		resp.Status = milp.Error
		resp.Detail = modelStatus + " without a primal solution"
	default:
		resp.Status = status
	}
	if resp.Status.HasSolution() {
		resp.Values = values
		resp.Objective = objective
		if math.IsNaN(objective) {
			resp.Objective = m.ObjectiveValue(values)
		}
	}
	return resp, nil
}

// mapStatus maps a HiGHS model status string to a solve status. Limit
// statuses map to Feasible; the caller downgrades them when no primal
// solution came with them.
func mapStatus(s string) milp.Status {
	switch strings.ToLower(s) {
	case "optimal":
		return milp.Optimal
	case "infeasible", "primal infeasible or unbounded":
		return milp.Infeasible
	case "unbounded":
		return milp.Unbounded
	case "time limit reached", "iteration limit reached", "solution limit reached",
		"interrupted by user", "objective bound", "objective target":
		return milp.Feasible
	}
	return milp.Error
}
