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

package gepdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/golang/glog"
	"gopkg.in/yaml.v3"

	"github.com/google/or-tools-gep/ortools/gep/go/gepmodel"
)

// Output file names.
const (
	InvestmentFile = "oGEP_Invest_Result.csv"
	DispatchFile   = "oGEP_Dispatch_Result.csv"
	UnservedFile   = "oGEP_ENS_Result.csv"
	SummaryFile    = "summary.yaml"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteInvestment writes the installed units and capacity of every
// technology.
func WriteInvestment(w io.Writer, r *gepmodel.Result) error {
	rows := make([][]string, 0, len(r.Technologies))
	for _, t := range r.Technologies {
		rows = append(rows, []string{t.Technology, strconv.FormatInt(t.InstalledUnits, 10), formatFloat(t.InstalledCapacity)})
	}
	return writeCSV(w, []string{gepmodel.SetTechnology, gepmodel.VarInstalledUnits, "pInstalCap"}, rows)
}

// WriteDispatch writes the production of every (sc,g,p).
func WriteDispatch(w io.Writer, recs []gepmodel.DispatchRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{r.Scenario, r.Technology, r.Period, formatFloat(r.Production)})
	}
	return writeCSV(w, []string{gepmodel.SetScenario, gepmodel.SetTechnology, gepmodel.SetPeriod, gepmodel.VarProduction}, rows)
}

// WriteUnserved writes the unserved energy of every (sc,p).
func WriteUnserved(w io.Writer, recs []gepmodel.UnservedRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{r.Scenario, r.Period, formatFloat(r.Unserved)})
	}
	return writeCSV(w, []string{gepmodel.SetScenario, gepmodel.SetPeriod, gepmodel.VarUnserved}, rows)
}

// Costs are the cost totals of a solution.
type Costs struct {
	Total      float64 `yaml:"total"`
	Investment float64 `yaml:"investment"`
	Operating  float64 `yaml:"operating"`
}

// Investment is one technology of the summary.
type Investment struct {
	Technology string  `yaml:"technology"`
	Units      int64   `yaml:"units"`
	CapacityMW float64 `yaml:"capacity_mw"`
	Renewable  bool    `yaml:"renewable"`
}

// Summary describes one solve run.
type Summary struct {
	RunID          string       `yaml:"run_id"`
	InputDir       string       `yaml:"input_dir"`
	Solver         string       `yaml:"solver"`
	Status         string       `yaml:"status"`
	Detail         string       `yaml:"detail,omitempty"`
	Variables      int          `yaml:"variables"`
	Constraints    int          `yaml:"constraints"`
	ElapsedSeconds float64      `yaml:"elapsed_seconds"`
	Nodes          int64        `yaml:"nodes,omitempty"`
	Gap            *float64     `yaml:"gap,omitempty"`
	Costs          *Costs       `yaml:"costs,omitempty"`
	Investments    []Investment `yaml:"investments,omitempty"`
}

// NewSummary summarizes a solve of `in`. `r` is nil when the solve produced no
// solution.
func NewSummary(inputDir string, in *gepmodel.Instance, out gepmodel.Outcome, r *gepmodel.Result) Summary {
	s := Summary{
		RunID:          in.ID().String(),
		InputDir:       inputDir,
		Solver:         out.Solver,
		Status:         out.Status.String(),
		Detail:         out.Detail,
		Variables:      in.NumVariables(),
		Constraints:    in.NumConstraints(),
		ElapsedSeconds: out.Elapsed.Seconds(),
		Nodes:          out.Nodes,
	}
	if out.Status.HasSolution() && !math.IsInf(out.Gap, 0) && !math.IsNaN(out.Gap) {
		gap := out.Gap
		s.Gap = &gap
	}
	if r != nil {
		s.Costs = &Costs{Total: r.TotalCost, Investment: r.InvestmentCost, Operating: r.OperatingCost}
		for _, t := range r.Technologies {
			s.Investments = append(s.Investments, Investment{
				Technology: t.Technology,
				Units:      t.InstalledUnits,
				CapacityMW: t.InstalledCapacity,
				Renewable:  t.IsRenewable,
			})
		}
	}
	return s
}

// WriteSummary writes `s` as a YAML document.
func WriteSummary(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// WriteResults writes the result files of a solved `in` into `dir`, followed
// by the summary. Only the summary is written when `in` holds no solution.
func WriteResults(dir string, in *gepmodel.Instance, s Summary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if in.Solved() {
		r, err := gepmodel.Extract(in)
		if err != nil {
			return err
		}
		dispatch, err := gepmodel.Dispatch(in)
		if err != nil {
			return err
		}
		ens, err := gepmodel.UnservedEnergy(in)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, InvestmentFile), func(w io.Writer) error { return WriteInvestment(w, r) }); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, DispatchFile), func(w io.Writer) error { return WriteDispatch(w, dispatch) }); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, UnservedFile), func(w io.Writer) error { return WriteUnserved(w, ens) }); err != nil {
			return err
		}
	}
	if err := writeFile(filepath.Join(dir, SummaryFile), func(w io.Writer) error { return WriteSummary(w, s) }); err != nil {
		return err
	}
	if log.V(1) {
		log.Infof("instance %s: results written to %s", in.ID(), dir)
	}
	return nil
}
