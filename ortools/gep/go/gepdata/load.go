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

// Package gepdata reads planning data directories and writes solve results.
//
// A data directory holds
//
//	scalars.dat                param pWeight := 1 ;  param pENSCost := 10 ;
//	oGEP_Data_Demand.csv       p,pDemand
//	oGEP_Data_Generation.csv   g,pVarCost,pInvCost,pUnitCap,pIsRenew
//	oGEP_Data_Scenario.csv     sc,pScProb
//	oGEP_Data_GenAviProf.csv   sc,g,p,pAviProf (optional)
//
// Set elements are declared in the row order of the first column.
package gepdata

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/golang/glog"

	"github.com/google/or-tools-gep/ortools/gep/go/gepmodel"
)

// Input file names.
const (
	ScalarsFile      = "scalars.dat"
	DemandFile       = "oGEP_Data_Demand.csv"
	GenerationFile   = "oGEP_Data_Generation.csv"
	ScenarioFile     = "oGEP_Data_Scenario.csv"
	AvailabilityFile = "oGEP_Data_GenAviProf.csv"
)

// LoadDir reads the data directory `dir`.
func LoadDir(dir string) (*gepmodel.Data, error) {
	d := &gepmodel.Data{
		Demand:       make(map[string]float64),
		Generation:   make(map[string]gepmodel.Technology),
		Probability:  make(map[string]float64),
		Availability: make(map[gepmodel.AvailabilityKey]float64),
	}
	var err error
	if d.Scalars, err = readScalarsFile(filepath.Join(dir, ScalarsFile)); err != nil {
		return nil, err
	}
	if err := loadDemand(filepath.Join(dir, DemandFile), d); err != nil {
		return nil, err
	}
	if err := loadGeneration(filepath.Join(dir, GenerationFile), d); err != nil {
		return nil, err
	}
	if err := loadScenarios(filepath.Join(dir, ScenarioFile), d); err != nil {
		return nil, err
	}
	err = loadAvailability(filepath.Join(dir, AvailabilityFile), d)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if log.V(1) {
			log.Infof("%s: no %s, all technologies fully available", dir, AvailabilityFile)
		}
	case err != nil:
		return nil, err
	}
	if log.V(1) {
		log.Infof("loaded %s: %d periods, %d scenarios, %d technologies, %d availability factors",
			dir, len(d.Periods), len(d.Scenarios), len(d.Technologies), len(d.Availability))
	}
	return d, nil
}

func readScalarsFile(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ReadScalars(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadScalars parses `param NAME := VALUE ;` statements. Statements may span
// lines and share a line; `#` starts a comment.
func ReadScalars(r io.Reader) (map[string]float64, error) {
	var text strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		text.WriteString(line)
		text.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	scalars := make(map[string]float64)
	for _, stmt := range strings.Split(text.String(), ";") {
		fields := strings.Fields(stmt)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 4 || fields[0] != "param" || fields[2] != ":=" {
			return nil, fmt.Errorf("malformed statement %q, want \"param NAME := VALUE ;\"", strings.Join(fields, " "))
		}
		name := fields[1]
		if _, ok := scalars[name]; ok {
			return nil, &gepmodel.DataError{Parameter: name, Reason: "assigned more than once"}
		}
		v, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, &gepmodel.DataError{Parameter: name, Reason: fmt.Sprintf("invalid number %q", fields[3])}
		}
		scalars[name] = v
	}
	return scalars, nil
}

// table is a CSV file with a header row.
type table struct {
	path    string
	columns map[string]int
	rows    [][]string
}

func readTable(path string, required ...string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.Comment = '#'
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	t := &table{path: path, columns: make(map[string]int), rows: records[1:]}
	for i, h := range records[0] {
		t.columns[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range required {
		if _, ok := t.columns[c]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, c)
		}
	}
	return t, nil
}

func (t *table) str(row []string, col string) string {
	return strings.TrimSpace(row[t.columns[col]])
}

// float parses the value of column `col`, which holds parameter `col` indexed
// by `index`.
func (t *table) float(row []string, line int, col string, index ...string) (float64, error) {
	s := t.str(row, col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &gepmodel.DataError{Parameter: col, Index: index,
			Reason: fmt.Sprintf("%s:%d: invalid number %q", filepath.Base(t.path), line, s)}
	}
	return v, nil
}

// each calls f for every data row with its 1-based line number.
func (t *table) each(f func(row []string, line int) error) error {
	for i, row := range t.rows {
		if err := f(row, i+2); err != nil {
			return err
		}
	}
	return nil
}

func loadDemand(path string, d *gepmodel.Data) error {
	t, err := readTable(path, gepmodel.SetPeriod, gepmodel.ParamDemand)
	if err != nil {
		return err
	}
	return t.each(func(row []string, line int) error {
		p := t.str(row, gepmodel.SetPeriod)
		v, err := t.float(row, line, gepmodel.ParamDemand, p)
		if err != nil {
			return err
		}
		d.Periods = append(d.Periods, p)
		d.Demand[p] = v
		return nil
	})
}

func loadGeneration(path string, d *gepmodel.Data) error {
	t, err := readTable(path, gepmodel.SetTechnology, gepmodel.ParamVariableCost,
		gepmodel.ParamInvestmentCost, gepmodel.ParamUnitCapacity, gepmodel.ParamIsRenewable)
	if err != nil {
		return err
	}
	return t.each(func(row []string, line int) error {
		g := t.str(row, gepmodel.SetTechnology)
		var tech gepmodel.Technology
		for _, c := range []struct {
			param string
			dst   *float64
		}{
			{gepmodel.ParamVariableCost, &tech.VariableCost},
			{gepmodel.ParamInvestmentCost, &tech.InvestmentCost},
			{gepmodel.ParamUnitCapacity, &tech.UnitCapacity},
		} {
			v, err := t.float(row, line, c.param, g)
			if err != nil {
				return err
			}
			*c.dst = v
		}
		renew, err := t.float(row, line, gepmodel.ParamIsRenewable, g)
		if err != nil {
			return err
		}
		if renew != 0 && renew != 1 {
			return &gepmodel.DataError{Parameter: gepmodel.ParamIsRenewable, Index: []string{g},
				Reason: fmt.Sprintf("%s:%d: value %v, want 0 or 1", filepath.Base(path), line, renew)}
		}
		tech.IsRenewable = renew == 1
		d.Technologies = append(d.Technologies, g)
		d.Generation[g] = tech
		return nil
	})
}

func loadScenarios(path string, d *gepmodel.Data) error {
	t, err := readTable(path, gepmodel.SetScenario, gepmodel.ParamScenarioProbability)
	if err != nil {
		return err
	}
	return t.each(func(row []string, line int) error {
		sc := t.str(row, gepmodel.SetScenario)
		v, err := t.float(row, line, gepmodel.ParamScenarioProbability, sc)
		if err != nil {
			return err
		}
		d.Scenarios = append(d.Scenarios, sc)
		d.Probability[sc] = v
		return nil
	})
}

func loadAvailability(path string, d *gepmodel.Data) error {
	t, err := readTable(path, gepmodel.SetScenario, gepmodel.SetTechnology, gepmodel.SetPeriod, gepmodel.ParamAvailability)
	if err != nil {
		return err
	}
	return t.each(func(row []string, line int) error {
		k := gepmodel.AvailabilityKey{
			Scenario:   t.str(row, gepmodel.SetScenario),
			Technology: t.str(row, gepmodel.SetTechnology),
			Period:     t.str(row, gepmodel.SetPeriod),
		}
		v, err := t.float(row, line, gepmodel.ParamAvailability, k.Scenario, k.Technology, k.Period)
		if err != nil {
			return err
		}
		if _, ok := d.Availability[k]; ok {
			return &gepmodel.DataError{Parameter: gepmodel.ParamAvailability,
				Index:  []string{k.Scenario, k.Technology, k.Period},
				Reason: fmt.Sprintf("%s:%d: given more than once", filepath.Base(path), line)}
		}
		d.Availability[k] = v
		return nil
	})
}
