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

// Package config resolves the settings of a planning run.
//
// Precedence: flags > environment (GEP_ prefix) > YAML config file > defaults.
package config

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	log "github.com/golang/glog"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/google/or-tools-gep/ortools/gep/go/milp"
)

// Viper keys. The environment variable of a key is GEP_ followed by the key
// in upper case.
const (
	KeyInputDirs            = "input_dirs"
	KeyOutputDir            = "output_dir"
	KeySolver               = "solver"
	KeyRelativeGap          = "relative_gap"
	KeyTimeLimit            = "time_limit"
	KeyThreads              = "threads"
	KeyHighsPath            = "highs_path"
	KeyWriteModel           = "write_model"
	KeyParallel             = "parallel"
	KeyProbabilityTolerance = "probability_tolerance"
	KeyVerbose              = "solver_output"
)

// KnownSolvers lists the backends a run may select.
var KnownSolvers = []string{"bnb", "highs"}

// flagBindings maps viper keys to flag names.
var flagBindings = map[string]string{
	KeyInputDirs:            "input_dirs",
	KeyOutputDir:            "output_dir",
	KeySolver:               "solver",
	KeyRelativeGap:          "relative_gap",
	KeyTimeLimit:            "time_limit",
	KeyThreads:              "threads",
	KeyHighsPath:            "highs_path",
	KeyWriteModel:           "write_model",
	KeyParallel:             "parallel",
	KeyProbabilityTolerance: "probability_tolerance",
	KeyVerbose:              "solver_output",
}

// Config holds the resolved settings.
type Config struct {
	InputDirs            []string
	OutputDir            string
	Solver               string
	RelativeGap          float64
	TimeLimit            time.Duration
	Threads              int
	HighsPath            string
	WriteModel           bool
	Parallel             int
	ProbabilityTolerance float64
	// Verbose enables the solver's own progress output.
	Verbose bool
}

// RegisterFlags defines the run flags on `fs`.
func RegisterFlags(fs *flag.FlagSet) {
	fs.StringSlice("input_dirs", nil, "data directories to solve, each one an independent instance")
	fs.String("output_dir", "outputs", "directory receiving one result directory per input")
	fs.String("solver", "bnb", "MILP backend: "+strings.Join(KnownSolvers, ", "))
	fs.Float64("relative_gap", 1e-4, "relative MIP optimality gap")
	fs.Duration("time_limit", 0, "time limit per solve, 0 for none")
	fs.Int("threads", 0, "solver threads, 0 lets the solver decide")
	fs.String("highs_path", "highs", "HiGHS executable")
	fs.Bool("write_model", false, "write mGEP.lp and mGEP.pb next to the results")
	fs.Int("parallel", 1, "number of instances solved concurrently")
	fs.Float64("probability_tolerance", 1e-6, "accepted deviation of the scenario probability sum from 1")
	fs.Bool("solver_output", false, "print the solver's progress output")
}

// Load resolves the configuration from `flagSet`, the environment and the
// YAML file at `path`, then validates it. `flagSet` may be nil and `path` may
// be empty.
func Load(flagSet *flag.FlagSet, path string) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyOutputDir, "outputs")
	v.SetDefault(KeySolver, "bnb")
	v.SetDefault(KeyRelativeGap, 1e-4)
	v.SetDefault(KeyTimeLimit, time.Duration(0))
	v.SetDefault(KeyThreads, 0)
	v.SetDefault(KeyHighsPath, "highs")
	v.SetDefault(KeyWriteModel, false)
	v.SetDefault(KeyParallel, 1)
	v.SetDefault(KeyProbabilityTolerance, 1e-6)
	v.SetDefault(KeyVerbose, false)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		log.Infof("Loaded config file %s", path)
	}

	v.SetEnvPrefix("GEP")
	v.AutomaticEnv()

	if flagSet != nil {
		for key, name := range flagBindings {
			if f := flagSet.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		InputDirs:            v.GetStringSlice(KeyInputDirs),
		OutputDir:            v.GetString(KeyOutputDir),
		Solver:               v.GetString(KeySolver),
		RelativeGap:          v.GetFloat64(KeyRelativeGap),
		TimeLimit:            v.GetDuration(KeyTimeLimit),
		Threads:              v.GetInt(KeyThreads),
		HighsPath:            v.GetString(KeyHighsPath),
		WriteModel:           v.GetBool(KeyWriteModel),
		Parallel:             v.GetInt(KeyParallel),
		ProbabilityTolerance: v.GetFloat64(KeyProbabilityTolerance),
		Verbose:              v.GetBool(KeyVerbose),
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations no run can honor.
func Validate(cfg *Config) error {
	var errs []error
	if len(cfg.InputDirs) == 0 {
		errs = append(errs, errors.New("at least one input directory is required"))
	}
	if cfg.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if !slices.Contains(KnownSolvers, cfg.Solver) {
		errs = append(errs, fmt.Errorf("unknown solver %q, want one of %v", cfg.Solver, KnownSolvers))
	}
	if cfg.Solver == "highs" && cfg.HighsPath == "" {
		errs = append(errs, errors.New("HiGHS executable path is required"))
	}
	if math.IsNaN(cfg.ProbabilityTolerance) || cfg.ProbabilityTolerance < 0 {
		errs = append(errs, fmt.Errorf("probability tolerance must be non-negative, got %v", cfg.ProbabilityTolerance))
	}
	if cfg.Parallel < 1 {
		errs = append(errs, fmt.Errorf("parallel must be at least 1, got %d", cfg.Parallel))
	}
	if err := cfg.Parameters().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Parameters returns the solver parameters of the run.
func (c *Config) Parameters() milp.Parameters {
	return milp.Parameters{
		RelativeGap: c.RelativeGap,
		TimeLimit:   c.TimeLimit,
		Threads:     c.Threads,
		Verbose:     c.Verbose,
	}
}
