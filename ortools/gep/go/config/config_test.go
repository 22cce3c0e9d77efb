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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/or-tools-gep/ortools/gep/go/milp"
)

func newFlagSet(t *testing.T, args ...string) *flag.FlagSet {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlagSet(t, "--input_dirs=inputs"), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"inputs"}, cfg.InputDirs)
	assert.Equal(t, "outputs", cfg.OutputDir)
	assert.Equal(t, "bnb", cfg.Solver)
	assert.Equal(t, 1e-4, cfg.RelativeGap)
	assert.Equal(t, time.Duration(0), cfg.TimeLimit)
	assert.Equal(t, "highs", cfg.HighsPath)
	assert.Equal(t, 1, cfg.Parallel)
	assert.Equal(t, 1e-6, cfg.ProbabilityTolerance)
	assert.False(t, cfg.WriteModel)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeConfig(t, `
input_dirs: [case1, case2]
output_dir: results
solver: highs
relative_gap: 0.01
time_limit: 90s
parallel: 2
write_model: true
`)
	cfg, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, []string{"case1", "case2"}, cfg.InputDirs)
	assert.Equal(t, "results", cfg.OutputDir)
	assert.Equal(t, "highs", cfg.Solver)
	assert.Equal(t, 0.01, cfg.RelativeGap)
	assert.Equal(t, 90*time.Second, cfg.TimeLimit)
	assert.Equal(t, 2, cfg.Parallel)
	assert.True(t, cfg.WriteModel)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, "input_dirs: [case1]\nsolver: highs\nrelative_gap: 0.01\nthreads: 2\n")
	t.Setenv("GEP_RELATIVE_GAP", "0.001")
	t.Setenv("GEP_THREADS", "4")

	cfg, err := Load(newFlagSet(t, "--threads=8"), path)
	require.NoError(t, err)

	assert.Equal(t, "highs", cfg.Solver, "file value without env or flag")
	assert.Equal(t, 0.001, cfg.RelativeGap, "env overrides file")
	assert.Equal(t, 8, cfg.Threads, "flag overrides env")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			InputDirs:            []string{"inputs"},
			OutputDir:            "outputs",
			Solver:               "bnb",
			RelativeGap:          1e-4,
			HighsPath:            "highs",
			Parallel:             1,
			ProbabilityTolerance: 1e-6,
		}
	}
	require.NoError(t, Validate(valid()))

	testCases := []struct {
		name   string
		modify func(c *Config)
	}{
		{name: "NoInputs", modify: func(c *Config) { c.InputDirs = nil }},
		{name: "NoOutputDir", modify: func(c *Config) { c.OutputDir = "" }},
		{name: "UnknownSolver", modify: func(c *Config) { c.Solver = "cplex" }},
		{name: "HighsWithoutPath", modify: func(c *Config) { c.Solver = "highs"; c.HighsPath = "" }},
		{name: "NegativeGap", modify: func(c *Config) { c.RelativeGap = -1 }},
		{name: "NegativeTimeLimit", modify: func(c *Config) { c.TimeLimit = -time.Second }},
		{name: "NoParallelism", modify: func(c *Config) { c.Parallel = 0 }},
		{name: "NegativeTolerance", modify: func(c *Config) { c.ProbabilityTolerance = -1 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.modify(c)
			assert.Error(t, Validate(c))
		})
	}
}

func TestParameters(t *testing.T) {
	c := &Config{RelativeGap: 0.05, TimeLimit: time.Minute, Threads: 3, Verbose: true}
	want := milp.Parameters{RelativeGap: 0.05, TimeLimit: time.Minute, Threads: 3, Verbose: true}
	assert.Equal(t, want, c.Parameters())
}
