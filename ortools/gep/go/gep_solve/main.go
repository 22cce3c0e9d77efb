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

// The gep_solve command solves two-stage stochastic generation expansion
// planning problems read from data directories.
//
//	gep_solve --input_dirs=inputs --output_dir=outputs --solver=highs --logtostderr
package main

import (
	"context"
	goflag "flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	log "github.com/golang/glog"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/google/or-tools-gep/ortools/gep/go/config"
	"github.com/google/or-tools-gep/ortools/gep/go/gepdata"
	"github.com/google/or-tools-gep/ortools/gep/go/gepmodel"
	"github.com/google/or-tools-gep/ortools/gep/go/milp"
	_ "github.com/google/or-tools-gep/ortools/gep/go/milp/bnb"
	"github.com/google/or-tools-gep/ortools/gep/go/milp/highscli"
)

var configFile = flag.String("config", "", "YAML configuration file")

func newSolver(cfg *config.Config) (milp.Solver, error) {
	if cfg.Solver == highscli.Name {
		return &highscli.Solver{Executable: cfg.HighsPath}, nil
	}
	return milp.Lookup(cfg.Solver)
}

// resultDirs maps every input directory to its result directory.
func resultDirs(cfg *config.Config) (map[string]string, error) {
	dirs := make(map[string]string, len(cfg.InputDirs))
	owner := make(map[string]string, len(cfg.InputDirs))
	for _, in := range cfg.InputDirs {
		out := filepath.Join(cfg.OutputDir, filepath.Base(filepath.Clean(in)))
		if prev, ok := owner[out]; ok {
			return nil, fmt.Errorf("input directories %s and %s would both write to %s", prev, in, out)
		}
		owner[out] = in
		dirs[in] = out
	}
	return dirs, nil
}

func writeModel(dir string, in *gepmodel.Instance) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, "mGEP.lp"))
	if err != nil {
		return err
	}
	if err := in.WriteLP(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	b, err := in.MarshalModel()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "mGEP.pb"), b, 0o644)
}

// solveDir runs the whole workflow for one data directory.
func solveDir(ctx context.Context, cfg *config.Config, solver milp.Solver, inputDir, outputDir string, stdout io.Writer) error {
	data, err := gepdata.LoadDir(inputDir)
	if err != nil {
		return fmt.Errorf("loading %s: %w", inputDir, err)
	}
	in, err := gepmodel.Build(*data, gepmodel.WithProbabilityTolerance(cfg.ProbabilityTolerance))
	if err != nil {
		return fmt.Errorf("building %s: %w", inputDir, err)
	}
	log.Infof("instance %s: %s", in.ID(), inputDir)
	if cfg.WriteModel {
		if err := writeModel(outputDir, in); err != nil {
			return fmt.Errorf("writing model of %s: %w", inputDir, err)
		}
	}

	out := gepmodel.Solve(ctx, in, solver, cfg.Parameters())
	fmt.Fprintf(stdout, "%s: Number of variables: %d\n", inputDir, in.NumVariables())
	fmt.Fprintf(stdout, "%s: Number of constraints: %d\n", inputDir, in.NumConstraints())

	var r *gepmodel.Result
	if out.Status.HasSolution() {
		if r, err = gepmodel.Extract(in); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: total cost: %v\n", inputDir, r.TotalCost)
	} else {
		log.Warningf("%s: The problem is not optimal. Solver status: %v", inputDir, out)
	}
	if err := gepdata.WriteResults(outputDir, in, gepdata.NewSummary(inputDir, in, out, r)); err != nil {
		return fmt.Errorf("writing results of %s: %w", inputDir, err)
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	solver, err := newSolver(cfg)
	if err != nil {
		return err
	}
	dirs, err := resultDirs(cfg)
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallel)
	for _, in := range cfg.InputDirs {
		in := in
		g.Go(func() error {
			return solveDir(ctx, cfg, solver, in, dirs[in], stdout)
		})
	}
	return g.Wait()
}

// syncWriter serializes writes of concurrent solves.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func main() {
	config.RegisterFlags(flag.CommandLine)
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	flag.Parse()
	// glog reads its flags from the standard flag set.
	goflag.CommandLine.Parse(nil)
	defer log.Flush()

	cfg, err := config.Load(flag.CommandLine, *configFile)
	if err != nil {
		log.Exitf("Failed to load configuration: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cfg, &syncWriter{w: os.Stdout}); err != nil {
		log.Exitf("gep_solve returned with error: %v", err)
	}
}
