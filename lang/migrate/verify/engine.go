// Copyright 2025 the EVUA Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package verify

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/Shreyas20004/EVUA/internal/config"
	"github.com/Shreyas20004/EVUA/internal/log"
	"github.com/Shreyas20004/EVUA/internal/sandbox"
	"github.com/Shreyas20004/EVUA/internal/session"
	"github.com/Shreyas20004/EVUA/lang/migrate"
)

// Report is the persisted verdict for one unit, written to
// diff_reports/<stem>_diff.json.
type Report struct {
	File       string     `json:"file"`
	Match      bool       `json:"match"`
	Details    Comparison `json:"details"`
	LegacyExit int        `json:"legacy_exit"`
	ModernExit int        `json:"modern_exit"`
	// Raw harness stdout from each runtime, kept for review rendering.
	LegacyOutput string `json:"legacy_output,omitempty"`
	ModernOutput string `json:"modern_output,omitempty"`
	TimedOut     bool   `json:"timed_out,omitempty"`
	// Manual marks units that could not be executed at all, as opposed
	// to executing with divergent results.
	Manual bool   `json:"manual,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Engine runs each unit's harness under both runtimes and diffs the
// structured output.
type Engine struct {
	executor sandbox.Executor
	cfg      *config.Config
}

// NewEngine returns a verification engine bound to one executor.
func NewEngine(executor sandbox.Executor, cfg *config.Config) *Engine {
	return &Engine{executor: executor, cfg: cfg}
}

func (e *Engine) runHarness(ctx context.Context, treeDir, harnessRel, image, command string) (sandbox.Result, error) {
	return e.executor.Run(ctx, sandbox.Spec{
		Image:   image,
		Mounts:  []sandbox.Mount{{Host: treeDir, Container: "/workspace"}},
		Command: []string{command, filepath.ToSlash(harnessRel)},
		Timeout: e.cfg.ExecTimeout.Std(),
	})
}

// VerifyUnit executes one unit's harness under the legacy and modern
// runtimes concurrently and compares the outputs. A timed-out run is a
// mismatch, never an engine error: the verdict must stay actionable for
// the repair loop.
func (e *Engine) VerifyUnit(ctx context.Context, treeDir string, u *migrate.SourceUnit, harnessRel string) Report {
	var legacy, modern sandbox.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		legacy, err = e.runHarness(gctx, treeDir, harnessRel, e.cfg.LegacyImage, e.cfg.LegacyCommand)
		return err
	})
	g.Go(func() error {
		var err error
		modern, err = e.runHarness(gctx, treeDir, harnessRel, e.cfg.ModernImage, e.cfg.ModernCommand)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("verification of %s could not execute: %v", u.RelPath, err)
		return Report{File: u.RelPath, Match: false, Manual: true, Reason: err.Error()}
	}

	report := Report{
		File:         u.RelPath,
		LegacyExit:   legacy.ExitCode,
		ModernExit:   modern.ExitCode,
		LegacyOutput: legacy.Stdout,
		ModernOutput: modern.Stdout,
	}
	if legacy.TimedOut || modern.TimedOut {
		report.TimedOut = true
		report.Details = Comparison{Match: false, TextDiff: "execution timed out"}
		return report
	}

	// Exit codes are recorded for the report reader but never decide
	// the verdict; output comparison is the contract.
	report.Details = Compare(legacy.Stdout, modern.Stdout)
	report.Match = report.Details.Match
	return report
}

// ReportPath returns the diff report location for a unit.
func ReportPath(diffDir string, u *migrate.SourceUnit) string {
	return filepath.Join(diffDir, u.Stem()+"_diff.json")
}

// ReadReports loads the persisted diff report of every unit, in unit
// order. Units with no report on disk count as matched: verification
// only records units it actually probed.
func ReadReports(diffDir string, units []*migrate.SourceUnit) ([]Report, error) {
	reports := make([]Report, len(units))
	for i, u := range units {
		path := ReportPath(diffDir, u)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			reports[i] = Report{File: u.RelPath, Match: true, Details: Comparison{Match: true}}
			continue
		}
		if err := session.ReadJSON(path, &reports[i]); err != nil {
			return nil, err
		}
	}
	return reports, nil
}

// VerifyTree writes a harness per unit, runs the full tree through both
// runtimes with a bounded worker pool, and persists one diff report per
// unit. Reports are returned in unit order.
func (e *Engine) VerifyTree(ctx context.Context, treeDir, diffDir string, units []*migrate.SourceUnit) ([]Report, error) {
	reports := make([]Report, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			if u.Empty() {
				reports[i] = Report{File: u.RelPath, Match: true, Details: Comparison{Match: true}}
			} else {
				harnessRel, err := WriteHarness(treeDir, u)
				if err != nil {
					return err
				}
				reports[i] = e.VerifyUnit(gctx, treeDir, u, harnessRel)
			}
			return session.WriteJSON(ReportPath(diffDir, u), reports[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
