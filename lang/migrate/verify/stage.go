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

// Package verify is stage 3: differential execution. Every unit runs
// under the legacy and modern runtimes through a generated probe
// harness, and the structured outputs are diffed. The stage never
// modifies units; its product is the diff reports the repair loop
// consumes.
package verify

import (
	"context"

	"github.com/Shreyas20004/EVUA/internal/pipeline"
	"github.com/Shreyas20004/EVUA/lang/migrate"
)

// Name is the stage identifier used in directory and log names.
const Name = "stage3_verify"

// Log is the stage diagnostic written to logs/stage3_verify.json.
type Log struct {
	Reports []Report       `json:"reports"`
	Summary map[string]int `json:"summary"`
}

// Stage implements pipeline.Stage.
type Stage struct{}

// New returns the differential verification stage.
func New() *Stage { return &Stage{} }

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return Name }

// Run implements pipeline.Stage.
func (s *Stage) Run(ctx context.Context, sc *pipeline.StageContext) (*pipeline.StageResult, error) {
	units, err := migrate.LoadTree(sc.InputDir, sc.Config.Excludes)
	if err != nil {
		return nil, err
	}
	if err := migrate.WriteTree(sc.OutputDir, units); err != nil {
		return nil, err
	}

	engine := NewEngine(sc.Executor, sc.Config)
	reports, err := engine.VerifyTree(ctx, sc.OutputDir, sc.Session.DiffReportsDir(), units)
	if err != nil {
		return nil, err
	}

	metrics := Summarize(reports)
	return &pipeline.StageResult{
		Metrics: metrics,
		Log:     Log{Reports: reports, Summary: metrics},
	}, nil
}

// Summarize tallies verification verdicts for stage metrics.
func Summarize(reports []Report) map[string]int {
	metrics := map[string]int{
		"total":      len(reports),
		"matched":    0,
		"mismatched": 0,
		"manual":     0,
	}
	for _, r := range reports {
		switch {
		case r.Manual:
			metrics["manual"]++
		case r.Match:
			metrics["matched"]++
		default:
			metrics["mismatched"]++
		}
	}
	return metrics
}
