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

// Package structural is stage 1: it rewrites legacy statement syntax to
// modern equivalents through an ordered catalog of pure line rules,
// rolling back any edit that breaks parseability.
package structural

import (
	"context"

	"github.com/Shreyas20004/EVUA/internal/pipeline"
	"github.com/Shreyas20004/EVUA/lang/migrate"
	"github.com/Shreyas20004/EVUA/lang/pyast"
)

// Name is the stage identifier used in directory and log names.
const Name = "stage1_structural"

// Log is the stage diagnostic written to logs/stage1_structural.json.
type Log struct {
	Findings migrate.Findings `json:"findings"`
	Summary  map[string]int   `json:"summary"`
}

// Stage implements pipeline.Stage.
type Stage struct{}

// New returns the structural transformation stage.
func New() *Stage { return &Stage{} }

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return Name }

// Run implements pipeline.Stage. Units that failed preprocessing are
// copied through untouched.
func (s *Stage) Run(ctx context.Context, sc *pipeline.StageContext) (*pipeline.StageResult, error) {
	units, err := migrate.LoadTree(sc.InputDir, sc.Config.Excludes)
	if err != nil {
		return nil, err
	}

	parser := pyast.NewParser()
	var findings migrate.Findings
	skipped := 0
	for _, u := range units {
		if u.Empty() || !parser.Parseable(ctx, u.Content) {
			skipped++
			continue
		}
		findings = TransformUnit(ctx, parser, u, findings)
	}

	if err := migrate.WriteTree(sc.OutputDir, units); err != nil {
		return nil, err
	}

	metrics := findings.CountBySeverity()
	metrics["total"] = len(units)
	metrics["skipped"] = skipped
	return &pipeline.StageResult{
		Metrics: metrics,
		Log:     Log{Findings: findings, Summary: metrics},
	}, nil
}
