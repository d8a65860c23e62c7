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

// Package repair is stage 4: the bounded repair loop. Each attempt
// applies at most one new strategy per failing unit, then re-runs
// differential verification once for the whole set. Repairs only move
// forward: a strategy that did not close the diff stays applied and the
// next attempt chains the following strategy on top of it.
package repair

import (
	"context"
	"encoding/json"

	"github.com/Shreyas20004/EVUA/internal/log"
	"github.com/Shreyas20004/EVUA/internal/pipeline"
	"github.com/Shreyas20004/EVUA/internal/session"
	"github.com/Shreyas20004/EVUA/lang/migrate"
	"github.com/Shreyas20004/EVUA/lang/migrate/verify"
)

// Name is the stage identifier used in directory and log names.
const Name = "stage4_repair"

// Attempt records one strategy application on one unit.
type Attempt struct {
	Strategy  string `json:"strategy"`
	Success   bool   `json:"success"`
	DiffAfter string `json:"diff_after"`
}

// UnitRepair is the per-unit entry of repair_metadata.json.
type UnitRepair struct {
	FilePath string    `json:"file_path"`
	Applied  []Attempt `json:"applied"`
	Repaired bool      `json:"repaired"`

	next int // index of the first untried catalog strategy
}

// Metadata is the full content of repair_metadata.json.
type Metadata struct {
	Files        []*UnitRepair `json:"files"`
	TotalFiles   int           `json:"total_files"`
	Repaired     int           `json:"repaired"`
	StillFailing int           `json:"still_failing"`
	Attempts     int           `json:"attempts"`
}

// Log is the stage diagnostic written to logs/stage4_repair.json.
type Log struct {
	Metadata Metadata       `json:"metadata"`
	Summary  map[string]int `json:"summary"`
}

// Stage implements pipeline.Stage.
type Stage struct{}

// New returns the repair loop stage.
func New() *Stage { return &Stage{} }

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return Name }

// diffAfter renders a comparison for the attempt record.
func diffAfter(c verify.Comparison) string {
	if c.Match {
		return ""
	}
	if len(c.KeyDiffs) > 0 {
		b, err := json.Marshal(c.KeyDiffs)
		if err == nil {
			return string(b)
		}
	}
	return c.TextDiff
}

// RunLoop drives the attempt loop over one unit tree, mutating units in
// place and re-verifying through engine after every attempt. treeDir
// must already contain the units.
func RunLoop(ctx context.Context, engine *verify.Engine, treeDir, diffDir string, units []*migrate.SourceUnit, maxAttempts int) (Metadata, error) {
	byPath := make(map[string]*migrate.SourceUnit, len(units))
	for _, u := range units {
		byPath[u.RelPath] = u
	}
	state := make(map[string]*UnitRepair)

	reports, err := verify.ReadReports(diffDir, units)
	if err != nil {
		return Metadata{}, err
	}

	attempts := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		failing := failingUnits(reports)
		if len(failing) == 0 {
			break
		}
		attempts = attempt
		log.Info("repair attempt %d/%d: %d failing units", attempt, maxAttempts, len(failing))

		changedAny := false
		for _, r := range failing {
			u := byPath[r.File]
			ur := state[r.File]
			if ur == nil {
				ur = &UnitRepair{FilePath: r.File}
				state[r.File] = ur
			}
			for ur.next < len(Catalog) {
				strat := Catalog[ur.next]
				ur.next++
				patched, changed := strat.Apply(string(u.Content))
				if !changed {
					continue
				}
				u.Content = []byte(patched)
				ur.Applied = append(ur.Applied, Attempt{Strategy: strat.Name})
				changedAny = true
				break
			}
		}
		if !changedAny {
			break // every failing unit has exhausted the catalog
		}

		if err := migrate.WriteTree(treeDir, units); err != nil {
			return Metadata{}, err
		}
		reports, err = engine.VerifyTree(ctx, treeDir, diffDir, units)
		if err != nil {
			return Metadata{}, err
		}

		// Fill in the outcome of this attempt's applications.
		byFile := reportsByFile(reports)
		for _, ur := range state {
			if len(ur.Applied) == 0 {
				continue
			}
			last := &ur.Applied[len(ur.Applied)-1]
			if r, ok := byFile[ur.FilePath]; ok {
				last.Success = r.Match
				last.DiffAfter = diffAfter(r.Details)
				ur.Repaired = r.Match
			}
		}
	}

	meta := Metadata{Attempts: attempts, TotalFiles: len(state)}
	for _, u := range units {
		if ur, ok := state[u.RelPath]; ok {
			meta.Files = append(meta.Files, ur)
			if ur.Repaired {
				meta.Repaired++
			} else {
				meta.StillFailing++
			}
		}
	}
	return meta, nil
}

func failingUnits(reports []verify.Report) []verify.Report {
	var out []verify.Report
	for _, r := range reports {
		if !r.Match && !r.Manual {
			out = append(out, r)
		}
	}
	return out
}

func reportsByFile(reports []verify.Report) map[string]verify.Report {
	out := make(map[string]verify.Report, len(reports))
	for _, r := range reports {
		out[r.File] = r
	}
	return out
}

// Run implements pipeline.Stage.
func (s *Stage) Run(ctx context.Context, sc *pipeline.StageContext) (*pipeline.StageResult, error) {
	units, err := migrate.LoadTree(sc.InputDir, sc.Config.Excludes)
	if err != nil {
		return nil, err
	}
	if err := migrate.WriteTree(sc.OutputDir, units); err != nil {
		return nil, err
	}

	engine := verify.NewEngine(sc.Executor, sc.Config)
	meta, err := RunLoop(ctx, engine, sc.OutputDir, sc.Session.DiffReportsDir(), units, sc.Config.MaxRepairAttempts)
	if err != nil {
		return nil, err
	}
	if err := session.WriteJSON(sc.Session.RepairMetadataPath(), meta); err != nil {
		return nil, err
	}

	metrics := map[string]int{
		"total":         meta.TotalFiles,
		"repaired":      meta.Repaired,
		"still_failing": meta.StillFailing,
		"attempts":      meta.Attempts,
	}
	return &pipeline.StageResult{
		Metrics: metrics,
		Log:     Log{Metadata: meta, Summary: metrics},
	}, nil
}
