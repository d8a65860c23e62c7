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

// Package preprocess is stage 0: it makes raw legacy input parseable.
// Deterministic token substitutions and the print-statement rewrite run
// first; whatever still fails to parse goes through a bounded
// stub-or-fix recovery loop.
package preprocess

import (
	"context"

	"github.com/Shreyas20004/EVUA/internal/log"
	"github.com/Shreyas20004/EVUA/internal/pipeline"
	"github.com/Shreyas20004/EVUA/lang/migrate"
	"github.com/Shreyas20004/EVUA/lang/pyast"
)

// Name is the stage identifier used in directory and log names.
const Name = "stage0_preprocess"

// FileMeta is the per-unit preprocessing record.
type FileMeta struct {
	File         string   `json:"file"`
	RulesApplied []string `json:"rules_applied"`
	StubbedLines []int    `json:"stubbed_lines,omitempty"`
	MarkedLines  []int    `json:"marked_lines,omitempty"`
	Parseable    bool     `json:"parseable"`
	Status       string   `json:"status"` // success | skipped_empty | unparseable
}

// Log is the stage diagnostic written to logs/stage0_preprocess.json.
type Log struct {
	Files   []FileMeta     `json:"files"`
	Summary map[string]int `json:"summary"`
}

// Stage implements pipeline.Stage.
type Stage struct{}

// New returns the preprocessing stage.
func New() *Stage { return &Stage{} }

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return Name }

// Run implements pipeline.Stage. It reads the raw source tree, rewrites
// every unit, and writes the parseable tree plus per-file metadata.
func (s *Stage) Run(ctx context.Context, sc *pipeline.StageContext) (*pipeline.StageResult, error) {
	units, err := migrate.LoadTree(sc.InputDir, sc.Config.Excludes)
	if err != nil {
		return nil, err
	}

	parser := pyast.NewParser()
	stageLog := Log{Summary: map[string]int{}}
	for _, u := range units {
		meta := ProcessUnit(ctx, parser, u)
		stageLog.Files = append(stageLog.Files, meta)
		stageLog.Summary["total"]++
		if meta.Parseable {
			stageLog.Summary["parseable"]++
		}
		stageLog.Summary["stubbed_lines"] += len(meta.StubbedLines)
		stageLog.Summary["marked_lines"] += len(meta.MarkedLines)
	}

	if err := migrate.WriteTree(sc.OutputDir, units); err != nil {
		return nil, err
	}
	return &pipeline.StageResult{
		Metrics: stageLog.Summary,
		Log:     stageLog,
	}, nil
}

// ProcessUnit applies the full preprocessing pass to one unit in place
// and returns its metadata. Running it twice on already-clean input
// reports no rules applied the second time.
func ProcessUnit(ctx context.Context, parser *pyast.Parser, u *migrate.SourceUnit) FileMeta {
	meta := FileMeta{File: u.RelPath, RulesApplied: []string{}, Parseable: true, Status: "success"}

	if u.Empty() {
		meta.Status = "skipped_empty"
		return meta
	}

	original := u.Content
	lines := u.Lines()

	if changed := applyAliases(lines); len(changed) > 0 {
		meta.RulesApplied = append(meta.RulesApplied, "alias_fix")
		u.Record("alias_fix", changed)
	}
	if !hasPrintFunctionImport(string(u.Content)) {
		if changed := applyPrintFix(lines); len(changed) > 0 {
			meta.RulesApplied = append(meta.RulesApplied, "print_fix")
			u.Record("print_fix", changed)
		}
	}
	if changed := applyComparisonFix(lines); len(changed) > 0 {
		meta.RulesApplied = append(meta.RulesApplied, "comparison_fix")
		u.Record("comparison_fix", changed)
	}
	if marked := markLegacyConstructs(lines); len(marked) > 0 {
		meta.RulesApplied = append(meta.RulesApplied, "legacy_markers")
		meta.MarkedLines = marked
		u.Record("legacy_markers", marked)
	}
	u.SetLines(lines)

	if !parser.Parseable(ctx, u.Content) {
		before := u.Lines()
		stubbed, ok := recoverParse(ctx, parser, before)
		if len(stubbed) > 0 {
			meta.RulesApplied = append(meta.RulesApplied, "minimal_stubbing")
			meta.StubbedLines = stubbed
			u.Record("minimal_stubbing", stubbed)
		}
		if ok {
			u.SetLines(before)
		} else {
			// Carried forward unmodified; downstream stages must skip it.
			u.Content = original
			u.History = nil
			meta.RulesApplied = []string{}
			meta.Parseable = false
			meta.Status = "unparseable"
			meta.StubbedLines = nil
			u.Parseable = false
			log.Debug("unit %s still unparseable after bounded recovery", u.RelPath)
		}
	}
	meta.Parseable = u.Parseable
	return meta
}
