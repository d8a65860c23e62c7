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

// Package semantic is stage 2: it rewrites constructs whose syntax
// survives both dialects but whose runtime behavior differs, working on
// parsed spans rather than lines. All rewrites here are heuristic and
// conservative; anything uncertain is left for differential
// verification to catch.
package semantic

import (
	"context"

	"github.com/Shreyas20004/EVUA/internal/pipeline"
	"github.com/Shreyas20004/EVUA/lang/migrate"
	"github.com/Shreyas20004/EVUA/lang/pyast"
)

// Name is the stage identifier used in directory and log names.
const Name = "stage2_semantic"

// Counters tallies rewrites for one unit.
type Counters struct {
	DivisionFixes  int `json:"division_fixes"`
	IteratorWraps  int `json:"iterator_wraps"`
	EncodingFixes  int `json:"encoding_fixes"`
	ImportCleanups int `json:"import_cleanups"`
}

// FileMeta is the per-unit entry of the stage log.
type FileMeta struct {
	File     string   `json:"file"`
	Counters Counters `json:"counters"`
}

// Log is the stage diagnostic written to logs/stage2_semantic.json.
type Log struct {
	Files    []FileMeta       `json:"files"`
	Findings migrate.Findings `json:"findings"`
	Summary  map[string]int   `json:"summary"`
}

// Stage implements pipeline.Stage.
type Stage struct{}

// New returns the semantic transformation stage.
func New() *Stage { return &Stage{} }

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return Name }

// ProcessUnit applies the import-compat collapse and all span rewrites
// to one unit, recording findings for each edit.
func ProcessUnit(ctx context.Context, parser *pyast.Parser, u *migrate.SourceUnit, findings migrate.Findings) (Counters, migrate.Findings, error) {
	var c Counters

	lines := u.Lines()
	collapsed := collapseCompatImports(lines)
	if len(collapsed) > 0 {
		u.SetLines(lines)
		u.Record("import_cleanup", collapsed)
		c.ImportCleanups = len(collapsed)
		for _, ln := range collapsed {
			findings = append(findings, migrate.Finding{
				Unit: u.RelPath, Line: ln, Rule: "import_cleanup",
				Severity: migrate.SeverityFixed,
				Note:     "collapsed try/except ImportError compat block",
			})
		}
	}

	edits, err := AnalyzeContent(ctx, parser, u.Content)
	if err != nil {
		return c, findings, err
	}
	var touched []int
	for _, e := range edits {
		switch e.Rule {
		case "safe_division":
			c.DivisionFixes++
		case "wrap_iterator":
			c.IteratorWraps++
		case "explicit_encoding":
			c.EncodingFixes++
		}
		touched = append(touched, e.Span.Line)
		findings = findings.Add(u.RelPath, e.Span.Line, e.Rule, migrate.SeverityFixed, "", e.Text)
	}
	if len(edits) > 0 {
		u.Content = applyEdits(u.Content, edits)
		u.Record("semantic", touched)
	}
	return c, findings, nil
}

// revertUnit restores a unit whose rewritten form no longer parses. The
// stage log must not claim rewrites that were undone, so the findings
// appended for the unit are replaced by a single manual entry.
func revertUnit(u *migrate.SourceUnit, original []byte, findings migrate.Findings, prior int) migrate.Findings {
	u.Content = original
	u.History = nil
	return append(findings[:prior], migrate.Finding{
		Unit:     u.RelPath,
		Rule:     "semantic",
		Severity: migrate.SeverityManual,
		Note:     "rolled back: rewrite broke parseability",
	})
}

// Run implements pipeline.Stage. Units that failed earlier stages are
// copied through untouched.
func (s *Stage) Run(ctx context.Context, sc *pipeline.StageContext) (*pipeline.StageResult, error) {
	units, err := migrate.LoadTree(sc.InputDir, sc.Config.Excludes)
	if err != nil {
		return nil, err
	}

	parser := pyast.NewParser()
	var findings migrate.Findings
	var files []FileMeta
	var total Counters
	skipped := 0
	for _, u := range units {
		if u.Empty() || !parser.Parseable(ctx, u.Content) {
			skipped++
			continue
		}
		original := append([]byte(nil), u.Content...)
		prior := len(findings)
		c, fs, err := ProcessUnit(ctx, parser, u, findings)
		if err != nil {
			return nil, err
		}
		findings = fs
		// A rewrite that breaks parseability is worse than no rewrite.
		if !parser.Parseable(ctx, u.Content) {
			findings = revertUnit(u, original, findings, prior)
			c = Counters{}
		}
		files = append(files, FileMeta{File: u.RelPath, Counters: c})
		total.DivisionFixes += c.DivisionFixes
		total.IteratorWraps += c.IteratorWraps
		total.EncodingFixes += c.EncodingFixes
		total.ImportCleanups += c.ImportCleanups
	}

	if err := migrate.WriteTree(sc.OutputDir, units); err != nil {
		return nil, err
	}

	metrics := map[string]int{
		"total":           len(units),
		"skipped":         skipped,
		"division_fixes":  total.DivisionFixes,
		"iterator_wraps":  total.IteratorWraps,
		"encoding_fixes":  total.EncodingFixes,
		"import_cleanups": total.ImportCleanups,
	}
	return &pipeline.StageResult{
		Metrics: metrics,
		Log:     Log{Files: files, Findings: findings, Summary: metrics},
	}, nil
}
