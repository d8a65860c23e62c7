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

// Package review is stage 5: it turns the final verification state into
// reviewer-facing artifacts. Nothing here modifies units; the products
// are HTML diff pages, per-unit snapshots, and a suggestion index for
// whatever the automated loop could not close.
package review

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/Shreyas20004/EVUA/internal/pipeline"
	"github.com/Shreyas20004/EVUA/internal/session"
	"github.com/Shreyas20004/EVUA/lang/migrate"
	"github.com/Shreyas20004/EVUA/lang/migrate/verify"
)

// Name is the stage identifier used in directory and log names.
const Name = "stage5_review"

// Status values for a reviewed unit.
const (
	StatusAccepted = "accepted"
	StatusManual   = "manual"
)

// Snapshot is the per-unit review record, written next to the HTML
// page.
type Snapshot struct {
	File         string `json:"file"`
	Match        bool   `json:"match"`
	Details      string `json:"details"`
	SuggestedFix string `json:"suggested_fix"`
	Status       string `json:"status"`
}

// Entry is one row of the review_metadata.json index.
type Entry struct {
	Status       string `json:"status"`
	SuggestedFix string `json:"suggested_fix"`
	HTML         string `json:"html"`
	Snapshot     string `json:"snapshot"`
}

// Log is the stage diagnostic written to logs/stage5_review.json.
type Log struct {
	Index   map[string]Entry `json:"index"`
	Summary map[string]int   `json:"summary"`
}

// Stage implements pipeline.Stage.
type Stage struct{}

// New returns the review artifact stage.
func New() *Stage { return &Stage{} }

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return Name }

// Suggest maps a rendered diff to the most likely manual fix.
func Suggest(details string) string {
	switch {
	case strings.Contains(details, "map") || strings.Contains(details, "iterator") ||
		strings.Contains(details, "filter") || strings.Contains(details, "zip"):
		return "Wrap iterator or map object in list() for consistent type."
	case strings.Contains(details, "division") || strings.Contains(details, "//"):
		return "Add `from __future__ import division` for consistent float division."
	default:
		return "Manual review required."
	}
}

// renderDetails flattens a comparison for snapshot storage and
// suggestion matching.
func renderDetails(c verify.Comparison) string {
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

// Run implements pipeline.Stage. Units pass through unchanged; the
// artifacts land in the stage output directory so they ship alongside
// the final tree.
func (s *Stage) Run(ctx context.Context, sc *pipeline.StageContext) (*pipeline.StageResult, error) {
	units, err := migrate.LoadTree(sc.InputDir, sc.Config.Excludes)
	if err != nil {
		return nil, err
	}
	if err := migrate.WriteTree(sc.OutputDir, units); err != nil {
		return nil, err
	}

	reports, err := verify.ReadReports(sc.Session.DiffReportsDir(), units)
	if err != nil {
		return nil, err
	}

	index := make(map[string]Entry, len(units))
	accepted, manual := 0, 0
	for i, u := range units {
		r := reports[i]
		htmlPath := filepath.Join(sc.OutputDir, u.Stem()+"_review.html")
		snapPath := filepath.Join(sc.OutputDir, u.Stem()+"_snapshot.json")

		if err := RenderSideBySide(htmlPath, u.RelPath, r.LegacyOutput, r.ModernOutput); err != nil {
			return nil, err
		}

		details := renderDetails(r.Details)
		status := StatusManual
		if r.Match {
			status = StatusAccepted
			accepted++
		} else {
			manual++
		}
		snap := Snapshot{
			File:         u.RelPath,
			Match:        r.Match,
			Details:      details,
			SuggestedFix: Suggest(details),
			Status:       status,
		}
		if err := session.WriteJSON(snapPath, snap); err != nil {
			return nil, err
		}
		index[filepath.Base(u.RelPath)] = Entry{
			Status:       status,
			SuggestedFix: snap.SuggestedFix,
			HTML:         htmlPath,
			Snapshot:     snapPath,
		}
	}

	if err := session.WriteJSON(filepath.Join(sc.OutputDir, "review_metadata.json"), index); err != nil {
		return nil, err
	}

	metrics := map[string]int{"total": len(units), "accepted": accepted, "manual": manual}
	return &pipeline.StageResult{
		Metrics: metrics,
		Log:     Log{Index: index, Summary: metrics},
	}, nil
}
