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

// Package migrate defines the domain model shared by every pipeline
// stage: source units, findings, and the on-disk unit tree. Units are
// copied, never moved, between stage directories so each stage's output
// stays independently inspectable.
package migrate

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// SourceUnit is one file tracked through the pipeline, identified by
// its path relative to the source root. A unit is owned exclusively by
// whichever stage is currently processing it.
type SourceUnit struct {
	RelPath   string    `json:"file"`
	Content   []byte    `json:"-"`
	History   []Applied `json:"history,omitempty"`
	Parseable bool      `json:"parseable"`
}

// Applied records one rule application in a unit's ordered history.
type Applied struct {
	Rule  string `json:"rule"`
	Lines []int  `json:"lines"` // 1-based touched lines
}

// Record appends a rule application to the unit history.
func (u *SourceUnit) Record(rule string, lines []int) {
	if len(lines) == 0 {
		return
	}
	sort.Ints(lines)
	u.History = append(u.History, Applied{Rule: rule, Lines: lines})
}

// Lines splits the unit content for line-oriented rules. Joining the
// result with "\n" reproduces the content.
func (u *SourceUnit) Lines() []string {
	return strings.Split(string(u.Content), "\n")
}

// SetLines replaces the unit content from line-oriented rule output.
func (u *SourceUnit) SetLines(lines []string) {
	u.Content = []byte(strings.Join(lines, "\n"))
}

// Empty reports whether the unit has no non-whitespace content.
func (u *SourceUnit) Empty() bool {
	return strings.TrimSpace(string(u.Content)) == ""
}

// Stem returns the unit's file name without directory or extension,
// used for harness and report naming.
func (u *SourceUnit) Stem() string {
	base := filepath.Base(u.RelPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadTree reads every .py file under dir, skipping excluded directory
// names, and returns units in path order.
func LoadTree(dir string, excludes []string) ([]*SourceUnit, error) {
	skip := make(map[string]bool, len(excludes))
	for _, e := range excludes {
		skip[e] = true
	}

	var units []*SourceUnit
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skip[d.Name()] && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".py" || strings.HasSuffix(path, "_harness.py") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		units = append(units, &SourceUnit{RelPath: rel, Content: content, Parseable: true})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "loading unit tree from %s", dir)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].RelPath < units[j].RelPath })
	return units, nil
}

// WriteTree writes every unit under dir, preserving relative layout.
func WriteTree(dir string, units []*SourceUnit) error {
	for _, u := range units {
		path := filepath.Join(dir, u.RelPath)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return errors.Wrapf(err, "mkdir for %s", u.RelPath)
		}
		if err := os.WriteFile(path, u.Content, 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", u.RelPath)
		}
	}
	return nil
}

// CopyTree mirrors the .py files of src into dst, overwriting existing
// files. Used to keep final_output in sync with the latest stage.
// Generated harness scripts are working files of verification, never
// part of the migrated tree.
func CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".py" || strings.HasSuffix(path, "_harness.py") {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}
