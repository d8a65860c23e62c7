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

package structural

import (
	"context"
	"strings"

	"github.com/Shreyas20004/EVUA/internal/log"
	"github.com/Shreyas20004/EVUA/lang/migrate"
	"github.com/Shreyas20004/EVUA/lang/pyast"
)

// TransformUnit applies the catalog to one parseable unit and enforces
// the parseability invariant: if the rewritten unit no longer parses,
// the offending line's edits are rolled back and its findings are
// downgraded to manual. The accumulator is threaded through and
// returned, never stored on the engine.
func TransformUnit(ctx context.Context, parser *pyast.Parser, u *migrate.SourceUnit, findings migrate.Findings) migrate.Findings {
	orig := u.Lines()
	out := make([]string, len(orig))
	copy(out, orig)

	// findingIdx maps a logical line to the indices of findings it
	// produced, so a rollback can downgrade exactly those.
	findingIdx := make(map[int][]int)
	changed := make(map[int]bool)

	for i, line := range out {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]

		current := line
		for _, rule := range Catalog {
			next, applied := rule.Apply(current, indent)
			if !applied {
				continue
			}
			findings = append(findings, migrate.Finding{
				Unit:     u.RelPath,
				Line:     i + 1,
				Rule:     rule.ID,
				Severity: rule.Severity,
				Before:   strings.TrimSpace(current),
				After:    strings.TrimSpace(next),
			})
			findingIdx[i] = append(findingIdx[i], len(findings)-1)
			changed[i] = true
			current = next
		}
		out[i] = current
	}

	findings = flagDeprecatedBuiltins(u.RelPath, out, findings)

	// Rollback loop: each iteration reverts at most one changed line, so
	// it terminates after len(changed) rounds.
	for round := 0; round <= len(changed); round++ {
		content := strings.Join(out, "\n")
		serr, err := parser.Check(ctx, []byte(content))
		if err == nil && serr == nil {
			break
		}
		idx := -1
		if serr != nil {
			idx = logicalLine(out, serr.Line)
		}
		if idx < 0 || !changed[idx] {
			// The break is not attributable to one of our edits; revert
			// every remaining changed line.
			idx = anyChanged(changed)
			if idx < 0 {
				log.Error("unit %s unparseable after structural pass with no revertible edits", u.RelPath)
				break
			}
		}
		log.Debug("unit %s: rolling back structural edits on line %d", u.RelPath, idx+1)
		out[idx] = orig[idx]
		delete(changed, idx)
		for _, fi := range findingIdx[idx] {
			findings[fi].Severity = migrate.SeverityManual
			findings[fi].After = ""
			findings[fi].Note = "rolled back: rewrite broke parseability"
		}
	}

	u.SetLines(out)
	rec := make([]int, 0, len(changed))
	for i := range changed {
		rec = append(rec, i+1)
	}
	u.Record("structural", rec)
	return findings
}

// logicalLine maps a 1-based physical line in the joined output back to
// the logical line index; marker insertions make a logical line span
// multiple physical lines.
func logicalLine(out []string, physical int) int {
	row := 1
	for i, l := range out {
		span := 1 + strings.Count(l, "\n")
		if physical < row+span {
			return i
		}
		row += span
	}
	return -1
}

func anyChanged(changed map[int]bool) int {
	min := -1
	for i := range changed {
		if min == -1 || i < min {
			min = i
		}
	}
	return min
}
