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

package migrate

// Severity classifies a transformation finding.
type Severity string

const (
	// SeverityFixed marks a rewrite that was applied automatically.
	SeverityFixed Severity = "fixed"
	// SeverityFlagged marks a construct annotated for review but left
	// functionally unchanged.
	SeverityFlagged Severity = "flagged"
	// SeverityManual marks a construct that needs human attention,
	// including rewrites rolled back for breaking parseability.
	SeverityManual Severity = "manual"
)

// Finding is one recorded, non-fatal observation from a transformation
// stage. Findings are append-only and aggregated per stage.
type Finding struct {
	Unit     string   `json:"unit"`
	Line     int      `json:"line"` // 1-based
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Before   string   `json:"before,omitempty"`
	After    string   `json:"after,omitempty"`
	Note     string   `json:"note,omitempty"`
}

// Findings is the accumulator value threaded through rule invocations.
// Stages fold over units as (unit, findings) -> (unit', findings') so
// unit processing stays safe to parallelize.
type Findings []Finding

// Add appends a finding and returns the extended slice.
func (f Findings) Add(unit string, line int, rule string, sev Severity, before, after string) Findings {
	return append(f, Finding{Unit: unit, Line: line, Rule: rule, Severity: sev, Before: before, After: after})
}

// ForUnit returns the findings recorded against one unit.
func (f Findings) ForUnit(unit string) Findings {
	var out Findings
	for _, fd := range f {
		if fd.Unit == unit {
			out = append(out, fd)
		}
	}
	return out
}

// CountBySeverity tallies findings per severity, for stage metrics.
func (f Findings) CountBySeverity() map[string]int {
	out := make(map[string]int)
	for _, fd := range f {
		out[string(fd.Severity)]++
	}
	return out
}
