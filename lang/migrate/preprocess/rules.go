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

package preprocess

import (
	"fmt"
	"regexp"
	"strings"
)

// aliasReplacements are the unambiguous legacy type/name aliases. They
// are applied with word boundaries so partial identifiers survive.
var aliasReplacements = []struct {
	old, new string
	re       *regexp.Regexp
}{
	{old: "xrange", new: "range", re: regexp.MustCompile(`\bxrange\b`)},
	{old: "long", new: "int", re: regexp.MustCompile(`\blong\b`)},
	{old: "unicode", new: "str", re: regexp.MustCompile(`\bunicode\b`)},
	{old: "basestring", new: "str", re: regexp.MustCompile(`\bbasestring\b`)},
}

// applyAliases rewrites legacy aliases in every line and returns the
// 1-based lines touched.
func applyAliases(lines []string) []int {
	var changed []int
	for i, line := range lines {
		out := line
		for _, r := range aliasReplacements {
			out = r.re.ReplaceAllString(out, r.new)
		}
		if out != line {
			lines[i] = out
			changed = append(changed, i+1)
		}
	}
	return changed
}

var (
	printCallRe     = regexp.MustCompile(`^\s*print\s*\(`)
	printBareRe     = regexp.MustCompile(`^\s*print\s*$`)
	printRedirectRe = regexp.MustCompile(`^(\s*)print\s*>>\s*([^\s,]+)\s*,\s*(.*)$`)
	printStmtRe     = regexp.MustCompile(`^(\s*)print\s+(.+)$`)
	futurePrintRe   = regexp.MustCompile(`(?m)^\s*from\s+__future__\s+import\s+.*\bprint_function\b`)
)

// hasPrintFunctionImport reports whether the unit already opted in to
// call-style print, in which case legacy print statements cannot occur.
func hasPrintFunctionImport(content string) bool {
	return futurePrintRe.MatchString(content)
}

// applyPrintFix converts legacy print-statement syntax into call
// syntax. A trailing separator comma becomes an explicit end=' '
// argument, preserving the soft-newline semantics; a >> redirect
// becomes a file= argument.
func applyPrintFix(lines []string) []int {
	var changed []int
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "#") {
			continue
		}
		if printCallRe.MatchString(line) || printBareRe.MatchString(line) {
			continue
		}

		if m := printRedirectRe.FindStringSubmatch(line); m != nil {
			indent, fileObj, content := m[1], m[2], strings.TrimRight(m[3], " \t;")
			if rest, ok := strings.CutSuffix(content, ","); ok {
				lines[i] = fmt.Sprintf("%sprint(%s, end=' ', file=%s)", indent, strings.TrimRight(rest, " \t"), fileObj)
			} else {
				lines[i] = fmt.Sprintf("%sprint(%s, file=%s)", indent, content, fileObj)
			}
			changed = append(changed, i+1)
			continue
		}

		if m := printStmtRe.FindStringSubmatch(line); m != nil {
			indent, content := m[1], strings.TrimRight(m[2], " \t;")
			if rest, ok := strings.CutSuffix(content, ","); ok {
				lines[i] = fmt.Sprintf("%sprint(%s, end=' ')", indent, strings.TrimRight(rest, " \t"))
			} else {
				lines[i] = fmt.Sprintf("%sprint(%s)", indent, content)
			}
			changed = append(changed, i+1)
		}
	}
	return changed
}

var quotedSegmentRe = regexp.MustCompile(`'[^']*'|"[^"]*"`)

// applyComparisonFix rewrites the legacy <> operator to != outside
// string literals.
func applyComparisonFix(lines []string) []int {
	var changed []int
	for i, line := range lines {
		if !strings.Contains(line, "<>") {
			continue
		}
		out := replaceOutsideStrings(line, "<>", "!=")
		if out != line {
			lines[i] = out
			changed = append(changed, i+1)
		}
	}
	return changed
}

// replaceOutsideStrings substitutes old for new everywhere except
// inside single- or double-quoted segments.
func replaceOutsideStrings(line, old, new string) string {
	spans := quotedSegmentRe.FindAllStringIndex(line, -1)
	var b strings.Builder
	last := 0
	for _, span := range spans {
		b.WriteString(strings.ReplaceAll(line[last:span[0]], old, new))
		b.WriteString(line[span[0]:span[1]])
		last = span[1]
	}
	b.WriteString(strings.ReplaceAll(line[last:], old, new))
	return b.String()
}

const py2Marker = "# PY2_MARKER"

var py2ConstructRe = regexp.MustCompile(`\b(raw_input|apply|coerce)\s*\(`)

// markLegacyConstructs appends a marker comment to lines using
// constructs the structural stage must look at. Already-marked lines
// are left alone so a second pass reports no changes.
func markLegacyConstructs(lines []string) []int {
	var marked []int
	for i, line := range lines {
		if strings.Contains(line, py2Marker) {
			continue
		}
		m := py2ConstructRe.FindStringSubmatch(line)
		if m == nil || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines[i] = strings.TrimRight(line, " \t") + "  " + py2Marker + ": " + m[1]
		marked = append(marked, i+1)
	}
	return marked
}
