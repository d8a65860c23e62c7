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
	"context"
	"regexp"
	"strings"

	"github.com/Shreyas20004/EVUA/lang/pyast"
)

// maxRecoverAttempts bounds the stub-or-fix loop so recovery always
// terminates even on pathological input.
const maxRecoverAttempts = 20

var (
	execStmtRe = regexp.MustCompile(`^(\s*)exec\s+([^(].*?)(\s+in\s+(.+))?\s*$`)
	backtickRe = regexp.MustCompile("`([^`]+)`")
)

// tryFixLine attempts a minimal rewrite of a trivially fixable legacy
// construct. It returns the fixed line and whether a fix applied.
func tryFixLine(line string) (string, bool) {
	if m := execStmtRe.FindStringSubmatch(line); m != nil {
		indent, expr, scope := m[1], m[2], m[4]
		if scope != "" {
			return indent + "exec(" + expr + ", " + scope + ")", true
		}
		return indent + "exec(" + expr + ")", true
	}
	if backtickRe.MatchString(line) {
		return backtickRe.ReplaceAllString(line, "repr($1)"), true
	}
	return "", false
}

// recoverParse drives content toward parseability: locate the parser's
// error line, fix it when trivially fixable, otherwise comment it out
// (preserving line numbering), and re-validate after every change. The
// loop is bounded; a unit still unparseable afterwards is reported as
// such and carried forward untouched by later stages.
func recoverParse(ctx context.Context, parser *pyast.Parser, lines []string) (stubbed []int, parseable bool) {
	attempts := maxRecoverAttempts
	if len(lines) < attempts {
		attempts = len(lines)
	}

	for attempt := 0; attempt < attempts; attempt++ {
		serr, err := parser.Check(ctx, []byte(strings.Join(lines, "\n")))
		if err != nil {
			return stubbed, false
		}
		if serr == nil {
			return stubbed, true
		}
		idx := serr.Line - 1
		if idx < 0 || idx >= len(lines) {
			return stubbed, false
		}

		if fixed, ok := tryFixLine(lines[idx]); ok && fixed != lines[idx] {
			lines[idx] = fixed
			continue
		}
		original := strings.TrimRight(lines[idx], " \t")
		if strings.HasPrefix(strings.TrimSpace(original), "# STUBBED:") {
			// Stubbing this line did not move the error; give up rather
			// than loop on the same location.
			return stubbed, false
		}
		indent := original[:len(original)-len(strings.TrimLeft(original, " \t"))]
		lines[idx] = indent + "# STUBBED: " + strings.TrimSpace(original)
		stubbed = append(stubbed, idx+1)
	}

	return stubbed, parser.Parseable(ctx, []byte(strings.Join(lines, "\n")))
}
