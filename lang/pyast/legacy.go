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

package pyast

import (
	"regexp"
	"strings"
)

// The bundled grammar keeps Python 2 compatibility: print and exec
// statements, backtick repr, and tuple-parameter lambdas all produce a
// clean tree. A clean parse alone therefore does not make a unit valid
// modern Python; these patterns catch the statement forms the modern
// interpreter rejects. They run on sanitized lines, with string literal
// and comment content blanked out.
var (
	legacyPrintRe  = regexp.MustCompile(`^\s*print\b\s*([^(\s].*)?$`)
	legacyExecRe   = regexp.MustCompile(`^\s*exec\b\s*([^(\s].*)?$`)
	legacyLambdaRe = regexp.MustCompile(`\blambda\s*\(`)
)

// firstLegacyConstruct returns a SyntaxError for the first line holding
// a legacy-only statement form, or nil when none is present.
func firstLegacyConstruct(content []byte) *SyntaxError {
	lines := strings.Split(string(content), "\n")
	for i, line := range sanitizeLines(lines) {
		if !legacyPrintRe.MatchString(line) && !legacyExecRe.MatchString(line) &&
			!legacyLambdaRe.MatchString(line) && !strings.Contains(line, "`") {
			continue
		}
		snippet := strings.TrimSpace(lines[i])
		if len(snippet) > 40 {
			snippet = snippet[:40]
		}
		return &SyntaxError{Line: i + 1, Snippet: snippet, Legacy: true}
	}
	return nil
}

// sanitizeLines blanks string literal and comment content so line
// scanners only see code. Triple-quoted strings carry across lines;
// single-quoted strings terminate at end of line.
func sanitizeLines(lines []string) []string {
	out := make([]string, len(lines))
	var delim string
	for li, line := range lines {
		var b strings.Builder
		i := 0
		for i < len(line) {
			if delim != "" {
				if len(delim) == 1 && line[i] == '\\' {
					b.WriteString("  ")
					i += 2
					continue
				}
				if strings.HasPrefix(line[i:], delim) {
					b.WriteString(strings.Repeat(" ", len(delim)))
					i += len(delim)
					delim = ""
					continue
				}
				b.WriteByte(' ')
				i++
				continue
			}
			switch c := line[i]; c {
			case '#':
				i = len(line)
			case '\'', '"':
				q := string(c)
				delim = q
				if strings.HasPrefix(line[i:], q+q+q) {
					delim = q + q + q
				}
				b.WriteString(strings.Repeat(" ", len(delim)))
				i += len(delim)
			default:
				b.WriteByte(c)
				i++
			}
		}
		if len(delim) == 1 {
			delim = ""
		}
		out[li] = b.String()
	}
	return out
}
