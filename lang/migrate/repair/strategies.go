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

package repair

import (
	"regexp"
	"strings"
)

// Strategy is one automated mismatch repair. Apply returns the patched
// source and whether anything changed; an unchanged return means the
// strategy does not apply to this unit and the loop moves to the next.
type Strategy struct {
	Name  string
	Apply func(src string) (string, bool)
}

// Catalog is the ordered strategy sequence. Order matters: the loop
// tries each unit's untried strategies front to back, one per attempt.
var Catalog = []Strategy{
	{Name: "wrap_iterables", Apply: wrapIterables},
	{Name: "safe_division", Apply: safeDivision},
	{Name: "explicit_str_cast", Apply: explicitStrCast},
	{Name: "encoding_fix", Apply: encodingFix},
}

var iteratorCallRe = regexp.MustCompile(`\b(map|filter|zip)\(`)

// balancedEnd returns the index just past the parenthesis that closes
// the one at open, honoring string quoting, or -1 when unbalanced.
func balancedEnd(src string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// wrapIterables materializes every map/filter/zip call as a list, the
// coarse counterpart of the parse-aware stage 2 rewrite: after
// verification has proven a mismatch, over-wrapping is acceptable.
func wrapIterables(src string) (string, bool) {
	changed := false
	for searched := 0; ; {
		loc := iteratorCallRe.FindStringIndex(src[searched:])
		if loc == nil {
			break
		}
		start := searched + loc[0]
		open := searched + loc[1] - 1
		if strings.HasSuffix(src[:start], "list(") {
			searched = open + 1
			continue
		}
		end := balancedEnd(src, open)
		if end < 0 {
			break
		}
		src = src[:start] + "list(" + src[start:end] + ")" + src[end:]
		searched = end + len("list()")
		changed = true
	}
	return src, changed
}

var divisionRe = regexp.MustCompile(`([\w)\]])\s*/\s*([\w(])`)

// safeDivision floors every plain division, aligning the modern
// runtime's true division with the legacy integer behavior the
// verification diff reported.
func safeDivision(src string) (string, bool) {
	changed := false
	var out []string
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || strings.Contains(line, "//") ||
			strings.ContainsAny(line, `'"`) {
			out = append(out, line)
			continue
		}
		patched := divisionRe.ReplaceAllString(line, "$1 // $2")
		if patched != line {
			changed = true
		}
		out = append(out, patched)
	}
	return strings.Join(out, "\n"), changed
}

var printArgRe = regexp.MustCompile(`^(\s*)print\((.+)\)\s*$`)

// explicitStrCast coerces print arguments through str(), flattening
// representation differences such as integer-vs-float renderings.
func explicitStrCast(src string) (string, bool) {
	changed := false
	var out []string
	for _, line := range strings.Split(src, "\n") {
		m := printArgRe.FindStringSubmatch(line)
		if m == nil || strings.HasPrefix(strings.TrimSpace(m[2]), "str(") ||
			strings.Contains(m[2], "=") {
			out = append(out, line)
			continue
		}
		out = append(out, m[1]+"print(str("+m[2]+"))")
		changed = true
	}
	return strings.Join(out, "\n"), changed
}

var (
	openCallRe   = regexp.MustCompile(`\bopen\(([^()]*)\)`)
	binaryModeRe = regexp.MustCompile(`['"][rwax+]*b[rwax+]*['"]`)
)

// encodingFix pins open() to utf-8 so both runtimes decode file content
// identically. Binary modes and calls that already pass an encoding are
// left alone.
func encodingFix(src string) (string, bool) {
	changed := false
	src = openCallRe.ReplaceAllStringFunc(src, func(call string) string {
		inner := call[len("open(") : len(call)-1]
		if strings.Contains(inner, "encoding") || binaryModeRe.MatchString(inner) {
			return call
		}
		changed = true
		return "open(" + inner + ", encoding='utf-8')"
	})
	return src, changed
}
