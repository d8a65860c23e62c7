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
	"strings"
	"testing"
)

func TestApplyPrintFix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple statement", `print "hello"`, `print("hello")`},
		{"indented", `    print x`, `    print(x)`},
		{"trailing comma soft newline", `print x,`, `print(x, end=' ')`},
		{"redirect to stderr", `print >> sys.stderr, "oops"`, `print("oops", file=sys.stderr)`},
		{"redirect with trailing comma", `print >> out, x,`, `print(x, end=' ', file=out)`},
		{"already call syntax", `print("hello")`, `print("hello")`},
		{"bare print", `print`, `print`},
		{"comment untouched", `# print x`, `# print x`},
		{"trailing semicolon dropped", `print x;`, `print(x)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := []string{tt.in}
			applyPrintFix(lines)
			if lines[0] != tt.want {
				t.Errorf("got %q, want %q", lines[0], tt.want)
			}
		})
	}
}

func TestApplyAliases(t *testing.T) {
	lines := []string{
		"for i in xrange(10):",
		"    n = long(i)",
		"s = unicode('x')",
		"isinstance(s, basestring)",
		"xrange_total = 1", // partial identifier stays
	}
	changed := applyAliases(lines)
	want := []string{
		"for i in range(10):",
		"    n = int(i)",
		"s = str('x')",
		"isinstance(s, str)",
		"xrange_total = 1",
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i+1, lines[i], want[i])
		}
	}
	if len(changed) != 4 {
		t.Errorf("changed %d lines, want 4", len(changed))
	}
}

func TestApplyComparisonFix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`if a <> b:`, `if a != b:`},
		{`s = "a <> b"`, `s = "a <> b"`},
		{`if a <> b: s = 'x <> y'`, `if a != b: s = 'x <> y'`},
	}
	for _, tt := range tests {
		lines := []string{tt.in}
		applyComparisonFix(lines)
		if lines[0] != tt.want {
			t.Errorf("applyComparisonFix(%q) = %q, want %q", tt.in, lines[0], tt.want)
		}
	}
}

func TestMarkLegacyConstructsIdempotent(t *testing.T) {
	lines := []string{`name = raw_input("name? ")`}
	first := markLegacyConstructs(lines)
	if len(first) != 1 {
		t.Fatalf("first pass marked %d lines, want 1", len(first))
	}
	if !strings.Contains(lines[0], "# PY2_MARKER: raw_input") {
		t.Fatalf("marker missing: %q", lines[0])
	}
	second := markLegacyConstructs(lines)
	if len(second) != 0 {
		t.Errorf("second pass marked %d lines, want 0", len(second))
	}
}

func TestHasPrintFunctionImport(t *testing.T) {
	src := "from __future__ import print_function\nprint('x')\n"
	if !hasPrintFunctionImport(src) {
		t.Error("expected print_function import to be detected")
	}
	if hasPrintFunctionImport("print 'x'\n") {
		t.Error("unexpected detection without the import")
	}
}
