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
	"testing"

	"github.com/Shreyas20004/EVUA/lang/migrate"
	"github.com/Shreyas20004/EVUA/lang/pyast"
)

func transformContent(t *testing.T, src string) (*migrate.SourceUnit, migrate.Findings) {
	t.Helper()
	u := &migrate.SourceUnit{RelPath: "mod.py", Content: []byte(src), Parseable: true}
	findings := TransformUnit(context.Background(), pyast.NewParser(), u, nil)
	return u, findings
}

func TestTransformUnitExceptAndRaise(t *testing.T) {
	src := strings.Join([]string{
		"try:",
		"    risky()",
		"except ValueError, e:",
		"    raise RuntimeError, 'wrapped'",
		"",
	}, "\n")
	u, findings := transformContent(t, src)
	got := string(u.Content)
	for _, want := range []string{"except ValueError as e:", "raise RuntimeError('wrapped')"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2", len(findings))
	}
	for _, f := range findings {
		if f.Severity != migrate.SeverityFixed {
			t.Errorf("finding %s severity = %q, want fixed", f.Rule, f.Severity)
		}
	}
}

func TestTransformUnitResultParseable(t *testing.T) {
	src := strings.Join([]string{
		"import urllib2",
		"class Legacy:",
		"    __metaclass__ = type",
		"    def __nonzero__(self):",
		"        return True",
		"",
	}, "\n")
	u, _ := transformContent(t, src)
	got := string(u.Content)
	for _, want := range []string{
		"import urllib.request",
		"class Legacy(object):",
		"# TODO: convert metaclass",
		"def __bool__(self):",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if !pyast.NewParser().Parseable(context.Background(), u.Content) {
		t.Errorf("transformed unit must stay parseable:\n%s", got)
	}
}

func TestTransformUnitRecordsHistory(t *testing.T) {
	u, _ := transformContent(t, "name = raw_input('? ')\n")
	if !strings.Contains(string(u.Content), "input('? ')") {
		t.Fatalf("raw_input not renamed:\n%s", string(u.Content))
	}
	if len(u.History) != 1 || u.History[0].Rule != "structural" {
		t.Fatalf("unexpected history: %+v", u.History)
	}
	if len(u.History[0].Lines) != 1 || u.History[0].Lines[0] != 1 {
		t.Errorf("history lines = %v, want [1]", u.History[0].Lines)
	}
}

func TestTransformUnitNoChanges(t *testing.T) {
	src := "def f():\n    return 1\n"
	u, findings := transformContent(t, src)
	if string(u.Content) != src {
		t.Errorf("clean unit was modified:\n%s", string(u.Content))
	}
	if len(findings) != 0 {
		t.Errorf("clean unit produced findings: %+v", findings)
	}
	if len(u.History) != 0 {
		t.Errorf("clean unit recorded history: %+v", u.History)
	}
}
