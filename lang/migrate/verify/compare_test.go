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

package verify

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompareJSONObjects(t *testing.T) {
	legacy := `{"a": 1, "b": "x", "c": 3}`
	modern := `{"a": 1, "b": "y", "d": 4}`
	got := Compare(legacy, modern)
	if got.Match {
		t.Fatal("expected mismatch")
	}
	want := []KeyDiff{
		{Key: "b", Legacy: "x", Modern: "y"},
		{Key: "c", Legacy: float64(3), Modern: nil},
		{Key: "d", Legacy: nil, Modern: float64(4)},
	}
	if diff := cmp.Diff(want, got.KeyDiffs); diff != "" {
		t.Errorf("key diffs mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareMatchingJSON(t *testing.T) {
	got := Compare(`{"a": [1, 2]}`, `{"a": [1, 2]}`)
	if !got.Match || len(got.KeyDiffs) != 0 {
		t.Errorf("got %+v, want clean match", got)
	}
}

func TestCompareTextFallback(t *testing.T) {
	if got := Compare("hello\n", "hello"); !got.Match {
		t.Errorf("trimmed text must match: %+v", got)
	}
	got := Compare("hello", "world")
	if got.Match || got.TextDiff == "" {
		t.Errorf("got %+v, want text mismatch", got)
	}
}

func TestCompareSymmetricVerdict(t *testing.T) {
	pairs := [][2]string{
		{`{"a": 1}`, `{"a": 2}`},
		{"plain", "plain"},
		{`{"a": 1}`, "not json"},
	}
	for _, p := range pairs {
		if Compare(p[0], p[1]).Match != Compare(p[1], p[0]).Match {
			t.Errorf("verdict not symmetric for %q vs %q", p[0], p[1])
		}
	}
}

func TestSummarize(t *testing.T) {
	reports := []Report{
		{File: "a.py", Match: true},
		{File: "b.py", Match: false},
		{File: "c.py", Match: false, Manual: true},
	}
	got := Summarize(reports)
	want := map[string]int{"total": 3, "matched": 1, "mismatched": 1, "manual": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}
