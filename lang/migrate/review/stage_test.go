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

package review

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Shreyas20004/EVUA/lang/migrate/verify"
)

func TestSuggest(t *testing.T) {
	tests := []struct {
		name    string
		details string
		want    string
	}{
		{"map mismatch", `[{"key":"f","legacy":[1],"modern":"<map object at 0x7f>"}]`, "Wrap iterator or map object in list() for consistent type."},
		{"filter mismatch", "legacy: [1]\nmodern: <filter object>", "Wrap iterator or map object in list() for consistent type."},
		{"division mismatch", "legacy: 2\nmodern: 2.5 division", "Add `from __future__ import division` for consistent float division."},
		{"unknown", "legacy: a\nmodern: b", "Manual review required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Suggest(tt.details); got != tt.want {
				t.Errorf("Suggest(%q) = %q, want %q", tt.details, got, tt.want)
			}
		})
	}
}

func TestRenderDetails(t *testing.T) {
	c := verify.Comparison{Match: false, KeyDiffs: []verify.KeyDiff{{Key: "f", Legacy: 1.0, Modern: 2.0}}}
	got := renderDetails(c)
	if !strings.Contains(got, `"key":"f"`) {
		t.Errorf("key diffs not rendered: %q", got)
	}
	if renderDetails(verify.Comparison{Match: true}) != "" {
		t.Error("matching comparison must render empty")
	}
	text := verify.Comparison{Match: false, TextDiff: "legacy: a\nmodern: b"}
	if renderDetails(text) != text.TextDiff {
		t.Error("text diff must pass through")
	}
}

func TestRenderSideBySide(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mod_review.html")
	err := RenderSideBySide(path, "mod.py", "{\"f\": 1}\nsame", "{\"f\": 2}\nsame")
	if err != nil {
		t.Fatalf("RenderSideBySide: %v", err)
	}
	html, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := string(html)
	for _, want := range []string{"mod.py", "class=\"diff\"", "same"} {
		if !strings.Contains(got, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Count(got, "class=\"diff\"") != 2 {
		t.Errorf("want exactly one highlighted row (two cells):\n%s", got)
	}
}
