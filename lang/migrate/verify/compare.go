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
	"encoding/json"
	"reflect"
	"sort"
	"strings"
)

// KeyDiff records one probe whose result differs between runtimes.
type KeyDiff struct {
	Key    string      `json:"key"`
	Legacy interface{} `json:"legacy"`
	Modern interface{} `json:"modern"`
}

// Comparison is the structured verdict for one unit.
type Comparison struct {
	Match bool `json:"match"`
	// KeyDiffs is set when both outputs parsed as JSON objects; it
	// holds only the mismatched keys, including keys present on one
	// side only.
	KeyDiffs []KeyDiff `json:"key_diffs,omitempty"`
	// TextDiff is set for non-JSON output mismatches.
	TextDiff string `json:"text_diff,omitempty"`
}

// Compare diffs two harness outputs. JSON object outputs are compared
// key by key so the report names exactly what diverged; anything else
// falls back to trimmed text equality.
func Compare(legacy, modern string) Comparison {
	var lm, mm map[string]interface{}
	lOK := json.Unmarshal([]byte(legacy), &lm) == nil
	mOK := json.Unmarshal([]byte(modern), &mm) == nil
	if lOK && mOK {
		diffs := diffMaps(lm, mm)
		return Comparison{Match: len(diffs) == 0, KeyDiffs: diffs}
	}

	lt, mt := strings.TrimSpace(legacy), strings.TrimSpace(modern)
	if lt == mt {
		return Comparison{Match: true}
	}
	return Comparison{Match: false, TextDiff: "legacy: " + lt + "\nmodern: " + mt}
}

func diffMaps(legacy, modern map[string]interface{}) []KeyDiff {
	keys := make(map[string]bool, len(legacy)+len(modern))
	for k := range legacy {
		keys[k] = true
	}
	for k := range modern {
		keys[k] = true
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var diffs []KeyDiff
	for _, k := range sorted {
		lv, lok := legacy[k]
		mv, mok := modern[k]
		if lok && mok && reflect.DeepEqual(lv, mv) {
			continue
		}
		diffs = append(diffs, KeyDiff{Key: k, Legacy: lv, Modern: mv})
	}
	return diffs
}
