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

package semantic

import (
	"regexp"
	"strings"
)

var (
	tryRe          = regexp.MustCompile(`^(\s*)try\s*:\s*(#.*)?$`)
	exceptImportRe = regexp.MustCompile(`^(\s*)except\s+ImportError\s*:\s*(#.*)?$`)
	importLineRe   = regexp.MustCompile(`^\s*(import|from)\s+\S`)
)

// collapseCompatImports rewrites the dual-runtime import idiom
//
//	try:
//	    import cPickle as pickle
//	except ImportError:
//	    import pickle
//
// down to the modern branch alone. Only the strict four-line shape is
// handled; anything looser stays for manual review. The collapsed lines
// become blanks so line numbering in later reports stays stable.
// Returns the 1-based lines of each collapsed block.
func collapseCompatImports(lines []string) []int {
	var collapsed []int
	for i := 0; i+3 < len(lines); i++ {
		m := tryRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		indent := m[1]
		if !importLineRe.MatchString(lines[i+1]) {
			continue
		}
		em := exceptImportRe.FindStringSubmatch(lines[i+2])
		if em == nil || em[1] != indent {
			continue
		}
		if !importLineRe.MatchString(lines[i+3]) {
			continue
		}
		modern := strings.TrimSpace(lines[i+3])
		lines[i] = indent + modern
		lines[i+1] = ""
		lines[i+2] = ""
		lines[i+3] = ""
		collapsed = append(collapsed, i+1)
		i += 3
	}
	return collapsed
}
