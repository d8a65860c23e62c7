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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/Shreyas20004/EVUA/lang/migrate"
)

// harnessTemplate is the probe script run under both runtimes. It has
// to parse under both dialects, so it sticks to the shared subset:
// %-formatting, no f-strings, no importlib.util. Every public zero-arg
// callable of the target module is invoked and its result (or error
// string) collected into a sorted-key JSON object on stdout.
const harnessTemplate = `import json
import sys

sys.path.insert(0, %q)
target = __import__(%q)

results = {}
for name in sorted(dir(target)):
    if name.startswith('_'):
        continue
    obj = getattr(target, name)
    if not callable(obj):
        continue
    try:
        value = obj()
    except TypeError:
        continue
    except Exception as exc:
        results[name] = 'error: %%s' %% exc
        continue
    try:
        json.dumps(value)
    except (TypeError, ValueError):
        value = repr(value)
    results[name] = value

sys.stdout.write(json.dumps(results, sort_keys=True))
`

// HarnessPath returns the harness file path for a unit, relative to the
// tree root.
func HarnessPath(u *migrate.SourceUnit) string {
	dir := filepath.Dir(u.RelPath)
	name := u.Stem() + "_harness.py"
	if dir == "." {
		return name
	}
	return filepath.Join(dir, name)
}

// WriteHarness renders and writes the probe script for one unit under
// treeDir, returning the harness path relative to treeDir.
func WriteHarness(treeDir string, u *migrate.SourceUnit) (string, error) {
	rel := HarnessPath(u)
	moduleDir := filepath.ToSlash(filepath.Dir(u.RelPath))
	script := fmt.Sprintf(harnessTemplate, moduleDir, u.Stem())
	// Python's %q-style escaping differs from Go's only for characters
	// that never appear in module stems or sanitized paths.
	if strings.ContainsAny(u.Stem(), `"\`) {
		return "", errors.Errorf("unsupported characters in module name %q", u.Stem())
	}
	path := filepath.Join(treeDir, rel)
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return "", errors.Wrapf(err, "writing harness for %s", u.RelPath)
	}
	return rel, nil
}
