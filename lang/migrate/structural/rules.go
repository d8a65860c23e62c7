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
	"fmt"
	"regexp"
	"strings"

	"github.com/Shreyas20004/EVUA/lang/migrate"
)

// Rule rewrites one line of legacy statement syntax. Apply is a pure
// function of the line text and its indentation; rules touching the
// same line run in catalog order, each on the previous rule's output.
type Rule struct {
	ID       string
	Severity migrate.Severity
	Apply    func(line, indent string) (string, bool)
}

var (
	exceptRe   = regexp.MustCompile(`except\s+(\([^)]*\)|[^:,]+?)\s*,\s*(\w+)\s*:`)
	raiseRe    = regexp.MustCompile(`^raise\s+([A-Za-z_]\w*)\s*,\s*([^,]+?)(?:\s*,\s*(\S.*?))?\s*$`)
	oldClassRe = regexp.MustCompile(`^class\s+(\w+)\s*:\s*(#.*)?$`)
	metaRe     = regexp.MustCompile(`^__metaclass__\s*=`)
	rawInputRe = regexp.MustCompile(`\braw_input\b`)
)

// importMigrations maps deprecated module names to their modern paths.
var importMigrations = map[string]string{
	"StringIO":         "io",
	"cPickle":          "pickle",
	"ConfigParser":     "configparser",
	"Queue":            "queue",
	"SocketServer":     "socketserver",
	"xmlrpclib":        "xmlrpc.client",
	"Cookie":           "http.cookies",
	"BaseHTTPServer":   "http.server",
	"SimpleHTTPServer": "http.server",
	"HTMLParser":       "html.parser",
	"urllib2":          "urllib.request",
	"urlparse":         "urllib.parse",
}

// Catalog is the ordered structural rule set.
var Catalog = []Rule{
	{
		ID:       "except_syntax",
		Severity: migrate.SeverityFixed,
		Apply: func(line, indent string) (string, bool) {
			out := exceptRe.ReplaceAllString(line, "except $1 as $2:")
			return out, out != line
		},
	},
	{
		ID:       "raise_syntax",
		Severity: migrate.SeverityFixed,
		Apply: func(line, indent string) (string, bool) {
			stripped := strings.TrimSpace(line)
			m := raiseRe.FindStringSubmatch(stripped)
			if m == nil {
				return line, false
			}
			excType, value, tb := m[1], m[2], m[3]
			if tb != "" {
				return fmt.Sprintf("%sraise %s(%s).with_traceback(%s)", indent, excType, value, tb), true
			}
			return fmt.Sprintf("%sraise %s(%s)", indent, excType, value), true
		},
	},
	{
		ID:       "import_migration",
		Severity: migrate.SeverityFixed,
		Apply:    applyImportMigration,
	},
	{
		ID:       "raw_input_rename",
		Severity: migrate.SeverityFixed,
		Apply: func(line, indent string) (string, bool) {
			if !rawInputRe.MatchString(line) {
				return line, false
			}
			return rawInputRe.ReplaceAllString(line, "input"), true
		},
	},
	{
		ID:       "old_style_class",
		Severity: migrate.SeverityFixed,
		Apply: func(line, indent string) (string, bool) {
			stripped := strings.TrimSpace(line)
			m := oldClassRe.FindStringSubmatch(stripped)
			if m == nil {
				return line, false
			}
			return indent + strings.Replace(stripped, ":", "(object):", 1), true
		},
	},
	{
		// Too risky to rewrite automatically: a metaclass changes class
		// construction itself. Insert a marker line and leave the code.
		ID:       "metaclass_flag",
		Severity: migrate.SeverityFlagged,
		Apply: func(line, indent string) (string, bool) {
			stripped := strings.TrimSpace(line)
			if !metaRe.MatchString(stripped) || strings.Contains(line, "TODO: convert metaclass") {
				return line, false
			}
			return indent + "# TODO: convert metaclass to class keyword syntax\n" + line, true
		},
	},
	{
		ID:       "nonzero_rename",
		Severity: migrate.SeverityFixed,
		Apply: func(line, indent string) (string, bool) {
			if !strings.Contains(line, "__nonzero__") {
				return line, false
			}
			return strings.ReplaceAll(line, "__nonzero__", "__bool__"), true
		},
	},
}

func applyImportMigration(line, indent string) (string, bool) {
	stripped := strings.TrimSpace(line)
	for old, modern := range importMigrations {
		switch {
		case stripped == "import "+old:
			return indent + "import " + modern, true
		case strings.HasPrefix(stripped, "import "+old+" as "):
			alias := strings.TrimPrefix(stripped, "import "+old+" as ")
			if alias == modern {
				return indent + "import " + modern, true
			}
			return indent + "import " + modern + " as " + alias, true
		case strings.HasPrefix(stripped, "from "+old+" import "):
			names := strings.TrimPrefix(stripped, "from "+old+" import ")
			return indent + "from " + modern + " import " + names, true
		}
	}
	return line, false
}

// deprecatedBuiltins have no mechanical replacement; uses are flagged
// with guidance and left untouched.
var deprecatedBuiltins = map[string]string{
	"apply":    "call the function with *args, **kwargs instead",
	"buffer":   "use memoryview() instead",
	"cmp":      "use a key= parameter or operator module helpers",
	"execfile": "use exec(open(filename).read())",
	"file":     "use open()",
	"reload":   "use importlib.reload()",
	"reduce":   "use functools.reduce()",
	"intern":   "use sys.intern()",
	"coerce":   "remove; not needed in modern Python",
}

var deprecatedCallRe = regexp.MustCompile(`\b(apply|buffer|cmp|execfile|file|reload|reduce|intern|coerce)\s*\(`)

// flagDeprecatedBuiltins records manual findings for builtins that have
// no direct rewrite. Detection only, no mutation.
func flagDeprecatedBuiltins(unit string, lines []string, findings migrate.Findings) migrate.Findings {
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		for _, m := range deprecatedCallRe.FindAllStringSubmatch(line, -1) {
			findings = append(findings, migrate.Finding{
				Unit:     unit,
				Line:     i + 1,
				Rule:     "deprecated_builtin",
				Severity: migrate.SeverityManual,
				Before:   strings.TrimSpace(line),
				Note:     m[1] + ": " + deprecatedBuiltins[m[1]],
			})
		}
	}
	return findings
}
