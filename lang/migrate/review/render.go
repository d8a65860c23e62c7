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
	"html/template"
	"os"
	"strings"

	"github.com/pkg/errors"
)

var diffPage = template.Must(template.New("review").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Review: {{.File}}</title>
<style>
body { font-family: monospace; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 2px 8px; vertical-align: top; }
td.diff { background: #ffe0e0; }
</style>
</head>
<body>
<h2>{{.File}}</h2>
<table>
<tr><th>Legacy runtime</th><th>Modern runtime</th></tr>
{{- range .Rows}}
<tr><td{{if .Differs}} class="diff"{{end}}>{{.Legacy}}</td><td{{if .Differs}} class="diff"{{end}}>{{.Modern}}</td></tr>
{{- end}}
</table>
</body>
</html>
`))

type diffRow struct {
	Legacy  string
	Modern  string
	Differs bool
}

type diffPageData struct {
	File string
	Rows []diffRow
}

// RenderSideBySide writes an HTML side-by-side view of the two runtime
// outputs, highlighting differing lines.
func RenderSideBySide(path, file, legacy, modern string) error {
	ll := strings.Split(legacy, "\n")
	ml := strings.Split(modern, "\n")
	n := len(ll)
	if len(ml) > n {
		n = len(ml)
	}
	rows := make([]diffRow, n)
	for i := 0; i < n; i++ {
		var row diffRow
		if i < len(ll) {
			row.Legacy = ll[i]
		}
		if i < len(ml) {
			row.Modern = ml[i]
		}
		row.Differs = row.Legacy != row.Modern
		rows[i] = row
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating review page %s", path)
	}
	defer f.Close()
	return diffPage.Execute(f, diffPageData{File: file, Rows: rows})
}
