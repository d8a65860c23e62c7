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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shreyas20004/EVUA/internal/config"
	"github.com/Shreyas20004/EVUA/internal/sandbox"
	"github.com/Shreyas20004/EVUA/internal/session"
	"github.com/Shreyas20004/EVUA/lang/migrate"
	"github.com/Shreyas20004/EVUA/lang/migrate/verify"
)

// contentExecutor fakes the two runtimes: the modern side diverges
// until the unit under test contains the marker substring.
type contentExecutor struct {
	cfg     *config.Config
	treeDir string
	file    string
	marker  string
}

func (e *contentExecutor) Kind() sandbox.Kind { return sandbox.KindLocal }

func (e *contentExecutor) Run(ctx context.Context, spec sandbox.Spec) (sandbox.Result, error) {
	if spec.Image == e.cfg.LegacyImage {
		return sandbox.Result{Stdout: `{"f": [1, 2]}`}, nil
	}
	src, err := os.ReadFile(filepath.Join(e.treeDir, e.file))
	if err != nil {
		return sandbox.Result{}, err
	}
	if strings.Contains(string(src), e.marker) {
		return sandbox.Result{Stdout: `{"f": [1, 2]}`}, nil
	}
	return sandbox.Result{Stdout: `{"f": "<map object>"}`}, nil
}

func seedFailingReport(t *testing.T, diffDir string, u *migrate.SourceUnit) {
	t.Helper()
	report := verify.Report{
		File:  u.RelPath,
		Match: false,
		Details: verify.Comparison{Match: false, KeyDiffs: []verify.KeyDiff{
			{Key: "f", Legacy: []interface{}{1.0, 2.0}, Modern: "<map object>"},
		}},
	}
	require.NoError(t, session.WriteJSON(verify.ReportPath(diffDir, u), report))
}

func TestRunLoopRepairsIteratorMismatch(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 1
	treeDir, diffDir := t.TempDir(), t.TempDir()

	u := &migrate.SourceUnit{RelPath: "mod.py", Content: []byte("def f():\n    return map(int, '12')\n")}
	units := []*migrate.SourceUnit{u}
	require.NoError(t, migrate.WriteTree(treeDir, units))
	seedFailingReport(t, diffDir, u)

	exec := &contentExecutor{cfg: cfg, treeDir: treeDir, file: "mod.py", marker: "list(map("}
	engine := verify.NewEngine(exec, cfg)

	meta, err := RunLoop(context.Background(), engine, treeDir, diffDir, units, cfg.MaxRepairAttempts)
	require.NoError(t, err)
	require.Equal(t, 1, meta.Repaired)
	require.Equal(t, 0, meta.StillFailing)
	require.Equal(t, 1, meta.Attempts)
	require.Contains(t, string(u.Content), "list(map(")

	require.Len(t, meta.Files, 1)
	applied := meta.Files[0].Applied
	require.Len(t, applied, 1)
	require.Equal(t, "wrap_iterables", applied[0].Strategy)
	require.True(t, applied[0].Success)
	require.Empty(t, applied[0].DiffAfter)
}

func TestRunLoopStopsWhenCatalogExhausted(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 1
	cfg.MaxRepairAttempts = 10
	treeDir, diffDir := t.TempDir(), t.TempDir()

	u := &migrate.SourceUnit{RelPath: "mod.py", Content: []byte("def f():\n    return map(int, x / y)\n")}
	units := []*migrate.SourceUnit{u}
	require.NoError(t, migrate.WriteTree(treeDir, units))
	seedFailingReport(t, diffDir, u)

	// Marker never appears, so no attempt succeeds.
	exec := &contentExecutor{cfg: cfg, treeDir: treeDir, file: "mod.py", marker: "\x00"}
	engine := verify.NewEngine(exec, cfg)

	meta, err := RunLoop(context.Background(), engine, treeDir, diffDir, units, cfg.MaxRepairAttempts)
	require.NoError(t, err)
	require.Equal(t, 0, meta.Repaired)
	require.Equal(t, 1, meta.StillFailing)
	require.LessOrEqual(t, meta.Attempts, cfg.MaxRepairAttempts)
	require.LessOrEqual(t, len(meta.Files[0].Applied), len(Catalog))
}

func TestRunLoopBoundedByMaxAttempts(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 1
	treeDir, diffDir := t.TempDir(), t.TempDir()

	u := &migrate.SourceUnit{RelPath: "mod.py", Content: []byte("def f():\n    return map(int, x / y)\n")}
	units := []*migrate.SourceUnit{u}
	require.NoError(t, migrate.WriteTree(treeDir, units))
	seedFailingReport(t, diffDir, u)

	exec := &contentExecutor{cfg: cfg, treeDir: treeDir, file: "mod.py", marker: "\x00"}
	engine := verify.NewEngine(exec, cfg)

	meta, err := RunLoop(context.Background(), engine, treeDir, diffDir, units, 1)
	require.NoError(t, err)
	require.Equal(t, 1, meta.Attempts)
	require.Len(t, meta.Files[0].Applied, 1, "one strategy per attempt")
}
