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

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Shreyas20004/EVUA/internal/config"
	"github.com/Shreyas20004/EVUA/internal/sandbox"
	"github.com/Shreyas20004/EVUA/internal/session"
)

// copyStage copies the input tree through and reports one metric.
type copyStage struct {
	name string
	fail error
	boom bool
}

func (s *copyStage) Name() string { return s.name }

func (s *copyStage) Run(ctx context.Context, sc *StageContext) (*StageResult, error) {
	if s.boom {
		panic("stage exploded")
	}
	if s.fail != nil {
		return nil, s.fail
	}
	entries, err := os.ReadDir(sc.InputDir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(sc.InputDir, e.Name()))
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(sc.OutputDir, e.Name()), data, 0o644); err != nil {
			return nil, err
		}
	}
	return &StageResult{
		Metrics: map[string]int{"total": len(entries)},
		Log:     map[string]int{"total": len(entries)},
	}, nil
}

func sourceTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mod.py"), []byte("x = 1\n"), 0o644))
	return dir
}

func TestOrchestratorRun(t *testing.T) {
	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)
	orch := NewOrchestrator(store, &copyStage{name: "stage_a"}, &copyStage{name: "stage_b"})

	sess, err := orch.Run(context.Background(), sourceTree(t), config.Default(), sandbox.NewLocalExecutor())
	require.NoError(t, err)
	require.Equal(t, session.StatusCompleted, sess.Status)
	require.Len(t, sess.Stages, 2)
	require.Equal(t, "stage_a", sess.Stages[0].Stage)

	// Final output mirrors the last stage.
	_, err = os.Stat(filepath.Join(sess.FinalOutputDir(), "mod.py"))
	require.NoError(t, err)
	// Per-stage logs and the merged metadata exist.
	_, err = os.Stat(sess.LogPath("stage_b"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(sess.Dir(), "session_metadata.json"))
	require.NoError(t, err)
}

func TestOrchestratorStageError(t *testing.T) {
	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)
	boom := errors.New("disk on fire")
	orch := NewOrchestrator(store,
		&copyStage{name: "stage_a"},
		&copyStage{name: "stage_b", fail: boom},
		&copyStage{name: "stage_c"},
	)

	sess, err := orch.Run(context.Background(), sourceTree(t), config.Default(), sandbox.NewLocalExecutor())
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.Equal(t, session.StatusFailed, sess.Status)
	require.Contains(t, sess.Error, "disk on fire")
	// stage_a completed before the failure and stays recorded.
	require.Len(t, sess.Stages, 1)

	reopened, reopenErr := store.Open(sess.ID)
	require.NoError(t, reopenErr)
	require.Equal(t, session.StatusFailed, reopened.Status)
}

func TestOrchestratorPanicBecomesFailure(t *testing.T) {
	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)
	orch := NewOrchestrator(store, &copyStage{name: "stage_a", boom: true})

	sess, err := orch.Run(context.Background(), sourceTree(t), config.Default(), sandbox.NewLocalExecutor())
	require.Error(t, err)
	var sf *StageFailure
	require.ErrorAs(t, err, &sf)
	require.Equal(t, "stage_a", sf.Stage)
	require.NotEmpty(t, sf.Stack)
	require.Equal(t, session.StatusFailed, sess.Status)
	require.Contains(t, sess.Traceback, "goroutine")
}
