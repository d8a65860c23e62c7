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

package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestLocalExecutorRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix core utilities")
	}
	e := NewLocalExecutor()
	res, err := e.Run(context.Background(), Spec{
		Command: []string{"echo", "hello"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Errorf("stdout = %q", res.Stdout)
	}
	if res.ExitCode != 0 || res.TimedOut {
		t.Errorf("result = %+v", res)
	}
}

func TestLocalExecutorWorkingDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix core utilities")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "probe.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewLocalExecutor()
	res, err := e.Run(context.Background(), Spec{
		Mounts:  []Mount{{Host: dir, Container: "/workspace"}},
		Command: []string{"ls"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(res.Stdout, "probe.txt") {
		t.Errorf("working directory not applied, stdout = %q", res.Stdout)
	}
}

func TestLocalExecutorTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix core utilities")
	}
	e := NewLocalExecutor()
	res, err := e.Run(context.Background(), Spec{
		Command: []string{"sleep", "5"},
		Timeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("timeout must be a structured result, got error: %v", err)
	}
	if !res.TimedOut || res.ExitCode != -1 {
		t.Errorf("result = %+v, want timed out with exit -1", res)
	}
}

func TestLocalExecutorNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on unix core utilities")
	}
	e := NewLocalExecutor()
	res, err := e.Run(context.Background(), Spec{
		Command: []string{"sh", "-c", "exit 3"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
}

func TestLocalExecutorEmptyCommand(t *testing.T) {
	e := NewLocalExecutor()
	if _, err := e.Run(context.Background(), Spec{}); err == nil {
		t.Error("expected error for empty command")
	}
}
