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
	"bytes"
	"context"
	"os/exec"

	"github.com/pkg/errors"
)

// LocalExecutor runs the command directly on the host. It is the
// fallback when no container runtime is present; results stay fully
// structured so a fallback run is inspectable, never a silent pass.
type LocalExecutor struct{}

// NewLocalExecutor returns the host-execution fallback.
func NewLocalExecutor() *LocalExecutor { return &LocalExecutor{} }

// Kind implements Executor.
func (e *LocalExecutor) Kind() Kind { return KindLocal }

// Run implements Executor. The image is ignored; the first mount's host
// path becomes the working directory so relative module imports resolve
// the same way they would inside the container.
func (e *LocalExecutor) Run(ctx context.Context, spec Spec) (Result, error) {
	if len(spec.Command) == 0 {
		return Result{}, errors.New("empty command")
	}

	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	if len(spec.Mounts) > 0 {
		cmd.Dir = spec.Mounts[0].Host
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(cmd, err),
	}
	if ctx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}
	if err != nil && res.ExitCode == -1 {
		return res, errors.Wrapf(err, "exec %s", spec.Command[0])
	}
	return res, nil
}
