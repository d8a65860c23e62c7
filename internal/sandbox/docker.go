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
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// DockerExecutor shells out to the docker CLI. Each Run is a fresh
// `docker run --rm` container with the requested bind mounts, so the two
// environments of a verification pass share no state.
type DockerExecutor struct {
	dockerPath string
	available  bool
}

// NewDockerExecutor locates the docker binary and verifies the daemon is
// responsive. Availability is fixed at construction time.
func NewDockerExecutor() *DockerExecutor {
	e := &DockerExecutor{}
	path, err := exec.LookPath("docker")
	if err != nil {
		return e
	}
	e.dockerPath = path

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, path, "info").Run(); err != nil {
		return e
	}
	e.available = true
	return e
}

// Available reports whether the docker daemon answered the probe.
func (e *DockerExecutor) Available() bool { return e.available }

// Kind implements Executor.
func (e *DockerExecutor) Kind() Kind { return KindDocker }

// Run implements Executor.
func (e *DockerExecutor) Run(ctx context.Context, spec Spec) (Result, error) {
	if !e.available {
		return Result{}, ErrUnavailable
	}
	if len(spec.Command) == 0 {
		return Result{}, errors.New("empty command")
	}

	args := []string{"run", "--rm"}
	for _, m := range spec.Mounts {
		host, err := filepath.Abs(m.Host)
		if err != nil {
			return Result{}, errors.Wrapf(err, "resolving mount %s", m.Host)
		}
		args = append(args, "-v", fmt.Sprintf("%s:%s", host, m.Container))
	}
	// Commands use paths relative to the first mount, matching the
	// local executor's working-directory behavior.
	if len(spec.Mounts) > 0 {
		args = append(args, "-w", spec.Mounts[0].Container)
	}
	args = append(args, spec.Image)
	args = append(args, spec.Command...)

	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.dockerPath, args...)
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
		return res, errors.Wrap(err, "docker run")
	}
	return res, nil
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}
