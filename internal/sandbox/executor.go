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

// Package sandbox runs harness commands inside an isolated container
// runtime, or directly on the host when no runtime is available. The
// capability is probed once per session, never per call, so every
// verification report is attributable to one fixed execution mode.
package sandbox

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrUnavailable is returned by an executor whose runtime probe failed.
// Callers match it with errors.Is to fall back to another executor.
var ErrUnavailable = errors.New("container runtime is not available")

// Kind identifies which execution capability is in effect.
type Kind string

const (
	KindDocker Kind = "docker"
	KindLocal  Kind = "local"
)

// Mount maps a host directory into the container filesystem.
type Mount struct {
	Host      string
	Container string
}

// Spec describes one command execution.
type Spec struct {
	// Image is the container image; ignored by the local executor.
	Image string
	// Mounts are bind mounts; the local executor uses the first mount's
	// host path as the working directory instead.
	Mounts []Mount
	// Command is the argv to run.
	Command []string
	// Timeout bounds the execution. Zero means no bound.
	Timeout time.Duration
}

// Result is the captured outcome of one execution. A timeout yields a
// structured result with TimedOut set, never an error, so callers can
// treat it as a synthetic mismatch and keep going.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Executor runs one Spec and returns its captured result. Run returns an
// error only when the command could not be started at all; a non-zero
// exit or timeout is reported through Result.
type Executor interface {
	Run(ctx context.Context, spec Spec) (Result, error)
	Kind() Kind
}

// Select probes for a container runtime once and returns the executor to
// use for the whole session: docker when available, local otherwise.
func Select() Executor {
	if d := NewDockerExecutor(); d.Available() {
		return d
	}
	return NewLocalExecutor()
}
