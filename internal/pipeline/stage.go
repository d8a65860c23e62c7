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

// Package pipeline sequences the migration stages for one session.
// Stages run strictly in order; stage N+1 never starts before stage N's
// metadata is durably written, which makes the last recorded stage a
// crash-recovery resume point.
package pipeline

import (
	"context"

	"github.com/Shreyas20004/EVUA/internal/config"
	"github.com/Shreyas20004/EVUA/internal/sandbox"
	"github.com/Shreyas20004/EVUA/internal/session"
)

// StageContext is everything a stage may read. Each stage consumes the
// previous stage's output directory and owns its own output directory.
type StageContext struct {
	Session  *session.Session
	Config   *config.Config
	Executor sandbox.Executor

	// InputDir is the prior stage's output tree (the raw source tree for
	// the first stage).
	InputDir string
	// OutputDir is this stage's working tree under intermediate/.
	OutputDir string
}

// StageResult carries a completed stage's metrics and diagnostic log.
// The log is serialized to logs/<stage>.json.
type StageResult struct {
	Metrics map[string]int
	Log     interface{}
}

// Stage is one unit of work in the fixed migration sequence. A stage
// turns stage-local issues into findings or reports; only an error (or
// panic) escaping Run fails the whole session.
type Stage interface {
	Name() string
	Run(ctx context.Context, sc *StageContext) (*StageResult, error)
}
