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
	"fmt"
	"runtime/debug"

	"github.com/pkg/errors"

	"github.com/Shreyas20004/EVUA/internal/config"
	"github.com/Shreyas20004/EVUA/internal/log"
	"github.com/Shreyas20004/EVUA/internal/sandbox"
	"github.com/Shreyas20004/EVUA/internal/session"
	"github.com/Shreyas20004/EVUA/lang/migrate"
)

// StageFailure is an uncaught error or panic escaping a stage. It is
// fatal to the session: later stages are not scheduled and the message
// and trace land in metadata.json.
type StageFailure struct {
	Stage string
	Err   error
	Stack string
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageFailure) Unwrap() error { return e.Err }

// Orchestrator runs the fixed stage sequence for one session. It is
// re-invocable with a fresh session id; no state is shared across runs.
type Orchestrator struct {
	store  *session.Store
	stages []Stage
}

// NewOrchestrator builds an orchestrator over a session store and a
// stage sequence.
func NewOrchestrator(store *session.Store, stages ...Stage) *Orchestrator {
	return &Orchestrator{store: store, stages: stages}
}

// Run executes the pipeline on sourceRoot and returns the session,
// which is durably recorded whether the run completed or failed. The
// returned error is non-nil only for session-level failures; the
// session's metadata.json always describes what happened.
func (o *Orchestrator) Run(ctx context.Context, sourceRoot string, cfg *config.Config, executor sandbox.Executor) (*session.Session, error) {
	sess, err := o.store.New("python", cfg, executor.Kind())
	if err != nil {
		return nil, errors.Wrap(err, "creating session")
	}
	log.Info("session %s started (executor=%s, source=%s)", sess.ID, executor.Kind(), sourceRoot)

	inputDir := sourceRoot
	for _, stage := range o.stages {
		outputDir, err := sess.IntermediateDir(stage.Name())
		if err != nil {
			return o.fail(sess, stage.Name(), err, "")
		}
		sc := &StageContext{
			Session:   sess,
			Config:    cfg,
			Executor:  executor,
			InputDir:  inputDir,
			OutputDir: outputDir,
		}

		result, err := runStage(ctx, stage, sc)
		if err != nil {
			var sf *StageFailure
			stack := ""
			if errors.As(err, &sf) {
				stack = sf.Stack
			}
			return o.fail(sess, stage.Name(), err, stack)
		}

		if result.Log != nil {
			if err := session.WriteJSON(sess.LogPath(stage.Name()), result.Log); err != nil {
				return o.fail(sess, stage.Name(), err, "")
			}
		}
		rec := session.StageRecord{
			Stage:     stage.Name(),
			Status:    "ok",
			Metrics:   result.Metrics,
			OutputDir: outputDir,
		}
		// Durably written before the next stage starts.
		if err := sess.AppendStage(rec); err != nil {
			return o.fail(sess, stage.Name(), err, "")
		}
		if err := migrate.CopyTree(outputDir, sess.FinalOutputDir()); err != nil {
			return o.fail(sess, stage.Name(), err, "")
		}
		log.Info("stage %s ok: %v", stage.Name(), result.Metrics)
		inputDir = outputDir
	}

	if _, err := sess.MergeStageMetadata(); err != nil {
		return o.fail(sess, "merge", err, "")
	}
	if err := sess.MarkCompleted(); err != nil {
		return sess, err
	}
	log.Info("session %s completed", sess.ID)
	return sess, nil
}

// runStage invokes a stage, converting panics into StageFailure so the
// session record captures the trace.
func runStage(ctx context.Context, stage Stage, sc *StageContext) (result *StageResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &StageFailure{
				Stage: stage.Name(),
				Err:   fmt.Errorf("panic: %v", r),
				Stack: string(debug.Stack()),
			}
		}
	}()
	result, err = stage.Run(ctx, sc)
	if err != nil {
		return nil, &StageFailure{Stage: stage.Name(), Err: err}
	}
	if result == nil {
		result = &StageResult{}
	}
	return result, nil
}

// fail marks the session failed and stops scheduling stages. Artifacts
// already written are preserved, not rolled back.
func (o *Orchestrator) fail(sess *session.Session, stage string, err error, stack string) (*session.Session, error) {
	log.Error("session %s failed at stage %s: %v", sess.ID, stage, err)
	if werr := sess.MarkFailed(err.Error(), stack); werr != nil {
		log.Error("writing failure metadata: %v", werr)
	}
	return sess, err
}
