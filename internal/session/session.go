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

// Package session manages the durable per-run directory tree and its
// metadata. A session is created once, mutated only by appending stage
// records, and never deleted: it is the audit trail of the migration.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Shreyas20004/EVUA/internal/config"
	"github.com/Shreyas20004/EVUA/internal/sandbox"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// StageRecord summarizes one completed stage. Records are immutable
// once appended.
type StageRecord struct {
	Stage     string         `json:"stage"`
	Status    string         `json:"status"` // "ok" or "error"
	Metrics   map[string]int `json:"metrics,omitempty"`
	OutputDir string         `json:"output_dir,omitempty"`
}

// Session is the top-level run record persisted to metadata.json.
type Session struct {
	ID        string         `json:"session_id"`
	Language  string         `json:"language"`
	Status    Status         `json:"status"`
	Executor  sandbox.Kind   `json:"executor"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time,omitzero"`
	Stages    []StageRecord  `json:"stages"`
	Config    *config.Config `json:"config"`
	Error     string         `json:"error,omitempty"`
	Traceback string         `json:"traceback,omitempty"`

	dir string
}

// Store creates sessions under a root directory.
type Store struct {
	baseDir string
}

// NewStore returns a Store rooted at baseDir, creating it if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "mkdir %s", baseDir)
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the store root.
func (s *Store) BaseDir() string { return s.baseDir }

// New creates a fresh session directory with the fixed layout and
// writes the initial running metadata. Session ids never collide:
// timestamp plus a uuid suffix.
func (s *Store) New(language string, cfg *config.Config, executor sandbox.Kind) (*Session, error) {
	ts := time.Now().UTC().Format("20060102_150405")
	id := fmt.Sprintf("%s_%s_%s", language, ts, strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	dir := filepath.Join(s.baseDir, id)

	for _, sub := range []string{"intermediate", "logs", "final_output", "diff_reports"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating session layout %s", sub)
		}
	}

	sess := &Session{
		ID:        id,
		Language:  language,
		Status:    StatusRunning,
		Executor:  executor,
		StartTime: time.Now().UTC(),
		Stages:    []StageRecord{},
		Config:    cfg,
		dir:       dir,
	}
	if err := sess.WriteMetadata(); err != nil {
		return nil, err
	}
	return sess, nil
}

// Open loads an existing session's metadata for inspection.
func (s *Store) Open(id string) (*Session, error) {
	dir := filepath.Join(s.baseDir, id)
	var sess Session
	if err := ReadJSON(filepath.Join(dir, "metadata.json"), &sess); err != nil {
		return nil, errors.Wrapf(err, "open session %s", id)
	}
	sess.dir = dir
	return &sess, nil
}

// Dir returns the session root directory.
func (sess *Session) Dir() string { return sess.dir }

// IntermediateDir returns the working tree for one stage, creating it.
func (sess *Session) IntermediateDir(stage string) (string, error) {
	dir := filepath.Join(sess.dir, "intermediate", stage)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "mkdir %s", dir)
	}
	return dir, nil
}

// LogPath returns the diagnostic log path for one stage.
func (sess *Session) LogPath(stage string) string {
	return filepath.Join(sess.dir, "logs", stage+".json")
}

// FinalOutputDir is the mirror of the most recently completed stage.
func (sess *Session) FinalOutputDir() string {
	return filepath.Join(sess.dir, "final_output")
}

// DiffReportsDir holds one verification report file per unit.
func (sess *Session) DiffReportsDir() string {
	return filepath.Join(sess.dir, "diff_reports")
}

// RepairMetadataPath is where the repair loop persists its attempts.
func (sess *Session) RepairMetadataPath() string {
	return filepath.Join(sess.dir, "repair_metadata.json")
}

// AppendStage records a completed stage and durably writes metadata.
// The next stage must not start before this returns.
func (sess *Session) AppendStage(rec StageRecord) error {
	sess.Stages = append(sess.Stages, rec)
	return sess.WriteMetadata()
}

// MarkCompleted finalizes a successful run.
func (sess *Session) MarkCompleted() error {
	sess.Status = StatusCompleted
	sess.EndTime = time.Now().UTC()
	return sess.WriteMetadata()
}

// MarkFailed records the failure message and trace. Already-written
// stage artifacts are preserved.
func (sess *Session) MarkFailed(msg, trace string) error {
	sess.Status = StatusFailed
	sess.Error = msg
	sess.Traceback = trace
	sess.EndTime = time.Now().UTC()
	return sess.WriteMetadata()
}

// WriteMetadata persists metadata.json atomically.
func (sess *Session) WriteMetadata() error {
	return WriteJSON(filepath.Join(sess.dir, "metadata.json"), sess)
}
