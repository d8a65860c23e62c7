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

package session

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// MergedMetadata is the session-level roll-up of every stage's
// diagnostic log, persisted as session_metadata.json.
type MergedMetadata struct {
	SessionName     string                     `json:"session_name"`
	Stages          map[string]json.RawMessage `json:"stages"`
	TotalFiles      int                        `json:"total_files"`
	CompletedStages int                        `json:"completed_stages"`
}

// MergeStageMetadata collects the per-stage logs written so far and
// merges them into session_metadata.json. Unreadable or missing logs
// are skipped rather than failing the roll-up.
func (sess *Session) MergeStageMetadata() (*MergedMetadata, error) {
	merged := &MergedMetadata{
		SessionName: sess.ID,
		Stages:      make(map[string]json.RawMessage),
	}

	for _, rec := range sess.Stages {
		data, err := os.ReadFile(sess.LogPath(rec.Stage))
		if err != nil || !json.Valid(data) {
			continue
		}
		merged.Stages[rec.Stage] = json.RawMessage(data)
		if n, ok := rec.Metrics["total"]; ok {
			merged.TotalFiles += n
		}
	}
	merged.CompletedStages = len(merged.Stages)

	path := filepath.Join(sess.dir, "session_metadata.json")
	if err := WriteJSON(path, merged); err != nil {
		return nil, err
	}
	return merged, nil
}
