// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ledger

import (
	"context"
	"encoding/json"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/pkg/files"
	"github.com/walteh/uploadrc/pkg/keys"
)

// SummaryFileName is written next to the ledgers of each batch
const SummaryFileName = "upload_summary.json"

// 📊 Summary is the machine-readable result of one batch
type Summary struct {
	RunID       string    `json:"run_id"`
	Batch       string    `json:"batch"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Uploaded    int       `json:"uploaded"`
	NotUploaded int       `json:"not_uploaded"`
	Skipped     int       `json:"skipped"`
	Retained    int       `json:"retained"` // files left in the input tree
	Relocated   int       `json:"relocated"`
	DryRun      bool      `json:"dry_run"`
	Error       string    `json:"error,omitempty"`
}

// Total returns the number of records accounted for
func (s Summary) Total() int {
	return s.Uploaded + s.NotUploaded + s.Skipped
}

// SummaryPath returns where the summary of a batch is written
func SummaryPath(outputRoot, batch string) string {
	return keys.LedgerPath(outputRoot, batch, SummaryFileName)
}

// WriteSummary writes the summary as indented JSON, atomically
func WriteSummary(ctx context.Context, fm files.FileManager, path string, summary Summary) error {
	content, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errors.Errorf("encoding summary: %w", err)
	}

	if err := fm.WriteFileAtomic(ctx, path, append(content, '\n')); err != nil {
		return errors.Errorf("writing summary: %w", err)
	}
	return nil
}
