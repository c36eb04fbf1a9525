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

package operation

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/pkg/ledger"
)

// 📊 RunSummary aggregates every batch of a run
type RunSummary struct {
	RunID         string
	Batches       []ledger.Summary
	FailedBatches []string
}

// Totals sums the per-batch counters
func (s RunSummary) Totals() ledger.Summary {
	total := ledger.Summary{RunID: s.RunID}
	for _, b := range s.Batches {
		total.Uploaded += b.Uploaded
		total.NotUploaded += b.NotUploaded
		total.Skipped += b.Skipped
		total.Retained += b.Retained
		total.Relocated += b.Relocated
		total.DryRun = total.DryRun || b.DryRun
	}
	return total
}

// Batches lists the batch folders under the input root in name order.
// Non-directories are ignored, as is the output root when nested inside it.
func (e *Engine) Batches() ([]string, error) {
	entries, err := os.ReadDir(e.opts.InputRoot)
	if err != nil {
		return nil, errors.Errorf("listing input root: %w", err)
	}

	var batches []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if filepath.Join(e.opts.InputRoot, entry.Name()) == e.opts.OutputRoot {
			continue
		}
		batches = append(batches, entry.Name())
	}
	return batches, nil
}

// 🏃 Run processes every batch. A failing batch is reported and the run moves
// on; the returned error joins the failures of all batches.
func (e *Engine) Run(ctx context.Context) (RunSummary, error) {
	logger := zerolog.Ctx(ctx).With().Str("run_id", e.opts.RunID).Logger()
	ctx = logger.WithContext(ctx)

	summary := RunSummary{RunID: e.opts.RunID}

	batches, err := e.Batches()
	if err != nil {
		return summary, err
	}

	e.console.Header("uploading onboarding documents")
	logger.Info().Int("batches", len(batches)).Bool("dry_run", e.opts.DryRun).Msg("starting run")

	var errs []error
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			errs = append(errs, errors.Errorf("run cancelled before batch %s: %w", batch, err))
			break
		}

		result, err := e.ProcessBatch(ctx, batch)
		if result != nil {
			summary.Batches = append(summary.Batches, result.Summary)
		}
		if err != nil {
			summary.FailedBatches = append(summary.FailedBatches, batch)
			errs = append(errs, errors.Errorf("batch %s: %w", batch, err))
		}
		e.console.LogNewline()
	}

	totals := summary.Totals()
	logger.Info().
		Int("uploaded", totals.Uploaded).
		Int("not_uploaded", totals.NotUploaded).
		Int("skipped", totals.Skipped).
		Int("retained", totals.Retained).
		Int("failed_batches", len(summary.FailedBatches)).
		Msg("run complete")

	return summary, errors.Join(errs...)
}
