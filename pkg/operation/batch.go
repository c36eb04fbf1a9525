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
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/pkg/config"
	"github.com/walteh/uploadrc/pkg/ledger"
	"github.com/walteh/uploadrc/pkg/log"
)

// 📦 BatchResult is everything known about one processed batch
type BatchResult struct {
	Summary  ledger.Summary
	Outcomes []Outcome
	Ledgers  *ledger.Set
	// Leftovers are input files neither relocated nor a manifest, found when
	// remove-batch cleanup was considered
	Leftovers []string
	Removed   bool // The batch input folder was deleted
}

// 🎯 ProcessBatch reconciles one batch folder. Ledgers and the summary are
// flushed even when a category aborts the batch. Cleanup runs after a
// successful flush of a completed batch, and a cleanup failure is only logged.
func (e *Engine) ProcessBatch(ctx context.Context, batch string) (*BatchResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("batch", batch).Logger()
	ctx = logger.WithContext(ctx)

	batchDir := filepath.Join(e.opts.InputRoot, batch)
	result := &BatchResult{
		Summary: ledger.Summary{
			RunID:     e.opts.RunID,
			Batch:     batch,
			StartedAt: e.now().UTC(),
			DryRun:    e.opts.DryRun,
		},
		Ledgers: ledger.NewSet(),
	}

	e.console.StartBatch(ctx, log.BatchOperation{
		Name:   batch,
		Input:  batchDir,
		Output: filepath.Join(e.opts.OutputRoot, batch),
		DryRun: e.opts.DryRun,
	})
	defer e.console.EndBatch(ctx)

	manifests := map[string]bool{}
	batchErr := e.processCategories(ctx, batch, batchDir, result, manifests)
	if batchErr != nil {
		logger.Error().Err(batchErr).Msg("batch aborted")
		e.console.Errorf("batch %s aborted: %s", batch, batchErr.Error())
	}

	result.Summary.FinishedAt = e.now().UTC()
	if batchErr != nil {
		result.Summary.Error = batchErr.Error()
	}

	if err := e.flush(ctx, batch, result); err != nil {
		return result, errors.Join(batchErr, err)
	}

	if batchErr == nil {
		if err := e.cleanup(ctx, batchDir, result, manifests); err != nil {
			logger.Error().Err(err).Msg("cleanup failed")
			e.console.Warningf("cleanup of %s failed: %s", batch, err.Error())
		}
	}

	return result, batchErr
}

func (e *Engine) processCategories(ctx context.Context, batch, batchDir string, result *BatchResult, manifests map[string]bool) error {
	entries, err := os.ReadDir(batchDir)
	if err != nil {
		return errors.Errorf("listing batch folder: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		cat, err := e.processCategory(ctx, batch, entry.Name())
		if err != nil {
			return err
		}
		manifests[cat.Manifest] = true

		for _, o := range cat.Outcomes {
			e.collect(ctx, result, o)
		}
	}

	return nil
}

// collect appends one outcome to the batch ledgers and counters. It is only
// called from the goroutine that owns result.
func (e *Engine) collect(ctx context.Context, result *BatchResult, o Outcome) {
	result.Outcomes = append(result.Outcomes, o)
	result.Ledgers.Append(o.Status.Kind(), o.Row())

	switch o.Status {
	case StatusUploaded:
		result.Summary.Uploaded++
	case StatusNotUploaded:
		result.Summary.NotUploaded++
	case StatusSkipped:
		result.Summary.Skipped++
	}
	if o.Retained {
		result.Summary.Retained++
	}
	if o.Relocated {
		result.Summary.Relocated++
	}

	e.console.LogRecordOperation(ctx, o.consoleOperation())
}

func (e *Engine) flush(ctx context.Context, batch string, result *BatchResult) error {
	if err := result.Ledgers.Flush(ctx, e.opts.Files, e.opts.OutputRoot, batch); err != nil {
		return errors.Errorf("flushing ledgers: %w", err)
	}
	if err := ledger.WriteSummary(ctx, e.opts.Files, ledger.SummaryPath(e.opts.OutputRoot, batch), result.Summary); err != nil {
		return err
	}
	return nil
}

// 🧹 cleanup applies the configured cleanup mode to a completed batch
func (e *Engine) cleanup(ctx context.Context, batchDir string, result *BatchResult, manifests map[string]bool) error {
	logger := zerolog.Ctx(ctx)

	if e.opts.DryRun || e.opts.Cleanup != config.CleanupRemoveBatch {
		return nil
	}

	relocated := map[string]bool{}
	for _, o := range result.Outcomes {
		if o.Relocated {
			relocated[o.Source] = true
		}
	}

	leftovers, err := leftoverFiles(batchDir, relocated, manifests)
	if err != nil {
		return err
	}
	result.Leftovers = leftovers

	if len(leftovers) > 0 {
		logger.Warn().
			Strs("files", leftovers).
			Msg("not removing batch folder, files would be lost")
		e.console.Warningf("kept %s: %d file(s) not relocated", batchDir, len(leftovers))
		return nil
	}

	if err := e.opts.Files.RemoveDir(ctx, batchDir); err != nil {
		return err
	}
	result.Removed = true
	logger.Info().Str("path", batchDir).Msg("batch folder removed")
	return nil
}

// leftoverFiles lists regular files under dir that were neither relocated nor
// read as a manifest
func leftoverFiles(dir string, relocated, manifests map[string]bool) ([]string, error) {
	var leftovers []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || relocated[path] || manifests[path] {
			return nil
		}
		leftovers = append(leftovers, path)
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("scanning batch folder: %w", err)
	}
	return leftovers, nil
}
