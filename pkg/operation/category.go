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
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/uploadrc/pkg/config"
	"github.com/walteh/uploadrc/pkg/manifest"
)

// 📂 categoryResult is what a category contributes to its batch
type categoryResult struct {
	Manifest string
	Outcomes []Outcome
}

// processCategory reads the manifest of one category folder and processes
// every record. A manifest count or schema error is returned and aborts the
// batch; per-record failures are outcomes.
func (e *Engine) processCategory(ctx context.Context, batch, category string) (categoryResult, error) {
	logger := zerolog.Ctx(ctx)
	dir := filepath.Join(e.opts.InputRoot, batch, category)

	manifestPath, err := manifest.Find(dir)
	if err != nil {
		return categoryResult{}, errors.Errorf("category %s: %w", category, err)
	}

	m, err := manifest.Read(ctx, manifestPath, e.opts.FilenameField)
	if err != nil {
		return categoryResult{}, errors.Errorf("category %s: %w", category, err)
	}

	e.console.StartCategory(ctx, category, filepath.Base(manifestPath), len(m.Records))
	warnDuplicates(ctx, category, m.Records)

	logger.Debug().
		Str("category", category).
		Str("identifier_field", m.IdentifierField).
		Int("records", len(m.Records)).
		Int("concurrency", e.opts.Concurrency).
		Msg("processing category")

	outcomes := e.processRecords(ctx, batch, category, dir, m.Records)
	if e.opts.Cleanup == config.CleanupMove && !e.opts.DryRun {
		e.removeMovedSources(ctx, outcomes)
	}

	return categoryResult{
		Manifest: manifestPath,
		Outcomes: outcomes,
	}, nil
}

// 🗑️ removeMovedSources deletes each resolved source whose every record was
// relocated. A file shared by several records stays until the last of them
// has its copy, and stays for good if any of them was retained.
func (e *Engine) removeMovedSources(ctx context.Context, outcomes []Outcome) {
	logger := zerolog.Ctx(ctx)

	var sources []string
	removable := map[string]bool{}
	for _, o := range outcomes {
		if o.Source == "" {
			continue
		}
		if _, seen := removable[o.Source]; !seen {
			sources = append(sources, o.Source)
			removable[o.Source] = true
		}
		if !o.Relocated {
			removable[o.Source] = false
		}
	}

	for _, src := range sources {
		if !removable[src] {
			logger.Debug().Str("src", src).Msg("source kept, not every record relocated it")
			continue
		}
		if err := e.opts.Files.RemoveFile(ctx, src); err != nil {
			logger.Warn().Err(err).Str("src", src).Msg("removing moved source")
		}
	}
}

// ⚡ processRecords runs records through a bounded worker pool. Workers send
// outcomes to a single collector, which slots them by record index so the
// result is in manifest order whatever the concurrency. Once ctx is done no
// new record is dispatched; the remainder are reported as cancelled.
func (e *Engine) processRecords(ctx context.Context, batch, category, dir string, records []manifest.Record) []Outcome {
	outcomes := make([]Outcome, len(records))
	results := make(chan Outcome)
	collected := make(chan struct{})

	go func() {
		defer close(collected)
		for o := range results {
			outcomes[o.Index] = o
		}
	}()

	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			results <- e.cancelled(ctx, batch, category, i, rec, err)
			continue
		}
		i, rec := i, rec
		g.Go(func() error {
			results <- e.processRecord(ctx, batch, category, dir, i, rec)
			return nil
		})
	}

	_ = g.Wait()
	close(results)
	<-collected

	return outcomes
}

func (e *Engine) cancelled(ctx context.Context, batch, category string, index int, rec manifest.Record, err error) Outcome {
	out := Outcome{
		Index:     index,
		Batch:     batch,
		Category:  category,
		Record:    rec,
		RemoteKey: e.keys.RemoteKey(batch, category, rec.Identifier, rec.Filename),
	}
	return retained(out, ReasonCancelled, err)
}

// warnDuplicates logs (filename, identifier) pairs that appear more than once,
// since their relocations would target the same destination
func warnDuplicates(ctx context.Context, category string, records []manifest.Record) {
	type pair struct{ filename, identifier string }
	seen := make(map[pair]int, len(records))
	for _, rec := range records {
		p := pair{rec.Filename, rec.Identifier}
		seen[p]++
		if seen[p] == 2 {
			zerolog.Ctx(ctx).Warn().
				Str("category", category).
				Str("file", rec.Filename).
				Str("qid", rec.Identifier).
				Msg("duplicate record in manifest")
		}
	}
}
