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
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/pkg/files"
	"github.com/walteh/uploadrc/pkg/keys"
	"github.com/walteh/uploadrc/pkg/manifest"
	"github.com/walteh/uploadrc/pkg/remote"
	"github.com/walteh/uploadrc/pkg/resolve"
)

// 📄 processRecord decides the outcome of one record and performs its upload
// and relocation. It never returns an error; per-file failures are outcomes.
func (e *Engine) processRecord(ctx context.Context, batch, category, dir string, index int, rec manifest.Record) Outcome {
	logger := zerolog.Ctx(ctx).With().
		Str("batch", batch).
		Str("category", category).
		Str("file", rec.Filename).
		Str("qid", rec.Identifier).
		Int("line", rec.Line).
		Logger()
	ctx = logger.WithContext(ctx)

	out := Outcome{
		Index:     index,
		Batch:     batch,
		Category:  category,
		Record:    rec,
		RemoteKey: e.keys.RemoteKey(batch, category, rec.Identifier, rec.Filename),
	}

	if !rec.Identified() {
		out.Status = StatusNotUploaded
		out.Reason = ReasonUnidentified

		resolved, err := resolve.Resolve(ctx, dir, rec.Filename)
		if err != nil {
			logger.Warn().Err(err).Msg("unidentified record has no file to relocate")
			out.Err = err
			return out
		}
		out.Source = resolved.Path()
		e.relocate(ctx, &out, keys.NotUploadedDestination(e.opts.OutputRoot, batch, category, rec.Filename))
		return out
	}

	if pattern, ok := e.ignored(category, rec.Filename); ok {
		logger.Info().Str("pattern", pattern).Msg("file matches ignore pattern")
		return e.skipInPlace(ctx, out, dir, ReasonIgnored)
	}

	if entry, ok := e.denylisted(rec.Filename); ok {
		logger.Info().Str("denylist", entry).Msg("file is denylisted")
		return e.skipInPlace(ctx, out, dir, ReasonDenylisted)
	}

	resolved, err := resolve.Resolve(ctx, dir, rec.Filename)
	if err != nil {
		out.Status = StatusSkipped
		out.Err = err
		switch {
		case errors.Is(err, resolve.ErrOutsideDirectory):
			out.Reason = ReasonOutsideDirectory
		case errors.Is(err, resolve.ErrDirectoryMissing):
			out.Reason = ReasonDirectoryMissing
		default:
			out.Reason = ReasonNotFound
		}
		logger.Warn().Err(err).Msg("could not resolve file")
		return out
	}
	out.Source = resolved.Path()

	if err := ctx.Err(); err != nil {
		return retained(out, ReasonCancelled, err)
	}

	content, err := e.opts.Files.ReadFile(ctx, out.Source)
	if err != nil {
		logger.Error().Err(err).Msg("reading file")
		return retained(out, ReasonReadFailed, err)
	}

	uploadCtx, cancel := context.WithTimeout(ctx, e.opts.UploadTimeout)
	err = e.opts.Gateway.Upload(uploadCtx, e.opts.Bucket, out.RemoteKey, content)
	cancel()
	if err != nil {
		if remote.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
			logger.Warn().Err(err).Dur("timeout", e.opts.UploadTimeout).Msg("upload timed out, file kept for retry")
			return retained(out, ReasonTimeout, err)
		}
		if ctx.Err() != nil {
			return retained(out, ReasonCancelled, err)
		}
		logger.Error().Err(err).Msg("upload failed, file kept for retry")
		return retained(out, ReasonUploadFailed, err)
	}

	out.Status = StatusUploaded
	logger.Debug().Str("key", out.RemoteKey).Str("strategy", resolved.Strategy.String()).Msg("uploaded")

	e.relocate(ctx, &out, keys.LocalDestination(e.opts.OutputRoot, batch, category, rec.Filename, rec.Identifier))
	return out
}

func retained(out Outcome, reason Reason, err error) Outcome {
	out.Status = StatusNotUploaded
	out.Reason = reason
	out.Retained = true
	out.Err = err
	return out
}

// skipInPlace records a skip for a file that is deliberately left where it is
func (e *Engine) skipInPlace(ctx context.Context, out Outcome, dir string, reason Reason) Outcome {
	out.Status = StatusSkipped
	out.Reason = reason
	if resolved, err := resolve.Resolve(ctx, dir, out.Record.Filename); err == nil {
		out.Source = resolved.Path()
		out.Retained = true
	}
	return out
}

// 🚚 relocate copies the resolved source to dst. Under move cleanup the source
// is removed later, once every record sharing it has been relocated.
// Failures are logged and leave the file retained.
func (e *Engine) relocate(ctx context.Context, out *Outcome, dst string) {
	logger := zerolog.Ctx(ctx)
	out.Destination = dst

	if e.opts.DryRun {
		logger.Debug().Str("dst", dst).Msg("dry run: not relocating")
		return
	}

	if err := e.opts.Files.CopyFile(ctx, out.Source, dst); err != nil {
		if errors.Is(err, files.ErrMissingParent) {
			logger.Warn().Err(err).Str("dst", dst).Msg("destination parent missing, file not relocated")
		} else {
			logger.Error().Err(err).Str("dst", dst).Msg("relocating file")
		}
		out.Retained = true
		if out.Err == nil {
			out.Err = err
		}
		return
	}

	out.Relocated = true
}

// ignored reports the first ignore pattern matching the file name or its
// category-relative path
func (e *Engine) ignored(category, filename string) (string, bool) {
	rel := filepath.ToSlash(filepath.Join(category, filename))
	base := filepath.Base(filepath.FromSlash(filename))
	for _, pattern := range e.opts.IgnorePatterns {
		for _, candidate := range []string{base, rel} {
			if matched, err := doublestar.Match(pattern, candidate); err == nil && matched {
				return pattern, true
			}
		}
	}
	return "", false
}

// denylisted reports the first denylist entry contained in filename
func (e *Engine) denylisted(filename string) (string, bool) {
	for _, entry := range e.opts.Denylist {
		if entry != "" && strings.Contains(filename, entry) {
			return entry, true
		}
	}
	return "", false
}
