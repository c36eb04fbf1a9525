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
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/pkg/config"
	"github.com/walteh/uploadrc/pkg/files"
	"github.com/walteh/uploadrc/pkg/keys"
	"github.com/walteh/uploadrc/pkg/log"
	"github.com/walteh/uploadrc/pkg/manifest"
	"github.com/walteh/uploadrc/pkg/remote"
)

// 🔧 Options contains configuration for the engine
type Options struct {
	// InputRoot holds one folder per batch
	InputRoot string
	// OutputRoot receives relocated files, ledgers and summaries
	OutputRoot string
	// Bucket is passed to every upload
	Bucket string
	// Gateway is the remote object store
	Gateway remote.Gateway
	// Files performs relocation and ledger writes
	Files files.FileManager
	// Keys derives remote keys; nil means no category overrides
	Keys *keys.Deriver
	// Console receives operator-facing output; nil discards it
	Console *log.Logger

	FilenameField  string
	Denylist       []string
	IgnorePatterns []string
	Cleanup        string // One of config.CleanupModes
	Concurrency    int
	UploadTimeout  time.Duration
	DryRun         bool

	// RunID identifies the run in summaries; generated when empty
	RunID string
	// Now defaults to time.Now
	Now func() time.Time
}

// 🎮 Engine reconciles batch folders against their manifests
type Engine struct {
	opts    Options
	keys    *keys.Deriver
	console *log.Logger
	now     func() time.Time
}

// 🏭 New creates a new engine with the given options
func New(opts Options) (*Engine, error) {
	if opts.InputRoot == "" {
		return nil, errors.Errorf("input root is required")
	}
	if opts.OutputRoot == "" {
		return nil, errors.Errorf("output root is required")
	}
	if opts.Gateway == nil {
		return nil, errors.Errorf("gateway is required")
	}
	if opts.Files == nil {
		return nil, errors.Errorf("file manager is required")
	}

	opts.InputRoot = filepath.Clean(opts.InputRoot)
	opts.OutputRoot = filepath.Clean(opts.OutputRoot)

	switch opts.Cleanup {
	case "":
		opts.Cleanup = config.CleanupKeep
	case config.CleanupKeep, config.CleanupMove, config.CleanupRemoveBatch:
	default:
		return nil, errors.Errorf("unknown cleanup mode %q", opts.Cleanup)
	}

	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = config.DefaultUploadTimeout
	}
	if opts.FilenameField == "" {
		opts.FilenameField = manifest.DefaultFilenameField
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	e := &Engine{
		opts:    opts,
		keys:    opts.Keys,
		console: opts.Console,
		now:     opts.Now,
	}
	if e.keys == nil {
		e.keys = keys.NewDeriver(nil)
	}
	if e.console == nil {
		e.console = log.New(io.Discard, zerolog.Nop())
	}
	if e.now == nil {
		e.now = time.Now
	}

	return e, nil
}

// RunID returns the identifier written into every summary of this engine
func (e *Engine) RunID() string {
	return e.opts.RunID
}
