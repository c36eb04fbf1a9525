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

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/pkg/credentials"
	"github.com/walteh/uploadrc/pkg/manifest"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// Cleanup modes applied to a batch input folder after its ledgers are written
const (
	// CleanupKeep leaves the input tree untouched
	CleanupKeep = "keep"
	// CleanupMove removes a source once every record using it was relocated
	CleanupMove = "move"
	// CleanupRemoveBatch deletes the batch folder, unless a file would be lost
	CleanupRemoveBatch = "remove-batch"
)

// CleanupModes lists the accepted cleanup values
var CleanupModes = []string{CleanupKeep, CleanupMove, CleanupRemoveBatch}

// Defaults applied by Validate
const (
	DefaultGateway       = "s3"
	DefaultEnvironment   = "prod"
	DefaultEnvFile       = ".env"
	DefaultConcurrency   = 1
	DefaultUploadTimeout = 60 * time.Second
)

// 📚 Config represents the complete configuration
type Config struct {
	InputRoot  string `json:"input_root" yaml:"input_root"`
	OutputRoot string `json:"output_root" yaml:"output_root"`

	// Remote store
	Gateway     string `json:"gateway,omitempty" yaml:"gateway,omitempty"`
	Bucket      string `json:"bucket,omitempty" yaml:"bucket,omitempty"` // overrides S3_BUCKET
	Region      string `json:"region,omitempty" yaml:"region,omitempty"` // overrides AWS_S3_REGION_NAME
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty"`
	UseSSM      bool   `json:"use_ssm,omitempty" yaml:"use_ssm,omitempty"`
	SSMRegion   string `json:"ssm_region,omitempty" yaml:"ssm_region,omitempty"`
	EnvFile     string `json:"env_file,omitempty" yaml:"env_file,omitempty"`

	// Reconciliation
	FilenameField     string            `json:"filename_field,omitempty" yaml:"filename_field,omitempty"`
	CategoryOverrides map[string]string `json:"category_overrides,omitempty" yaml:"category_overrides,omitempty"`
	Denylist          []string          `json:"denylist,omitempty" yaml:"denylist,omitempty"`
	IgnorePatterns    []string          `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty"`
	Cleanup           string            `json:"cleanup,omitempty" yaml:"cleanup,omitempty"`
	Concurrency       int               `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	UploadTimeoutRaw  string            `json:"upload_timeout,omitempty" yaml:"upload_timeout,omitempty"`
	DryRun            bool              `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`

	// UploadTimeout is parsed from UploadTimeoutRaw by Validate
	UploadTimeout time.Duration `json:"-" yaml:"-"`
}

// Default returns a config with every default filled in and no roots
func Default() *Config {
	return &Config{
		Gateway:       DefaultGateway,
		Environment:   DefaultEnvironment,
		SSMRegion:     credentials.DefaultSSMRegion,
		EnvFile:       DefaultEnvFile,
		FilenameField: manifest.DefaultFilenameField,
		Cleanup:       CleanupKeep,
		Concurrency:   DefaultConcurrency,
		UploadTimeout: DefaultUploadTimeout,
	}
}

// 🔍 Validate checks if the configuration is valid and fills in defaults
func (cfg *Config) Validate() error {
	// Check required fields
	if cfg.InputRoot == "" {
		return errors.Errorf("input_root is required")
	}
	if cfg.OutputRoot == "" {
		return errors.Errorf("output_root is required")
	}

	// Clean up paths
	cfg.InputRoot = filepath.Clean(cfg.InputRoot)
	cfg.OutputRoot = filepath.Clean(cfg.OutputRoot)
	if cfg.InputRoot == cfg.OutputRoot {
		return errors.Errorf("input_root and output_root must differ")
	}

	// Set defaults
	if cfg.Gateway == "" {
		cfg.Gateway = DefaultGateway
	}
	if cfg.Environment == "" {
		cfg.Environment = DefaultEnvironment
	}
	if cfg.SSMRegion == "" {
		cfg.SSMRegion = credentials.DefaultSSMRegion
	}
	if cfg.EnvFile == "" {
		cfg.EnvFile = DefaultEnvFile
	}
	if cfg.FilenameField == "" {
		cfg.FilenameField = manifest.DefaultFilenameField
	}
	if cfg.Cleanup == "" {
		cfg.Cleanup = CleanupKeep
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	if !isCleanupMode(cfg.Cleanup) {
		return errors.Errorf("cleanup %q is invalid, options: %s", cfg.Cleanup, strings.Join(CleanupModes, ", "))
	}
	if cfg.Concurrency < 1 {
		return errors.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}

	if cfg.UploadTimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.UploadTimeoutRaw)
		if err != nil {
			return errors.Errorf("parsing upload_timeout: %w", err)
		}
		cfg.UploadTimeout = d
	}
	if cfg.UploadTimeout == 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}
	if cfg.UploadTimeout < 0 {
		return errors.Errorf("upload_timeout must be positive, got %s", cfg.UploadTimeout)
	}

	for _, pattern := range cfg.IgnorePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	for _, entry := range cfg.Denylist {
		if entry == "" {
			return errors.Errorf("denylist entries must not be empty")
		}
	}

	return nil
}

func isCleanupMode(mode string) bool {
	for _, m := range CleanupModes {
		if m == mode {
			return true
		}
	}
	return false
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	mode := "live"
	if cfg.DryRun {
		mode = "dry-run"
	}
	return fmt.Sprintf("%s -> %s via %s (%s, cleanup=%s, concurrency=%d)",
		cfg.InputRoot, cfg.OutputRoot, cfg.Gateway, mode, cfg.Cleanup, cfg.Concurrency)
}
