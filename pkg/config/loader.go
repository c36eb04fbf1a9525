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
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// RCFile is the extension-less config name, parsed as YAML or HCL
const RCFile = ".uploadrc"

// 🎯 Load loads the configuration from a file and validates it.
// The format is determined by the file extension:
// - .json for JSON
// - .yaml or .yml for YAML
// - .hcl for HCL
// - .uploadrc will try both YAML and HCL formats
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := Read(ctx, path)
	if err != nil {
		return nil, err
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Read parses the configuration file without validating it, so callers can
// apply overrides first
func Read(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	var cfg *Config
	if strings.EqualFold(filepath.Base(path), RCFile) {
		cfg, err = parseRC(ctx, data)
	} else {
		p := GetParser(path)
		if p == nil {
			return nil, errors.Errorf("no parser found for file: %s", path)
		}
		cfg, err = p.Parse(ctx, data)
	}
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

func parseRC(ctx context.Context, data []byte) (*Config, error) {
	// Try YAML first
	cfg, yamlErr := (&YAMLParser{}).Parse(ctx, data)
	if yamlErr == nil {
		return cfg, nil
	}

	// Try HCL next
	cfg, hclErr := (&HCLParser{}).Parse(ctx, data)
	if hclErr == nil {
		return cfg, nil
	}

	return nil, errors.Errorf("failed to parse %s as YAML or HCL: %w", RCFile, errors.Join(yamlErr, hclErr))
}
