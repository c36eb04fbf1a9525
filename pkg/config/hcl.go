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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// Define HCL schema
type hclConfig struct {
	InputRoot  string `hcl:"input_root"`
	OutputRoot string `hcl:"output_root"`

	Remote *struct {
		Gateway     string `hcl:"gateway,optional"`
		Bucket      string `hcl:"bucket,optional"`
		Region      string `hcl:"region,optional"`
		Environment string `hcl:"environment,optional"`
		UseSSM      bool   `hcl:"use_ssm,optional"`
		SSMRegion   string `hcl:"ssm_region,optional"`
		EnvFile     string `hcl:"env_file,optional"`
	} `hcl:"remote,block"`

	FilenameField     string            `hcl:"filename_field,optional"`
	CategoryOverrides map[string]string `hcl:"category_overrides,optional"`
	Denylist          []string          `hcl:"denylist,optional"`
	IgnorePatterns    []string          `hcl:"ignore_patterns,optional"`
	Cleanup           string            `hcl:"cleanup,optional"`
	Concurrency       int               `hcl:"concurrency,optional"`
	UploadTimeout     string            `hcl:"upload_timeout,optional"`
	DryRun            bool              `hcl:"dry_run,optional"`
}

// 📝 Parse parses the config from HCL. Expressions may read the process
// environment through env.NAME.
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": environmentObject(),
		},
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		InputRoot:         hclCfg.InputRoot,
		OutputRoot:        hclCfg.OutputRoot,
		FilenameField:     hclCfg.FilenameField,
		CategoryOverrides: hclCfg.CategoryOverrides,
		Denylist:          hclCfg.Denylist,
		IgnorePatterns:    hclCfg.IgnorePatterns,
		Cleanup:           hclCfg.Cleanup,
		Concurrency:       hclCfg.Concurrency,
		UploadTimeoutRaw:  hclCfg.UploadTimeout,
		DryRun:            hclCfg.DryRun,
	}

	if r := hclCfg.Remote; r != nil {
		cfg.Gateway = r.Gateway
		cfg.Bucket = r.Bucket
		cfg.Region = r.Region
		cfg.Environment = r.Environment
		cfg.UseSSM = r.UseSSM
		cfg.SSMRegion = r.SSMRegion
		cfg.EnvFile = r.EnvFile
	}

	return cfg, nil
}

func environmentObject() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}
