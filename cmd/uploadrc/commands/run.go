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

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/cmd/uploadrc/opts"
	"github.com/walteh/uploadrc/pkg/config"
	"github.com/walteh/uploadrc/pkg/credentials"
	"github.com/walteh/uploadrc/pkg/files"
	"github.com/walteh/uploadrc/pkg/keys"
	"github.com/walteh/uploadrc/pkg/operation"
	"github.com/walteh/uploadrc/pkg/remote"
	"github.com/walteh/uploadrc/pkg/remote/memory"
	"github.com/walteh/uploadrc/pkg/remote/s3"
)

type runFlags struct {
	input       string
	output      string
	dryRun      bool
	concurrency int
	env         string
	ssm         bool
	gateway     string
	cleanup     string
}

func NewRunCmd(o *opts.RootOpts) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Upload every batch under the input root",
		Long: `Run processes every batch folder under the input root:
1. Find the single manifest of each category
2. Resolve and upload every identified record
3. Relocate files into the output tree
4. Write the uploaded, not uploaded and skipped ledgers`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "run").Logger().WithContext(cmd.Context())

			cfg, err := loadConfig(ctx, cmd, o.ConfigFile)
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return errors.Errorf("validating config: %w", err)
			}

			summary, err := run(ctx, o, cfg)
			printSummary(cmd.OutOrStdout(), summary)
			if err != nil {
				return errors.Errorf("running upload: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "input root holding one folder per batch")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output root for relocated files and ledgers")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "upload to memory and leave the input tree untouched")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", config.DefaultConcurrency, "records uploaded in parallel per category")
	cmd.Flags().StringVar(&flags.env, "env", config.DefaultEnvironment, "credential environment (dev, stag, prod)")
	cmd.Flags().BoolVar(&flags.ssm, "ssm", false, "read credentials from SSM Parameter Store")
	cmd.Flags().StringVar(&flags.gateway, "gateway", config.DefaultGateway, "upload gateway")
	cmd.Flags().StringVar(&flags.cleanup, "cleanup", config.CleanupKeep, "input cleanup (keep, move, remove-batch)")

	return cmd
}

// loadConfig reads the config file without validating it. A missing default
// config file yields the defaults so that flags alone can drive a run.
func loadConfig(ctx context.Context, cmd *cobra.Command, path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !cmd.Flags().Changed("config") {
			zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no config file, using defaults")
			return config.Default(), nil
		}
		return nil, errors.Errorf("checking config file: %w", err)
	}
	return config.Read(ctx, path)
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.InputRoot = f.input
	}
	if changed("output") {
		cfg.OutputRoot = f.output
	}
	if changed("dry-run") {
		cfg.DryRun = f.dryRun
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("env") {
		cfg.Environment = f.env
	}
	if changed("ssm") {
		cfg.UseSSM = f.ssm
	}
	if changed("gateway") {
		cfg.Gateway = f.gateway
	}
	if changed("cleanup") {
		cfg.Cleanup = f.cleanup
	}
}

func run(ctx context.Context, o *opts.RootOpts, cfg *config.Config) (operation.RunSummary, error) {
	logger := zerolog.Ctx(ctx)

	creds, err := loadCredentials(ctx, cfg)
	if err != nil {
		return operation.RunSummary{}, err
	}

	gatewayName := cfg.Gateway
	if cfg.DryRun {
		gatewayName = memory.Name
	}
	if gatewayName == s3.Name {
		if err := creds.Validate(); err != nil {
			return operation.RunSummary{}, err
		}
	}

	gw, err := remote.New(ctx, gatewayName, creds.Remote())
	if err != nil {
		return operation.RunSummary{}, err
	}

	engine, err := operation.New(operation.Options{
		InputRoot:      cfg.InputRoot,
		OutputRoot:     cfg.OutputRoot,
		Bucket:         creds.Bucket,
		Gateway:        gw,
		Files:          files.New(cfg.DryRun),
		Keys:           keys.NewDeriver(cfg.CategoryOverrides),
		Console:        o.Console,
		FilenameField:  cfg.FilenameField,
		Denylist:       cfg.Denylist,
		IgnorePatterns: cfg.IgnorePatterns,
		Cleanup:        cfg.Cleanup,
		Concurrency:    cfg.Concurrency,
		UploadTimeout:  cfg.UploadTimeout,
		DryRun:         cfg.DryRun,
	})
	if err != nil {
		return operation.RunSummary{}, errors.Errorf("creating engine: %w", err)
	}

	logger.Info().
		Str("config", cfg.String()).
		Str("gateway", gw.Name()).
		Str("run_id", engine.RunID()).
		Msg("starting upload")

	return engine.Run(ctx)
}

func loadCredentials(ctx context.Context, cfg *config.Config) (credentials.Credentials, error) {
	env, err := credentials.ParseEnvironment(cfg.Environment)
	if err != nil {
		return credentials.Credentials{}, err
	}

	loadOpts := credentials.Options{
		Environment: env,
		EnvFile:     cfg.EnvFile,
	}
	if cfg.UseSSM {
		client, err := credentials.NewSSMClient(ctx, cfg.SSMRegion)
		if err != nil {
			return credentials.Credentials{}, err
		}
		loadOpts.SSM = client
	}

	creds, err := credentials.Load(ctx, loadOpts)
	if err != nil {
		return credentials.Credentials{}, errors.Errorf("loading credentials: %w", err)
	}

	if cfg.Bucket != "" {
		creds.Bucket = cfg.Bucket
	}
	if cfg.Region != "" {
		creds.Region = cfg.Region
	}
	return creds, nil
}

func printSummary(w io.Writer, summary operation.RunSummary) {
	if len(summary.Batches) == 0 {
		return
	}

	failed := make(map[string]bool, len(summary.FailedBatches))
	for _, b := range summary.FailedBatches {
		failed[b] = true
	}

	data := pterm.TableData{{"batch", "uploaded", "not uploaded", "skipped", "retained", "relocated", "status"}}
	for _, b := range summary.Batches {
		status := "ok"
		if failed[b.Batch] {
			status = "failed"
		}
		data = append(data, []string{
			b.Batch,
			strconv.Itoa(b.Uploaded),
			strconv.Itoa(b.NotUploaded),
			strconv.Itoa(b.Skipped),
			strconv.Itoa(b.Retained),
			strconv.Itoa(b.Relocated),
			status,
		})
	}
	total := summary.Totals()
	data = append(data, []string{
		"total",
		strconv.Itoa(total.Uploaded),
		strconv.Itoa(total.NotUploaded),
		strconv.Itoa(total.Skipped),
		strconv.Itoa(total.Retained),
		strconv.Itoa(total.Relocated),
		fmt.Sprintf("%d failed", len(summary.FailedBatches)),
	})

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return
	}
	fmt.Fprintln(w, table)
}
