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

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/walteh/uploadrc/cmd/uploadrc/commands"
	"github.com/walteh/uploadrc/cmd/uploadrc/opts"
	ulog "github.com/walteh/uploadrc/pkg/log"

	_ "github.com/walteh/uploadrc/pkg/remote/memory"
	_ "github.com/walteh/uploadrc/pkg/remote/s3"
)

func main() {
	// Setup logging
	setupLogging(false)
	ctx := log.Logger.WithContext(context.Background())

	rootOpts := &opts.RootOpts{
		Console: ulog.New(os.Stdout, log.Logger),
	}

	// Create root command
	rootCmd := &cobra.Command{
		Use:   "uploadrc",
		Short: "Upload client onboarding documents and reconcile them against their manifests",
		Long: `uploadrc walks a tree of batches and categories, uploads every document
listed in a category manifest under its derived key, relocates the files into
an output tree and writes a ledger of what was and was not uploaded.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(rootOpts.Debug)
			rootOpts.Console = ulog.New(cmd.OutOrStdout(), log.Logger)
			cmd.SetContext(log.Logger.WithContext(cmd.Context()))
		},
	}

	// Add shared flags
	addRootFlags(rootCmd, rootOpts)

	// Add commands
	rootCmd.AddCommand(
		commands.NewRunCmd(rootOpts),
		commands.NewResolveCmd(rootOpts),
		commands.NewKeyCmd(rootOpts),
		newVersionCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		rootOpts.Console.Error(err.Error())
		os.Exit(1)
	}
}
