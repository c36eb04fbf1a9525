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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/walteh/uploadrc/cmd/uploadrc/opts"
	"github.com/walteh/uploadrc/pkg/keys"
	"github.com/walteh/uploadrc/pkg/manifest"
)

func NewKeyCmd(o *opts.RootOpts) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "key BATCH CATEGORY QID FILENAME",
		Short: "Print the remote key and local destination of a record",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, category, qid, filename := args[0], args[1], args[2], args[3]

			cfg, err := loadConfig(cmd.Context(), cmd, o.ConfigFile)
			if err != nil {
				return err
			}
			if output == "" {
				output = cfg.OutputRoot
			}

			w := cmd.OutOrStdout()
			rec := manifest.Record{Filename: filename, Identifier: qid}
			if !rec.Identified() {
				fmt.Fprintf(w, "key:         (not uploaded, unidentified)\n")
				if output != "" {
					fmt.Fprintf(w, "destination: %s\n", keys.NotUploadedDestination(output, batch, category, filename))
				}
				return nil
			}

			fmt.Fprintf(w, "key:         %s\n", keys.NewDeriver(cfg.CategoryOverrides).RemoteKey(batch, category, qid, filename))
			if output != "" {
				fmt.Fprintf(w, "destination: %s\n", keys.LocalDestination(output, batch, category, filename, qid))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output root, defaults to the configured one")

	return cmd
}
