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
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/cmd/uploadrc/opts"
	"github.com/walteh/uploadrc/pkg/resolve"
)

func NewResolveCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve DIR NAME",
		Short: "Show which file a manifest filename resolves to",
		Long: `Resolve applies the same lookup used during a run: exact match, then
case-insensitive match, then suffix variants such as "scan.PDF" or "scan.PDF.pdf".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolve.Resolve(cmd.Context(), args[0], args[1])
			if err != nil {
				return errors.Errorf("resolving %s: %w", args[1], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", resolved.Path(), resolved.Strategy)
			return nil
		},
	}
}
