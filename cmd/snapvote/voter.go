// Copyright 2025 Blink Labs Software
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
	"log/slog"
	"os"

	"github.com/blinklabs-io/snapvote/internal/node"
	"github.com/spf13/cobra"
)

func voterCommand() *cobra.Command {
	var timestamp int64
	var filtersPath string
	cmd := &cobra.Command{
		Use:   "voter <pubkey>",
		Short: "Show the voting power breakdown of a single voter account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configFromCommand(cmd)
			if cmd.Flags().Changed("timestamp") {
				cfg.Timestamp = timestamp
			}
			if cmd.Flags().Changed("filters") {
				cfg.FiltersPath = filtersPath
			}
			logger := commonRun()
			if err := node.Voter(cmd.Context(), cfg, logger, args[0], os.Stdout); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	cmd.Flags().Int64Var(&timestamp, "timestamp", 0, "unix timestamp to evaluate voting power at (default now)")
	cmd.Flags().StringVar(&filtersPath, "filters", "", "filters file carrying the registrar account")
	return cmd
}
