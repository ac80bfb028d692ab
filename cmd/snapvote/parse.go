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
	"os/signal"
	"syscall"

	"github.com/blinklabs-io/snapvote/internal/config"
	"github.com/blinklabs-io/snapvote/internal/node"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// applyParseFlags overrides config values with flags set on the command line
func applyParseFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error
	if flags.Changed("output-sqlite") {
		if cfg.OutputSqlite, err = flags.GetString("output-sqlite"); err != nil {
			return err
		}
	}
	if flags.Changed("filters") {
		if cfg.FiltersPath, err = flags.GetString("filters"); err != nil {
			return err
		}
	}
	if flags.Changed("timestamp") {
		if cfg.Timestamp, err = flags.GetInt64("timestamp"); err != nil {
			return err
		}
	}
	if flags.Changed("sqlite-cache-size") {
		if cfg.SqliteCacheSizeMb, err = flags.GetInt64("sqlite-cache-size"); err != nil {
			return err
		}
	}
	if flags.Changed("sqlite-mmap-size") {
		if cfg.SqliteMmapSizeMb, err = flags.GetInt64("sqlite-mmap-size"); err != nil {
			return err
		}
	}
	if flags.Changed("sqlite-tx-bulk") {
		if cfg.SqliteTxBulk, err = flags.GetInt("sqlite-tx-bulk"); err != nil {
			return err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if flags.Changed("publish") {
		if cfg.PublishUrl, err = flags.GetString("publish"); err != nil {
			return err
		}
	}
	if flags.Changed("registrar-from-snapshot") {
		if cfg.RegistrarFromSnapshot, err = flags.GetBool("registrar-from-snapshot"); err != nil {
			return err
		}
	}
	return cfg.Validate()
}

func parseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Compute the voting power of every voter and write it to SQLite",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configFromCommand(cmd)
			if err := applyParseFlags(cmd.Flags(), cfg); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			logger := commonRun()
			ctx, stop := signal.NotifyContext(
				cmd.Context(),
				syscall.SIGINT,
				syscall.SIGTERM,
			)
			defer stop()
			if err := node.Parse(ctx, cfg, logger); err != nil {
				slog.Error(err.Error())
				stop()
				os.Exit(1) //nolint:gocritic
			}
		},
	}
	cmd.Flags().String("output-sqlite", config.DefaultOutputSqlite, "path of the SQLite output file")
	cmd.Flags().String("filters", "", "filters file carrying the registrar account")
	cmd.Flags().Int64("timestamp", 0, "unix timestamp to evaluate voting power at (default now)")
	cmd.Flags().Int64("sqlite-cache-size", 0, "SQLite page cache size in MiB")
	cmd.Flags().Int64("sqlite-mmap-size", 0, "SQLite memory map size in MiB")
	cmd.Flags().Int("sqlite-tx-bulk", config.DefaultSqliteTxBulk, "inserts per SQLite transaction, 0 for one per insert")
	cmd.Flags().Int("workers", config.DefaultWorkers, "number of voters evaluated concurrently")
	cmd.Flags().String("publish", "", "gcs:// or s3:// URL to upload the output to")
	cmd.Flags().Bool("registrar-from-snapshot", false, "evaluate voters against the registrar account they reference")
	return cmd
}
