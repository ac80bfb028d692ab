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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blinklabs-io/snapvote/database"
	"github.com/blinklabs-io/snapvote/filters"
	"github.com/blinklabs-io/snapvote/internal/config"
	"github.com/blinklabs-io/snapvote/internal/tracing"
	"github.com/blinklabs-io/snapvote/processor"
	"github.com/blinklabs-io/snapvote/publish"
	"github.com/blinklabs-io/snapvote/snapshot"
	"github.com/blinklabs-io/snapvote/vsr"
	"github.com/prometheus/client_golang/prometheus"
)

// timestamp returns the configured evaluation time, defaulting to now
func timestamp(cfg *config.Config) int64 {
	if cfg.Timestamp != 0 {
		return cfg.Timestamp
	}
	return time.Now().Unix()
}

func openStore(
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*snapshot.Store, error) {
	store, err := snapshot.NewStore(
		snapshot.WithDataDir(cfg.DatabasePath),
		snapshot.WithLogger(logger),
		snapshot.WithPromRegistry(promRegistry),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open account store: %w", err)
	}
	return store, nil
}

// loadFilters reads the configured filters file, or returns nil when none
// is configured
func loadFilters(cfg *config.Config) (*filters.Filters, error) {
	if cfg.FiltersPath == "" {
		return nil, nil
	}
	return filters.Load(cfg.FiltersPath)
}

// registrar returns the registrar carried by the filters, or nil when voters
// should be evaluated against the registrar account they reference
func registrar(cfg *config.Config, f *filters.Filters) (*vsr.Registrar, error) {
	if cfg.RegistrarFromSnapshot || f == nil {
		return nil, nil
	}
	reg, err := f.Registrar()
	if err != nil {
		if errors.Is(err, filters.ErrNoRegistrarData) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode registrar from filters: %w", err)
	}
	return reg, nil
}

// Parse extracts the selected accounts and evaluates every voter in the
// account store, writing the results to the configured SQLite output and
// publishing it when a URL is configured
func Parse(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, cfg.TracingStdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("tracing shutdown error", "error", err)
		}
	}()
	promRegistry := prometheus.NewRegistry()
	stopMetrics := startMetrics(logger, promRegistry, cfg.MetricsPort)
	defer stopMetrics()

	program, err := cfg.VsrProgramKey()
	if err != nil {
		return err
	}
	f, err := loadFilters(cfg)
	if err != nil {
		return err
	}
	reg, err := registrar(cfg, f)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger, promRegistry)
	if err != nil {
		return err
	}
	defer store.Close()

	db, err := database.New(
		cfg.OutputSqlite,
		database.WithLogger(logger),
		database.WithPromRegistry(promRegistry),
		database.WithCacheSizeMb(cfg.SqliteCacheSizeMb),
		database.WithMmapSizeMb(cfg.SqliteMmapSizeMb),
		database.WithTxBulk(cfg.SqliteTxBulk),
	)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	// No-op once finalized
	defer db.Close()

	stats := processor.NewStats(logger)
	writer := database.NewWriter(db, cfg.QueueSize)
	opts := []processor.OptionFunc{
		processor.WithLogger(logger),
		processor.WithPromRegistry(promRegistry),
		processor.WithVsrProgram(program),
		processor.WithTimestamp(timestamp(cfg)),
		processor.WithWorkers(cfg.Workers),
		processor.WithQueueSize(cfg.QueueSize),
	}
	if reg != nil {
		opts = append(opts, processor.WithRegistrar(reg))
	}
	veMnde := processor.NewVeMnde(store, writer, opts...)
	processors := []processor.Processor{veMnde}
	stats.Add(veMnde)
	if f != nil {
		owners := processor.NewAccountOwners(store, writer, f.AccountOwners, opts...)
		tokens := processor.NewToken(store, writer, f.AccountMints, opts...)
		mints := processor.NewTokenMints(store, writer, f.AccountMints, opts...)
		metadata := processor.NewTokenMetadata(store, writer, opts...)
		processors = append(processors, owners, tokens, mints, metadata)
		stats.Add(owners, tokens, tokens.AccountRows(), mints, metadata)
	}
	runErr := processor.RunAll(ctx, processors...)
	writer.Stop()
	if runErr != nil {
		return fmt.Errorf("failed to process accounts: %w", runErr)
	}
	// Rows that failed to insert are dropped from the output; the run is
	// still published
	logger.Info(
		fmt.Sprintf("wrote %d rows (%d failed)", writer.Written(), writer.Failed()),
		"component", "node",
	)
	if failed := writer.Failed(); failed > 0 {
		logger.Warn(
			fmt.Sprintf("%d rows could not be written", failed),
			"component", "node",
		)
	}
	if err := db.Finalize(); err != nil {
		return err
	}
	stats.Log()
	return publish.Upload(
		ctx,
		cfg.OutputSqlite,
		cfg.PublishUrl,
		publish.WithLogger(logger),
		publish.WithRegion(cfg.PublishRegion),
		publish.WithEndpoint(cfg.PublishEndpoint),
		publish.WithCredentialsFile(cfg.PublishCredentials),
	)
}
