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
	"log/slog"

	"github.com/blinklabs-io/snapvote/internal/config"
	"github.com/prometheus/client_golang/prometheus"
)

// Load imports an account dump into the account store
func Load(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	dumpPath string,
) error {
	store, err := openStore(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer store.Close()
	if _, err := store.ImportDump(ctx, dumpPath, cfg.ImportBatchSize); err != nil {
		return err
	}
	return store.Compact()
}
