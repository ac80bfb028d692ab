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

package database

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type DatabaseOptionFunc func(*Database)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) DatabaseOptionFunc {
	return func(d *Database) {
		d.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(registry prometheus.Registerer) DatabaseOptionFunc {
	return func(d *Database) {
		d.promRegistry = registry
	}
}

// WithCacheSizeMb sets the SQLite page cache size in MiB
func WithCacheSizeMb(size int64) DatabaseOptionFunc {
	return func(d *Database) {
		d.cacheSizeMb = size
	}
}

// WithMmapSizeMb sets the SQLite memory map size in MiB
func WithMmapSizeMb(size int64) DatabaseOptionFunc {
	return func(d *Database) {
		d.mmapSizeMb = size
	}
}

// WithTxBulk groups inserts into transactions of size statements. Zero
// runs every insert in its own implicit transaction.
func WithTxBulk(size int) DatabaseOptionFunc {
	return func(d *Database) {
		d.txBulk = size
	}
}
