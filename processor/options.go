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

package processor

import (
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/blinklabs-io/snapvote/solana"
	"github.com/blinklabs-io/snapvote/vsr"
	"github.com/prometheus/client_golang/prometheus"
)

// options are shared by all processors. Each processor uses the subset that
// applies to it.
type options struct {
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	registrar    *vsr.Registrar
	program      solana.PublicKey
	timestamp    int64
	workers      int
	queueSize    int
}

type OptionFunc func(*options)

func newOptions(opts []OptionFunc) options {
	o := options{
		program:   DefaultVsrProgram,
		timestamp: time.Now().Unix(),
		workers:   runtime.GOMAXPROCS(0),
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		o.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if o.workers < 1 {
		o.workers = 1
	}
	if o.queueSize < 0 {
		o.queueSize = 0
	}
	return o
}

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) OptionFunc {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(registry prometheus.Registerer) OptionFunc {
	return func(o *options) {
		o.promRegistry = registry
	}
}

// WithWorkers specifies the number of voters evaluated concurrently
func WithWorkers(workers int) OptionFunc {
	return func(o *options) {
		o.workers = workers
	}
}

// WithQueueSize specifies the number of scanned accounts buffered ahead of
// the workers
func WithQueueSize(size int) OptionFunc {
	return func(o *options) {
		o.queueSize = size
	}
}

// WithTimestamp specifies the unix timestamp voting power is evaluated at
func WithTimestamp(ts int64) OptionFunc {
	return func(o *options) {
		o.timestamp = ts
	}
}

// WithVsrProgram specifies the VSR program owning the voter accounts
func WithVsrProgram(program solana.PublicKey) OptionFunc {
	return func(o *options) {
		o.program = program
	}
}

// WithRegistrar uses registrar for every voter instead of loading the
// registrar account each voter references
func WithRegistrar(registrar *vsr.Registrar) OptionFunc {
	return func(o *options) {
		o.registrar = registrar
	}
}
