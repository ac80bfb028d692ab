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
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
)

// Counter reports the number of rows a processor produced
type Counter interface {
	Name() string
	Count() uint64
}

// Stats collects processors and reports their final counts
type Stats struct {
	start    time.Time
	logger   *slog.Logger
	counters []Counter
	mu       sync.Mutex
}

func NewStats(logger *slog.Logger) *Stats {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Stats{
		start:  time.Now(),
		logger: logger,
	}
}

func (s *Stats) Add(counters ...Counter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = append(s.counters, counters...)
}

// Counts returns the current count of each output table. Counters sharing
// a name are summed.
func (s *Stats) Counts() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make(map[string]uint64, len(s.counters))
	for _, c := range s.counters {
		ret[c.Name()] += c.Count()
	}
	return ret
}

// Log writes the elapsed time and the count of every output table
func (s *Stats) Log() {
	s.logger.Info(
		fmt.Sprintf("done (processing in %s)", time.Since(s.start).Round(time.Millisecond)),
		"component", "processor",
	)
	counts := s.Counts()
	for _, name := range slices.Sorted(maps.Keys(counts)) {
		s.logger.Info(
			fmt.Sprintf("dumped %s %d accounts", name, counts[name]),
			"component", "processor",
		)
	}
}
