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
	"context"
	"fmt"
	"sync/atomic"

	"github.com/blinklabs-io/snapvote/database/models"
	"golang.org/x/sync/errgroup"
)

// Sink receives output rows
type Sink interface {
	Write(ctx context.Context, row models.Row) error
}

// Processor extracts one kind of account from a snapshot
type Processor interface {
	Counter
	Run(ctx context.Context) error
}

// RunAll runs processors concurrently and returns the first error. The
// context passed to the others is cancelled when one fails.
func RunAll(ctx context.Context, processors ...Processor) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range processors {
		g.Go(func() error {
			if err := p.Run(gctx); err != nil {
				return fmt.Errorf("%s: %w", p.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// rowCounter counts the rows a processor emitted for one output table
type rowCounter struct {
	table string
	count atomic.Uint64
}

func newRowCounter(table string) *rowCounter {
	return &rowCounter{table: table}
}

func (c *rowCounter) Name() string {
	return c.table
}

func (c *rowCounter) Count() uint64 {
	return c.count.Load()
}

func (c *rowCounter) inc() {
	c.count.Add(1)
}
