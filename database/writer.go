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
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/blinklabs-io/snapvote/database/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const DefaultWriterQueueSize = 1024

// Writer serializes inserts from many producers onto the single database
// connection
type Writer struct {
	db          *Database
	rows        chan models.Row
	rowsWritten *prometheus.CounterVec
	wg          sync.WaitGroup
	stopOnce    sync.Once
	written     atomic.Uint64
	failed      atomic.Uint64
}

// NewWriter starts a writer goroutine draining a queue of queueSize rows
func NewWriter(db *Database, queueSize int) *Writer {
	if queueSize <= 0 {
		queueSize = DefaultWriterQueueSize
	}
	w := &Writer{
		db:   db,
		rows: make(chan models.Row, queueSize),
		rowsWritten: promauto.With(db.promRegistry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapvote_rows_written_total",
				Help: "number of rows written to the output database by table",
			},
			[]string{"table"},
		),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *Writer) run() {
	defer w.wg.Done()
	for row := range w.rows {
		if err := w.db.Upsert(row); err != nil {
			w.failed.Add(1)
			w.db.logger.Error(
				fmt.Sprintf(
					"failed to insert %s row %s: %s",
					row.TableName(),
					row.RowKey(),
					err,
				),
				"component", "database",
			)
			continue
		}
		w.written.Add(1)
		w.rowsWritten.WithLabelValues(row.TableName()).Inc()
	}
}

// Write queues a row, blocking while the queue is full
func (w *Writer) Write(ctx context.Context, row models.Row) error {
	select {
	case w.rows <- row:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue and waits for queued rows to be written. Write must
// not be called after Stop.
func (w *Writer) Stop() {
	w.stopOnce.Do(func() {
		close(w.rows)
	})
	w.wg.Wait()
}

// Written returns the number of rows stored successfully
func (w *Writer) Written() uint64 {
	return w.written.Load()
}

// Failed returns the number of rows that could not be stored
func (w *Writer) Failed() uint64 {
	return w.failed.Load()
}
