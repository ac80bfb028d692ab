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

// Package database writes processing results to a SQLite output file. The
// file is built under a temporary name and only promoted to the requested
// path once every row has been written.
package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/blinklabs-io/snapvote/database/models"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

var ErrDatabaseClosed = errors.New("database is closed")

// Database is a single-connection SQLite output database
type Database struct {
	promRegistry prometheus.Registerer
	db           *gorm.DB
	tx           *gorm.DB
	logger       *slog.Logger
	metrics      *databaseMetrics
	path         string
	tempPath     string
	cacheSizeMb  int64
	mmapSizeMb   int64
	txBulk       int
	txCount      int
	mu           sync.Mutex
	closed       bool
}

type databaseMetrics struct {
	executeTotal prometheus.Counter
}

// TempPath returns the name of the working file used while building path
func TempPath(path string) string {
	return filepath.Join(
		filepath.Dir(path),
		"_"+filepath.Base(path)+".tmp",
	)
}

// New creates the output database. Uses an in-memory database if path is empty.
func New(path string, opts ...DatabaseOptionFunc) (*Database, error) {
	d := &Database{
		path: path,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	var dsn string
	if path == "" {
		dsn = "file::memory:?" + d.connOpts()
	} else {
		d.tempPath = TempPath(path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output dir: %w", err)
		}
		// Start from a clean working file
		if err := os.Remove(d.tempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale temp file: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?%s", d.tempPath, d.connOpts())
	}
	db, err := gorm.Open(
		sqlite.Open(dsn),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
		},
	)
	if err != nil {
		return nil, err
	}
	d.db = db
	if err := d.init(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) connOpts() string {
	pragmas := []string{
		"_pragma=synchronous(OFF)",
		"_pragma=journal_mode(OFF)",
		"_pragma=locking_mode(EXCLUSIVE)",
		"_pragma=temp_store(MEMORY)",
	}
	if d.cacheSizeMb > 0 {
		// Negative cache size is in KiB
		pragmas = append(
			pragmas,
			fmt.Sprintf("_pragma=cache_size(-%d)", d.cacheSizeMb*1024),
		)
	}
	if d.mmapSizeMb > 0 {
		pragmas = append(
			pragmas,
			fmt.Sprintf("_pragma=mmap_size(%d)", d.mmapSizeMb*1024*1024),
		)
	}
	return strings.Join(pragmas, "&")
}

func (d *Database) init() error {
	// Exclusive locking requires every statement to share one connection
	sqlDb, err := d.db.DB()
	if err != nil {
		return err
	}
	sqlDb.SetMaxOpenConns(1)
	sqlDb.SetMaxIdleConns(1)
	// Configure tracing for GORM
	if err := d.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return err
	}
	d.metrics = d.registerMetrics()
	// Create table schemas
	for _, model := range models.MigrateModels {
		d.logger.Debug(
			fmt.Sprintf("creating table: %T", model),
			"component", "database",
		)
		if err := d.db.AutoMigrate(model); err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) registerMetrics() *databaseMetrics {
	factory := promauto.With(d.promRegistry)
	return &databaseMetrics{
		executeTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapvote_db_execute_total",
			Help: "number of insert statements executed against the output database",
		}),
	}
}

// conn returns the handle statements should run on, opening a bulk
// transaction when one is configured and none is active
func (d *Database) conn() (*gorm.DB, error) {
	if d.txBulk <= 0 {
		return d.db, nil
	}
	if d.tx == nil {
		tx := d.db.Begin()
		if tx.Error != nil {
			return nil, tx.Error
		}
		d.tx = tx
		d.txCount = 0
	}
	return d.tx, nil
}

func (d *Database) commitBulk() error {
	if d.tx == nil {
		return nil
	}
	tx := d.tx
	d.tx = nil
	d.txCount = 0
	return tx.Commit().Error
}

// Upsert inserts a row, replacing any existing row with the same pubkey
func (d *Database) Upsert(row models.Row) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDatabaseClosed
	}
	conn, err := d.conn()
	if err != nil {
		return err
	}
	result := conn.Clauses(clause.OnConflict{UpdateAll: true}).Create(row)
	d.metrics.executeTotal.Inc()
	if d.tx != nil {
		d.txCount++
		if d.txCount >= d.txBulk {
			if err := d.commitBulk(); err != nil {
				return fmt.Errorf("commit bulk transaction: %w", err)
			}
		}
	}
	return result.Error
}

// Get loads the row with the given pubkey into dest
func (d *Database) Get(dest models.Row, pubkey string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDatabaseClosed
	}
	conn, err := d.readConn()
	if err != nil {
		return err
	}
	// A primary key left in dest would be added to the query
	v := reflect.ValueOf(dest).Elem()
	v.Set(reflect.Zero(v.Type()))
	return conn.Where("pubkey = ?", pubkey).First(dest).Error
}

// Count returns the number of rows in the table backing model
func (d *Database) Count(model any) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrDatabaseClosed
	}
	conn, err := d.readConn()
	if err != nil {
		return 0, err
	}
	var count int64
	if result := conn.Model(model).Count(&count); result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

func (d *Database) readConn() (*gorm.DB, error) {
	if d.tx != nil {
		return d.tx, nil
	}
	return d.db, nil
}

// Finalize commits any open transaction, closes the connection and moves
// the working file to the output path
func (d *Database) Finalize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDatabaseClosed
	}
	if err := d.commitBulk(); err != nil {
		return fmt.Errorf("commit bulk transaction: %w", err)
	}
	if err := d.closeConn(); err != nil {
		return err
	}
	if d.tempPath == "" {
		return nil
	}
	if err := os.Rename(d.tempPath, d.path); err != nil {
		return fmt.Errorf("promote database file: %w", err)
	}
	d.logger.Info(
		"database file promoted to "+d.path,
		"component", "database",
	)
	return nil
}

// Close discards an unfinalized database, removing the working file. It is
// a no-op after Finalize.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	if d.tx != nil {
		_ = d.tx.Rollback().Error
		d.tx = nil
	}
	err := d.closeConn()
	if d.tempPath != "" {
		if rmErr := os.Remove(d.tempPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
	}
	return err
}

func (d *Database) closeConn() error {
	d.closed = true
	sqlDb, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}
