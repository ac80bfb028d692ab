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

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/snapvote/processor"
	"github.com/blinklabs-io/snapvote/solana"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "snapvote.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultDatabasePath = ".snapvote"
	DefaultOutputSqlite = "snapshot.db"
	DefaultWorkers      = 4
	DefaultQueueSize    = 1024
	DefaultSqliteTxBulk = 1000
	DefaultImportBatch  = 1000
)

type tempConfig struct {
	Config yaml.Node `yaml:"config,omitempty"`
}

type Config struct {
	DatabasePath          string `yaml:"databasePath"          split_words:"true"`
	OutputSqlite          string `yaml:"outputSqlite"          split_words:"true"`
	FiltersPath           string `yaml:"filtersPath"           split_words:"true"`
	VsrProgram            string `yaml:"vsrProgram"            split_words:"true"`
	PublishUrl            string `yaml:"publishUrl"            split_words:"true"`
	PublishRegion         string `yaml:"publishRegion"         split_words:"true"`
	PublishEndpoint       string `yaml:"publishEndpoint"       split_words:"true"`
	PublishCredentials    string `yaml:"publishCredentials"    split_words:"true"`
	Timestamp             int64  `yaml:"timestamp"`
	SqliteCacheSizeMb     int64  `yaml:"sqliteCacheSizeMb"     split_words:"true"`
	SqliteMmapSizeMb      int64  `yaml:"sqliteMmapSizeMb"      split_words:"true"`
	SqliteTxBulk          int    `yaml:"sqliteTxBulk"          split_words:"true"`
	Workers               int    `yaml:"workers"`
	QueueSize             int    `yaml:"queueSize"             split_words:"true"`
	ImportBatchSize       int    `yaml:"importBatchSize"       split_words:"true"`
	MetricsPort           uint   `yaml:"metricsPort"           split_words:"true"`
	Tracing               bool   `yaml:"tracing"`
	TracingStdout         bool   `yaml:"tracingStdout"         split_words:"true"`
	RegistrarFromSnapshot bool   `yaml:"registrarFromSnapshot" split_words:"true"`
}

func defaultConfig() *Config {
	return &Config{
		DatabasePath:    DefaultDatabasePath,
		OutputSqlite:    DefaultOutputSqlite,
		VsrProgram:      processor.VsrProgramAddress,
		SqliteTxBulk:    DefaultSqliteTxBulk,
		Workers:         DefaultWorkers,
		QueueSize:       DefaultQueueSize,
		ImportBatchSize: DefaultImportBatch,
	}
}

var globalConfig = defaultConfig()

func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".snapvote", "snapvote.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		if configFile == "" {
			systemPath := "/etc/snapvote/snapvote.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		var tempCfg tempConfig
		err = yaml.Unmarshal(buf, &tempCfg)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		// Settings may be nested under a top-level "config" key. The section
		// is decoded over the defaults so unset keys keep their values.
		if tempCfg.Config.Kind != 0 {
			if err := tempCfg.Config.Decode(globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			err = yaml.Unmarshal(buf, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}
	err := envconfig.Process("snapvote", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// Validate checks settings that can be checked without touching the
// filesystem
func (c *Config) Validate() error {
	var errs []error
	if c.Timestamp < 0 {
		errs = append(errs, fmt.Errorf("timestamp must not be negative: %d", c.Timestamp))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative: %d", c.Workers))
	}
	if c.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("queue size must not be negative: %d", c.QueueSize))
	}
	if c.SqliteTxBulk < 0 {
		errs = append(errs, fmt.Errorf("sqlite tx bulk must not be negative: %d", c.SqliteTxBulk))
	}
	if c.SqliteCacheSizeMb < 0 || c.SqliteMmapSizeMb < 0 {
		errs = append(errs, errors.New("sqlite cache and mmap sizes must not be negative"))
	}
	if _, err := solana.ParsePublicKey(c.VsrProgram); err != nil {
		errs = append(errs, fmt.Errorf("vsr program: %w", err))
	}
	return errors.Join(errs...)
}

// VsrProgramKey returns the parsed VSR program address
func (c *Config) VsrProgramKey() (solana.PublicKey, error) {
	return solana.ParsePublicKey(c.VsrProgram)
}
