// Copyright 2017 BrightLocal Ltd. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config is the root configuration for all hf-sample commands.
type Config struct {
	Hub     HubConfig     `yaml:"hub"`
	Dataset DatasetConfig `yaml:"dataset"`
	Sample  SampleConfig  `yaml:"sample"`
	Dump    DumpConfig    `yaml:"dump"`
	Elastic ElasticConfig `yaml:"elastic"`
	Log     LogConfig     `yaml:"log"`
}

// HubConfig holds dataset hub API settings.
type HubConfig struct {
	BaseURL  string        `yaml:"base_url"  env:"HF_DATASETS_SERVER_URL" env-default:"https://datasets-server.huggingface.co"`
	Token    string        `yaml:"token"     env:"HF_TOKEN"`
	Timeout  time.Duration `yaml:"timeout"   env:"HF_TIMEOUT"             env-default:"30s"`
	PageSize int           `yaml:"page_size" env:"HF_PAGE_SIZE"           env-default:"100"`
}

// DatasetConfig names the split to read.
type DatasetConfig struct {
	Name  string `yaml:"name"  env:"DATASET_NAME"  env-default:"DCAgent2/DCAgent_dev_set_71_tasks_DCAgent2_freelancer-projects-100k-traces_20251124_143851"`
	Split string `yaml:"split" env:"DATASET_SPLIT" env-default:"train"`
}

// SampleConfig holds settings for the first-row sample.
type SampleConfig struct {
	Output string `yaml:"output" env:"SAMPLE_OUTPUT" env-default:"sample_trace_row.json"`
}

// DumpConfig holds settings for whole-split dumps.
type DumpConfig struct {
	Out            string `yaml:"out"              env:"DUMP_OUT"`
	RecordsPerFile int64  `yaml:"records_per_file" env:"DUMP_RECORDS_PER_FILE"`
}

// ElasticConfig holds Elasticsearch settings for restore.
type ElasticConfig struct {
	Hosts        string `yaml:"hosts"          env:"ES_HOSTS"          env-default:"http://localhost:9200"`
	Index        string `yaml:"index"          env:"ES_INDEX"`
	IDField      string `yaml:"id_field"       env:"ES_ID_FIELD"`
	MaxBulkBytes int    `yaml:"max_bulk_bytes" env:"ES_MAX_BULK_BYTES" env-default:"10485760"`
	Sniff        bool   `yaml:"sniff"          env:"ES_SNIFF"`
}

// HostList splits Hosts on commas, dropping blanks.
func (e ElasticConfig) HostList() []string {
	var hosts []string
	for _, h := range strings.Split(e.Hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// SlogLevel maps Level to a slog.Level. Unknown values map to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks values that tags cannot express.
func (c *Config) Validate() error {
	if c.Dataset.Name == "" {
		return fmt.Errorf("dataset.name is required")
	}
	if c.Dataset.Split == "" {
		return fmt.Errorf("dataset.split is required")
	}
	if c.Hub.BaseURL == "" {
		return fmt.Errorf("hub.base_url is required")
	}
	if c.Hub.Timeout <= 0 {
		return fmt.Errorf("hub.timeout must be > 0 (got %s)", c.Hub.Timeout)
	}
	if c.Hub.PageSize <= 0 {
		return fmt.Errorf("hub.page_size must be > 0 (got %d)", c.Hub.PageSize)
	}
	if c.Dump.RecordsPerFile < 0 {
		return fmt.Errorf("dump.records_per_file must be >= 0 (got %d)", c.Dump.RecordsPerFile)
	}
	if c.Elastic.MaxBulkBytes <= 0 {
		return fmt.Errorf("elastic.max_bulk_bytes must be > 0 (got %d)", c.Elastic.MaxBulkBytes)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}
	return nil
}
