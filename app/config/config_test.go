// Copyright 2017 BrightLocal Ltd. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable the config reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_PATH", "HF_DATASETS_SERVER_URL", "HF_TOKEN", "HF_TIMEOUT", "HF_PAGE_SIZE",
		"DATASET_NAME", "DATASET_SPLIT", "SAMPLE_OUTPUT", "DUMP_OUT", "DUMP_RECORDS_PER_FILE",
		"ES_HOSTS", "ES_INDEX", "ES_ID_FIELD", "ES_MAX_BULK_BYTES", "ES_SNIFF", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Dataset.Name != "DCAgent2/DCAgent_dev_set_71_tasks_DCAgent2_freelancer-projects-100k-traces_20251124_143851" {
		t.Errorf("Dataset.Name = %q", cfg.Dataset.Name)
	}
	if cfg.Dataset.Split != "train" {
		t.Errorf("Dataset.Split = %q, want train", cfg.Dataset.Split)
	}
	if cfg.Sample.Output != "sample_trace_row.json" {
		t.Errorf("Sample.Output = %q, want sample_trace_row.json", cfg.Sample.Output)
	}
	if cfg.Hub.BaseURL != "https://datasets-server.huggingface.co" {
		t.Errorf("Hub.BaseURL = %q", cfg.Hub.BaseURL)
	}
	if cfg.Hub.Timeout != 30*time.Second {
		t.Errorf("Hub.Timeout = %s, want 30s", cfg.Hub.Timeout)
	}
	if cfg.Hub.PageSize != 100 {
		t.Errorf("Hub.PageSize = %d, want 100", cfg.Hub.PageSize)
	}
	if cfg.Elastic.MaxBulkBytes != 10*1024*1024 {
		t.Errorf("Elastic.MaxBulkBytes = %d", cfg.Elastic.MaxBulkBytes)
	}
	if cfg.Log.SlogLevel() != slog.LevelInfo {
		t.Errorf("Log.SlogLevel() = %v, want info", cfg.Log.SlogLevel())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("DATASET_NAME", "org/other")
	t.Setenv("DATASET_SPLIT", "test")
	t.Setenv("HF_TOKEN", "hf_secret")
	t.Setenv("HF_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dataset.Name != "org/other" || cfg.Dataset.Split != "test" {
		t.Errorf("Dataset = %+v", cfg.Dataset)
	}
	if cfg.Hub.Token != "hf_secret" {
		t.Errorf("Hub.Token = %q", cfg.Hub.Token)
	}
	if cfg.Hub.Timeout != 5*time.Second {
		t.Errorf("Hub.Timeout = %s, want 5s", cfg.Hub.Timeout)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("Log.SlogLevel() = %v, want debug", cfg.Log.SlogLevel())
	}
}

func TestLoad_YAMLWithEnvPriority(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeYAML(t, dir, `
hub:
  page_size: 50
dataset:
  name: "org/from-yaml"
  split: "validation"
sample:
  output: "out.json"
elastic:
  hosts: "http://es1:9200, http://es2:9200"
  index: "traces"
`)
	t.Setenv("DATASET_SPLIT", "train")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dataset.Name != "org/from-yaml" {
		t.Errorf("Dataset.Name = %q, want org/from-yaml", cfg.Dataset.Name)
	}
	if cfg.Dataset.Split != "train" {
		t.Errorf("Dataset.Split = %q, want env value train", cfg.Dataset.Split)
	}
	if cfg.Hub.PageSize != 50 {
		t.Errorf("Hub.PageSize = %d, want 50", cfg.Hub.PageSize)
	}
	if cfg.Sample.Output != "out.json" {
		t.Errorf("Sample.Output = %q", cfg.Sample.Output)
	}
	hosts := cfg.Elastic.HostList()
	if len(hosts) != 2 || hosts[0] != "http://es1:9200" || hosts[1] != "http://es2:9200" {
		t.Errorf("HostList() = %v", hosts)
	}
}

func TestLoad_ConfigPathEnv(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, t.TempDir(), "dataset:\n  name: \"org/env-path\"\n")
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dataset.Name != "org/env-path" {
		t.Errorf("Dataset.Name = %q", cfg.Dataset.Name)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"zero page size", "HF_PAGE_SIZE", "0", "page_size"},
		{"negative records per file", "DUMP_RECORDS_PER_FILE", "-1", "records_per_file"},
		{"bad log format", "LOG_FORMAT", "xml", "log.format"},
		{"zero bulk bytes", "ES_MAX_BULK_BYTES", "0", "max_bulk_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.val)

			_, err := Load("")
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := (LogConfig{Level: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
