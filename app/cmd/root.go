// Copyright 2017 BrightLocal Ltd. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/BrightLocal/HF-Sample/app/config"
	"github.com/BrightLocal/HF-Sample/app/hub"
	"github.com/BrightLocal/HF-Sample/app/sample"
)

var (
	configPath  string
	datasetName string
	splitName   string
	outputPath  string

	cfg    *config.Config
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

var rootCmd = &cobra.Command{
	Use:   "hf-sample",
	Short: "Fetch the first row of a Hugging Face dataset split",
	Long: `hf-sample loads a dataset split from the Hugging Face hub, prints its first
row and saves it as indented JSON (sample_trace_row.json by default) for
manual inspection. The dump and restore subcommands export a whole split
and load such exports into Elasticsearch.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runSample,
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(version string) {
	rootCmd.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (default $CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&datasetName, "dataset", sample.DefaultDataset, "Dataset identifier")
	rootCmd.PersistentFlags().StringVar(&splitName, "split", sample.DefaultSplit, "Split name")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", sample.DefaultOutput, "File to write the first row to")

	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(restoreCmd)
}

// setup loads .env and the config, applies explicitly set flags and builds
// the logger.
func setup(cmd *cobra.Command, _ []string) error {
	envErr := godotenv.Load()

	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("dataset") {
		loaded.Dataset.Name = datasetName
	}
	if flags.Changed("split") {
		loaded.Dataset.Split = splitName
	}
	if flags.Changed("output") {
		loaded.Sample.Output = outputPath
	}
	cfg = loaded
	logger = newLogger(cfg.Log)

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("load .env", slog.String("error", envErr.Error()))
	}
	return nil
}

func newLogger(lc config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lc.SlogLevel()}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func runSample(cmd *cobra.Command, _ []string) error {
	client := hub.NewClient(cfg.Hub, logger)
	_, err := sample.Run(cmd.Context(), client, sample.Options{
		Dataset: cfg.Dataset.Name,
		Split:   cfg.Dataset.Split,
		Output:  cfg.Sample.Output,
		Stdout:  cmd.OutOrStdout(),
	}, logger)
	return err
}
