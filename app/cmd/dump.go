// Copyright 2017 BrightLocal Ltd. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BrightLocal/HF-Sample/app/dump"
	"github.com/BrightLocal/HF-Sample/app/hub"
)

var (
	dumpOut            string
	dumpRecordsPerFile int64
	dumpPageSize       int
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump a whole split to gzipped JSON lines",
	Long: `Dump pages through every row of the split and writes them as gzip-compressed
JSON lines. With --records-per-file the output is split into files like
traces.00000000.gz, traces.00000001.gz and so on.`,
	Args: cobra.NoArgs,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpOut, "out", "", "Output file prefix")
	dumpCmd.Flags().Int64Var(&dumpRecordsPerFile, "records-per-file", 0, "How many records per file (0 for a single file)")
	dumpCmd.Flags().IntVar(&dumpPageSize, "page", hub.MaxPageLength, "Rows per hub request")
}

func runDump(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Dump.Out = dumpOut
	}
	if flags.Changed("records-per-file") {
		cfg.Dump.RecordsPerFile = dumpRecordsPerFile
	}
	if flags.Changed("page") {
		cfg.Hub.PageSize = dumpPageSize
	}
	if cfg.Dump.Out == "" {
		return fmt.Errorf("--out (or DUMP_OUT) is required")
	}

	client := hub.NewClient(cfg.Hub, logger)
	res, err := dump.Run(cmd.Context(), client, dump.Options{
		Dataset:        cfg.Dataset.Name,
		Split:          cfg.Dataset.Split,
		Out:            cfg.Dump.Out,
		RecordsPerFile: cfg.Dump.RecordsPerFile,
		PageSize:       cfg.Hub.PageSize,
	}, logger)
	if err != nil {
		return err
	}
	for _, f := range res.Files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return nil
}
