// Copyright 2017 BrightLocal Ltd. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BrightLocal/HF-Sample/app/restore"
)

var (
	restoreHosts        string
	restoreIndex        string
	restoreFiles        string
	restoreIDField      string
	restoreMaxBulkBytes int
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Load dump files into an Elasticsearch index",
	Args:  cobra.NoArgs,
	RunE:  runRestore,
}

func init() {
	restoreCmd.Flags().StringVar(&restoreHosts, "hosts", "", "List of ElasticSearch hosts")
	restoreCmd.Flags().StringVar(&restoreIndex, "index", "", "Index to restore into")
	restoreCmd.Flags().StringVar(&restoreFiles, "files", "", "Files to use (glob)")
	restoreCmd.Flags().StringVar(&restoreIDField, "id-field", "", "Row field to use as document ID")
	restoreCmd.Flags().IntVar(&restoreMaxBulkBytes, "max-bulk-bytes", 0, "Flush the bulk request above this size")
}

func runRestore(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if flags.Changed("hosts") {
		cfg.Elastic.Hosts = restoreHosts
	}
	if flags.Changed("index") {
		cfg.Elastic.Index = restoreIndex
	}
	if flags.Changed("id-field") {
		cfg.Elastic.IDField = restoreIDField
	}
	if flags.Changed("max-bulk-bytes") {
		cfg.Elastic.MaxBulkBytes = restoreMaxBulkBytes
	}
	if restoreFiles == "" {
		return fmt.Errorf("--files is required")
	}

	client, err := restore.NewClient(cfg.Elastic)
	if err != nil {
		return err
	}
	defer client.Stop()

	_, err = restore.Run(cmd.Context(), client, restore.Options{
		Index:        cfg.Elastic.Index,
		Files:        restoreFiles,
		IDField:      cfg.Elastic.IDField,
		MaxBulkBytes: cfg.Elastic.MaxBulkBytes,
	}, logger)
	return err
}
