// Copyright 2017 BrightLocal Ltd. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sample fetches the first record of a dataset split, prints it and
// saves it as indented JSON for manual inspection.
package sample

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/BrightLocal/HF-Sample/app/item"
)

const (
	DefaultDataset = "DCAgent2/DCAgent_dev_set_71_tasks_DCAgent2_freelancer-projects-100k-traces_20251124_143851"
	DefaultSplit   = "train"
	DefaultOutput  = "sample_trace_row.json"
)

// ErrEmptySplit is returned when the split has no rows.
var ErrEmptySplit = errors.New("split has no rows")

// Loader returns the leading records of a dataset split.
type Loader interface {
	Head(ctx context.Context, dataset, split string, n int) ([]item.Record, error)
}

// Options selects the split and the destinations.
type Options struct {
	Dataset string
	Split   string
	Output  string
	Stdout  io.Writer
}

func (o Options) withDefaults() Options {
	if o.Dataset == "" {
		o.Dataset = DefaultDataset
	}
	if o.Split == "" {
		o.Split = DefaultSplit
	}
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	return o
}

// Run loads the first record of the split, prints it to Stdout and writes it
// to Output. Output is left untouched unless the record was loaded and
// serialized.
func Run(ctx context.Context, loader Loader, opts Options, log *slog.Logger) (item.Record, error) {
	opts = opts.withDefaults()
	log = log.With("component", "sample")

	log.Info("loading dataset", slog.String("dataset", opts.Dataset), slog.String("split", opts.Split))
	records, err := loader.Head(ctx, opts.Dataset, opts.Split, 1)
	if err != nil {
		return item.Record{}, fmt.Errorf("load %s[%s]: %w", opts.Dataset, opts.Split, err)
	}
	if len(records) == 0 {
		return item.Record{}, fmt.Errorf("load %s[%s]: %w", opts.Dataset, opts.Split, ErrEmptySplit)
	}
	row := records[0]

	if _, err := fmt.Fprintln(opts.Stdout, row); err != nil {
		return row, fmt.Errorf("print record: %w", err)
	}

	data, err := row.MarshalIndent()
	if err != nil {
		return row, fmt.Errorf("serialize record: %w", err)
	}
	if err := writeFile(opts.Output, data); err != nil {
		return row, err
	}

	log.Info("sample written", slog.String("path", opts.Output), slog.Int("bytes", len(data)))
	return row, nil
}

// writeFile truncates path and writes data, closing the file on every path.
func writeFile(path string, data []byte) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
