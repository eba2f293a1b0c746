// Copyright 2017 BrightLocal Ltd. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dump writes every row of a dataset split to gzip-compressed JSON
// lines. Files look like:
//
//	traces.gz                  (RecordsPerFile == 0)
//	traces.00000000.gz         (RecordsPerFile > 0)
//	traces.00000001.gz
package dump

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BrightLocal/HF-Sample/app/hub"
	"github.com/BrightLocal/HF-Sample/app/item"
	"github.com/klauspost/pgzip"
)

// ErrNoOutput is returned when Options.Out is empty.
var ErrNoOutput = errors.New("dump: output prefix is required")

// Pager reads a split page by page.
type Pager interface {
	ResolveConfig(ctx context.Context, dataset, split string) (string, error)
	Rows(ctx context.Context, ref hub.SplitRef, offset int64, length int) (*hub.RowsPage, error)
}

// Options configures a dump.
type Options struct {
	Dataset        string
	Split          string
	Out            string // file prefix
	RecordsPerFile int64  // 0 writes a single file
	PageSize       int
}

// Result holds dump statistics.
type Result struct {
	Total int64
	Files []string
}

// Run dumps the whole split described by opts.
func Run(ctx context.Context, pager Pager, opts Options, log *slog.Logger) (Result, error) {
	var result Result
	if opts.Out == "" {
		return result, ErrNoOutput
	}
	log = log.With("component", "dump")

	cfgName, err := pager.ResolveConfig(ctx, opts.Dataset, opts.Split)
	if err != nil {
		return result, err
	}
	ref := hub.SplitRef{Dataset: opts.Dataset, Config: cfgName, Split: opts.Split}

	w := &splitWriter{out: opts.Out, perFile: opts.RecordsPerFile}
	defer w.close()

	start := time.Now()
	var offset int64
	for {
		page, err := pager.Rows(ctx, ref, offset, opts.PageSize)
		if err != nil {
			return result, err
		}
		if len(page.Rows) == 0 {
			break
		}
		for _, row := range page.Rows {
			if len(row.TruncatedCells) > 0 {
				log.Warn("row has truncated cells", slog.Int64("row_idx", row.Index), slog.Any("cells", row.TruncatedCells))
			}
			if err := w.write(item.Line{
				Dataset: ref.Dataset,
				Config:  ref.Config,
				Split:   ref.Split,
				Index:   row.Index,
				Row:     row.Row,
			}); err != nil {
				return result, err
			}
		}
		offset += int64(len(page.Rows))
		result.Total = offset

		tf := float64(offset)
		percent := 100.0
		if page.NumRowsTotal > 0 {
			percent = tf * 100 / float64(page.NumRowsTotal)
		}
		log.Info("progress",
			slog.Int64("written", offset),
			slog.Float64("percent", percent),
			slog.Float64("sec_per_1k", time.Since(start).Seconds()/tf*1000),
		)
		if offset >= page.NumRowsTotal {
			break
		}
	}

	if err := w.close(); err != nil {
		return result, err
	}
	result.Files = w.files
	log.Info("dump complete", slog.Int64("records", result.Total), slog.Int("files", len(result.Files)), slog.Duration("took", time.Since(start)))
	return result, nil
}

// splitWriter rotates output files every perFile lines. Files are opened
// lazily so a rotation never leaves an empty trailing file.
type splitWriter struct {
	out     string
	perFile int64

	file    *os.File
	gz      *pgzip.Writer
	enc     *json.Encoder
	page    int64
	curPage int64
	files   []string
}

func (w *splitWriter) fileName() string {
	if w.perFile > 0 {
		return fmt.Sprintf("%s.%08d.gz", w.out, w.page)
	}
	return fmt.Sprintf("%s.gz", w.out)
}

func (w *splitWriter) open() error {
	name := w.fileName()
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	gz, err := pgzip.NewWriterLevel(file, pgzip.BestCompression)
	if err != nil {
		file.Close()
		return fmt.Errorf("compressor for %s: %w", name, err)
	}
	w.file, w.gz = file, gz
	w.enc = json.NewEncoder(gz)
	w.enc.SetEscapeHTML(false)
	w.files = append(w.files, name)
	return nil
}

func (w *splitWriter) write(line item.Line) error {
	if w.file == nil {
		if err := w.open(); err != nil {
			return err
		}
	}
	if err := w.enc.Encode(line); err != nil {
		return fmt.Errorf("marshal row %d: %w", line.Index, err)
	}
	w.curPage++
	if w.perFile > 0 && w.curPage == w.perFile {
		if err := w.close(); err != nil {
			return err
		}
		w.page++
		w.curPage = 0
	}
	return nil
}

// close flushes and closes the current file. It is safe to call repeatedly.
func (w *splitWriter) close() error {
	if w.file == nil {
		return nil
	}
	gzErr := w.gz.Close()
	fileErr := w.file.Close()
	name := w.file.Name()
	w.file, w.gz, w.enc = nil, nil, nil
	if gzErr != nil {
		return fmt.Errorf("close compressor %s: %w", name, gzErr)
	}
	if fileErr != nil {
		return fmt.Errorf("close %s: %w", name, fileErr)
	}
	return nil
}
