// Copyright 2017 BrightLocal Ltd. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package restore loads dump files into an Elasticsearch index.
package restore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BrightLocal/HF-Sample/app/config"
	"github.com/BrightLocal/HF-Sample/app/item"
	gzip "github.com/klauspost/pgzip"
	"github.com/olivere/elastic/v7"
)

const defaultMaxBulkBytes = 10 * 1024 * 1024

var (
	ErrNoFiles = errors.New("restore: no files found")
	ErrNoIndex = errors.New("restore: index is required")
)

// BulkError lists the items Elasticsearch rejected.
type BulkError struct {
	Reasons []string
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("restore: %d bulk item(s) failed: %s", len(e.Reasons), strings.Join(e.Reasons, "; "))
}

// Options configures a restore.
type Options struct {
	Index        string
	Files        string // glob
	IDField      string
	MaxBulkBytes int
}

// NewClient connects to the comma-separated hosts in cfg.
func NewClient(cfg config.ElasticConfig, extra ...elastic.ClientOptionFunc) (*elastic.Client, error) {
	hosts := cfg.HostList()
	if len(hosts) == 0 {
		return nil, errors.New("restore: no Elasticsearch hosts configured")
	}
	args := []elastic.ClientOptionFunc{
		elastic.SetURL(hosts...),
		elastic.SetSniff(cfg.Sniff),
		elastic.SetRetrier(elastic.NewBackoffRetrier(elastic.NewConstantBackoff(5 * time.Second))),
	}
	args = append(args, extra...)
	client, err := elastic.NewClient(args...)
	if err != nil {
		return nil, fmt.Errorf("connect to Elasticsearch at %q: %w", cfg.Hosts, err)
	}
	return client, nil
}

// Run upserts every line of every file matching opts.Files and returns the
// number of records processed.
func Run(ctx context.Context, client *elastic.Client, opts Options, log *slog.Logger) (int, error) {
	if opts.Index == "" {
		return 0, ErrNoIndex
	}
	if opts.MaxBulkBytes <= 0 {
		opts.MaxBulkBytes = defaultMaxBulkBytes
	}
	log = log.With("component", "restore")

	list, err := filepath.Glob(opts.Files)
	if err != nil {
		return 0, fmt.Errorf("restore: files list: %w", err)
	}
	if len(list) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoFiles, opts.Files)
	}
	log.Info("importing", slog.Int("files", len(list)), slog.String("index", opts.Index))

	start := time.Now()
	total := 0
	for _, fileName := range list {
		n, err := restoreFile(ctx, client, fileName, opts, log)
		total += n
		if err != nil {
			return total, err
		}
		log.Info("file restored", slog.String("file", fileName), slog.Int("records", n))
	}
	log.Info("restore complete", slog.Int("records", total), slog.Duration("took", time.Since(start)))
	return total, nil
}

func restoreFile(ctx context.Context, client *elastic.Client, fileName string, opts Options, log *slog.Logger) (int, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", fileName, err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return 0, fmt.Errorf("uncompress %s: %w", fileName, err)
	}
	defer gz.Close()

	decoder := json.NewDecoder(gz)
	bs := elastic.NewBulkService(client)
	i := 0
	for {
		var line item.Line
		if err := decoder.Decode(&line); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return i, fmt.Errorf("read %s: %w", fileName, err)
		}
		i++
		bs.Add(elastic.NewBulkUpdateRequest().
			Index(opts.Index).
			Id(line.DocID(opts.IDField)).
			DocAsUpsert(true).
			Doc(line.Row))
		if bs.EstimatedSizeInBytes() > int64(opts.MaxBulkBytes) {
			if err := flush(ctx, bs); err != nil {
				return i, err
			}
			log.Info("records inserted", slog.String("file", fileName), slog.Int("records", i))
		}
	}
	if err := flush(ctx, bs); err != nil {
		return i, err
	}
	return i, nil
}

func flush(ctx context.Context, bs *elastic.BulkService) error {
	if bs.NumberOfActions() == 0 {
		return nil
	}
	resp, err := bs.Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk upsert: %w", err)
	}
	if resp.Errors {
		bulkErr := &BulkError{}
		for _, rr := range resp.Failed() {
			reason := "unknown"
			if rr.Error != nil {
				reason = rr.Error.Reason
			}
			bulkErr.Reasons = append(bulkErr.Reasons, rr.Id+": "+reason)
		}
		return bulkErr
	}
	return nil
}
