// Copyright 2017 BrightLocal Ltd. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hub reads dataset rows from the Hugging Face datasets-server API.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BrightLocal/HF-Sample/app/config"
	"github.com/BrightLocal/HF-Sample/app/item"
)

// MaxPageLength is the largest page the rows endpoint serves.
const MaxPageLength = 100

const maxErrorMessage = 200

var (
	ErrNotFound     = errors.New("hub: not found")
	ErrUnauthorized = errors.New("hub: unauthorized")
	ErrTruncatedRow = errors.New("hub: row has truncated cells")
)

// APIError is a non-success response not covered by a sentinel error.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hub: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("hub: status %d: %s", e.StatusCode, e.Message)
}

// Client fetches dataset metadata and rows.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client from hub settings.
func NewClient(cfg config.HubConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "hub"),
	}
}

// Splits lists every config/split pair of a dataset.
func (c *Client) Splits(ctx context.Context, dataset string) ([]Split, error) {
	q := url.Values{}
	q.Set("dataset", dataset)

	var resp splitsResponse
	if err := c.get(ctx, "/splits", q, &resp); err != nil {
		return nil, fmt.Errorf("list splits of %s: %w", dataset, err)
	}
	return resp.Splits, nil
}

// ResolveConfig returns the first config of dataset that has the split.
func (c *Client) ResolveConfig(ctx context.Context, dataset, split string) (string, error) {
	splits, err := c.Splits(ctx, dataset)
	if err != nil {
		return "", err
	}
	for _, s := range splits {
		if s.Split == split {
			return s.Config, nil
		}
	}
	return "", fmt.Errorf("split %q of %s: %w", split, dataset, ErrNotFound)
}

// Rows fetches up to length rows starting at offset.
func (c *Client) Rows(ctx context.Context, ref SplitRef, offset int64, length int) (*RowsPage, error) {
	if length <= 0 || length > MaxPageLength {
		length = MaxPageLength
	}
	q := url.Values{}
	q.Set("dataset", ref.Dataset)
	q.Set("config", ref.Config)
	q.Set("split", ref.Split)
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("length", strconv.Itoa(length))

	var page RowsPage
	if err := c.get(ctx, "/rows", q, &page); err != nil {
		return nil, fmt.Errorf("rows %s@%d: %w", ref, offset, err)
	}
	return &page, nil
}

// Head returns the first n records of a split. It returns fewer when the
// split is shorter and an empty slice when the split has no rows.
func (c *Client) Head(ctx context.Context, dataset, split string, n int) ([]item.Record, error) {
	if n <= 0 {
		return []item.Record{}, nil
	}
	cfgName, err := c.ResolveConfig(ctx, dataset, split)
	if err != nil {
		return nil, err
	}
	ref := SplitRef{Dataset: dataset, Config: cfgName, Split: split}

	records := make([]item.Record, 0, n)
	for len(records) < n {
		page, err := c.Rows(ctx, ref, int64(len(records)), n-len(records))
		if err != nil {
			return nil, err
		}
		if len(page.Rows) == 0 {
			break
		}
		for _, row := range page.Rows {
			if len(row.TruncatedCells) > 0 {
				return nil, fmt.Errorf("%s row %d (%s): %w", ref, row.Index, strings.Join(row.TruncatedCells, ", "), ErrTruncatedRow)
			}
			records = append(records, row.Row)
		}
		if int64(len(records)) >= page.NumRowsTotal {
			break
		}
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := c.baseURL + path + "?" + query.Encode()

	c.log.DebugContext(ctx, "hub request", slog.String("path", path), slog.String("query", query.Encode()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		c.log.ErrorContext(ctx, "hub request failed", slog.String("path", path), slog.String("error", err.Error()))
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, errorMessage(body))
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, errorMessage(body))
	default:
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	c.log.DebugContext(ctx, "hub response", slog.String("path", path), slog.Int("status", resp.StatusCode), slog.Int("bytes", len(body)))
	return nil
}

// doWithRetry executes the request with a single retry on 5xx or network errors.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry {
		return resp, err
	}

	if ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil && resp != nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	c.log.WarnContext(ctx, "hub retry", slog.String("path", req.URL.Path), slog.String("reason", reason))

	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(500 * time.Millisecond):
	}

	return c.httpClient.Do(req)
}

func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessage {
		cut := maxErrorMessage
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}
