// Copyright 2017 BrightLocal Ltd. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hub

import (
	"encoding/json"

	"github.com/BrightLocal/HF-Sample/app/item"
)

// SplitRef addresses one split of one dataset config.
type SplitRef struct {
	Dataset string
	Config  string
	Split   string
}

func (r SplitRef) String() string {
	return r.Dataset + "/" + r.Config + "/" + r.Split
}

// Split is one entry of the /splits response.
type Split struct {
	Dataset string `json:"dataset"`
	Config  string `json:"config"`
	Split   string `json:"split"`
}

type splitsResponse struct {
	Splits []Split `json:"splits"`
}

// Feature describes one column of a split.
type Feature struct {
	Index int             `json:"feature_idx"`
	Name  string          `json:"name"`
	Type  json.RawMessage `json:"type"`
}

// RowsPage is one page of the /rows response.
type RowsPage struct {
	Features       []Feature  `json:"features"`
	Rows           []item.Row `json:"rows"`
	NumRowsTotal   int64      `json:"num_rows_total"`
	NumRowsPerPage int        `json:"num_rows_per_page"`
	Partial        bool       `json:"partial"`
}

type errorResponse struct {
	Error string `json:"error"`
}
