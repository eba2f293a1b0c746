// Copyright 2017 BrightLocal Ltd. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package item

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// ErrNotObject is returned when a row payload is not a JSON object.
var ErrNotObject = errors.New("record is not a JSON object")

// Record is one dataset row. The raw JSON is kept as received so field
// order and number text are preserved.
type Record struct {
	raw []byte
}

// NewRecord validates data as a JSON object and wraps a copy of it.
func NewRecord(data []byte) (Record, error) {
	if !gjson.ValidBytes(data) {
		return Record{}, fmt.Errorf("invalid JSON: %w", ErrNotObject)
	}
	v := gjson.ParseBytes(data)
	if !v.IsObject() {
		return Record{}, ErrNotObject
	}
	if !validStrings(v) {
		return Record{}, fmt.Errorf("unpaired surrogate or invalid UTF-8: %w", ErrNotObject)
	}
	raw := make([]byte, len(data))
	copy(raw, data)
	return Record{raw: raw}, nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	rec, err := NewRecord(data)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// MarshalJSON returns the compact form with string escapes resolved.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.raw == nil {
		return []byte("null"), nil
	}
	return canonical(r.raw), nil
}

// Get looks up a field using gjson path syntax.
func (r Record) Get(path string) gjson.Result {
	return gjson.GetBytes(r.raw, path)
}

// Raw returns the JSON bytes as received.
func (r Record) Raw() []byte {
	return r.raw
}

func (r Record) IsZero() bool {
	return r.raw == nil
}

func (r Record) String() string {
	if r.raw == nil {
		return "{}"
	}
	return string(canonical(r.raw))
}

// Row is the hub's envelope around a Record.
type Row struct {
	Index          int64    `json:"row_idx"`
	Row            Record   `json:"row"`
	TruncatedCells []string `json:"truncated_cells"`
}

// Line is one line of a dump file.
type Line struct {
	Dataset string `json:"dataset"`
	Config  string `json:"config"`
	Split   string `json:"split"`
	Index   int64  `json:"row_idx"`
	Row     Record `json:"row"`
}

// DocID returns the string value of idField in the row, falling back to the
// row's position in its split.
func (l Line) DocID(idField string) string {
	if idField != "" {
		if v := l.Row.Get(idField); v.Exists() && v.Type != gjson.Null && v.Type != gjson.JSON {
			return v.String()
		}
	}
	return l.Dataset + "/" + l.Config + "/" + l.Split + "/" + strconv.FormatInt(l.Index, 10)
}
