// Copyright 2017 BrightLocal Ltd. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package item

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

const indent = "  "

// MarshalIndent renders the record for human inspection: two-space indent,
// field order as received, non-ASCII and HTML characters left unescaped, no
// trailing newline.
func (r Record) MarshalIndent() ([]byte, error) {
	if r.raw == nil {
		return nil, ErrNotObject
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, canonical(r.raw), "", indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteIndented writes MarshalIndent output to w.
func (r Record) WriteIndented(w io.Writer) error {
	data, err := r.MarshalIndent()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// canonical re-encodes valid JSON compactly, resolving \u escapes in strings.
func canonical(raw []byte) []byte {
	return appendValue(make([]byte, 0, len(raw)), gjson.ParseBytes(raw))
}

func appendValue(dst []byte, v gjson.Result) []byte {
	switch v.Type {
	case gjson.String:
		return appendString(dst, v.String())
	case gjson.JSON:
		if v.IsArray() {
			dst = append(dst, '[')
			first := true
			v.ForEach(func(_, elem gjson.Result) bool {
				if !first {
					dst = append(dst, ',')
				}
				first = false
				dst = appendValue(dst, elem)
				return true
			})
			return append(dst, ']')
		}
		dst = append(dst, '{')
		first := true
		v.ForEach(func(key, val gjson.Result) bool {
			if !first {
				dst = append(dst, ',')
			}
			first = false
			dst = appendString(dst, key.String())
			dst = append(dst, ':')
			dst = appendValue(dst, val)
			return true
		})
		return append(dst, '}')
	default:
		// numbers, true, false, null
		return append(dst, v.Raw...)
	}
}

const hexDigits = "0123456789abcdef"

// appendString quotes s escaping only '"', '\\' and control characters, so
// U+2028, U+2029 and all other non-ASCII text stay literal.
func appendString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			dst = append(dst, '\\', c)
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if c < 0x20 {
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
				continue
			}
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}

// validStrings reports whether every key and string value in v decodes
// without loss: valid UTF-8 and no unpaired surrogate escapes.
func validStrings(v gjson.Result) bool {
	switch v.Type {
	case gjson.String:
		return validStringLiteral(v.Raw)
	case gjson.JSON:
		ok := true
		v.ForEach(func(key, val gjson.Result) bool {
			if key.Exists() && !validStringLiteral(key.Raw) {
				ok = false
				return false
			}
			ok = validStrings(val)
			return ok
		})
		return ok
	default:
		return true
	}
}

func validStringLiteral(lit string) bool {
	if !utf8.ValidString(lit) {
		return false
	}
	for i := 0; i < len(lit); i++ {
		if lit[i] != '\\' {
			continue
		}
		i++
		if i >= len(lit) || lit[i] != 'u' {
			continue
		}
		r, ok := hex4(lit, i+1)
		if !ok {
			return false
		}
		i += 4
		switch {
		case utf16.IsSurrogate(r) && r < 0xdc00:
			if i+6 >= len(lit) || lit[i+1] != '\\' || lit[i+2] != 'u' {
				return false
			}
			lo, ok := hex4(lit, i+3)
			if !ok || lo < 0xdc00 || lo > 0xdfff {
				return false
			}
			i += 6
		case utf16.IsSurrogate(r):
			return false
		}
	}
	return true
}

func hex4(s string, at int) (rune, bool) {
	if at+4 > len(s) {
		return 0, false
	}
	n, err := strconv.ParseUint(s[at:at+4], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}
