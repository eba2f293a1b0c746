// Copyright 2017 BrightLocal Ltd. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Hugging Face dataset sampler
// Example usage:
//
//	hf-sample                                             # first row of the default split -> sample_trace_row.json
//	hf-sample --dataset=org/name --split=test -o row.json # any other split
//	hf-sample dump --out=traces --records-per-file=10000  # whole split to traces.00000000.gz, ...
//	hf-sample restore --hosts=http://es:9200 --index=traces --files='traces.*.gz'
//
// Settings may also come from config.yaml, .env or the environment (HF_TOKEN, ES_HOSTS, ...).
package main

import "github.com/BrightLocal/HF-Sample/app/cmd"

var appVersion = "<none>"

func main() {
	cmd.Execute(appVersion)
}
