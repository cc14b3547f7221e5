// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// This is the entry point of the rowscan binary.
package main

import "github.com/cockroachdb/rowscan/pkg/cli"

func main() {
	cli.Main()
}
