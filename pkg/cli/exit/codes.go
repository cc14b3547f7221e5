// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package exit

// Success (0) represents a normal process termination.
func Success() Code { return Code{0} }

// UnspecifiedError (1) indicates the process has terminated with an
// error condition. The specific cause of the error can be found in
// the logging output.
func UnspecifiedError() Code { return Code{1} }

// Interrupted (3) indicates the process was interrupted with Ctrl+C /
// SIGINT.
func Interrupted() Code { return Code{3} }

// CommandLineFlagError (4) indicates there was an error in the
// command-line parameters or in the topology file.
func CommandLineFlagError() Code { return Code{4} }

// Codes that are specific to the scan commands follow.

// StoreUnavailable (10) indicates that a store could not be reached or
// failed to evaluate a request.
func StoreUnavailable() Code { return Code{10} }

// CorruptData (11) indicates that a store returned rows that could not be
// decoded with the requested columns.
func CorruptData() Code { return Code{11} }
