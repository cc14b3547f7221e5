// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvpb

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// ClientInternalError is returned when the client fails to talk to a store:
// the stream could not be opened or closed, or the store reported an
// evaluation error. It is fatal to the region task that produced it.
type ClientInternalError struct {
	Msg   redact.RedactableString
	Cause error
}

// NewClientInternalError wraps cause. msg describes the failed operation
// and is considered safe for logging.
func NewClientInternalError(cause error, msg string) *ClientInternalError {
	return &ClientInternalError{Msg: redact.Sprint(redact.SafeString(msg)), Cause: cause}
}

func (e *ClientInternalError) Error() string { return fmt.Sprint(e) }

// Unwrap returns the cause.
func (e *ClientInternalError) Unwrap() error { return e.Cause }

// SafeFormatError implements errors.SafeFormatter.
func (e *ClientInternalError) SafeFormatError(p errors.Printer) (next error) {
	p.Printf("client internal error: %s", e.Msg)
	return e.Cause
}

// Format implements fmt.Formatter.
func (e *ClientInternalError) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

// IsClientInternalError returns true if err is or wraps a
// ClientInternalError.
func IsClientInternalError(err error) bool {
	return errors.HasType(err, (*ClientInternalError)(nil))
}

var _ errors.SafeFormatter = (*ClientInternalError)(nil)
