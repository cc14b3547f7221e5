// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package tree

import (
	"bytes"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/sql/types"
)

// Datum represents a decoded column value.
type Datum interface {
	// Family returns the wire family of the value, or UnknownFamily for NULL.
	Family() types.Family
	// Compare returns -1, 0 or +1 depending on whether the receiver sorts
	// before, together with or after other. NULL sorts before every value.
	// Comparing values of different families is an assertion failure.
	Compare(other Datum) (int, error)
	// String returns a human-readable rendering of the value.
	String() string
}

// Datums is a slice of Datum values.
type Datums []Datum

func (d Datums) String() string {
	var buf bytes.Buffer
	buf.WriteByte('(')
	for i, v := range d {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(v.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

// DString is a byte-string value. It is used for every type in the bytes
// family; the column type decides whether the value is rendered as text.
type DString string

// NewDString is a helper routine to create a *DString initialized from s.
func NewDString(s string) *DString {
	d := DString(s)
	return &d
}

// NewDBytes is a helper routine to create a *DString from a byte slice. The
// bytes are copied.
func NewDBytes(b []byte) *DString {
	return NewDString(string(b))
}

// Family implements the Datum interface.
func (*DString) Family() types.Family { return types.BytesFamily }

// Compare implements the Datum interface.
func (d *DString) Compare(other Datum) (int, error) {
	if other == DNull {
		return 1, nil
	}
	o, ok := other.(*DString)
	if !ok {
		return 0, makeUnsupportedComparisonError(d, other)
	}
	switch {
	case *d < *o:
		return -1, nil
	case *d > *o:
		return 1, nil
	default:
		return 0, nil
	}
}

func (d *DString) String() string { return strconv.Quote(string(*d)) }

// DInt is a signed 64-bit integer value.
type DInt int64

// NewDInt is a helper routine to create a *DInt initialized from i.
func NewDInt(i int64) *DInt {
	d := DInt(i)
	return &d
}

// Family implements the Datum interface.
func (*DInt) Family() types.Family { return types.IntFamily }

// Compare implements the Datum interface.
func (d *DInt) Compare(other Datum) (int, error) {
	if other == DNull {
		return 1, nil
	}
	o, ok := other.(*DInt)
	if !ok {
		return 0, makeUnsupportedComparisonError(d, other)
	}
	switch {
	case *d < *o:
		return -1, nil
	case *d > *o:
		return 1, nil
	default:
		return 0, nil
	}
}

func (d *DInt) String() string { return strconv.FormatInt(int64(*d), 10) }

type dNull struct{}

// DNull is the NULL Datum.
var DNull Datum = dNull{}

// Family implements the Datum interface.
func (dNull) Family() types.Family { return types.UnknownFamily }

// Compare implements the Datum interface.
func (dNull) Compare(other Datum) (int, error) {
	if other == DNull {
		return 0, nil
	}
	return -1, nil
}

func (dNull) String() string { return "NULL" }

func makeUnsupportedComparisonError(d1, d2 Datum) error {
	return errors.AssertionFailedf("unsupported comparison: %s to %s",
		errors.Safe(d1.Family()), errors.Safe(d2.Family()))
}
