// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package types describes the column types understood by the row codec.
//
// A *T is a closed tagged variant: every type belongs to exactly one Family,
// and the family alone decides how values are encoded on the wire. Several
// named types may share a family (VARCHAR, BINARY and CHAR are all byte
// strings) and differ only in presentation.
package types

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Family identifies the wire representation shared by a group of types.
type Family int32

const (
	// UnknownFamily is the zero value and is never a valid column family.
	UnknownFamily Family = iota
	// BytesFamily holds arbitrary byte strings ordered lexicographically.
	BytesFamily
	// IntFamily holds signed 64-bit integers ordered numerically.
	IntFamily
)

func (f Family) String() string {
	switch f {
	case BytesFamily:
		return "BytesFamily"
	case IntFamily:
		return "IntFamily"
	default:
		return fmt.Sprintf("Family(%d)", int32(f))
	}
}

// T is a column type. Values of T are immutable and compared by identity of
// their family and name.
type T struct {
	family Family
	name   string
}

var (
	// Varchar is a variable-length byte string.
	Varchar = &T{family: BytesFamily, name: "VARCHAR"}
	// Binary is a raw byte string.
	Binary = &T{family: BytesFamily, name: "BINARY"}
	// Char is a fixed-width byte string. Width is not enforced by the codec.
	Char = &T{family: BytesFamily, name: "CHAR"}
	// Int is a signed 64-bit integer.
	Int = &T{family: IntFamily, name: "BIGINT"}
)

// Scalar lists every named type, in the order they are reported by the CLI.
var Scalar = []*T{Varchar, Binary, Char, Int}

// Family returns the wire family of the type.
func (t *T) Family() Family { return t.family }

// Name returns the SQL name of the type.
func (t *T) Name() string { return t.name }

func (t *T) String() string { return t.name }

// Equivalent returns true if values of the two types share an encoding.
func (t *T) Equivalent(other *T) bool {
	return t.family == other.family
}

// Identical returns true if the two types are the same named type.
func (t *T) Identical(other *T) bool {
	return t.family == other.family && t.name == other.name
}

var typeAliases = map[string]*T{
	"varchar": Varchar,
	"string":  Varchar,
	"text":    Varchar,
	"bytes":   Binary,
	"binary":  Binary,
	"blob":    Binary,
	"char":    Char,
	"int":     Int,
	"int8":    Int,
	"bigint":  Int,
}

// Parse resolves a type name such as "varchar" or "int" to its *T. Names
// are case-insensitive.
func Parse(name string) (*T, error) {
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	return nil, errors.Newf("unknown column type %q", name)
}

// ParseList resolves a comma-separated list of type names.
func ParseList(s string) ([]*T, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	res := make([]*T, 0, len(parts))
	for _, p := range parts {
		t, err := Parse(p)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}
