// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package rowenc

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/sql/sem/tree"
	"github.com/cockroachdb/rowscan/pkg/sql/types"
)

// ParseDatum parses the textual form of a value of type t. The literal NULL
// (case-insensitive) yields tree.DNull. BINARY values may be given as hex
// with a leading `\x`.
func ParseDatum(t *types.T, s string) (tree.Datum, error) {
	if strings.EqualFold(s, "NULL") {
		return tree.DNull, nil
	}
	switch t.Family() {
	case types.BytesFamily:
		if t.Identical(types.Binary) && strings.HasPrefix(s, `\x`) {
			b, err := hex.DecodeString(s[2:])
			if err != nil {
				return nil, errors.Wrapf(err, "could not parse %q as %s", s, errors.Safe(t.Name()))
			}
			return tree.NewDBytes(b), nil
		}
		return tree.NewDString(s), nil
	case types.IntFamily:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse %q as %s", s, errors.Safe(t.Name()))
		}
		return tree.NewDInt(i), nil
	default:
		return nil, errors.AssertionFailedf("unsupported family %s", t.Family())
	}
}

// FormatDatum renders d for display as a value of type t. It is the inverse
// of ParseDatum.
func FormatDatum(t *types.T, d tree.Datum) string {
	switch v := d.(type) {
	case *tree.DString:
		if t.Identical(types.Binary) {
			return `\x` + hex.EncodeToString([]byte(*v))
		}
		return string(*v)
	case *tree.DInt:
		return strconv.FormatInt(int64(*v), 10)
	default:
		return "NULL"
	}
}
