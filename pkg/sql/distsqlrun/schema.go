// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package distsqlrun

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/kv/kvpb"
	"github.com/cockroachdb/rowscan/pkg/sql/types"
)

// HandleSchema is the row schema of index scans: a single integer handle.
var HandleSchema = []*types.T{types.Int}

// SchemaInfer derives the schema of the rows a table scan returns: the
// scanned columns, restricted to the request's output offsets when there
// are any.
func SchemaInfer(req *kvpb.DAGRequest) ([]*types.T, error) {
	if req.TableScan == nil {
		return nil, errors.New("cannot infer schema of a request without a table scan")
	}
	cols := req.TableScan.Columns
	if len(cols) == 0 {
		return nil, errors.New("cannot infer schema of a table scan without columns")
	}
	all := make([]*types.T, len(cols))
	for i := range cols {
		t, err := types.Parse(cols[i].Tp)
		if err != nil {
			return nil, errors.Wrapf(err, "column %d", cols[i].ColumnID)
		}
		all[i] = t
	}
	if len(req.OutputOffsets) == 0 {
		return all, nil
	}
	schema := make([]*types.T, len(req.OutputOffsets))
	for i, off := range req.OutputOffsets {
		if int(off) >= len(all) {
			return nil, errors.Newf("output offset %d out of range: table scan has %d columns", off, len(all))
		}
		schema[i] = all[off]
	}
	return schema, nil
}
