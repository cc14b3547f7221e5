// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvpb

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"github.com/gogo/protobuf/proto"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   Message
		out  Message
	}{
		{"KeyRange", &KeyRange{Start: []byte("a"), End: []byte("z")}, &KeyRange{}},
		{"SelectResponse", &SelectResponse{
			Chunks: []Chunk{{RowsData: []byte{1, 2, 3}}, {}, {RowsData: []byte{4}}},
		}, &SelectResponse{}},
		{"SelectResponseError", &SelectResponse{Error: "region epoch mismatch"}, &SelectResponse{}},
		{"CoprocessorRequest", &CoprocessorRequest{
			Context: &RegionContext{RegionID: 4, ConfVer: 1, Version: 9, StoreID: 2},
			Tp:      ReqTypeDAG,
			Data:    []byte("plan"),
			Ranges:  []KeyRange{{Start: []byte("a"), End: []byte("b")}, {Start: []byte("c")}},
		}, &CoprocessorRequest{}},
		{"DAGPlan", &DAGPlan{
			StartTS: 12,
			Executors: []Executor{{Tp: ExecTypeTableScan, TblScan: &TableScan{
				TableID: 5,
				Columns: []ColumnInfo{{ColumnID: 1, Tp: "BIGINT", PKHandle: true}, {ColumnID: 2, Tp: "VARCHAR"}},
				Desc:    true,
			}}},
			OutputOffsets: []uint32{1, 0},
		}, &DAGPlan{}},
		{"IndexScanExecutor", &Executor{Tp: ExecTypeIndexScan, IdxScan: &IndexScan{
			TableID: -1, IndexID: 3, Columns: []ColumnInfo{{ColumnID: -7}},
		}}, &Executor{}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b, err := tc.in.Marshal()
			require.NoError(t, err)
			require.Len(t, b, tc.in.Size())
			require.NoError(t, tc.out.Unmarshal(b))
			require.Equal(t, tc.in, tc.out)
		})
	}
}

func TestChunkWireLayout(t *testing.T) {
	// A response with an empty chunk still reports the chunk.
	resp := SelectResponse{Chunks: []Chunk{{}}}
	b, err := resp.Marshal()
	require.NoError(t, err)
	require.Equal(t, []byte{0x1a, 0x00}, b)

	// Unknown fields are skipped.
	b = append(b, proto.EncodeVarint(9<<3|proto.WireVarint)...)
	b = append(b, 0x05)
	var out SelectResponse
	require.NoError(t, out.Unmarshal(b))
	require.Len(t, out.Chunks, 1)
}

func TestUnmarshalCorrupt(t *testing.T) {
	for _, b := range [][]byte{
		{0x0a, 0x05, 'a'},
		{0x0a},
		{0x08, 0x01},
		{0x00},
		{0x0b},
	} {
		var kr KeyRange
		err := kr.Unmarshal(b)
		require.Error(t, err, "%x", b)
		require.True(t, errors.Is(err, ErrInvalidWire), "%x: %v", b, err)
	}
}

func TestBuildScan(t *testing.T) {
	req := &DAGRequest{
		StartTS: 7,
		TableScan: &TableScan{TableID: 5, Columns: []ColumnInfo{
			{ColumnID: 1, Tp: "BIGINT"}, {ColumnID: 2, Tp: "VARCHAR"},
		}},
		OutputOffsets: []uint32{1},
	}
	require.Equal(t, int64(5), req.TableID())

	b, err := req.BuildScan(false /* indexScan */)
	require.NoError(t, err)
	var plan DAGPlan
	require.NoError(t, plan.Unmarshal(b))
	e, err := plan.Scan()
	require.NoError(t, err)
	require.Equal(t, ExecTypeTableScan, e.Tp)
	require.Equal(t, req.TableScan, e.TblScan)
	require.Equal(t, []uint32{1}, plan.OutputOffsets)
	require.Equal(t, uint64(7), plan.StartTS)

	_, err = req.BuildScan(true /* indexScan */)
	require.Error(t, err)

	req.IndexScan = &IndexScan{TableID: 5, IndexID: 2}
	b, err = req.BuildScan(true /* indexScan */)
	require.NoError(t, err)
	require.NoError(t, plan.Unmarshal(b))
	e, err = plan.Scan()
	require.NoError(t, err)
	require.Equal(t, ExecTypeIndexScan, e.Tp)
	require.Equal(t, int64(2), e.IdxScan.IndexID)
	require.Empty(t, plan.OutputOffsets)
}

func TestClientInternalError(t *testing.T) {
	cause := errors.New("connection refused")
	err := errors.Wrap(NewClientInternalError(cause, "opening stream to s3"), "region 4")
	require.True(t, IsClientInternalError(err))
	require.True(t, errors.Is(err, cause))
	require.Equal(t, "region 4: client internal error: opening stream to s3: connection refused", err.Error())

	var cie *ClientInternalError
	require.True(t, errors.As(err, &cie))
	require.Equal(t, cause, cie.Unwrap())

	require.False(t, IsClientInternalError(cause))
}

func TestRegionContext(t *testing.T) {
	desc := &roachpb.RegionDescriptor{
		RegionID: 3, StoreID: 8, Epoch: roachpb.RegionEpoch{ConfVer: 2, Version: 5},
	}
	ctx := MakeRegionContext(desc)
	require.Equal(t, "r3@s8 (conf 2, v5)", ctx.String())
	kr := MakeKeyRange(roachpb.Span{Key: roachpb.Key("a")})
	require.Equal(t, `[‹"a"›, /Max)`, string(redact.Sprint(kr.Span())))
}

var (
	protoMessageRE = regexp.MustCompile(`^message (\w+) \{`)
	protoFieldRE   = regexp.MustCompile(`^\s+(?:repeated\s+)?\w+\s+\w+\s*=\s*(\d+)`)
)

// declaredFields returns the field numbers of every message in api.proto.
func declaredFields(t *testing.T) map[string][]int {
	data, err := os.ReadFile("api.proto")
	require.NoError(t, err)
	fields := map[string][]int{}
	var msg string
	for _, line := range strings.Split(string(data), "\n") {
		if m := protoMessageRE.FindStringSubmatch(line); m != nil {
			msg = m[1]
			fields[msg] = nil
			continue
		}
		if line == "}" {
			msg = ""
			continue
		}
		if m := protoFieldRE.FindStringSubmatch(line); m != nil && msg != "" {
			n, err := strconv.Atoi(m[1])
			require.NoError(t, err)
			fields[msg] = append(fields[msg], n)
		}
	}
	return fields
}

// encodedFields returns the distinct top-level field numbers in the
// encodings of msgs.
func encodedFields(t *testing.T, msgs ...Message) []int {
	seen := map[int]bool{}
	var out []int
	for _, m := range msgs {
		data, err := m.Marshal()
		require.NoError(t, err)
		r := wireReader{b: data}
		for !r.done() {
			field, wt, err := r.tag()
			require.NoError(t, err)
			require.NoError(t, r.skip(wt))
			if !seen[field] {
				seen[field] = true
				out = append(out, field)
			}
		}
	}
	return out
}

func TestWireMatchesProtoDefinitions(t *testing.T) {
	declared := declaredFields(t)
	cols := []ColumnInfo{{ColumnID: 1, Tp: "BIGINT", PKHandle: true}}
	for name, msgs := range map[string][]Message{
		"KeyRange":       {&KeyRange{Start: []byte("a"), End: []byte("b")}},
		"Chunk":          {&Chunk{RowsData: []byte{1}}},
		"SelectResponse": {&SelectResponse{Error: "boom", Chunks: []Chunk{{RowsData: []byte{1}}}}},
		"RegionContext":  {&RegionContext{RegionID: 1, ConfVer: 2, Version: 3, StoreID: 4}},
		"CoprocessorRequest": {&CoprocessorRequest{
			Context: &RegionContext{RegionID: 1},
			Tp:      ReqTypeDAG,
			Data:    []byte("plan"),
			Ranges:  []KeyRange{{Start: []byte("a")}},
		}},
		"ColumnInfo": {&cols[0]},
		"Executor": {
			&Executor{Tp: ExecTypeIndexScan, IdxScan: &IndexScan{TableID: 1, IndexID: 1, Columns: cols}},
			&Executor{Tp: ExecTypeTableScan, TblScan: &TableScan{TableID: 1, Columns: cols}},
		},
		"DAGPlan": {&DAGPlan{
			StartTS:       1,
			Executors:     []Executor{{Tp: ExecTypeTableScan, TblScan: &TableScan{TableID: 1, Columns: cols}}},
			OutputOffsets: []uint32{0},
		}},
	} {
		t.Run(name, func(t *testing.T) {
			require.Contains(t, declared, name)
			require.ElementsMatch(t, declared[name], encodedFields(t, msgs...))
		})
	}
}
