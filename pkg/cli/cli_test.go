// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/cli/exit"
	"github.com/cockroachdb/rowscan/pkg/keys"
	"github.com/cockroachdb/rowscan/pkg/kv/kvpb"
	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"github.com/cockroachdb/rowscan/pkg/sql/row"
	"github.com/cockroachdb/rowscan/pkg/sql/sem/tree"
	"github.com/cockroachdb/rowscan/pkg/sql/types"
	"github.com/cockroachdb/rowscan/pkg/testutils/teststore"
	"github.com/cockroachdb/rowscan/pkg/util/encoding"
	"github.com/stretchr/testify/require"
)

// runCLI runs the command line and returns what it printed to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	initCLIDefaults()
	var out bytes.Buffer
	defer func(o, e io.Writer) { stdout, stderr = o, e }(stdout, stderr)
	stdout, stderr = &out, io.Discard
	err := Run(context.Background(), args)
	return out.String(), err
}

func TestParseTopology(t *testing.T) {
	topo, err := parseTopology(strings.NewReader(`
stores:
  - id: 1
    address: localhost:1
  - id: 2
    address: localhost:2
regions:
  - id: 7
    start_handle: 100
    store_id: 2
    version: 3
  - id: 5
    end_handle: 100
    store_id: 1
`))
	require.NoError(t, err)

	descs := topo.regionDescriptors(9)
	require.Len(t, descs, 2)
	require.Equal(t, roachpb.RegionID(5), descs[0].RegionID)
	require.Empty(t, descs[0].StartKey)
	require.Equal(t, keys.MakeRowKey(9, 100).Key(), descs[0].EndKey)
	require.Equal(t, roachpb.RegionID(7), descs[1].RegionID)
	require.Equal(t, keys.MakeRowKey(9, 100).Key(), descs[1].StartKey)
	require.Empty(t, descs[1].EndKey)
	require.Equal(t, uint64(3), descs[1].Epoch.Version)

	splitter, err := topo.rangeSplitter(context.Background(), 9)
	require.NoError(t, err)
	tasks, err := splitter.SplitRangeByRegion(context.Background(),
		[]kvpb.KeyRange{kvpb.MakeKeyRange(keys.TableRecordSpan(9))})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, "localhost:1", tasks[0].Store.Address)
	require.Equal(t, "localhost:2", tasks[1].Store.Address)
}

func TestParseTopologyErrors(t *testing.T) {
	testCases := []struct {
		name, yaml, expected string
	}{
		{"no stores", `regions: [{id: 1, store_id: 1}]`, "no stores"},
		{"no regions", `stores: [{id: 1, address: a}]`, "no regions"},
		{"unknown field", `stores: [{id: 1, addr: a}]`, "field addr not found"},
		{"no address", `stores: [{id: 1}]`, "has no address"},
		{"duplicate store", `stores: [{id: 1, address: a}, {id: 1, address: b}]`, "duplicate store s1"},
		{"unknown store", `
stores: [{id: 1, address: a}]
regions: [{id: 1, store_id: 2}]`, "unknown store s2"},
		{"duplicate region", `
stores: [{id: 1, address: a}]
regions: [{id: 1, store_id: 1, end_handle: 5}, {id: 1, store_id: 1, start_handle: 5}]`, "duplicate region r1"},
		{"empty region", `
stores: [{id: 1, address: a}]
regions: [{id: 1, store_id: 1, start_handle: 5, end_handle: 5}]`, "region r1 is empty"},
	}
	for _, c := range testCases {
		t.Run(c.name, func(t *testing.T) {
			_, err := parseTopology(strings.NewReader(c.yaml))
			require.ErrorContains(t, err, c.expected)
		})
	}

	topo, err := parseTopology(strings.NewReader(`
stores: [{id: 1, address: a}]
regions: [{id: 1, store_id: 1, end_handle: 10}, {id: 2, store_id: 1, start_handle: 5}]`))
	require.NoError(t, err)
	_, err = topo.rangeSplitter(context.Background(), 1)
	require.ErrorContains(t, err, "regions r1 and r2 overlap")
}

func TestPrintQueryOutput(t *testing.T) {
	cols := []string{"handle", "c2"}
	rows := func() [][]string {
		return [][]string{{"1", "a"}, {"2", "b\tc"}}
	}
	testCases := []struct {
		format   tableDisplayFormat
		expected string
	}{
		{tableDisplayCSV, "handle,c2\n1,a\n2,b\tc\n"},
		{tableDisplayTSV, "handle\tc2\n1\ta\n2\t\"b\tc\"\n"},
		{tableDisplayRecords, `-[ RECORD 1 ]
handle | 1
c2     | a
-[ RECORD 2 ]
handle | 2
c2     | b	c
`},
	}
	for _, c := range testCases {
		t.Run(c.format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			n, err := printQueryOutput(&buf, cols, newRowSliceIter(rows()), c.format)
			require.NoError(t, err)
			require.Equal(t, 2, n)
			require.Equal(t, c.expected, buf.String())
		})
	}

	var buf bytes.Buffer
	n, err := printQueryOutput(&buf, cols, newRowSliceIter(rows()), tableDisplayTable)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Contains(t, buf.String(), "handle")
	require.Contains(t, buf.String(), "b       c")
	require.True(t, strings.HasSuffix(buf.String(), "(2 rows)\n"), buf.String())
}

type failingIter struct{ rowSliceIter }

func (f *failingIter) Next() ([]string, error) {
	row, err := f.rowSliceIter.Next()
	if err == io.EOF {
		return nil, errors.New("store went away")
	}
	return row, err
}

func TestPrintQueryOutputError(t *testing.T) {
	for _, format := range []tableDisplayFormat{
		tableDisplayTable, tableDisplayTSV, tableDisplayCSV, tableDisplayRecords,
	} {
		var buf bytes.Buffer
		it := &failingIter{rowSliceIter{allRows: [][]string{{"1"}}}}
		n, err := printQueryOutput(&buf, []string{"handle"}, it, format)
		require.ErrorContains(t, err, "store went away")
		require.Equal(t, 1, n)
		require.Contains(t, buf.String(), "1")
	}
}

func TestTableDisplayFormatFlag(t *testing.T) {
	var f tableDisplayFormat
	require.NoError(t, f.Set("records"))
	require.Equal(t, tableDisplayRecords, f)
	require.Equal(t, "records", f.String())
	require.ErrorContains(t, f.Set("html"), "invalid table display format")

	var h handleBound
	require.Equal(t, "", h.String())
	require.NoError(t, h.Set("-5"))
	require.Equal(t, handleBound{set: true, val: -5}, h)
	require.Error(t, h.Set("x"))
}

func TestDemo(t *testing.T) {
	out, err := runCLI(t, "demo", "--rows", "7", "--regions", "3", "--rows-per-chunk", "2", "--format", "csv")
	require.NoError(t, err)
	var expected strings.Builder
	expected.WriteString("handle,c2,c3\n")
	for h := 0; h < 7; h++ {
		fmt.Fprintf(&expected, "%d,row-%d,%d\n", h, h, h*h)
	}
	require.Equal(t, expected.String(), out)

	out, err = runCLI(t, "demo", "--rows", "7", "--regions", "3", "--format", "tsv",
		"--index-scan", "--start-handle", "1", "--end-handle", "4")
	require.NoError(t, err)
	require.Equal(t, "handle\n1\n2\n3\n4\n", out)

	// Regions are [-inf, 2), [2, 4) and [4, +inf). Without a stream for the
	// second region the scan ends after the first.
	out, err = runCLI(t, "demo", "--rows", "7", "--regions", "3", "--format", "csv",
		"--drop-region", "2", "--compression")
	require.NoError(t, err)
	require.Equal(t, "handle,c2,c3\n0,row-0,0\n1,row-1,1\n", out)
}

func TestScanCommand(t *testing.T) {
	const tableID = 9
	store, err := teststore.New(1, teststore.Knobs{})
	require.NoError(t, err)
	for h := int64(0); h < 4; h++ {
		require.NoError(t, store.LoadRow(tableID, h, []*types.T{types.Binary},
			row.Row{tree.NewDBytes([]byte{byte(h)})}))
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = store.Serve(ln) }()
	defer func() { require.NoError(t, store.Stop()) }()

	topoFile := filepath.Join(t.TempDir(), "topology.yaml")
	require.NoError(t, os.WriteFile(topoFile, []byte(fmt.Sprintf(`
stores:
  - id: 1
    address: %s
regions:
  - id: 1
    end_handle: 2
    store_id: 1
  - id: 2
    start_handle: 2
    store_id: 1
`, ln.Addr())), 0644))

	out, err := runCLI(t, "scan", "--topology", topoFile, "--table", "9", "--columns", "bytes",
		"--format", "records", "--desc")
	require.NoError(t, err)
	require.Equal(t, `-[ RECORD 1 ]
handle | 1
c2     | \x01
-[ RECORD 2 ]
handle | 0
c2     | \x00
-[ RECORD 3 ]
handle | 3
c2     | \x03
-[ RECORD 4 ]
handle | 2
c2     | \x02
`, out)

	// Reading the bytes column as an integer fails on the store.
	_, err = runCLI(t, "scan", "--topology", topoFile, "--table", "9", "--columns", "int")
	require.True(t, kvpb.IsClientInternalError(err), "%v", err)
	require.Equal(t, exit.StoreUnavailable(), errorCode(context.Background(), err))

	_, err = runCLI(t, "scan", "--topology", topoFile, "--table", "9", "--columns", "decimal")
	require.True(t, errors.Is(err, errCommandLine), "%v", err)

	_, err = runCLI(t, "scan", "--topology", filepath.Join(t.TempDir(), "missing.yaml"), "--table", "9")
	require.Equal(t, exit.CommandLineFlagError(), errorCode(context.Background(), err))

	_, err = runCLI(t, "scan", "--topology", topoFile, "--table", "9",
		"--start-handle", "3", "--end-handle", "1")
	require.ErrorContains(t, err, "empty handle range")
}

func TestCommandLineErrors(t *testing.T) {
	_, err := runCLI(t, "demo", "--format", "html")
	require.True(t, errors.Is(err, errCommandLine), "%v", err)

	_, err = runCLI(t, "demo", "--log-format", "xml")
	require.Equal(t, exit.CommandLineFlagError(), errorCode(context.Background(), err))

	_, err = runCLI(t, "demo", "--regions", "0")
	require.ErrorContains(t, err, "invalid demo size")
}

func TestErrorCode(t *testing.T) {
	ctx := context.Background()
	canceled, cancel := context.WithCancel(ctx)
	cancel()

	require.Equal(t, exit.Interrupted(), errorCode(canceled, errors.Wrap(context.Canceled, "scan")))
	require.Equal(t, exit.UnspecifiedError(), errorCode(ctx, errors.Wrap(context.Canceled, "scan")))
	require.Equal(t, exit.Interrupted(), errorCode(canceled,
		kvpb.NewClientInternalError(context.Canceled, "receiving from r1 on s1")))
	require.Equal(t, exit.CorruptData(), errorCode(ctx,
		errors.Wrap(errors.Mark(errors.New("short row"), encoding.ErrCorrupt), "reading row")))
	require.Equal(t, exit.StoreUnavailable(), errorCode(ctx,
		kvpb.NewClientInternalError(errors.New("connection refused"), "dialing s1")))
	require.Equal(t, exit.UnspecifiedError(), errorCode(ctx, errors.New("boom")))
}
