// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/rowscan/pkg/keys"
	"github.com/cockroachdb/rowscan/pkg/kv/kvclient/kvcoord"
	"github.com/cockroachdb/rowscan/pkg/kv/kvpb"
	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"github.com/cockroachdb/rowscan/pkg/rpc"
	"github.com/cockroachdb/rowscan/pkg/rpc/nodedialer"
	"github.com/cockroachdb/rowscan/pkg/sql/distsqlrun"
	"github.com/cockroachdb/rowscan/pkg/sql/types"
	"github.com/cockroachdb/rowscan/pkg/util/log"
	"github.com/cockroachdb/rowscan/pkg/util/metric"
	"github.com/cockroachdb/rowscan/pkg/util/timeutil"
	"github.com/cockroachdb/rowscan/pkg/util/tracing"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var scanCmd = &cobra.Command{
	Use:   "scan --topology <file> --table <id> --columns <types>",
	Short: "scan the rows of a table",
	Long: `
Reads the rows of a table from the stores listed in the topology file and
prints them, one region after the other, in key order within each region.
`,
	Args: cobra.NoArgs,
	RunE: runScanCmd,
}

func runScanCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if scanCtx.tableID <= 0 {
		return markCommandLine(errors.Newf("invalid table ID %d", scanCtx.tableID))
	}
	columns, err := types.ParseList(scanCtx.columns)
	if err != nil {
		return markCommandLine(err)
	}
	topo, err := loadTopologyFile(scanCtx.topologyFile)
	if err != nil {
		return markCommandLine(err)
	}
	tableID := int64(scanCtx.tableID)
	splitter, err := topo.rangeSplitter(ctx, tableID)
	if err != nil {
		return markCommandLine(err)
	}
	return runScan(ctx, scanParams{
		tableID:  tableID,
		columns:  columns,
		splitter: splitter,
		resolver: kvcoord.AddressResolver(topo.storeDescStore()),
	}, cmd.OutOrStdout())
}

// scanParams describes one scan run by the scan or demo command.
type scanParams struct {
	tableID int64
	// columns are the types of the columns stored in row values.
	columns  []*types.T
	splitter *kvcoord.RangeSplitter
	resolver nodedialer.AddressResolver
	// dialer, if set, replaces TCP connections to stores.
	dialer func(context.Context, string) (net.Conn, error)
}

// scanSpan returns the key span selected by the handle bounds flags.
func scanSpan(tableID int64) (roachpb.Span, error) {
	span := keys.TableRecordSpan(tableID)
	if scanCtx.startHandle.set {
		span.Key = keys.MakeRowKey(tableID, scanCtx.startHandle.val).Key()
	}
	if scanCtx.endHandle.set {
		span.EndKey = keys.MakeRowKey(tableID, scanCtx.endHandle.val).Key().Next()
	}
	if !span.Valid() {
		return roachpb.Span{}, markCommandLine(errors.Newf("empty handle range [%d, %d]",
			scanCtx.startHandle.val, scanCtx.endHandle.val))
	}
	return span, nil
}

// makeRequest returns the request reading the handle column followed by the
// stored columns, and the names of the returned columns.
func makeRequest(p scanParams, span roachpb.Span) (*kvpb.DAGRequest, []string) {
	cols := []kvpb.ColumnInfo{{ColumnID: 1, Tp: types.Int.Name(), PKHandle: true}}
	names := []string{"handle"}
	for i, t := range p.columns {
		id := int64(i + 2)
		cols = append(cols, kvpb.ColumnInfo{ColumnID: id, Tp: t.Name()})
		names = append(names, fmt.Sprintf("c%d", id))
	}
	req := &kvpb.DAGRequest{
		StartTS:   uint64(timeutil.Now().UnixNano()),
		TableScan: &kvpb.TableScan{TableID: p.tableID, Columns: cols, Desc: scanCtx.desc},
		IndexScan: &kvpb.IndexScan{TableID: p.tableID, IndexID: 1, Columns: cols[:1], Desc: scanCtx.desc},
		Ranges:    []kvpb.KeyRange{kvpb.MakeKeyRange(span)},
	}
	if scanCtx.indexScan {
		names = names[:1]
	}
	return req, names
}

// runScan runs the scan described by p and the scan flags, printing the
// rows to out.
func runScan(ctx context.Context, p scanParams, out io.Writer) (retErr error) {
	ctx = logtags.AddTag(ctx, "t", p.tableID)
	span, err := scanSpan(p.tableID)
	if err != nil {
		return err
	}
	req, names := makeRequest(p, span)

	rpcCtx := rpc.NewContext(rpc.Config{
		Compression:    cliCtx.compression,
		ConnectTimeout: cliCtx.connectTimeout,
		ContextDialer:  p.dialer,
	})
	defer func() {
		retErr = errors.CombineErrors(retErr, rpcCtx.Close())
	}()

	iterMetrics := distsqlrun.MakeDAGIteratorMetrics()
	registry := metric.NewRegistry()
	if err := registry.AddMetricStruct(rpcCtx.Metrics()); err != nil {
		return err
	}
	if err := registry.AddMetricStruct(&iterMetrics); err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	stopMetrics, err := startMetricsServer(gCtx, g, registry)
	if err != nil {
		return err
	}
	g.Go(func() error {
		defer stopMetrics()
		return scanAndPrint(gCtx, p, req, names, &iterMetrics, rpcCtx, out)
	})
	return g.Wait()
}

func scanAndPrint(
	ctx context.Context,
	p scanParams,
	req *kvpb.DAGRequest,
	names []string,
	iterMetrics *distsqlrun.DAGIteratorMetrics,
	rpcCtx *rpc.Context,
	out io.Writer,
) (retErr error) {
	ctx, sp := tracing.ChildSpan(ctx, "rowscan scan")
	defer func() { tracing.FinishSpan(sp, retErr) }()

	factory := kvcoord.NewGRPCStoreClientFactory(nodedialer.New(rpcCtx, p.resolver))
	it, err := distsqlrun.NewDAGIteratorForRanges(ctx, distsqlrun.DAGIteratorConfig{
		StoreClientFactory: factory,
		Metrics:            iterMetrics,
	}, req, p.splitter, scanCtx.indexScan)
	if err != nil {
		return err
	}
	defer it.Close()

	start := timeutil.Now()
	rows := &iterRows{ctx: ctx, it: it, every: log.Every(time.Second)}
	n, err := printQueryOutput(out, names, rows, scanCtx.format)
	if err != nil {
		return err
	}
	log.Infof(ctx, "scanned %s rows from %d regions in %s",
		redact.SafeString(humanize.Comma(int64(n))), redact.Safe(iterMetrics.Tasks.Count()),
		redact.Safe(timeutil.Since(start)))
	return nil
}

// iterRows adapts a DAGIterator to the rowStrIter interface.
type iterRows struct {
	ctx   context.Context
	it    *distsqlrun.DAGIterator
	n     int
	every *log.EveryN
}

func (r *iterRows) Next() ([]string, error) {
	ok, err := r.it.HasNext(r.ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.EOF
	}
	row, err := r.it.Next(r.ctx)
	if err != nil {
		return nil, err
	}
	r.n++
	if r.every.ShouldLog() {
		log.Infof(r.ctx, "scanned %s rows", redact.SafeString(humanize.Comma(int64(r.n))))
	}
	return row.Format(r.it.Schema()), nil
}

// startMetricsServer serves the registry at /metrics on --metrics-addr, if
// set, as part of g. The returned function stops the server.
func startMetricsServer(
	ctx context.Context, g *errgroup.Group, registry *metric.Registry,
) (stop func(), _ error) {
	if cliCtx.metricsAddr == "" {
		return func() {}, nil
	}
	ln, err := net.Listen("tcp", cliCtx.metricsAddr)
	if err != nil {
		return nil, markCommandLine(errors.Wrap(err, "listening for metrics"))
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	srv := &http.Server{Handler: mux}
	log.Infof(ctx, "serving metrics on http://%s/metrics", ln.Addr())
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serving metrics")
		}
		return nil
	})
	return func() { _ = srv.Close() }, nil
}
