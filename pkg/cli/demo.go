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

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/kv/kvclient/kvcoord"
	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"github.com/cockroachdb/rowscan/pkg/sql/row"
	"github.com/cockroachdb/rowscan/pkg/sql/sem/tree"
	"github.com/cockroachdb/rowscan/pkg/sql/types"
	"github.com/cockroachdb/rowscan/pkg/testutils/teststore"
	"github.com/cockroachdb/rowscan/pkg/util/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const demoTableID = 53

// demoColumns are the stored columns of the demo table.
var demoColumns = []*types.T{types.Varchar, types.Int}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "scan a generated table served by an in-memory store",
	Long: `
Starts an in-memory store on a local port, loads it with generated rows split
into regions, and scans the table through it as the scan command would.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDemo(cmd.Context(), cmd.OutOrStdout())
	},
}

func runDemo(ctx context.Context, out io.Writer) error {
	if demoCtx.rows < 0 || demoCtx.regions <= 0 {
		return markCommandLine(errors.Newf("invalid demo size: %d rows in %d regions",
			demoCtx.rows, demoCtx.regions))
	}
	store, err := teststore.New(1, teststore.Knobs{RowsPerChunk: demoCtx.rowsPerChunk})
	if err != nil {
		return err
	}
	for h := 0; h < demoCtx.rows; h++ {
		r := row.Row{tree.NewDString(fmt.Sprintf("row-%d", h)), tree.NewDInt(int64(h * h))}
		if err := store.LoadRow(demoTableID, int64(h), demoColumns, r); err != nil {
			return errors.CombineErrors(err, store.Stop())
		}
	}
	if demoCtx.dropRegion != 0 {
		store.DropStream(roachpb.RegionID(demoCtx.dropRegion))
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return errors.CombineErrors(err, store.Stop())
	}
	topo := demoTopology(ln.Addr().String())
	splitter, err := topo.rangeSplitter(ctx, demoTableID)
	if err != nil {
		return errors.CombineErrors(err, store.Stop())
	}
	log.Infof(ctx, "demo store serving %d rows in %d regions at %s",
		demoCtx.rows, len(topo.Regions), ln.Addr())

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return store.Serve(ln)
	})
	g.Go(func() error {
		err := runScan(gCtx, scanParams{
			tableID:  demoTableID,
			columns:  demoColumns,
			splitter: splitter,
			resolver: kvcoord.AddressResolver(topo.storeDescStore()),
		}, out)
		return errors.CombineErrors(err, store.Stop())
	})
	return g.Wait()
}

// demoTopology splits the demo table into demoCtx.regions regions of equal
// handle width, all served by the store at addr.
func demoTopology(addr string) *topology {
	t := &topology{Stores: []storeConfig{{ID: 1, Address: addr}}}
	width := int64(demoCtx.rows) / int64(demoCtx.regions)
	if width == 0 {
		width = 1
	}
	var start *int64
	for i := 0; i < demoCtx.regions; i++ {
		r := regionConfig{ID: uint64(i + 1), StartHandle: start, StoreID: 1, Version: 1}
		if i < demoCtx.regions-1 {
			end := int64(i+1) * width
			r.EndHandle = &end
			start = &end
		}
		t.Regions = append(t.Regions, r)
	}
	return t
}
