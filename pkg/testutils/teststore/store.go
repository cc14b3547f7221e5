// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package teststore provides an in-memory store that serves the coprocessor
// streaming API. It is meant for tests and demos: rows are loaded directly
// into its engine and every scan reads the latest version.
package teststore

import (
	"context"
	"net"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/cockroachdb/rowscan/pkg/keys"
	"github.com/cockroachdb/rowscan/pkg/kv/kvpb"
	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"github.com/cockroachdb/rowscan/pkg/rpc"
	"github.com/cockroachdb/rowscan/pkg/sql/row"
	"github.com/cockroachdb/rowscan/pkg/sql/sem/tree"
	"github.com/cockroachdb/rowscan/pkg/sql/types"
	"github.com/cockroachdb/rowscan/pkg/util/log"
	"github.com/cockroachdb/rowscan/pkg/util/syncutil"
	"google.golang.org/grpc"
)

// errBadRow marks stored rows that do not match the scanned columns. They
// are reported to the client as a coprocessor error.
var errBadRow = errors.New("bad stored row")

// Knobs shape the response stream of a Store.
type Knobs struct {
	// RowsPerChunk is the maximum number of rows in a chunk. Defaults to 64.
	RowsPerChunk int
	// ChunksPerResponse is the maximum number of chunks in a response.
	// Defaults to 4.
	ChunksPerResponse int
}

// Store serves coprocessor requests over rows held in an in-memory pebble
// engine. Row values are stored under their row keys, encoded as the
// non-handle columns of the table in value mode.
type Store struct {
	StoreID roachpb.StoreID

	knobs Knobs
	db    *pebble.DB

	mu struct {
		syncutil.Mutex
		dropped map[roachpb.RegionID]bool
		failed  map[roachpb.RegionID]error
		server  *grpc.Server
		stopped bool
	}
}

var _ kvpb.CoprocessorServer = (*Store)(nil)

// New creates an empty store.
func New(storeID roachpb.StoreID, knobs Knobs) (*Store, error) {
	if knobs.RowsPerChunk <= 0 {
		knobs.RowsPerChunk = 64
	}
	if knobs.ChunksPerResponse <= 0 {
		knobs.ChunksPerResponse = 4
	}
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, errors.Wrap(err, "opening in-memory engine")
	}
	s := &Store{StoreID: storeID, knobs: knobs, db: db}
	s.mu.dropped = map[roachpb.RegionID]bool{}
	s.mu.failed = map[roachpb.RegionID]error{}
	return s, nil
}

// LoadRow stores r, whose columns have the given types, as the row with the
// given handle. The handle column itself must not be part of r.
func (s *Store) LoadRow(tableID, handle int64, schema []*types.T, r row.Row) error {
	value, err := row.EncodeRow(nil, schema, r)
	if err != nil {
		return err
	}
	key := keys.MakeRowKey(tableID, handle)
	return errors.Wrapf(s.db.Set(key.Key(), value, pebble.NoSync), "loading %s", key)
}

// DropStream makes requests for the region end without any response.
func (s *Store) DropStream(regionID roachpb.RegionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mu.dropped[regionID] = true
}

// FailRegion makes requests for the region return err as a coprocessor
// error.
func (s *Store) FailRegion(regionID roachpb.RegionID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mu.failed[regionID] = err
}

// Serve accepts connections on ln until Stop is called. It returns nil after
// Stop.
func (s *Store) Serve(ln net.Listener) error {
	srv := rpc.NewServer()
	kvpb.RegisterCoprocessorServer(srv, s)
	s.mu.Lock()
	if s.mu.stopped {
		s.mu.Unlock()
		return ln.Close()
	}
	if s.mu.server != nil {
		s.mu.Unlock()
		return errors.AssertionFailedf("store s%d is already serving", s.StoreID)
	}
	s.mu.server = srv
	s.mu.Unlock()
	if err := srv.Serve(ln); !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop stops serving and closes the engine.
func (s *Store) Stop() error {
	s.mu.Lock()
	srv := s.mu.server
	s.mu.stopped = true
	s.mu.Unlock()
	if srv != nil {
		srv.Stop()
	}
	return s.db.Close()
}

// CoprocessorStream implements kvpb.CoprocessorServer.
func (s *Store) CoprocessorStream(
	req *kvpb.CoprocessorRequest, stream kvpb.Coprocessor_CoprocessorStreamServer,
) error {
	ctx := stream.Context()
	if req.Tp != kvpb.ReqTypeDAG {
		return errors.Newf("unsupported request type %d", req.Tp)
	}
	var regionID roachpb.RegionID
	if req.Context != nil {
		regionID = req.Context.RegionID
	}
	s.mu.Lock()
	dropped, failed := s.mu.dropped[regionID], s.mu.failed[regionID]
	s.mu.Unlock()
	if dropped {
		log.VEventf(ctx, 2, "s%d: dropping stream for r%d", s.StoreID, regionID)
		return nil
	}
	if failed != nil {
		return stream.Send(&kvpb.SelectResponse{Error: failed.Error()})
	}

	var plan kvpb.DAGPlan
	if err := plan.Unmarshal(req.Data); err != nil {
		return stream.Send(&kvpb.SelectResponse{Error: errors.Wrap(err, "decoding DAG").Error()})
	}
	sc, err := makeScanner(&plan)
	if err != nil {
		return stream.Send(&kvpb.SelectResponse{Error: err.Error()})
	}
	w := &responseWriter{knobs: s.knobs, stream: stream}
	if err := s.scan(ctx, sc, req.Ranges, w); err != nil {
		if errors.Is(err, errBadRow) {
			return w.fail(err)
		}
		return err
	}
	return w.finish()
}

// scan reads the rows of every range, in request order or reversed for a
// descending scan, and feeds them to w.
func (s *Store) scan(
	ctx context.Context, sc *scanner, ranges []kvpb.KeyRange, w *responseWriter,
) error {
	order := make([]kvpb.KeyRange, len(ranges))
	copy(order, ranges)
	if sc.desc {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}
	for _, r := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.scanRange(sc, r.Span(), w); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) scanRange(sc *scanner, span roachpb.Span, w *responseWriter) error {
	// Only the table's records are visible to the scan.
	bounds, ok := span.Intersect(keys.TableRecordSpan(sc.tableID))
	if !ok {
		return nil
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: bounds.Key,
		UpperBound: bounds.EndKey,
	})
	if err != nil {
		return err
	}
	valid := iter.First
	step := iter.Next
	if sc.desc {
		valid, step = iter.Last, iter.Prev
	}
	for ok := valid(); ok; ok = step() {
		res, err := keys.TryDecodeRowKey(sc.tableID, iter.Key())
		if err != nil {
			_ = iter.Close()
			return err
		}
		if res.Status != keys.DecodeEqual {
			continue
		}
		out, err := sc.encode(w.buf(), res.Handle, iter.Value())
		if err != nil {
			_ = iter.Close()
			return errors.Mark(errors.Wrapf(err, "row %d", res.Handle), errBadRow)
		}
		if err := w.addRow(out); err != nil {
			_ = iter.Close()
			return err
		}
	}
	return iter.Close()
}

// scanner turns stored rows into the output rows of a plan.
type scanner struct {
	tableID   int64
	desc      bool
	indexScan bool
	// stored are the types of the columns kept in row values, in order.
	stored []*types.T
	// output maps each output column to a scan column.
	output []int
	// sources maps each scan column to its position in the stored row, or
	// -1 for the handle column.
	sources []int
	outTyps []*types.T
}

func makeScanner(plan *kvpb.DAGPlan) (*scanner, error) {
	exec, err := plan.Scan()
	if err != nil {
		return nil, err
	}
	if exec.Tp == kvpb.ExecTypeIndexScan {
		return &scanner{
			tableID:   exec.IdxScan.TableID,
			desc:      exec.IdxScan.Desc,
			indexScan: true,
		}, nil
	}
	ts := exec.TblScan
	sc := &scanner{tableID: ts.TableID, desc: ts.Desc}
	scanTyps := make([]*types.T, len(ts.Columns))
	for i, c := range ts.Columns {
		t, err := types.Parse(c.Tp)
		if err != nil {
			return nil, err
		}
		scanTyps[i] = t
		if c.PKHandle {
			sc.sources = append(sc.sources, -1)
			continue
		}
		sc.sources = append(sc.sources, len(sc.stored))
		sc.stored = append(sc.stored, t)
	}
	if len(plan.OutputOffsets) == 0 {
		for i := range ts.Columns {
			sc.output = append(sc.output, i)
		}
	}
	for _, off := range plan.OutputOffsets {
		if int(off) >= len(ts.Columns) {
			return nil, errors.Newf("output offset %d out of range", off)
		}
		sc.output = append(sc.output, int(off))
	}
	for _, i := range sc.output {
		sc.outTyps = append(sc.outTyps, scanTyps[i])
	}
	return sc, nil
}

// encode appends the output row for the stored row value to b.
func (sc *scanner) encode(b []byte, handle int64, value []byte) ([]byte, error) {
	if sc.indexScan {
		return row.EncodeRow(b, []*types.T{types.Int}, row.Row{tree.NewDInt(handle)})
	}
	stored, err := row.NewReader(value).ReadRow(sc.stored)
	if err != nil {
		return nil, err
	}
	out := make(row.Row, len(sc.output))
	for i, col := range sc.output {
		if src := sc.sources[col]; src >= 0 {
			out[i] = stored[src]
		} else {
			out[i] = tree.NewDInt(handle)
		}
	}
	return row.EncodeRow(b, sc.outTyps, out)
}

// responseWriter batches encoded rows into chunks and chunks into
// responses. At least one response is sent per stream.
type responseWriter struct {
	knobs  Knobs
	stream kvpb.Coprocessor_CoprocessorStreamServer

	chunks  []kvpb.Chunk
	cur     []byte
	curRows int
	sent    int
}

func (w *responseWriter) buf() []byte { return w.cur }

// addRow records that b, the current chunk buffer, now ends with one more
// row.
func (w *responseWriter) addRow(b []byte) error {
	w.cur = b
	w.curRows++
	if w.curRows < w.knobs.RowsPerChunk {
		return nil
	}
	w.chunks = append(w.chunks, kvpb.Chunk{RowsData: w.cur})
	w.cur, w.curRows = nil, 0
	if len(w.chunks) < w.knobs.ChunksPerResponse {
		return nil
	}
	return w.flush()
}

func (w *responseWriter) flush() error {
	resp := &kvpb.SelectResponse{Chunks: w.chunks}
	w.chunks = nil
	w.sent++
	return w.stream.Send(resp)
}

func (w *responseWriter) fail(err error) error {
	return w.stream.Send(&kvpb.SelectResponse{Error: err.Error()})
}

func (w *responseWriter) finish() error {
	if w.curRows > 0 {
		w.chunks = append(w.chunks, kvpb.Chunk{RowsData: w.cur})
		w.cur, w.curRows = nil, 0
	}
	if len(w.chunks) > 0 || w.sent == 0 {
		return w.flush()
	}
	return nil
}
