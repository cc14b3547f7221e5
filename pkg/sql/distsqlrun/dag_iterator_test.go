// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package distsqlrun

import (
	"context"
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/keys"
	"github.com/cockroachdb/rowscan/pkg/kv/kvclient/kvcoord"
	"github.com/cockroachdb/rowscan/pkg/kv/kvpb"
	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"github.com/cockroachdb/rowscan/pkg/sql/row"
	"github.com/cockroachdb/rowscan/pkg/sql/sem/tree"
	"github.com/cockroachdb/rowscan/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

const testTableID = 7

// regionResult is what the fake store returns for one region: nil means no
// response sequence at all.
type regionResult struct {
	resps []*kvpb.SelectResponse
	err   error
}

type fakeStore struct {
	regions map[roachpb.RegionID]*regionResult
	reqs    []*kvpb.CoprocessorRequest
	closed  int
}

type fakeStream struct {
	store *fakeStore
	res   *regionResult
}

func (s *fakeStream) Recv() (*kvpb.SelectResponse, error) {
	if s.res == nil {
		return nil, io.EOF
	}
	if len(s.res.resps) == 0 {
		if s.res.err != nil {
			return nil, s.res.err
		}
		return nil, io.EOF
	}
	r := s.res.resps[0]
	s.res.resps = s.res.resps[1:]
	return r, nil
}

func (s *fakeStream) Close() { s.store.closed++ }

func (f *fakeStore) CoprocessStreaming(
	_ context.Context, req *kvpb.CoprocessorRequest,
) (kvcoord.ResponseStream, error) {
	f.reqs = append(f.reqs, req)
	return &fakeStream{store: f, res: f.regions[req.Context.RegionID]}, nil
}

func (f *fakeStore) factory() kvcoord.StoreClientFactory {
	return func(context.Context, *roachpb.StoreDescriptor) (kvcoord.StoreClient, error) {
		return f, nil
	}
}

var testColumns = []kvpb.ColumnInfo{
	{ColumnID: 1, Tp: "bigint", PKHandle: true},
	{ColumnID: 2, Tp: "varchar"},
	{ColumnID: 3, Tp: "bigint"},
}

func testRequest() *kvpb.DAGRequest {
	return &kvpb.DAGRequest{
		StartTS:       10,
		TableScan:     &kvpb.TableScan{TableID: testTableID, Columns: testColumns},
		IndexScan:     &kvpb.IndexScan{TableID: testTableID, IndexID: 1, Columns: testColumns[:1]},
		OutputOffsets: []uint32{1, 2},
		Ranges:        []kvpb.KeyRange{kvpb.MakeKeyRange(keys.TableRecordSpan(testTableID))},
	}
}

func testTasks(ids ...roachpb.RegionID) []*kvcoord.RegionTask {
	var tasks []*kvcoord.RegionTask
	for _, id := range ids {
		tasks = append(tasks, &kvcoord.RegionTask{
			Region: &roachpb.RegionDescriptor{RegionID: id, StoreID: 1},
			Store:  &roachpb.StoreDescriptor{StoreID: 1, Address: "s1"},
			Ranges: []kvpb.KeyRange{kvpb.MakeKeyRange(keys.TableRecordSpan(testTableID))},
		})
	}
	return tasks
}

var rowSchema = []*types.T{types.Varchar, types.Int}

// chunk encodes one chunk holding a row per name, with the name's index
// offset by base as the integer column.
func chunk(t *testing.T, base int64, names ...string) kvpb.Chunk {
	var data []byte
	for i, n := range names {
		var err error
		data, err = row.EncodeRow(data, rowSchema, row.Row{tree.NewDString(n), tree.NewDInt(base + int64(i))})
		require.NoError(t, err)
	}
	return kvpb.Chunk{RowsData: data}
}

func resp(chunks ...kvpb.Chunk) *kvpb.SelectResponse {
	return &kvpb.SelectResponse{Chunks: chunks}
}

func drain(t *testing.T, it *DAGIterator) []string {
	ctx := context.Background()
	var out []string
	for {
		ok, err := it.HasNext(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		r, err := it.Next(ctx)
		require.NoError(t, err)
		out = append(out, r.String())
	}
	return out
}

func TestDAGIteratorFlattensInOrder(t *testing.T) {
	store := &fakeStore{regions: map[roachpb.RegionID]*regionResult{
		1: {resps: []*kvpb.SelectResponse{
			resp(chunk(t, 0, "a", "b"), chunk(t, 2, "c")),
			resp(chunk(t, 3, "d")),
		}},
		2: {resps: []*kvpb.SelectResponse{resp(chunk(t, 4, "e"))}},
	}}
	metrics := MakeDAGIteratorMetrics()
	it := NewDAGIterator(DAGIteratorConfig{
		StoreClientFactory: store.factory(),
		Metrics:            &metrics,
	}, testRequest(), testTasks(1, 2), false /* indexScan */)
	require.Equal(t, rowSchema, it.Schema())

	require.Equal(t, []string{
		`("a", 0)`, `("b", 1)`, `("c", 2)`, `("d", 3)`, `("e", 4)`,
	}, drain(t, it))

	_, err := it.Next(context.Background())
	require.True(t, errors.Is(err, ErrExhausted))

	require.Len(t, store.reqs, 2)
	for i, req := range store.reqs {
		require.Equal(t, roachpb.RegionID(i+1), req.Context.RegionID)
		require.Equal(t, int64(kvpb.ReqTypeDAG), req.Tp)
		var plan kvpb.DAGPlan
		require.NoError(t, plan.Unmarshal(req.Data))
		require.Equal(t, uint64(10), plan.StartTS)
		require.Equal(t, []uint32{1, 2}, plan.OutputOffsets)
	}
	require.Equal(t, 2, store.closed)

	require.Equal(t, int64(2), metrics.Tasks.Count())
	require.Equal(t, int64(3), metrics.Responses.Count())
	require.Equal(t, int64(4), metrics.Chunks.Count())
	require.Equal(t, int64(5), metrics.Rows.Count())
	require.Equal(t, int64(0), metrics.Errors.Count())
}

func TestDAGIteratorHasNextIsIdempotent(t *testing.T) {
	store := &fakeStore{regions: map[roachpb.RegionID]*regionResult{
		1: {resps: []*kvpb.SelectResponse{resp(chunk(t, 0, "a", "b"))}},
	}}
	it := NewDAGIterator(DAGIteratorConfig{StoreClientFactory: store.factory()},
		testRequest(), testTasks(1), false /* indexScan */)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ok, err := it.HasNext(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	}
	r, err := it.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, `("a", 0)`, r.String())
	r, err = it.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, `("b", 1)`, r.String())
	for i := 0; i < 2; i++ {
		ok, err := it.HasNext(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestDAGIteratorSkipsEmpty(t *testing.T) {
	store := &fakeStore{regions: map[roachpb.RegionID]*regionResult{
		1: {resps: []*kvpb.SelectResponse{
			resp(),
			resp(kvpb.Chunk{}, chunk(t, 0, "a"), kvpb.Chunk{}),
			resp(),
		}},
		// An empty sequence is not an absent one: the scan continues.
		2: {resps: []*kvpb.SelectResponse{resp()}},
		3: {resps: []*kvpb.SelectResponse{resp(kvpb.Chunk{}), resp(chunk(t, 1, "b"))}},
	}}
	it := NewDAGIterator(DAGIteratorConfig{StoreClientFactory: store.factory()},
		testRequest(), testTasks(1, 2, 3), false /* indexScan */)
	require.Equal(t, []string{`("a", 0)`, `("b", 1)`}, drain(t, it))
}

func TestDAGIteratorAbsentStreamEndsScan(t *testing.T) {
	store := &fakeStore{regions: map[roachpb.RegionID]*regionResult{
		1: {resps: []*kvpb.SelectResponse{resp(chunk(t, 0, "a"))}},
		// Region 2 is missing from the map and returns nothing.
		3: {resps: []*kvpb.SelectResponse{resp(chunk(t, 1, "c"))}},
	}}
	metrics := MakeDAGIteratorMetrics()
	it := NewDAGIterator(DAGIteratorConfig{
		StoreClientFactory: store.factory(),
		Metrics:            &metrics,
	}, testRequest(), testTasks(1, 2, 3), false /* indexScan */)
	require.Equal(t, []string{`("a", 0)`}, drain(t, it))
	// Region 3 is never contacted.
	require.Len(t, store.reqs, 2)
	require.Equal(t, int64(1), metrics.AbsentStreams.Count())
	require.Equal(t, int64(2), metrics.Tasks.Count())

	_, err := it.Next(context.Background())
	require.True(t, errors.Is(err, ErrExhausted))
}

func TestDAGIteratorNoTasks(t *testing.T) {
	store := &fakeStore{}
	it := NewDAGIterator(DAGIteratorConfig{StoreClientFactory: store.factory()},
		testRequest(), nil, false /* indexScan */)
	require.Empty(t, drain(t, it))
	require.Empty(t, store.reqs)
}

func TestDAGIteratorStickyErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("coprocessor error", func(t *testing.T) {
		store := &fakeStore{regions: map[roachpb.RegionID]*regionResult{
			1: {resps: []*kvpb.SelectResponse{
				resp(chunk(t, 0, "a")),
				{Error: "region epoch not match"},
			}},
			2: {resps: []*kvpb.SelectResponse{resp(chunk(t, 1, "b"))}},
		}}
		metrics := MakeDAGIteratorMetrics()
		it := NewDAGIterator(DAGIteratorConfig{
			StoreClientFactory: store.factory(),
			Metrics:            &metrics,
		}, testRequest(), testTasks(1, 2), false /* indexScan */)

		r, err := it.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, `("a", 0)`, r.String())

		_, err = it.HasNext(ctx)
		require.True(t, kvpb.IsClientInternalError(err), "%v", err)
		require.ErrorContains(t, err, "region epoch not match")
		for i := 0; i < 2; i++ {
			_, err2 := it.Next(ctx)
			require.Equal(t, err, err2)
		}
		require.Equal(t, 1, store.closed)
		require.Len(t, store.reqs, 1)
		require.Equal(t, int64(1), metrics.Errors.Count())
	})

	t.Run("transport error", func(t *testing.T) {
		store := &fakeStore{regions: map[roachpb.RegionID]*regionResult{
			1: {
				resps: []*kvpb.SelectResponse{resp(chunk(t, 0, "a"))},
				err:   errors.New("connection reset"),
			},
		}}
		it := NewDAGIterator(DAGIteratorConfig{StoreClientFactory: store.factory()},
			testRequest(), testTasks(1), false /* indexScan */)
		_, err := it.Next(ctx)
		require.NoError(t, err)
		_, err = it.Next(ctx)
		require.True(t, kvpb.IsClientInternalError(err), "%v", err)
		require.ErrorContains(t, err, "connection reset")
	})

	t.Run("corrupt chunk", func(t *testing.T) {
		store := &fakeStore{regions: map[roachpb.RegionID]*regionResult{
			1: {resps: []*kvpb.SelectResponse{resp(kvpb.Chunk{RowsData: []byte{0x63}})}},
		}}
		it := NewDAGIterator(DAGIteratorConfig{StoreClientFactory: store.factory()},
			testRequest(), testTasks(1), false /* indexScan */)
		_, err := it.Next(ctx)
		require.ErrorContains(t, err, "reading row from r1")
		ok, err2 := it.HasNext(ctx)
		require.False(t, ok)
		require.Equal(t, err, err2)
		require.Equal(t, 1, store.closed)
	})

	t.Run("canceled context", func(t *testing.T) {
		store := &fakeStore{regions: map[roachpb.RegionID]*regionResult{
			1: {resps: []*kvpb.SelectResponse{resp(chunk(t, 0, "a")), resp(chunk(t, 1, "b"))}},
		}}
		it := NewDAGIterator(DAGIteratorConfig{StoreClientFactory: store.factory()},
			testRequest(), testTasks(1), false /* indexScan */)
		cctx, cancel := context.WithCancel(ctx)
		_, err := it.Next(cctx)
		require.NoError(t, err)
		cancel()
		_, err = it.Next(cctx)
		require.True(t, errors.Is(err, context.Canceled), "%v", err)
	})
}

func TestDAGIteratorSetupErrors(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}

	req := testRequest()
	req.TableScan.Columns = []kvpb.ColumnInfo{{ColumnID: 1, Tp: "decimal"}}
	it := NewDAGIterator(DAGIteratorConfig{StoreClientFactory: store.factory()},
		req, testTasks(1), false /* indexScan */)
	_, err := it.HasNext(ctx)
	require.ErrorContains(t, err, `unknown column type "decimal"`)

	// A scan without columns fails before any store is asked for rows.
	req = testRequest()
	req.TableScan.Columns = nil
	req.OutputOffsets = nil
	it = NewDAGIterator(DAGIteratorConfig{StoreClientFactory: store.factory()},
		req, testTasks(1), false /* indexScan */)
	ok, err := it.HasNext(ctx)
	require.False(t, ok)
	require.ErrorContains(t, err, "without columns")

	req = testRequest()
	req.IndexScan = nil
	it = NewDAGIterator(DAGIteratorConfig{StoreClientFactory: store.factory()},
		req, testTasks(1), true /* indexScan */)
	_, err = it.Next(ctx)
	require.ErrorContains(t, err, "no index scan")

	it = NewDAGIterator(DAGIteratorConfig{}, testRequest(), testTasks(1), false /* indexScan */)
	_, err = it.Next(ctx)
	require.True(t, errors.IsAssertionFailure(err))
	require.Empty(t, store.reqs)
}

func TestDAGIteratorIndexScan(t *testing.T) {
	var data []byte
	for _, h := range []int64{3, 9, 27} {
		var err error
		data, err = row.EncodeRow(data, HandleSchema, row.Row{tree.NewDInt(h)})
		require.NoError(t, err)
	}
	store := &fakeStore{regions: map[roachpb.RegionID]*regionResult{
		1: {resps: []*kvpb.SelectResponse{resp(kvpb.Chunk{RowsData: data})}},
	}}
	it := NewDAGIterator(DAGIteratorConfig{StoreClientFactory: store.factory()},
		testRequest(), testTasks(1), true /* indexScan */)
	require.Equal(t, HandleSchema, it.Schema())
	require.Equal(t, []string{"(3)", "(9)", "(27)"}, drain(t, it))

	var plan kvpb.DAGPlan
	require.NoError(t, plan.Unmarshal(store.reqs[0].Data))
	exec, err := plan.Scan()
	require.NoError(t, err)
	require.Equal(t, kvpb.ExecTypeIndexScan, exec.Tp)
	require.Empty(t, plan.OutputOffsets)
}

func TestDAGIteratorClose(t *testing.T) {
	store := &fakeStore{regions: map[roachpb.RegionID]*regionResult{
		1: {resps: []*kvpb.SelectResponse{resp(chunk(t, 0, "a", "b"))}},
	}}
	it := NewDAGIterator(DAGIteratorConfig{StoreClientFactory: store.factory()},
		testRequest(), testTasks(1), false /* indexScan */)
	ctx := context.Background()
	_, err := it.Next(ctx)
	require.NoError(t, err)
	it.Close()
	it.Close()
	require.Equal(t, 1, store.closed)
	ok, err := it.HasNext(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewDAGIteratorForRanges(t *testing.T) {
	ctx := context.Background()
	cache := kvcoord.NewRegionCache()
	mid := keys.MakeRowKey(testTableID, 100).Key()
	require.NoError(t, cache.Insert(ctx,
		roachpb.RegionDescriptor{RegionID: 1, EndKey: mid, StoreID: 1},
		roachpb.RegionDescriptor{RegionID: 2, StartKey: mid, StoreID: 1},
	))
	ds := kvcoord.NewStaticStoreDescStore(roachpb.StoreDescriptor{StoreID: 1, Address: "s1"})
	splitter := kvcoord.NewRangeSplitter(cache, ds)

	store := &fakeStore{regions: map[roachpb.RegionID]*regionResult{
		1: {resps: []*kvpb.SelectResponse{resp(chunk(t, 0, "low"))}},
		2: {resps: []*kvpb.SelectResponse{resp(chunk(t, 1, "high"))}},
	}}
	it, err := NewDAGIteratorForRanges(ctx, DAGIteratorConfig{StoreClientFactory: store.factory()},
		testRequest(), splitter, false /* indexScan */)
	require.NoError(t, err)
	require.Equal(t, []string{`("low", 0)`, `("high", 1)`}, drain(t, it))
	require.Len(t, store.reqs, 2)
	require.Equal(t, mid, roachpb.Key(store.reqs[0].Ranges[0].End))
	require.Equal(t, mid, roachpb.Key(store.reqs[1].Ranges[0].Start))

	_, err = NewDAGIteratorForRanges(ctx, DAGIteratorConfig{StoreClientFactory: store.factory()},
		testRequest(), kvcoord.NewRangeSplitter(kvcoord.NewRegionCache(), ds), false /* indexScan */)
	require.ErrorContains(t, err, "splitting scan ranges by region")
}

func TestSchemaInfer(t *testing.T) {
	req := testRequest()
	schema, err := SchemaInfer(req)
	require.NoError(t, err)
	require.Equal(t, []*types.T{types.Varchar, types.Int}, schema)

	req.OutputOffsets = nil
	schema, err = SchemaInfer(req)
	require.NoError(t, err)
	require.Equal(t, []*types.T{types.Int, types.Varchar, types.Int}, schema)

	req.OutputOffsets = []uint32{3}
	_, err = SchemaInfer(req)
	require.ErrorContains(t, err, "output offset 3 out of range")

	req.OutputOffsets = nil
	req.TableScan.Columns = nil
	_, err = SchemaInfer(req)
	require.ErrorContains(t, err, "without columns")

	req.TableScan = nil
	_, err = SchemaInfer(req)
	require.Error(t, err)
}
