// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package distsqlrun

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/rowscan/pkg/kv/kvclient/kvcoord"
	"github.com/cockroachdb/rowscan/pkg/kv/kvclient/kvstreamer"
	"github.com/cockroachdb/rowscan/pkg/kv/kvpb"
	"github.com/cockroachdb/rowscan/pkg/sql/row"
	"github.com/cockroachdb/rowscan/pkg/sql/types"
	"github.com/cockroachdb/rowscan/pkg/util/log"
	"github.com/cockroachdb/rowscan/pkg/util/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrExhausted is returned by Next when the iterator has no rows left.
var ErrExhausted = errors.New("dag iterator exhausted")

// DAGIteratorConfig holds the collaborators of a DAGIterator.
type DAGIteratorConfig struct {
	// StoreClientFactory creates the clients region tasks are sent through.
	// Required.
	StoreClientFactory kvcoord.StoreClientFactory
	// Metrics, if set, is updated as the iterator makes progress. Iterators
	// sharing a registry should share the struct.
	Metrics *DAGIteratorMetrics
}

// DAGIterator is a pull iterator over the rows a DAG request returns. Rows
// come out ordered by region task, then by response arrival within a task,
// then by chunk, then by position within a chunk.
//
// A DAGIterator is not safe for concurrent use.
type DAGIterator struct {
	cfg       DAGIteratorConfig
	metrics   *DAGIteratorMetrics
	tasks     []*kvcoord.RegionTask
	indexScan bool
	// data is the marshaled plan sent with every task.
	data   []byte
	schema []*types.T

	cursor dagCursor
}

// dagCursor is the position of the iterator:
//
//	NEED_TASK      stream == nil
//	NEED_RESPONSE  stream != nil, chunkIdx == len(chunks), reader == nil
//	NEED_CHUNK     chunkIdx < len(chunks), reader == nil or drained
//	AT_ROW         reader has remaining bytes
//	DONE           eof or err set
type dagCursor struct {
	taskIdx int
	stream  *kvstreamer.RegionResultStream
	span    trace.Span

	chunks   []kvpb.Chunk
	chunkIdx int
	reader   *row.Reader

	// eof is monotonic: once set, the iteration is over.
	eof bool
	// err is sticky: once set, every call returns it.
	err error
}

// NewDAGIterator creates an iterator running req over the given tasks, in
// order. In index-scan mode the rows are single row handles read through the
// request's index scan; otherwise they are the table scan's output columns.
//
// Errors in req are reported by the first call to HasNext or Next.
func NewDAGIterator(
	cfg DAGIteratorConfig, req *kvpb.DAGRequest, tasks []*kvcoord.RegionTask, indexScan bool,
) *DAGIterator {
	it := &DAGIterator{
		cfg:       cfg,
		metrics:   cfg.Metrics,
		tasks:     tasks,
		indexScan: indexScan,
	}
	if it.metrics == nil {
		m := MakeDAGIteratorMetrics()
		it.metrics = &m
	}
	if cfg.StoreClientFactory == nil {
		it.cursor.err = errors.AssertionFailedf("DAG iterator requires a store client factory")
		return it
	}
	if indexScan {
		it.schema = HandleSchema
	} else {
		schema, err := SchemaInfer(req)
		if err != nil {
			it.cursor.err = err
			return it
		}
		it.schema = schema
	}
	data, err := req.BuildScan(indexScan)
	if err != nil {
		it.cursor.err = err
		return it
	}
	it.data = data
	return it
}

// NewDAGIteratorForRanges splits the request's ranges along region
// boundaries and returns an iterator over the resulting tasks.
func NewDAGIteratorForRanges(
	ctx context.Context,
	cfg DAGIteratorConfig,
	req *kvpb.DAGRequest,
	splitter *kvcoord.RangeSplitter,
	indexScan bool,
) (*DAGIterator, error) {
	tasks, err := splitter.SplitRangeByRegion(ctx, req.Ranges)
	if err != nil {
		return nil, errors.Wrap(err, "splitting scan ranges by region")
	}
	return NewDAGIterator(cfg, req, tasks, indexScan), nil
}

// Schema returns the types of the columns of the returned rows.
func (it *DAGIterator) Schema() []*types.T {
	return it.schema
}

// HasNext advances the iterator to the next row, if it is not already
// positioned on one, and reports whether there is one. Repeated calls
// without an intervening Next do not advance further.
func (it *DAGIterator) HasNext(ctx context.Context) (bool, error) {
	c := &it.cursor
	for {
		switch {
		case c.err != nil:
			return false, c.err
		case c.eof:
			return false, nil
		case c.reader != nil && c.reader.Remaining() > 0:
			return true, nil
		case c.chunkIdx < len(c.chunks):
			c.reader = row.NewReader(c.chunks[c.chunkIdx].RowsData)
			c.chunkIdx++
			it.metrics.Chunks.Inc(1)
		case c.stream != nil:
			c.reader = nil
			if err := it.nextResponse(ctx); err != nil {
				return false, it.fail(err)
			}
		default:
			c.reader = nil
			if err := it.nextTask(ctx); err != nil {
				return false, it.fail(err)
			}
		}
	}
}

// Next returns the next row, or ErrExhausted if there is none.
func (it *DAGIterator) Next(ctx context.Context) (row.Row, error) {
	ok, err := it.HasNext(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrExhausted
	}
	r, err := it.cursor.reader.ReadRow(it.schema)
	if err != nil {
		return nil, it.fail(errors.Wrapf(err, "reading row from r%d",
			it.tasks[it.cursor.taskIdx-1].Region.RegionID))
	}
	it.metrics.Rows.Inc(1)
	return r, nil
}

// Close releases the stream of the current task. The iterator returns no
// more rows afterwards. Close is idempotent.
func (it *DAGIterator) Close() {
	it.finishTask(nil)
	it.cursor.eof = true
}

// nextResponse pulls the next response of the current task. A drained
// stream finishes the task.
func (it *DAGIterator) nextResponse(ctx context.Context) error {
	c := &it.cursor
	resp, ok, err := c.stream.Next(ctx)
	if err != nil {
		return err
	}
	if !ok {
		it.finishTask(nil)
		return nil
	}
	it.metrics.Responses.Inc(1)
	if len(resp.Chunks) == 0 {
		log.VEventf(ctx, 3, "skipping empty response")
	}
	c.chunks = resp.Chunks
	c.chunkIdx = 0
	return nil
}

// nextTask opens the stream of the next task, or marks the iteration done
// when there is none. A store that returns no response sequence at all ends
// the whole iteration, including the tasks after it.
func (it *DAGIterator) nextTask(ctx context.Context) error {
	c := &it.cursor
	if c.taskIdx >= len(it.tasks) {
		c.eof = true
		return nil
	}
	task := it.tasks[c.taskIdx]
	c.taskIdx++
	it.metrics.Tasks.Inc(1)

	ctx = logtags.AddTag(ctx, "r", task.Region.RegionID)
	ctx, c.span = tracing.ChildSpan(ctx, "dag region task",
		attribute.Int64("region", int64(task.Region.RegionID)),
		attribute.Int64("store", int64(task.Store.StoreID)),
		attribute.Int("ranges", len(task.Ranges)),
	)
	log.VEventf(ctx, 2, "opening stream to s%d for %d ranges", task.Store.StoreID, redact.Safe(len(task.Ranges)))
	stream, ok, err := kvstreamer.OpenRegionResultStream(ctx, it.cfg.StoreClientFactory, task, it.data)
	if err != nil {
		return err
	}
	if !ok {
		it.metrics.AbsentStreams.Inc(1)
		log.VEventf(ctx, 1, "s%d returned no response stream; ending scan", task.Store.StoreID)
		it.finishTask(nil)
		c.eof = true
		return nil
	}
	c.stream = stream
	return nil
}

// finishTask closes the stream and span of the current task, if any.
func (it *DAGIterator) finishTask(err error) {
	c := &it.cursor
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}
	if c.span != nil {
		tracing.FinishSpan(c.span, err)
		c.span = nil
	}
	c.chunks = nil
	c.chunkIdx = 0
	c.reader = nil
}

func (it *DAGIterator) fail(err error) error {
	it.finishTask(err)
	it.cursor.err = err
	it.metrics.Errors.Inc(1)
	return err
}
