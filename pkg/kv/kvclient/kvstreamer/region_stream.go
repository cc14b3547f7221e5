// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package kvstreamer opens and drains the per-region response streams of a
// coprocessor scan.
package kvstreamer

import (
	"context"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/kv/kvclient/kvcoord"
	"github.com/cockroachdb/rowscan/pkg/kv/kvpb"
	"github.com/cockroachdb/rowscan/pkg/util/log"
)

// RegionResultStream is the ordered sequence of SelectResponses a store
// returns for one region task. It is owned by a single goroutine.
type RegionResultStream struct {
	task   *kvcoord.RegionTask
	stream kvcoord.ResponseStream
	// pending holds the first response, received while opening the stream
	// to tell an empty sequence apart from a missing one.
	pending *kvpb.SelectResponse
	done    bool
}

// OpenRegionResultStream sends the coprocessor request for task, carrying
// the DAG payload data and the task's key ranges, to the task's store.
//
// It returns ok == false (and a nil error) when the store produced no
// response sequence at all. Any failure to reach the store or to start the
// stream is returned as a *kvpb.ClientInternalError.
func OpenRegionResultStream(
	ctx context.Context, factory kvcoord.StoreClientFactory, task *kvcoord.RegionTask, data []byte,
) (_ *RegionResultStream, ok bool, _ error) {
	client, err := factory(ctx, task.Store)
	if err != nil {
		return nil, false, kvpb.NewClientInternalError(err,
			fmt.Sprintf("creating client for s%d", task.Store.StoreID))
	}
	req := &kvpb.CoprocessorRequest{
		Context: kvpb.MakeRegionContext(task.Region),
		Tp:      kvpb.ReqTypeDAG,
		Data:    data,
		Ranges:  task.Ranges,
	}
	stream, err := client.CoprocessStreaming(ctx, req)
	if err != nil {
		return nil, false, kvpb.NewClientInternalError(err,
			fmt.Sprintf("opening stream for r%d on s%d", task.Region.RegionID, task.Store.StoreID))
	}
	first, err := stream.Recv()
	if err == io.EOF {
		stream.Close()
		log.VEventf(ctx, 2, "r%d returned no response stream", task.Region.RegionID)
		return nil, false, nil
	}
	if err != nil {
		stream.Close()
		return nil, false, kvpb.NewClientInternalError(err,
			fmt.Sprintf("receiving from r%d on s%d", task.Region.RegionID, task.Store.StoreID))
	}
	return &RegionResultStream{task: task, stream: stream, pending: first}, true, nil
}

// Next returns the next response in arrival order, and false once the
// stream is drained. Transport failures, including cancellation of ctx,
// and responses reporting an evaluation error are returned as a
// *kvpb.ClientInternalError.
func (s *RegionResultStream) Next(ctx context.Context) (*kvpb.SelectResponse, bool, error) {
	if s.done {
		return nil, false, nil
	}
	resp := s.pending
	s.pending = nil
	if resp == nil {
		if err := ctx.Err(); err != nil {
			s.Close()
			return nil, false, kvpb.NewClientInternalError(err,
				fmt.Sprintf("receiving from r%d on s%d", s.task.Region.RegionID, s.task.Store.StoreID))
		}
		var err error
		resp, err = s.stream.Recv()
		if err == io.EOF {
			s.Close()
			return nil, false, nil
		}
		if err != nil {
			s.Close()
			return nil, false, kvpb.NewClientInternalError(err,
				fmt.Sprintf("receiving from r%d on s%d", s.task.Region.RegionID, s.task.Store.StoreID))
		}
	}
	if resp.Error != "" {
		s.Close()
		return nil, false, kvpb.NewClientInternalError(errors.Newf("%s", resp.Error),
			fmt.Sprintf("coprocessor error on r%d", s.task.Region.RegionID))
	}
	return resp, true, nil
}

// Close releases the transport stream. It is idempotent.
func (s *RegionResultStream) Close() {
	if s.done {
		return
	}
	s.done = true
	s.pending = nil
	s.stream.Close()
}
