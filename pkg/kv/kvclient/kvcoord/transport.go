// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvcoord

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/kv/kvpb"
	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"github.com/cockroachdb/rowscan/pkg/rpc/nodedialer"
)

// StoreClientFactory encapsulates all interaction with the RPC subsystem,
// allowing it to be mocked out for testing. It returns a StoreClient that
// sends requests to the given store.
type StoreClientFactory func(context.Context, *roachpb.StoreDescriptor) (StoreClient, error)

// StoreClient sends coprocessor requests to a single store.
type StoreClient interface {
	// CoprocessStreaming sends req and returns the stream of responses.
	// Responses are delivered in the order the store produced them.
	CoprocessStreaming(ctx context.Context, req *kvpb.CoprocessorRequest) (ResponseStream, error)
}

// ResponseStream is the receiving end of a streaming coprocessor call. All
// calls are made from a single goroutine.
type ResponseStream interface {
	// Recv returns the next response, or io.EOF once the store has finished
	// sending.
	Recv() (*kvpb.SelectResponse, error)
	// Close abandons the stream. It is safe to call after Recv returned an
	// error, and more than once.
	Close()
}

// NewGRPCStoreClientFactory returns the default StoreClientFactory, which
// connects to stores through the dialer.
func NewGRPCStoreClientFactory(dialer *nodedialer.Dialer) StoreClientFactory {
	return func(ctx context.Context, store *roachpb.StoreDescriptor) (StoreClient, error) {
		conn, err := dialer.Dial(ctx, store.StoreID)
		if err != nil {
			return nil, err
		}
		return &grpcStoreClient{
			storeID: store.StoreID,
			client:  kvpb.NewCoprocessorClient(conn),
		}, nil
	}
}

type grpcStoreClient struct {
	storeID roachpb.StoreID
	client  kvpb.CoprocessorClient
}

// CoprocessStreaming implements StoreClient.
func (c *grpcStoreClient) CoprocessStreaming(
	ctx context.Context, req *kvpb.CoprocessorRequest,
) (ResponseStream, error) {
	// Bail out early if the context is already canceled.
	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), "aborted before coprocessor send")
	}
	ctx, cancel := context.WithCancel(ctx)
	stream, err := c.client.CoprocessorStream(ctx, req)
	if err != nil {
		cancel()
		return nil, errors.Wrapf(err, "sending coprocessor request to s%d", c.storeID)
	}
	return &grpcResponseStream{stream: stream, cancel: cancel}, nil
}

type grpcResponseStream struct {
	stream kvpb.Coprocessor_CoprocessorStreamClient
	cancel context.CancelFunc
}

func (s *grpcResponseStream) Recv() (*kvpb.SelectResponse, error) {
	return s.stream.Recv()
}

func (s *grpcResponseStream) Close() {
	s.cancel()
}
