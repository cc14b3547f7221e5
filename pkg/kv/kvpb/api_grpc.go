// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvpb

import (
	"context"

	"google.golang.org/grpc"
)

// CoprocessorStreamMethod is the full gRPC method name of the streaming
// coprocessor call.
const CoprocessorStreamMethod = "/rowscan.kvpb.Coprocessor/CoprocessorStream"

// CoprocessorClient is the client API for the Coprocessor service.
type CoprocessorClient interface {
	// CoprocessorStream evaluates the request and streams the results back
	// as a sequence of SelectResponses.
	CoprocessorStream(ctx context.Context, in *CoprocessorRequest, opts ...grpc.CallOption) (Coprocessor_CoprocessorStreamClient, error)
}

type coprocessorClient struct {
	cc grpc.ClientConnInterface
}

// NewCoprocessorClient returns a client for the Coprocessor service on cc.
func NewCoprocessorClient(cc grpc.ClientConnInterface) CoprocessorClient {
	return &coprocessorClient{cc}
}

func (c *coprocessorClient) CoprocessorStream(
	ctx context.Context, in *CoprocessorRequest, opts ...grpc.CallOption,
) (Coprocessor_CoprocessorStreamClient, error) {
	stream, err := c.cc.NewStream(ctx, &Coprocessor_ServiceDesc.Streams[0], CoprocessorStreamMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &coprocessorCoprocessorStreamClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// Coprocessor_CoprocessorStreamClient is the receiving side of a
// CoprocessorStream call.
type Coprocessor_CoprocessorStreamClient interface {
	Recv() (*SelectResponse, error)
	grpc.ClientStream
}

type coprocessorCoprocessorStreamClient struct {
	grpc.ClientStream
}

func (x *coprocessorCoprocessorStreamClient) Recv() (*SelectResponse, error) {
	m := new(SelectResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// CoprocessorServer is the server API for the Coprocessor service.
type CoprocessorServer interface {
	CoprocessorStream(*CoprocessorRequest, Coprocessor_CoprocessorStreamServer) error
}

// RegisterCoprocessorServer registers srv with s.
func RegisterCoprocessorServer(s grpc.ServiceRegistrar, srv CoprocessorServer) {
	s.RegisterService(&Coprocessor_ServiceDesc, srv)
}

func _Coprocessor_CoprocessorStream_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(CoprocessorRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(CoprocessorServer).CoprocessorStream(m, &coprocessorCoprocessorStreamServer{stream})
}

// Coprocessor_CoprocessorStreamServer is the sending side of a
// CoprocessorStream call.
type Coprocessor_CoprocessorStreamServer interface {
	Send(*SelectResponse) error
	grpc.ServerStream
}

type coprocessorCoprocessorStreamServer struct {
	grpc.ServerStream
}

func (x *coprocessorCoprocessorStreamServer) Send(m *SelectResponse) error {
	return x.ServerStream.SendMsg(m)
}

// Coprocessor_ServiceDesc is the grpc.ServiceDesc for the Coprocessor
// service.
var Coprocessor_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "rowscan.kvpb.Coprocessor",
	HandlerType: (*CoprocessorServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "CoprocessorStream",
			Handler:       _Coprocessor_CoprocessorStream_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "kv/kvpb/api.proto",
}
