// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package rpc

import (
	"github.com/cockroachdb/errors"
	"github.com/gogo/protobuf/proto"
	"google.golang.org/grpc/encoding"
	// Make sure the default proto codec is registered first, so that ours
	// replaces it.
	_ "google.golang.org/grpc/encoding/proto"
)

const name = "proto"

// codec marshals RPC payloads. Messages that encode themselves (as every
// kvpb message does) are asked to do so; anything else goes through the
// gogoproto reflection path.
type codec struct{}

var _ encoding.Codec = codec{}

type marshaler interface {
	Marshal() ([]byte, error)
}

type unmarshaler interface {
	Unmarshal([]byte) error
}

func (codec) Marshal(v interface{}) ([]byte, error) {
	if m, ok := v.(marshaler); ok {
		return m.Marshal()
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	return nil, errors.AssertionFailedf("cannot marshal %T", v)
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	if m, ok := v.(unmarshaler); ok {
		return m.Unmarshal(data)
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	return errors.AssertionFailedf("cannot unmarshal into %T", v)
}

func (codec) Name() string {
	return name
}

func init() {
	encoding.RegisterCodec(codec{})
}
