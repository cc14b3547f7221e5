// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvpb

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/gogo/protobuf/proto"
)

// Message is implemented by every type in this package that crosses the
// wire. The encoding is the protobuf binary format described by api.proto,
// so messages can be inspected with standard protobuf tooling.
type Message interface {
	proto.Message
	Size() int
	Marshal() ([]byte, error)
	MarshalTo(b []byte) []byte
	Unmarshal(data []byte) error
}

// ErrInvalidWire marks errors produced while unmarshaling malformed input.
var ErrInvalidWire = errors.New("invalid wire encoding")

func wireErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ErrInvalidWire)
}

func sizeTag(field int) int {
	return proto.SizeVarint(uint64(field) << 3)
}

func appendTag(b []byte, field int, wireType int) []byte {
	return append(b, proto.EncodeVarint(uint64(field)<<3|uint64(wireType))...)
}

func sizeVarintField(field int, v uint64) int {
	if v == 0 {
		return 0
	}
	return sizeTag(field) + proto.SizeVarint(v)
}

func appendVarintField(b []byte, field int, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = appendTag(b, field, proto.WireVarint)
	return append(b, proto.EncodeVarint(v)...)
}

func sizeBytesField(field int, n int) int {
	return sizeTag(field) + proto.SizeVarint(uint64(n)) + n
}

func appendBytesField(b []byte, field int, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = appendTag(b, field, proto.WireBytes)
	b = append(b, proto.EncodeVarint(uint64(len(v)))...)
	return append(b, v...)
}

func appendMessageField(b []byte, field int, m Message) []byte {
	b = appendTag(b, field, proto.WireBytes)
	b = append(b, proto.EncodeVarint(uint64(m.Size()))...)
	return m.MarshalTo(b)
}

func marshal(m Message) ([]byte, error) {
	return m.MarshalTo(make([]byte, 0, m.Size())), nil
}

// wireReader walks the fields of one encoded message.
type wireReader struct {
	b []byte
}

func (r *wireReader) done() bool { return len(r.b) == 0 }

func (r *wireReader) varint() (uint64, error) {
	x, n := proto.DecodeVarint(r.b)
	if n == 0 {
		return 0, wireErrorf("truncated varint")
	}
	r.b = r.b[n:]
	return x, nil
}

func (r *wireReader) int64() (int64, error) {
	x, err := r.varint()
	return int64(x), err
}

func (r *wireReader) tag() (field int, wireType int, err error) {
	x, err := r.varint()
	if err != nil {
		return 0, 0, err
	}
	if x>>3 == 0 || x>>3 > math.MaxInt32 {
		return 0, 0, wireErrorf("invalid field number %d", x>>3)
	}
	return int(x >> 3), int(x & 7), nil
}

// bytes returns the next length-delimited payload. The result aliases the
// input buffer.
func (r *wireReader) bytes() ([]byte, error) {
	n, err := r.varint()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(r.b)) {
		return nil, wireErrorf("length %d exceeds remaining %d bytes", n, len(r.b))
	}
	v := r.b[:n:n]
	r.b = r.b[n:]
	return v, nil
}

func (r *wireReader) message(m Message) error {
	b, err := r.bytes()
	if err != nil {
		return err
	}
	return m.Unmarshal(b)
}

// skip discards a field this version does not know about.
func (r *wireReader) skip(wireType int) error {
	var n int
	switch wireType {
	case proto.WireVarint:
		_, err := r.varint()
		return err
	case proto.WireBytes:
		_, err := r.bytes()
		return err
	case proto.WireFixed64:
		n = 8
	case proto.WireFixed32:
		n = 4
	default:
		return wireErrorf("unsupported wire type %d", wireType)
	}
	if len(r.b) < n {
		return wireErrorf("truncated fixed-width field")
	}
	r.b = r.b[n:]
	return nil
}

func expectWireType(field, got, want int) error {
	if got != want {
		return wireErrorf("field %d: wire type %d, expected %d", field, got, want)
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
