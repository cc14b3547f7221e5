// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvpb

import (
	"fmt"

	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"github.com/gogo/protobuf/proto"
)

// ReqTypeDAG is the coprocessor request type carrying a marshaled
// DAGRequest.
const ReqTypeDAG int64 = 103

// KeyRange is the wire form of a roachpb.Span.
type KeyRange struct {
	Start []byte
	End   []byte
}

// MakeKeyRange converts a span into its wire form.
func MakeKeyRange(s roachpb.Span) KeyRange {
	return KeyRange{Start: s.Key, End: s.EndKey}
}

// Span converts the range back into a span.
func (m *KeyRange) Span() roachpb.Span {
	return roachpb.Span{Key: m.Start, EndKey: m.End}
}

func (m *KeyRange) Reset()         { *m = KeyRange{} }
func (m *KeyRange) String() string { return m.Span().String() }
func (*KeyRange) ProtoMessage()    {}

func (m *KeyRange) Size() int {
	n := 0
	if len(m.Start) > 0 {
		n += sizeBytesField(1, len(m.Start))
	}
	if len(m.End) > 0 {
		n += sizeBytesField(2, len(m.End))
	}
	return n
}

func (m *KeyRange) Marshal() ([]byte, error) { return marshal(m) }

func (m *KeyRange) MarshalTo(b []byte) []byte {
	b = appendBytesField(b, 1, m.Start)
	return appendBytesField(b, 2, m.End)
}

func (m *KeyRange) Unmarshal(data []byte) error {
	m.Reset()
	r := wireReader{b: data}
	for !r.done() {
		field, wt, err := r.tag()
		if err != nil {
			return err
		}
		switch field {
		case 1, 2:
			if err := expectWireType(field, wt, proto.WireBytes); err != nil {
				return err
			}
			v, err := r.bytes()
			if err != nil {
				return err
			}
			if field == 1 {
				m.Start = cloneBytes(v)
			} else {
				m.End = cloneBytes(v)
			}
		default:
			if err := r.skip(wt); err != nil {
				return err
			}
		}
	}
	return nil
}

// Chunk is one batch of encoded rows. Rows are concatenated without framing;
// the reader relies on the schema to find row boundaries.
type Chunk struct {
	RowsData []byte
}

func (m *Chunk) Reset()         { *m = Chunk{} }
func (m *Chunk) String() string { return fmt.Sprintf("chunk(%d bytes)", len(m.RowsData)) }
func (*Chunk) ProtoMessage()    {}

func (m *Chunk) Size() int {
	if len(m.RowsData) == 0 {
		return 0
	}
	return sizeBytesField(1, len(m.RowsData))
}

func (m *Chunk) Marshal() ([]byte, error) { return marshal(m) }

func (m *Chunk) MarshalTo(b []byte) []byte {
	return appendBytesField(b, 1, m.RowsData)
}

func (m *Chunk) Unmarshal(data []byte) error {
	m.Reset()
	r := wireReader{b: data}
	for !r.done() {
		field, wt, err := r.tag()
		if err != nil {
			return err
		}
		if field != 1 {
			if err := r.skip(wt); err != nil {
				return err
			}
			continue
		}
		if err := expectWireType(field, wt, proto.WireBytes); err != nil {
			return err
		}
		v, err := r.bytes()
		if err != nil {
			return err
		}
		m.RowsData = cloneBytes(v)
	}
	return nil
}

// SelectResponse is one message of a coprocessor response stream. A
// non-empty Error means the store failed to evaluate the request.
type SelectResponse struct {
	Error  string
	Chunks []Chunk
}

func (m *SelectResponse) Reset() { *m = SelectResponse{} }
func (m *SelectResponse) String() string {
	if m.Error != "" {
		return fmt.Sprintf("error: %s", m.Error)
	}
	return fmt.Sprintf("%d chunks", len(m.Chunks))
}
func (*SelectResponse) ProtoMessage() {}

func (m *SelectResponse) Size() int {
	n := 0
	if m.Error != "" {
		n += sizeBytesField(1, len(m.Error))
	}
	for i := range m.Chunks {
		n += sizeBytesField(3, m.Chunks[i].Size())
	}
	return n
}

func (m *SelectResponse) Marshal() ([]byte, error) { return marshal(m) }

func (m *SelectResponse) MarshalTo(b []byte) []byte {
	b = appendBytesField(b, 1, []byte(m.Error))
	for i := range m.Chunks {
		b = appendMessageField(b, 3, &m.Chunks[i])
	}
	return b
}

func (m *SelectResponse) Unmarshal(data []byte) error {
	m.Reset()
	r := wireReader{b: data}
	for !r.done() {
		field, wt, err := r.tag()
		if err != nil {
			return err
		}
		switch field {
		case 1:
			if err := expectWireType(field, wt, proto.WireBytes); err != nil {
				return err
			}
			v, err := r.bytes()
			if err != nil {
				return err
			}
			m.Error = string(v)
		case 3:
			if err := expectWireType(field, wt, proto.WireBytes); err != nil {
				return err
			}
			m.Chunks = append(m.Chunks, Chunk{})
			if err := r.message(&m.Chunks[len(m.Chunks)-1]); err != nil {
				return err
			}
		default:
			if err := r.skip(wt); err != nil {
				return err
			}
		}
	}
	return nil
}

// RegionContext identifies the region a request is addressed to. Stores
// reject requests whose epoch does not match their own.
type RegionContext struct {
	RegionID roachpb.RegionID
	ConfVer  uint64
	Version  uint64
	StoreID  roachpb.StoreID
}

// MakeRegionContext returns the context for requests to desc.
func MakeRegionContext(desc *roachpb.RegionDescriptor) *RegionContext {
	return &RegionContext{
		RegionID: desc.RegionID,
		ConfVer:  desc.Epoch.ConfVer,
		Version:  desc.Epoch.Version,
		StoreID:  desc.StoreID,
	}
}

func (m *RegionContext) Reset() { *m = RegionContext{} }
func (m *RegionContext) String() string {
	return fmt.Sprintf("r%d@s%d (conf %d, v%d)", m.RegionID, m.StoreID, m.ConfVer, m.Version)
}
func (*RegionContext) ProtoMessage() {}

func (m *RegionContext) Size() int {
	return sizeVarintField(1, uint64(m.RegionID)) +
		sizeVarintField(2, m.ConfVer) +
		sizeVarintField(3, m.Version) +
		sizeVarintField(4, uint64(m.StoreID))
}

func (m *RegionContext) Marshal() ([]byte, error) { return marshal(m) }

func (m *RegionContext) MarshalTo(b []byte) []byte {
	b = appendVarintField(b, 1, uint64(m.RegionID))
	b = appendVarintField(b, 2, m.ConfVer)
	b = appendVarintField(b, 3, m.Version)
	return appendVarintField(b, 4, uint64(m.StoreID))
}

func (m *RegionContext) Unmarshal(data []byte) error {
	m.Reset()
	r := wireReader{b: data}
	for !r.done() {
		field, wt, err := r.tag()
		if err != nil {
			return err
		}
		if field < 1 || field > 4 {
			if err := r.skip(wt); err != nil {
				return err
			}
			continue
		}
		if err := expectWireType(field, wt, proto.WireVarint); err != nil {
			return err
		}
		v, err := r.varint()
		if err != nil {
			return err
		}
		switch field {
		case 1:
			m.RegionID = roachpb.RegionID(v)
		case 2:
			m.ConfVer = v
		case 3:
			m.Version = v
		case 4:
			m.StoreID = roachpb.StoreID(v)
		}
	}
	return nil
}

// CoprocessorRequest asks a store to evaluate Data, a request of type Tp,
// over Ranges of the region identified by Context.
type CoprocessorRequest struct {
	Context *RegionContext
	Tp      int64
	Data    []byte
	Ranges  []KeyRange
}

func (m *CoprocessorRequest) Reset() { *m = CoprocessorRequest{} }
func (m *CoprocessorRequest) String() string {
	return fmt.Sprintf("coprocessor tp=%d ctx=%v ranges=%d data=%d bytes",
		m.Tp, m.Context, len(m.Ranges), len(m.Data))
}
func (*CoprocessorRequest) ProtoMessage() {}

func (m *CoprocessorRequest) Size() int {
	n := 0
	if m.Context != nil {
		n += sizeBytesField(1, m.Context.Size())
	}
	n += sizeVarintField(2, uint64(m.Tp))
	if len(m.Data) > 0 {
		n += sizeBytesField(3, len(m.Data))
	}
	for i := range m.Ranges {
		n += sizeBytesField(4, m.Ranges[i].Size())
	}
	return n
}

func (m *CoprocessorRequest) Marshal() ([]byte, error) { return marshal(m) }

func (m *CoprocessorRequest) MarshalTo(b []byte) []byte {
	if m.Context != nil {
		b = appendMessageField(b, 1, m.Context)
	}
	b = appendVarintField(b, 2, uint64(m.Tp))
	b = appendBytesField(b, 3, m.Data)
	for i := range m.Ranges {
		b = appendMessageField(b, 4, &m.Ranges[i])
	}
	return b
}

func (m *CoprocessorRequest) Unmarshal(data []byte) error {
	m.Reset()
	r := wireReader{b: data}
	for !r.done() {
		field, wt, err := r.tag()
		if err != nil {
			return err
		}
		switch field {
		case 1:
			if err := expectWireType(field, wt, proto.WireBytes); err != nil {
				return err
			}
			m.Context = &RegionContext{}
			if err := r.message(m.Context); err != nil {
				return err
			}
		case 2:
			if err := expectWireType(field, wt, proto.WireVarint); err != nil {
				return err
			}
			if m.Tp, err = r.int64(); err != nil {
				return err
			}
		case 3:
			if err := expectWireType(field, wt, proto.WireBytes); err != nil {
				return err
			}
			v, err := r.bytes()
			if err != nil {
				return err
			}
			m.Data = cloneBytes(v)
		case 4:
			if err := expectWireType(field, wt, proto.WireBytes); err != nil {
				return err
			}
			m.Ranges = append(m.Ranges, KeyRange{})
			if err := r.message(&m.Ranges[len(m.Ranges)-1]); err != nil {
				return err
			}
		default:
			if err := r.skip(wt); err != nil {
				return err
			}
		}
	}
	return nil
}

var (
	_ Message = (*KeyRange)(nil)
	_ Message = (*Chunk)(nil)
	_ Message = (*SelectResponse)(nil)
	_ Message = (*RegionContext)(nil)
	_ Message = (*CoprocessorRequest)(nil)
)
