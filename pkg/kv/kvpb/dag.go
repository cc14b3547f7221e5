// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvpb

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/gogo/protobuf/proto"
)

// ColumnInfo describes one column read by a scan.
type ColumnInfo struct {
	ColumnID int64
	// Tp is the SQL name of the column type, e.g. "VARCHAR" or "BIGINT".
	Tp string
	// PKHandle is set for the integer primary key that doubles as the row
	// handle. Such a column is not stored in the row value.
	PKHandle bool
}

func (m *ColumnInfo) Reset()         { *m = ColumnInfo{} }
func (m *ColumnInfo) String() string { return fmt.Sprintf("c%d:%s", m.ColumnID, m.Tp) }
func (*ColumnInfo) ProtoMessage()    {}

func (m *ColumnInfo) Size() int {
	n := sizeVarintField(1, uint64(m.ColumnID))
	if m.Tp != "" {
		n += sizeBytesField(2, len(m.Tp))
	}
	if m.PKHandle {
		n += sizeVarintField(3, 1)
	}
	return n
}

func (m *ColumnInfo) Marshal() ([]byte, error) { return marshal(m) }

func (m *ColumnInfo) MarshalTo(b []byte) []byte {
	b = appendVarintField(b, 1, uint64(m.ColumnID))
	b = appendBytesField(b, 2, []byte(m.Tp))
	if m.PKHandle {
		b = appendVarintField(b, 3, 1)
	}
	return b
}

func (m *ColumnInfo) Unmarshal(data []byte) error {
	m.Reset()
	r := wireReader{b: data}
	for !r.done() {
		field, wt, err := r.tag()
		if err != nil {
			return err
		}
		switch field {
		case 1:
			if err := expectWireType(field, wt, proto.WireVarint); err != nil {
				return err
			}
			if m.ColumnID, err = r.int64(); err != nil {
				return err
			}
		case 2:
			if err := expectWireType(field, wt, proto.WireBytes); err != nil {
				return err
			}
			v, err := r.bytes()
			if err != nil {
				return err
			}
			m.Tp = string(v)
		case 3:
			if err := expectWireType(field, wt, proto.WireVarint); err != nil {
				return err
			}
			v, err := r.varint()
			if err != nil {
				return err
			}
			m.PKHandle = v != 0
		default:
			if err := r.skip(wt); err != nil {
				return err
			}
		}
	}
	return nil
}

// TableScan reads rows of a table in handle order.
type TableScan struct {
	TableID int64
	Columns []ColumnInfo
	Desc    bool
}

// IndexScan reads the handles of the rows matching an index range.
type IndexScan struct {
	TableID int64
	IndexID int64
	Columns []ColumnInfo
	Desc    bool
}

// ExecType identifies the executor kind.
type ExecType int32

const (
	// ExecTypeTableScan executors carry a TableScan.
	ExecTypeTableScan ExecType = 0
	// ExecTypeIndexScan executors carry an IndexScan.
	ExecTypeIndexScan ExecType = 1
)

func (t ExecType) String() string {
	switch t {
	case ExecTypeTableScan:
		return "TableScan"
	case ExecTypeIndexScan:
		return "IndexScan"
	default:
		return fmt.Sprintf("ExecType(%d)", int32(t))
	}
}

// Executor is one step of a DAG plan. Only scans are supported.
type Executor struct {
	Tp      ExecType
	TblScan *TableScan
	IdxScan *IndexScan
}

// scanFields is the shared wire layout of TableScan and IndexScan: the
// table ID is field 1, the index ID (index scans only) field 2, columns
// field 3 and the direction field 4.
type scanFields struct {
	tableID, indexID int64
	columns          []ColumnInfo
	desc             bool
}

func (s *scanFields) size() int {
	n := sizeVarintField(1, uint64(s.tableID)) + sizeVarintField(2, uint64(s.indexID))
	for i := range s.columns {
		n += sizeBytesField(3, s.columns[i].Size())
	}
	if s.desc {
		n += sizeVarintField(4, 1)
	}
	return n
}

func (s *scanFields) marshalTo(b []byte) []byte {
	b = appendVarintField(b, 1, uint64(s.tableID))
	b = appendVarintField(b, 2, uint64(s.indexID))
	for i := range s.columns {
		b = appendMessageField(b, 3, &s.columns[i])
	}
	if s.desc {
		b = appendVarintField(b, 4, 1)
	}
	return b
}

func (s *scanFields) unmarshal(data []byte) error {
	r := wireReader{b: data}
	for !r.done() {
		field, wt, err := r.tag()
		if err != nil {
			return err
		}
		switch field {
		case 1, 2, 4:
			if err := expectWireType(field, wt, proto.WireVarint); err != nil {
				return err
			}
			v, err := r.varint()
			if err != nil {
				return err
			}
			switch field {
			case 1:
				s.tableID = int64(v)
			case 2:
				s.indexID = int64(v)
			default:
				s.desc = v != 0
			}
		case 3:
			if err := expectWireType(field, wt, proto.WireBytes); err != nil {
				return err
			}
			s.columns = append(s.columns, ColumnInfo{})
			if err := r.message(&s.columns[len(s.columns)-1]); err != nil {
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

func (m *Executor) Reset() { *m = Executor{} }
func (m *Executor) String() string {
	switch {
	case m.TblScan != nil:
		return fmt.Sprintf("%s(t%d, %d cols)", m.Tp, m.TblScan.TableID, len(m.TblScan.Columns))
	case m.IdxScan != nil:
		return fmt.Sprintf("%s(t%d@i%d)", m.Tp, m.IdxScan.TableID, m.IdxScan.IndexID)
	default:
		return m.Tp.String()
	}
}
func (*Executor) ProtoMessage() {}

func (m *Executor) scan() (field int, s scanFields) {
	switch {
	case m.TblScan != nil:
		return 2, scanFields{tableID: m.TblScan.TableID, columns: m.TblScan.Columns, desc: m.TblScan.Desc}
	case m.IdxScan != nil:
		return 3, scanFields{tableID: m.IdxScan.TableID, indexID: m.IdxScan.IndexID,
			columns: m.IdxScan.Columns, desc: m.IdxScan.Desc}
	default:
		return 0, scanFields{}
	}
}

func (m *Executor) Size() int {
	n := sizeVarintField(1, uint64(m.Tp))
	if field, s := m.scan(); field != 0 {
		n += sizeBytesField(field, s.size())
	}
	return n
}

func (m *Executor) Marshal() ([]byte, error) { return marshal(m) }

func (m *Executor) MarshalTo(b []byte) []byte {
	b = appendVarintField(b, 1, uint64(m.Tp))
	if field, s := m.scan(); field != 0 {
		b = appendTag(b, field, proto.WireBytes)
		b = append(b, proto.EncodeVarint(uint64(s.size()))...)
		b = s.marshalTo(b)
	}
	return b
}

func (m *Executor) Unmarshal(data []byte) error {
	m.Reset()
	r := wireReader{b: data}
	for !r.done() {
		field, wt, err := r.tag()
		if err != nil {
			return err
		}
		switch field {
		case 1:
			if err := expectWireType(field, wt, proto.WireVarint); err != nil {
				return err
			}
			v, err := r.varint()
			if err != nil {
				return err
			}
			m.Tp = ExecType(v)
		case 2, 3:
			if err := expectWireType(field, wt, proto.WireBytes); err != nil {
				return err
			}
			v, err := r.bytes()
			if err != nil {
				return err
			}
			var s scanFields
			if err := s.unmarshal(v); err != nil {
				return err
			}
			if field == 2 {
				m.TblScan = &TableScan{TableID: s.tableID, Columns: s.columns, Desc: s.desc}
			} else {
				m.IdxScan = &IndexScan{TableID: s.tableID, IndexID: s.indexID, Columns: s.columns, Desc: s.desc}
			}
		default:
			if err := r.skip(wt); err != nil {
				return err
			}
		}
	}
	return nil
}

// DAGPlan is the payload of a ReqTypeDAG coprocessor request.
type DAGPlan struct {
	StartTS   uint64
	Executors []Executor
	// OutputOffsets selects, by position, the scan columns returned in each
	// row. Empty means all columns.
	OutputOffsets []uint32
}

func (m *DAGPlan) Reset() { *m = DAGPlan{} }
func (m *DAGPlan) String() string {
	return fmt.Sprintf("dag@%d %v out=%v", m.StartTS, m.Executors, m.OutputOffsets)
}
func (*DAGPlan) ProtoMessage() {}

func (m *DAGPlan) Size() int {
	n := sizeVarintField(1, m.StartTS)
	for i := range m.Executors {
		n += sizeBytesField(2, m.Executors[i].Size())
	}
	for _, o := range m.OutputOffsets {
		n += sizeTag(3) + proto.SizeVarint(uint64(o))
	}
	return n
}

func (m *DAGPlan) Marshal() ([]byte, error) { return marshal(m) }

func (m *DAGPlan) MarshalTo(b []byte) []byte {
	b = appendVarintField(b, 1, m.StartTS)
	for i := range m.Executors {
		b = appendMessageField(b, 2, &m.Executors[i])
	}
	for _, o := range m.OutputOffsets {
		b = appendTag(b, 3, proto.WireVarint)
		b = append(b, proto.EncodeVarint(uint64(o))...)
	}
	return b
}

func (m *DAGPlan) Unmarshal(data []byte) error {
	m.Reset()
	r := wireReader{b: data}
	for !r.done() {
		field, wt, err := r.tag()
		if err != nil {
			return err
		}
		switch field {
		case 1:
			if err := expectWireType(field, wt, proto.WireVarint); err != nil {
				return err
			}
			if m.StartTS, err = r.varint(); err != nil {
				return err
			}
		case 2:
			if err := expectWireType(field, wt, proto.WireBytes); err != nil {
				return err
			}
			m.Executors = append(m.Executors, Executor{})
			if err := r.message(&m.Executors[len(m.Executors)-1]); err != nil {
				return err
			}
		case 3:
			if err := expectWireType(field, wt, proto.WireVarint); err != nil {
				return err
			}
			v, err := r.varint()
			if err != nil {
				return err
			}
			m.OutputOffsets = append(m.OutputOffsets, uint32(v))
		default:
			if err := r.skip(wt); err != nil {
				return err
			}
		}
	}
	return nil
}

// Scan returns the single scan executor of the plan.
func (m *DAGPlan) Scan() (*Executor, error) {
	if len(m.Executors) != 1 {
		return nil, errors.Newf("expected exactly one scan executor, found %d", len(m.Executors))
	}
	e := &m.Executors[0]
	if (e.Tp == ExecTypeTableScan && e.TblScan == nil) || (e.Tp == ExecTypeIndexScan && e.IdxScan == nil) {
		return nil, errors.Newf("executor %s is missing its scan", e.Tp)
	}
	return e, nil
}

var (
	_ Message = (*ColumnInfo)(nil)
	_ Message = (*Executor)(nil)
	_ Message = (*DAGPlan)(nil)
)

// DAGRequest is the client-side description of a scan. It is turned into
// a DAGPlan for each region with BuildScan.
type DAGRequest struct {
	StartTS   uint64
	TableScan *TableScan
	// IndexScan, if set, is used instead of TableScan when the iterator runs
	// in index-scan mode.
	IndexScan     *IndexScan
	OutputOffsets []uint32
	// Ranges are the key ranges to scan, in scan order.
	Ranges []KeyRange
}

// TableID returns the table the request reads.
func (r *DAGRequest) TableID() int64 {
	if r.TableScan != nil {
		return r.TableScan.TableID
	}
	if r.IndexScan != nil {
		return r.IndexScan.TableID
	}
	return 0
}

// BuildScan returns the marshaled DAGPlan sent to stores. In index-scan
// mode the plan reads row handles through the request's IndexScan;
// otherwise it reads full rows through its TableScan.
func (r *DAGRequest) BuildScan(indexScan bool) ([]byte, error) {
	plan := DAGPlan{StartTS: r.StartTS}
	if indexScan {
		if r.IndexScan == nil {
			return nil, errors.New("index scan requested but the request has no index scan")
		}
		plan.Executors = []Executor{{Tp: ExecTypeIndexScan, IdxScan: r.IndexScan}}
	} else {
		if r.TableScan == nil {
			return nil, errors.New("table scan requested but the request has no table scan")
		}
		plan.Executors = []Executor{{Tp: ExecTypeTableScan, TblScan: r.TableScan}}
		plan.OutputOffsets = r.OutputOffsets
	}
	return plan.Marshal()
}
