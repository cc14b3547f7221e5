// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvcoord

import (
	"context"

	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/rowscan/pkg/kv/kvpb"
	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"github.com/cockroachdb/rowscan/pkg/util/log"
)

// RegionTask is the unit of work of a scan: the part of the requested key
// ranges owned by one region, and the store to send it to. Tasks are
// read-only once built.
type RegionTask struct {
	Region *roachpb.RegionDescriptor
	Store  *roachpb.StoreDescriptor
	Ranges []kvpb.KeyRange
}

// SafeFormat implements the redact.SafeFormatter interface.
func (t *RegionTask) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("task r%d@s%d ranges=%d", t.Region.RegionID, t.Store.StoreID, redact.Safe(len(t.Ranges)))
}

func (t *RegionTask) String() string {
	return redact.StringWithoutMarkers(t)
}

// RangeSplitter divides key ranges along region boundaries.
type RangeSplitter struct {
	regions *RegionCache
	stores  StoreDescStore
}

// NewRangeSplitter creates a RangeSplitter resolving regions through the
// given cache and their stores through ds.
func NewRangeSplitter(regions *RegionCache, ds StoreDescStore) *RangeSplitter {
	return &RangeSplitter{regions: regions, stores: ds}
}

// SplitRangeByRegion merges the given ranges and clips them against the
// regions they intersect. The returned tasks are ordered by key, and each
// region appears at most once. Every key of the input must be covered by a
// cached region.
func (s *RangeSplitter) SplitRangeByRegion(
	ctx context.Context, ranges []kvpb.KeyRange,
) ([]*RegionTask, error) {
	spans := make([]roachpb.Span, 0, len(ranges))
	for _, r := range ranges {
		spans = append(spans, r.Span())
	}
	spans, _ = roachpb.MergeSpans(spans)

	var tasks []*RegionTask
	for _, sp := range spans {
		key := sp.Key
		for {
			desc := s.regions.LookupRegion(key)
			if desc == nil {
				return nil, NewRegionNotFoundError(key)
			}
			clipped, ok := sp.Intersect(desc.Span())
			if !ok {
				return nil, NewRegionNotFoundError(key)
			}
			if n := len(tasks); n > 0 && tasks[n-1].Region.RegionID == desc.RegionID {
				tasks[n-1].Ranges = append(tasks[n-1].Ranges, kvpb.MakeKeyRange(clipped))
			} else {
				store, err := s.stores.GetStoreDescriptor(desc.StoreID)
				if err != nil {
					return nil, err
				}
				tasks = append(tasks, &RegionTask{
					Region: desc,
					Store:  store,
					Ranges: []kvpb.KeyRange{kvpb.MakeKeyRange(clipped)},
				})
			}
			if desc.Span().Unbounded() ||
				roachpb.CompareEndKeys(sp.EndKey, desc.EndKey) <= 0 {
				break
			}
			key = desc.EndKey
		}
	}
	log.VEventf(ctx, 2, "split %d ranges into %d region tasks", redact.Safe(len(ranges)), redact.Safe(len(tasks)))
	return tasks, nil
}
