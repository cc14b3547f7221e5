// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvcoord

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"github.com/cockroachdb/rowscan/pkg/util/log"
	"github.com/cockroachdb/rowscan/pkg/util/syncutil"
	"github.com/google/btree"
)

// regionCacheEntry is the item type stored in the RegionCache btree. Entries
// are ordered by the end key of their region; an unbounded end key sorts
// last.
type regionCacheEntry struct {
	desc *roachpb.RegionDescriptor
}

func (e *regionCacheEntry) Less(other btree.Item) bool {
	return roachpb.CompareEndKeys(e.desc.EndKey, other.(*regionCacheEntry).desc.EndKey) < 0
}

// searchEntry returns a btree pivot that orders before the entry of every
// region whose end key is strictly greater than key.
func searchEntry(key roachpb.Key) *regionCacheEntry {
	return &regionCacheEntry{desc: &roachpb.RegionDescriptor{EndKey: key.Next()}}
}

// RegionCache is an ordered index of region descriptors. The index is keyed
// by end key, so the region containing a key is the first region whose end
// key is greater than it.
//
// Regions in the cache never overlap: inserting a descriptor evicts the
// overlapping ones, unless one of them carries a newer epoch, in which case
// the insertion is dropped.
type RegionCache struct {
	mu struct {
		syncutil.RWMutex
		tree *btree.BTree
	}
}

// NewRegionCache returns an empty RegionCache.
func NewRegionCache() *RegionCache {
	rc := &RegionCache{}
	rc.mu.tree = btree.New(8 /* degree */)
	return rc
}

func (rc *RegionCache) String() string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	var buf strings.Builder
	buf.WriteString("region cache:")
	rc.mu.tree.Ascend(func(i btree.Item) bool {
		buf.WriteString("\n  ")
		buf.WriteString(i.(*regionCacheEntry).desc.String())
		return true
	})
	return buf.String()
}

// Len returns the number of cached regions.
func (rc *RegionCache) Len() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.mu.tree.Len()
}

// Clear removes every region from the cache.
func (rc *RegionCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.mu.tree.Clear(false /* addNodesToFreelist */)
}

// Insert adds the provided descriptors to the cache.
func (rc *RegionCache) Insert(ctx context.Context, descs ...roachpb.RegionDescriptor) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	for i := range descs {
		desc := descs[i]
		if !desc.Span().Valid() {
			return errors.AssertionFailedf("inserting invalid region descriptor %s", &desc)
		}
		if !rc.clearOlderOverlappingLocked(ctx, &desc) {
			continue
		}
		if log.V(2) {
			log.Infof(ctx, "adding region descriptor %s", &desc)
		}
		rc.mu.tree.ReplaceOrInsert(&regionCacheEntry{desc: &desc})
	}
	return nil
}

// clearOlderOverlappingLocked evicts the cached descriptors overlapping desc
// that are not newer than it. Returns false if a newer (or identical)
// overlapping descriptor is cached; older ones are evicted regardless.
func (rc *RegionCache) clearOlderOverlappingLocked(
	ctx context.Context, desc *roachpb.RegionDescriptor,
) bool {
	var toEvict []btree.Item
	newest := true
	rc.mu.tree.AscendGreaterOrEqual(searchEntry(desc.StartKey), func(i btree.Item) bool {
		cached := i.(*regionCacheEntry).desc
		if len(desc.EndKey) != 0 && cached.StartKey.Compare(desc.EndKey) >= 0 {
			return false
		}
		if desc.Epoch.Version <= cached.Epoch.Version {
			newest = false
		} else {
			toEvict = append(toEvict, i)
		}
		return true
	})
	for _, i := range toEvict {
		if log.V(2) {
			log.Infof(ctx, "clearing overlapping region descriptor %s", i.(*regionCacheEntry).desc)
		}
		rc.mu.tree.Delete(i)
	}
	return newest
}

// LookupRegion returns the cached region containing key, or nil if there is
// none.
func (rc *RegionCache) LookupRegion(key roachpb.Key) *roachpb.RegionDescriptor {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	var desc *roachpb.RegionDescriptor
	rc.mu.tree.AscendGreaterOrEqual(searchEntry(key), func(i btree.Item) bool {
		desc = i.(*regionCacheEntry).desc
		return false
	})
	if desc == nil || !desc.ContainsKey(key) {
		return nil
	}
	return desc
}

// EvictByKey evicts the region containing the given key, if any.
//
// Returns true if a descriptor was evicted.
func (rc *RegionCache) EvictByKey(ctx context.Context, key roachpb.Key) bool {
	desc := rc.LookupRegion(key)
	if desc == nil {
		return false
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	log.VEventf(ctx, 2, "evict cached region descriptor %s", desc)
	return rc.mu.tree.Delete(&regionCacheEntry{desc: desc}) != nil
}
