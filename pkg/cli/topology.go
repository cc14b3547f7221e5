// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"context"
	"io"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/keys"
	"github.com/cockroachdb/rowscan/pkg/kv/kvclient/kvcoord"
	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"gopkg.in/yaml.v3"
)

// topology describes where the regions of one table live. It is read from
// the file given with --topology.
type topology struct {
	Stores  []storeConfig  `yaml:"stores"`
	Regions []regionConfig `yaml:"regions"`
}

type storeConfig struct {
	ID      uint64 `yaml:"id"`
	Address string `yaml:"address"`
}

// regionConfig bounds a region by row handles. StartHandle is inclusive and
// EndHandle exclusive; a missing bound extends the region to the start or
// end of the key space.
type regionConfig struct {
	ID          uint64 `yaml:"id"`
	StartHandle *int64 `yaml:"start_handle"`
	EndHandle   *int64 `yaml:"end_handle"`
	StoreID     uint64 `yaml:"store_id"`
	ConfVer     uint64 `yaml:"conf_ver"`
	Version     uint64 `yaml:"version"`
}

func loadTopologyFile(path string) (*topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening topology file")
	}
	defer f.Close()
	return parseTopology(f)
}

func parseTopology(r io.Reader) (*topology, error) {
	var t topology
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&t); err != nil {
		return nil, errors.Wrap(err, "parsing topology")
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *topology) validate() error {
	if len(t.Stores) == 0 {
		return errors.New("topology has no stores")
	}
	stores := map[uint64]bool{}
	for _, s := range t.Stores {
		if s.ID == 0 {
			return errors.New("store ID must be non-zero")
		}
		if s.Address == "" {
			return errors.Newf("store s%d has no address", s.ID)
		}
		if stores[s.ID] {
			return errors.Newf("duplicate store s%d", s.ID)
		}
		stores[s.ID] = true
	}
	if len(t.Regions) == 0 {
		return errors.New("topology has no regions")
	}
	regions := map[uint64]bool{}
	for _, r := range t.Regions {
		if r.ID == 0 {
			return errors.New("region ID must be non-zero")
		}
		if regions[r.ID] {
			return errors.Newf("duplicate region r%d", r.ID)
		}
		regions[r.ID] = true
		if !stores[r.StoreID] {
			return errors.Newf("region r%d refers to unknown store s%d", r.ID, r.StoreID)
		}
		if r.StartHandle != nil && r.EndHandle != nil && *r.StartHandle >= *r.EndHandle {
			return errors.Newf("region r%d is empty: [%d, %d)", r.ID, *r.StartHandle, *r.EndHandle)
		}
	}
	return nil
}

// storeDescStore returns the store descriptors of the topology.
func (t *topology) storeDescStore() *kvcoord.StaticStoreDescStore {
	ds := kvcoord.NewStaticStoreDescStore()
	for _, s := range t.Stores {
		ds.AddStore(roachpb.StoreDescriptor{StoreID: roachpb.StoreID(s.ID), Address: s.Address})
	}
	return ds
}

// regionDescriptors returns the descriptors of the table's regions, ordered
// by start key.
func (t *topology) regionDescriptors(tableID int64) []roachpb.RegionDescriptor {
	descs := make([]roachpb.RegionDescriptor, 0, len(t.Regions))
	for _, r := range t.Regions {
		desc := roachpb.RegionDescriptor{
			RegionID: roachpb.RegionID(r.ID),
			Epoch:    roachpb.RegionEpoch{ConfVer: r.ConfVer, Version: r.Version},
			StoreID:  roachpb.StoreID(r.StoreID),
		}
		if r.StartHandle != nil {
			desc.StartKey = keys.MakeRowKey(tableID, *r.StartHandle).Key()
		}
		if r.EndHandle != nil {
			desc.EndKey = keys.MakeRowKey(tableID, *r.EndHandle).Key()
		}
		descs = append(descs, desc)
	}
	sort.Slice(descs, func(i, j int) bool {
		return descs[i].StartKey.Compare(descs[j].StartKey) < 0
	})
	return descs
}

// rangeSplitter builds the region cache of the table and returns a splitter
// over it.
func (t *topology) rangeSplitter(ctx context.Context, tableID int64) (*kvcoord.RangeSplitter, error) {
	cache := kvcoord.NewRegionCache()
	descs := t.regionDescriptors(tableID)
	for i := 1; i < len(descs); i++ {
		prev := descs[i-1].Span()
		if prev.Unbounded() || prev.EndKey.Compare(descs[i].StartKey) > 0 {
			return nil, errors.Newf("regions r%d and r%d overlap", descs[i-1].RegionID, descs[i].RegionID)
		}
	}
	if err := cache.Insert(ctx, descs...); err != nil {
		return nil, err
	}
	return kvcoord.NewRangeSplitter(cache, t.storeDescStore()), nil
}
