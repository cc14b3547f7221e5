// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package kvcoord

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"github.com/cockroachdb/rowscan/pkg/rpc/nodedialer"
	"github.com/cockroachdb/rowscan/pkg/util/syncutil"
)

var errDescriptorNotFound = errors.New("unable to look up descriptor")

// IsDescriptorNotFoundError returns true if err reports a missing store or
// region descriptor.
func IsDescriptorNotFoundError(err error) bool {
	return errors.Is(err, errDescriptorNotFound)
}

// NewStoreNotFoundError returns an error reporting that storeID is unknown.
func NewStoreNotFoundError(storeID roachpb.StoreID) error {
	return errors.Wrapf(errDescriptorNotFound, "store s%d", storeID)
}

// NewRegionNotFoundError returns an error reporting that no cached region
// contains key.
func NewRegionNotFoundError(key roachpb.Key) error {
	return errors.Wrapf(errDescriptorNotFound, "region containing %s", key)
}

// StoreDescStore stores a collection of StoreDescriptors.
//
// Implementations of the interface are expected to be threadsafe.
type StoreDescStore interface {
	// GetStoreDescriptor looks up the store descriptor by store ID.
	// It returns an error if the store is not known.
	GetStoreDescriptor(roachpb.StoreID) (*roachpb.StoreDescriptor, error)
}

// StaticStoreDescStore is a StoreDescStore over a fixed set of stores, as
// read from a topology file.
type StaticStoreDescStore struct {
	mu struct {
		syncutil.RWMutex
		stores map[roachpb.StoreID]*roachpb.StoreDescriptor
	}
}

var _ StoreDescStore = (*StaticStoreDescStore)(nil)

// NewStaticStoreDescStore creates a store holding the given descriptors.
func NewStaticStoreDescStore(descs ...roachpb.StoreDescriptor) *StaticStoreDescStore {
	s := &StaticStoreDescStore{}
	s.mu.stores = make(map[roachpb.StoreID]*roachpb.StoreDescriptor, len(descs))
	for i := range descs {
		s.AddStore(descs[i])
	}
	return s
}

// AddStore adds or replaces the descriptor of desc.StoreID.
func (s *StaticStoreDescStore) AddStore(desc roachpb.StoreDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mu.stores[desc.StoreID] = &desc
}

// GetStoreDescriptor implements StoreDescStore.
func (s *StaticStoreDescStore) GetStoreDescriptor(
	storeID roachpb.StoreID,
) (*roachpb.StoreDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	desc, ok := s.mu.stores[storeID]
	if !ok {
		return nil, NewStoreNotFoundError(storeID)
	}
	return desc, nil
}

// AddressResolver adapts a StoreDescStore for use by a nodedialer.Dialer.
func AddressResolver(ds StoreDescStore) nodedialer.AddressResolver {
	return func(storeID roachpb.StoreID) (string, error) {
		desc, err := ds.GetStoreDescriptor(storeID)
		if err != nil {
			return "", err
		}
		return desc.Address, nil
	}
}
