// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package nodedialer

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/rowscan/pkg/roachpb"
	"github.com/cockroachdb/rowscan/pkg/rpc"
	"github.com/cockroachdb/rowscan/pkg/util/log"
	"google.golang.org/grpc"
)

// An AddressResolver translates StoreIDs into addresses.
type AddressResolver func(roachpb.StoreID) (string, error)

// A Dialer wraps an *rpc.Context for dialing based on store IDs.
type Dialer struct {
	rpcContext *rpc.Context
	resolver   AddressResolver
}

// New initializes a Dialer.
func New(rpcContext *rpc.Context, resolver AddressResolver) *Dialer {
	return &Dialer{
		rpcContext: rpcContext,
		resolver:   resolver,
	}
}

// Dial returns a grpc connection to the given store.
func (n *Dialer) Dial(ctx context.Context, storeID roachpb.StoreID) (*grpc.ClientConn, error) {
	if n == nil || n.resolver == nil {
		return nil, errors.New("no node dialer configured")
	}
	// Don't bother resolving if we're already canceled.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, errors.Wrap(ctxErr, "dial")
	}
	addr, err := n.resolver(storeID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve s%d", storeID)
	}
	conn, err := n.rpcContext.GRPCDial(ctx, addr)
	if err != nil {
		log.VEventf(ctx, 1, "unable to connect to s%d: %v", storeID, err)
		return nil, err
	}
	return conn, nil
}
