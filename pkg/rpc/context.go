// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package rpc

import (
	"context"
	"net"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/rowscan/pkg/util/log"
	"github.com/cockroachdb/rowscan/pkg/util/syncutil"
	"github.com/cockroachdb/rowscan/pkg/util/timeutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// defaultConnectTimeout bounds a single connection attempt when
// Config.ConnectTimeout is unset.
const defaultConnectTimeout = 5 * time.Second

// ErrClosed is returned when dialing through a closed Context.
var ErrClosed = errors.New("rpc context closed")

// Config holds the transport settings shared by clients and servers.
type Config struct {
	// Compression enables snappy compression of every call made through
	// connections of this Context.
	Compression bool
	// ConnectTimeout bounds each connection attempt. Defaults to 5s.
	ConnectTimeout time.Duration

	// ContextDialer, if set, replaces the TCP dialer. Tests use it to
	// connect through an in-memory listener.
	ContextDialer func(ctx context.Context, addr string) (net.Conn, error)
}

// Context holds the connections to stores. Connections are created on first
// use and shared by all callers dialing the same address.
type Context struct {
	cfg     Config
	metrics Metrics

	mu struct {
		syncutil.Mutex
		conns  map[string]*grpc.ClientConn
		closed bool
	}
}

// NewContext creates an rpc.Context with the supplied configuration.
func NewContext(cfg Config) *Context {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	c := &Context{cfg: cfg, metrics: makeMetrics()}
	c.mu.conns = map[string]*grpc.ClientConn{}
	return c
}

// Metrics returns the Context's metrics struct.
func (c *Context) Metrics() *Metrics {
	return &c.metrics
}

func (c *Context) dialOptions() []grpc.DialOption {
	callOpts := []grpc.CallOption{grpc.ForceCodec(codec{})}
	if c.cfg.Compression {
		callOpts = append(callOpts, grpc.UseCompressor(snappyCompressorName))
	}
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(callOpts...),
		grpc.WithBlock(),
		grpc.WithReturnConnectionError(),
	}
	if c.cfg.ContextDialer != nil {
		opts = append(opts, grpc.WithContextDialer(c.cfg.ContextDialer))
	}
	return opts
}

// GRPCDial returns a connection to target, dialing it if no connection is
// cached yet. The returned connection must not be closed by the caller; it
// is closed by Close.
func (c *Context) GRPCDial(ctx context.Context, target string) (*grpc.ClientConn, error) {
	c.mu.Lock()
	if c.mu.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if conn, ok := c.mu.conns[target]; ok {
		c.mu.Unlock()
		return conn, nil
	}
	c.mu.Unlock()

	c.metrics.Dials.Inc(1)
	start := timeutil.Now()
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()
	conn, err := grpc.DialContext(dialCtx, target, c.dialOptions()...)
	if err != nil {
		c.metrics.DialFailures.Inc(1)
		return nil, errors.Wrapf(err, "dialing %s", redact.Safe(target))
	}
	c.metrics.DialLatency.RecordValue(timeutil.Since(start).Nanoseconds())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.closed {
		_ = conn.Close()
		return nil, ErrClosed
	}
	// Another caller may have won the race to connect.
	if existing, ok := c.mu.conns[target]; ok {
		_ = conn.Close()
		return existing, nil
	}
	c.mu.conns[target] = conn
	c.metrics.Connections.Inc(1)
	log.VEventf(ctx, 2, "connected to %s", redact.Safe(target))
	return conn, nil
}

// Close closes every cached connection. Dialing after Close fails with
// ErrClosed.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.closed {
		return nil
	}
	c.mu.closed = true
	var err error
	for target, conn := range c.mu.conns {
		err = errors.CombineErrors(err, errors.Wrapf(conn.Close(), "closing %s", redact.Safe(target)))
		delete(c.mu.conns, target)
		c.metrics.Connections.Dec(1)
	}
	return err
}

// NewServer returns a grpc.Server that speaks the same wire codec and
// compressors as clients created through a Context.
func NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ForceServerCodec(codec{})}, opts...)
	return grpc.NewServer(opts...)
}
