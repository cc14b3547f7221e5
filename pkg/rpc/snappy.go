// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package rpc

import (
	"io"
	"sync"

	"github.com/golang/snappy"
	"google.golang.org/grpc/encoding"
)

// snappyCompressorName is the name clients pass to grpc.UseCompressor.
const snappyCompressorName = "snappy"

type snappyWriter struct {
	*snappy.Writer
}

func (w *snappyWriter) Close() error {
	defer snappyWriterPool.Put(w)
	return w.Writer.Close()
}

type snappyReader struct {
	*snappy.Reader
}

func (r *snappyReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	if err == io.EOF {
		r.Reset(nil)
		snappyReaderPool.Put(r)
	}
	return n, err
}

var snappyWriterPool sync.Pool
var snappyReaderPool sync.Pool

// snappyCompressor implements grpc's encoding.Compressor with pooled snappy
// readers and writers.
type snappyCompressor struct{}

func (snappyCompressor) Name() string {
	return snappyCompressorName
}

func (snappyCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	sw, ok := snappyWriterPool.Get().(*snappyWriter)
	if !ok {
		sw = &snappyWriter{snappy.NewBufferedWriter(w)}
	} else {
		sw.Reset(w)
	}
	return sw, nil
}

func (snappyCompressor) Decompress(r io.Reader) (io.Reader, error) {
	sr, ok := snappyReaderPool.Get().(*snappyReader)
	if !ok {
		sr = &snappyReader{snappy.NewReader(r)}
	} else {
		sr.Reset(r)
	}
	return sr, nil
}

func init() {
	encoding.RegisterCompressor(snappyCompressor{})
}
