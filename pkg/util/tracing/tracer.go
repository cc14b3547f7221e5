// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/cockroachdb/rowscan"

// Tracer returns the tracer spans are created with when the context carries
// no span of its own.
func Tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(instrumentationName)
}

// ChildSpan opens a span as a child of the current span in the context. If
// the context has no span, a root span is created from the global tracer
// provider.
//
// Returns the new context and the new span. The span should be closed via
// FinishSpan.
func ChildSpan(
	ctx context.Context, opName string, attrs ...attribute.KeyValue,
) (context.Context, trace.Span) {
	tr := Tracer()
	if parent := trace.SpanFromContext(ctx); parent.SpanContext().IsValid() {
		tr = parent.TracerProvider().Tracer(instrumentationName)
	}
	return tr.Start(ctx, opName, trace.WithAttributes(attrs...))
}

// FinishSpan closes the given span (if not nil), recording err on it first
// when there is one.
func FinishSpan(sp trace.Span, err error) {
	if sp == nil {
		return
	}
	if err != nil {
		sp.RecordError(err)
		sp.SetStatus(codes.Error, err.Error())
	}
	sp.End()
}
