// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package log implements context-aware logging on top of a zap sink.
//
// Every entry is prefixed with the logging tags carried by the context (see
// github.com/cockroachdb/logtags) and formatted with
// github.com/cockroachdb/redact, so that values which were not declared safe
// can be masked out of the log output when redaction is enabled:
//
//	ctx = logtags.AddTag(ctx, "r", regionID)
//	log.Infof(ctx, "decoded handle %d", handle)
//	// [r12] decoded handle ‹×›   (with Config.Redact)
package log

import (
	"context"
	"io"
	"os"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/rowscan/pkg/util/syncutil"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level specifies a level of verbosity for V logs.
type Level int32

// Config controls the process-wide logger.
type Config struct {
	// Verbosity enables V(level) logging for every level <= Verbosity.
	Verbosity Level
	// Redact replaces unsafe values in messages with a redaction marker.
	Redact bool
	// Format is "text" (default) or "json".
	Format string
	// Output receives the log entries. Defaults to os.Stderr.
	Output io.Writer
}

var logging struct {
	syncutil.RWMutex
	logger *zap.Logger
	redact bool
}

var verbosity atomic.Int32

func init() {
	if err := Init(Config{}); err != nil {
		panic(err)
	}
}

// Init replaces the process-wide logger. It is safe to call concurrently
// with logging, but is meant to be called once at process startup.
func Init(cfg Config) error {
	var encoder zapcore.Encoder
	switch cfg.Format {
	case "", "text":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return errors.Newf("unknown log format %q", cfg.Format)
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), zapcore.DebugLevel)
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))

	logging.Lock()
	defer logging.Unlock()
	if logging.logger != nil {
		_ = logging.logger.Sync()
	}
	logging.logger = logger
	logging.redact = cfg.Redact
	verbosity.Store(int32(cfg.Verbosity))
	return nil
}

// Flush writes out any buffered log entries.
func Flush() {
	logging.RLock()
	defer logging.RUnlock()
	_ = logging.logger.Sync()
}

// V returns true if the logging verbosity is set to the specified level or
// higher.
func V(level Level) bool {
	return Level(verbosity.Load()) >= level
}

// Infof logs to the INFO log.
func Infof(ctx context.Context, format string, args ...interface{}) {
	logf(ctx, zapcore.InfoLevel, format, args...)
}

// Warningf logs to the WARNING log.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	logf(ctx, zapcore.WarnLevel, format, args...)
}

// Errorf logs to the ERROR log.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	logf(ctx, zapcore.ErrorLevel, format, args...)
}

// Fatalf logs to the FATAL log and terminates the process.
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	logf(ctx, zapcore.FatalLevel, format, args...)
}

// VEventf either logs a message to the INFO log if the verbosity is at least
// level, or records it as an event on the span in the context if that span
// is recording. Both can happen.
func VEventf(ctx context.Context, level Level, format string, args ...interface{}) {
	sp := trace.SpanFromContext(ctx)
	recording := sp.IsRecording()
	logged := V(level)
	if !recording && !logged {
		return
	}
	msg := render(ctx, format, args...)
	if recording {
		sp.AddEvent(msg)
	}
	if logged {
		write(zapcore.InfoLevel, msg)
	}
}

func logf(ctx context.Context, lvl zapcore.Level, format string, args ...interface{}) {
	write(lvl, render(ctx, format, args...))
}

func write(lvl zapcore.Level, msg string) {
	logging.RLock()
	logger := logging.logger
	logging.RUnlock()
	if ce := logger.Check(lvl, msg); ce != nil {
		ce.Write()
	}
}

// render builds the log message: the context tags in brackets followed by
// the formatted arguments.
func render(ctx context.Context, format string, args ...interface{}) string {
	var b redact.StringBuilder
	if tags := logtags.FromContext(ctx); tags != nil {
		formatTags(&b, tags)
	}
	b.Printf(format, args...)
	msg := b.RedactableString()

	logging.RLock()
	redactable := logging.redact
	logging.RUnlock()
	if redactable {
		return string(msg.Redact())
	}
	return msg.StripMarkers()
}

func formatTags(b *redact.StringBuilder, tags *logtags.Buffer) {
	b.SafeRune('[')
	for i, t := range tags.Get() {
		if i > 0 {
			b.SafeRune(',')
		}
		b.SafeString(redact.SafeString(t.Key()))
		if v := t.Value(); v != nil {
			if len(t.Key()) > 1 {
				b.SafeRune('=')
			}
			b.Print(v)
		}
	}
	b.SafeString("] ")
}
