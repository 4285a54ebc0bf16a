// Package incrtrace traces incr graph activity with OpenTelemetry.
//
// The Tracer implements incr.Observer. Each top-level pull becomes a
// span; recomputations, validations, and failures inside the pull are
// recorded as span events with node attributes.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before creating the graph:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
//	g := incr.NewGraph(incr.WithObserver(incrtrace.New()))
package incrtrace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/incr-dev/incr/pkg/incr"
)

// Default tracer name for incr graphs.
const defaultTracerName = "incr"

// Config configures the tracer.
type Config struct {
	// TracerName is the name of the tracer (default: "incr").
	TracerName string

	// Context is the parent context for pull spans
	// (default: context.Background()).
	Context context.Context
}

// Option configures the tracer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithContext sets the parent context for pull spans, e.g. to parent
// them under an application span.
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		c.Context = ctx
	}
}

// Tracer is an incr.Observer that records a span per top-level pull.
//
// The graph delivers events synchronously from a single evaluation at a
// time, so one in-flight span is all that can exist; no locking needed.
type Tracer struct {
	tracer trace.Tracer
	parent context.Context
	span   trace.Span
}

// New creates a tracer backed by the global tracer provider.
func New(opts ...Option) *Tracer {
	config := Config{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	return &Tracer{
		tracer: otel.Tracer(config.TracerName),
		parent: config.Context,
	}
}

// Observe implements incr.Observer.
func (t *Tracer) Observe(e incr.Event) {
	switch ev := e.(type) {
	case incr.PullStarted:
		_, t.span = t.tracer.Start(t.parent, fmt.Sprintf("incr.pull node %d", ev.ID),
			trace.WithAttributes(attribute.Int64("incr.node_id", int64(ev.ID))))

	case incr.PullFinished:
		if t.span == nil {
			return
		}
		if ev.Err != nil {
			t.span.RecordError(ev.Err)
			t.span.SetStatus(codes.Error, ev.Err.Error())
		} else {
			t.span.SetStatus(codes.Ok, "")
		}
		t.span.End()
		t.span = nil

	case incr.Recomputed:
		if t.span == nil {
			return
		}
		t.span.AddEvent("recomputed", trace.WithAttributes(
			attribute.Int64("incr.node_id", int64(ev.ID)),
			attribute.Bool("incr.changed", ev.Changed),
			attribute.Int64("incr.duration_us", ev.Duration.Microseconds()),
		))

	case incr.Validated:
		if t.span == nil {
			return
		}
		t.span.AddEvent("validated", trace.WithAttributes(
			attribute.Int64("incr.node_id", int64(ev.ID)),
		))

	case incr.ComputeFailed:
		if t.span == nil {
			return
		}
		t.span.AddEvent("compute_failed", trace.WithAttributes(
			attribute.Int64("incr.node_id", int64(ev.ID)),
			attribute.String("incr.error", ev.Err.Error()),
		))
	}
}
