// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var _ TracingInterface = (*Tracer)(nil)

type Tracer struct {
	tracer trace.Tracer
}

func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// NewTracer wires the global otel tracer provider against the configured OTLP
// endpoint. With tracing disabled or no endpoint set, spans are noops.
func NewTracer(c *Config) *Tracer {
	t := new(Tracer)

	if !c.Enabled {
		t.tracer = noop.NewTracerProvider().Tracer("krafter-backend")
		return t
	}

	var client otlptrace.Client
	switch {
	case c.OtelGRPCEndpoint != "":
		client = otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(c.OtelGRPCEndpoint),
			otlptracegrpc.WithInsecure(),
		)
	case c.OtelHTTPEndpoint != "":
		client = otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(c.OtelHTTPEndpoint),
			otlptracehttp.WithInsecure(),
		)
	default:
		t.tracer = noop.NewTracerProvider().Tracer("krafter-backend")
		return t
	}

	exporter, err := otlptrace.New(context.Background(), client)
	if err != nil {
		c.Logger.Errorf("failed to create otlp exporter, falling back to noop tracing: %v", err)
		t.tracer = noop.NewTracerProvider().Tracer("krafter-backend")
		return t
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	t.tracer = tp.Tracer("krafter-backend")
	return t
}

// NewNoopTracer returns a tracer producing inert spans, for tests.
func NewNoopTracer() *Tracer {
	return &Tracer{tracer: noop.NewTracerProvider().Tracer("krafter-backend")}
}
