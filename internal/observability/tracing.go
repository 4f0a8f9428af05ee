// Package observability provides OpenTelemetry tracing and in-process
// metrics for the mapping service.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope name for all service spans.
const TracerName = "github.com/oakline/assessmap"

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// ServiceName is the reported service name (default: "assessmap").
	ServiceName string

	// ServiceVersion is the reported service version.
	ServiceVersion string

	// Environment is the deployment environment (dev, staging, prod).
	Environment string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g. "localhost:4317").
	// If empty, tracing is disabled.
	OTLPEndpoint string

	// SampleRate is the trace sampling rate (0.0 to 1.0, default: 1.0).
	SampleRate float64
}

// DefaultTracingConfig returns a default tracing configuration.
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    "assessmap",
		ServiceVersion: "0.1.0",
		Environment:    "development",
		SampleRate:     1.0,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initializes OpenTelemetry tracing. Returns a no-op tracer if
// OTLPEndpoint is empty.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}

	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{
			tracer: otel.Tracer(TracerName),
		}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(), // Use TLS in production
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.SampleRate <= 0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

// Shutdown gracefully shuts down the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Span kind attribute values.
const (
	SpanKindMatch   = "match"
	SpanKindBackend = "embedding_backend"
	SpanKindRequest = "http_request"
)

// StartMatchSpan starts a span for one mapping decision. mode is the
// mapping type ("question", "option" or "auto").
func StartMatchSpan(ctx context.Context, mode, conversationID string) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	attrs := []attribute.KeyValue{
		attribute.String("assessmap.span.kind", SpanKindMatch),
		attribute.String("assessmap.match.mode", mode),
	}
	if conversationID != "" {
		attrs = append(attrs, attribute.String("assessmap.conversation.id", conversationID))
	}
	return tracer.Start(ctx, fmt.Sprintf("match.%s", mode),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// StartBackendSpan starts a span for an embedding backend call.
func StartBackendSpan(ctx context.Context, space string) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	return tracer.Start(ctx, "embedding.backend",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("assessmap.span.kind", SpanKindBackend),
			attribute.String("assessmap.embedding.space", space),
		),
	)
}

// StartRequestSpan starts a span for an inbound HTTP request.
func StartRequestSpan(ctx context.Context, route string) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	return tracer.Start(ctx, fmt.Sprintf("http.%s", route),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("assessmap.span.kind", SpanKindRequest),
			attribute.String("http.route", route),
		),
	)
}

// RecordMatchResult annotates a match span with its outcome.
func RecordMatchResult(span trace.Span, mappingType string, confidence float64) {
	span.SetAttributes(
		attribute.String("assessmap.match.result", mappingType),
		attribute.Float64("assessmap.match.confidence", confidence),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
