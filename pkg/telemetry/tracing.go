// Package telemetry provides OpenTelemetry tracing for analysis runs.
package telemetry

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
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope of every span.
const TracerName = "github.com/dd0wney/cluso-graphstats"

// Attribute keys set on stage spans.
const (
	AttrStage      = attribute.Key("graphstats.stage")
	AttrRunID      = attribute.Key("graphstats.run_id")
	AttrSampleSize = attribute.Key("graphstats.sample_size")
	AttrNodes      = attribute.Key("graphstats.graph.nodes")
	AttrEdges      = attribute.Key("graphstats.graph.edges")
	AttrCount      = attribute.Key("graphstats.count")
)

// Config configures tracing.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP gRPC endpoint (e.g. "localhost:4317").
	// Tracing is disabled when it is empty.
	Endpoint string

	// SampleRate is the trace sampling ratio in [0, 1].
	SampleRate float64

	Insecure bool
}

// DefaultConfig returns tracing disabled with full sampling.
func DefaultConfig() Config {
	return Config{
		ServiceName: "graphstats",
		SampleRate:  1.0,
	}
}

// Provider wraps the tracer provider used for a run.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// Init sets up tracing. With no endpoint it returns a provider whose spans
// are no-ops.
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		return Noop(), nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	p := newProvider(cfg, sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(p.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return p, nil
}

// NewWithExporter builds a provider that hands finished spans to exporter
// synchronously. The global provider is left untouched.
func NewWithExporter(cfg Config, exporter sdktrace.SpanExporter) *Provider {
	return newProvider(cfg, sdktrace.WithSyncer(exporter))
}

// Noop returns a provider that records nothing.
func Noop() *Provider {
	return &Provider{tracer: noop.NewTracerProvider().Tracer(TracerName)}
}

func newProvider(cfg Config, exportOpt sdktrace.TracerProviderOption) *Provider {
	attrs := []attribute.KeyValue{attribute.String("service.name", cfg.ServiceName)}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", cfg.ServiceVersion))
	}

	provider := sdktrace.NewTracerProvider(
		exportOpt,
		sdktrace.WithResource(resource.NewSchemaless(attrs...)),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	)
	return &Provider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Shutdown flushes and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// StartRun starts the root span of an analysis run.
func (p *Provider) StartRun(ctx context.Context, runID, input string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "graphstats.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrRunID.String(runID),
			attribute.String("graphstats.input", input),
		),
	)
}

// StartStage starts a span for one pipeline stage.
func (p *Provider) StartStage(ctx context.Context, stage string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "stage."+stage,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrStage.String(stage)),
	)
}

// RecordGraph sets the graph size on a span.
func RecordGraph(span trace.Span, nodes, edges int) {
	span.SetAttributes(AttrNodes.Int(nodes), AttrEdges.Int(edges))
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
