// Package telemetry wires OpenTelemetry tracing into the data portal.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/anoideaopen/dataportal/version"
)

// CollectorEndpoint describes where spans are exported.
type CollectorEndpoint struct {
	Endpoint      string            // host:port of the OTLP/HTTP collector; empty disables export.
	Insecure      bool              // Plain HTTP instead of HTTPS.
	CACertsBase64 string            // Optional base64 PEM bundle trusted for HTTPS.
	Headers       map[string]string // Extra headers sent with every export.
}

// InstallTraceProvider builds a tracer provider exporting to settings over
// OTLP/HTTP, installs it globally along with the W3C trace-context and
// baggage propagators, and returns it. Without an endpoint a noop provider is
// installed.
func InstallTraceProvider(settings *CollectorEndpoint, serviceName string) (trace.TracerProvider, error) {
	var tracerProvider trace.TracerProvider = noop.NewTracerProvider()

	defer func() {
		otel.SetTracerProvider(tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	}()

	if settings == nil || len(settings.Endpoint) == 0 {
		return tracerProvider, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(settings.Endpoint)}
	if len(settings.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(settings.Headers))
	}
	switch {
	case settings.Insecure:
		opts = append(opts, otlptracehttp.WithInsecure())
	case settings.CACertsBase64 != "":
		cfg, err := tlsConfig(settings.CACertsBase64)
		if err != nil {
			return tracerProvider, err
		}
		opts = append(opts, otlptracehttp.WithTLSClientConfig(cfg))
	}

	exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient(opts...))
	if err != nil {
		return tracerProvider, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version.Version())))
	if err != nil {
		return tracerProvider, fmt.Errorf("creating resource: %w", err)
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r))
	return tracerProvider, nil
}
