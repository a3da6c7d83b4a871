package sublinear

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Resource attribute keys that have no semconv equivalent.
const (
	attrCommit  = attribute.Key("vcs.repository.ref.revision")
	attrDialect = attribute.Key("sublinear.store.dialect")
)

// TraceConfig identifies the running build on exported spans.
type TraceConfig struct {
	ServiceName string
	Version     string
	Commit      string
	// Endpoint is an OTLP/HTTP collector URL. Empty leaves tracing off.
	Endpoint string
	// Dialect names the storage backend ("sqlite" or "postgres").
	Dialect string
}

// TraceConfig builds the tracing settings for this configuration.
func (c Config) TraceConfig(version, commit, dialect string) TraceConfig {
	return TraceConfig{
		ServiceName: c.ServiceName,
		Version:     version,
		Commit:      commit,
		Endpoint:    c.OTLPEndpoint,
		Dialect:     dialect,
	}
}

// InitTracer installs a TracerProvider exporting to tc.Endpoint. Without an
// endpoint the global provider is left alone and shutdown does nothing.
func InitTracer(ctx context.Context, tc TraceConfig) (func(context.Context) error, error) {
	if tc.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(tc.Endpoint))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(traceResource(tc)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func traceResource(tc TraceConfig) *resource.Resource {
	name := tc.ServiceName
	if name == "" {
		name = "sublinear"
	}
	version := tc.Version
	if version == "" {
		version = "dev"
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(name),
		semconv.ServiceVersion(version),
	}
	if tc.Commit != "" {
		attrs = append(attrs, attrCommit.String(tc.Commit))
	}
	if tc.Dialect != "" {
		attrs = append(attrs, attrDialect.String(tc.Dialect))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}
