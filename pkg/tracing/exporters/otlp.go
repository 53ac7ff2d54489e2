package exporters

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const exportTimeout = 10 * time.Second

// Options configures the OTLP span exporter.
type Options struct {
	// Endpoint is the collector address, e.g. "localhost:4317" for
	// grpc or "localhost:4318" for http.
	Endpoint string

	// Protocol is "grpc" or "http". Empty means grpc.
	Protocol string

	// Headers are attached to every export request.
	Headers map[string]string
}

// NewOTLP builds a span exporter for the collector at opts.Endpoint.
// Collectors run as local sidecars, so TLS is not used.
func NewOTLP(ctx context.Context, opts Options) (*otlptrace.Exporter, error) {
	switch opts.Protocol {
	case "grpc", "":
		grpcOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(opts.Endpoint),
			otlptracegrpc.WithTimeout(exportTimeout),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			otlptracegrpc.WithInsecure(),
		}
		if len(opts.Headers) > 0 {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithHeaders(opts.Headers))
		}
		return otlptracegrpc.New(ctx, grpcOpts...)
	case "http":
		httpOpts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(opts.Endpoint),
			otlptracehttp.WithTimeout(exportTimeout),
			otlptracehttp.WithInsecure(),
		}
		if len(opts.Headers) > 0 {
			httpOpts = append(httpOpts, otlptracehttp.WithHeaders(opts.Headers))
		}
		return otlptracehttp.New(ctx, httpOpts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q (use grpc or http)", opts.Protocol)
	}
}
