// Package observer provides OTEL-based observability for chunking and
// embedding operations.
//
// It wraps morsel.Chunker and morsel.EmbeddingProvider with instrumented
// versions that emit traces and metrics via OpenTelemetry. The library never
// installs exporters; instruments are created from the global (or injected)
// providers, so applications keep full control of their telemetry pipeline.
package observer

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/nevindra/morsel/observer"

// Instruments holds all OTEL instruments used by the observer wrappers.
type Instruments struct {
	Tracer trace.Tracer
	Meter  metric.Meter

	// Counters
	ChunkCalls     metric.Int64Counter
	ChunksProduced metric.Int64Counter
	TokensChunked  metric.Int64Counter
	EmbedRequests  metric.Int64Counter

	// Histograms
	ChunkDuration metric.Float64Histogram
	EmbedDuration metric.Float64Histogram
}

// NewInstruments creates instruments from the given providers; nil providers
// select the OTEL globals.
func NewInstruments(tp trace.TracerProvider, mp metric.MeterProvider) (*Instruments, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	tracer := tp.Tracer(scopeName)
	meter := mp.Meter(scopeName)

	chunkCalls, err := meter.Int64Counter("chunker.calls",
		metric.WithDescription("Chunk call count"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, err
	}

	chunksProduced, err := meter.Int64Counter("chunker.chunks",
		metric.WithDescription("Chunks produced"),
		metric.WithUnit("{chunk}"))
	if err != nil {
		return nil, err
	}

	tokensChunked, err := meter.Int64Counter("chunker.tokens",
		metric.WithDescription("Tokens across produced chunks"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, err
	}

	embedRequests, err := meter.Int64Counter("embedding.requests",
		metric.WithDescription("Embedding request count"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	chunkDuration, err := meter.Float64Histogram("chunker.duration",
		metric.WithDescription("Chunk call duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	embedDuration, err := meter.Float64Histogram("embedding.duration",
		metric.WithDescription("Embedding call duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		Tracer:         tracer,
		Meter:          meter,
		ChunkCalls:     chunkCalls,
		ChunksProduced: chunksProduced,
		TokensChunked:  tokensChunked,
		EmbedRequests:  embedRequests,
		ChunkDuration:  chunkDuration,
		EmbedDuration:  embedDuration,
	}, nil
}
