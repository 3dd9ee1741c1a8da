package observer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	morsel "github.com/nevindra/morsel"
)

// ObservedChunker wraps a morsel.Chunker with OTEL instrumentation.
type ObservedChunker struct {
	inner morsel.Chunker
	inst  *Instruments
	name  string
}

var _ morsel.Chunker = (*ObservedChunker)(nil)

// WrapChunker returns an instrumented chunker. name labels the spans and
// metrics, e.g. "recursive".
func WrapChunker(inner morsel.Chunker, name string, inst *Instruments) *ObservedChunker {
	return &ObservedChunker{inner: inner, inst: inst, name: name}
}

// Chunk implements morsel.Chunker.
func (o *ObservedChunker) Chunk(ctx context.Context, text string) ([]morsel.Chunk, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "chunker.chunk", trace.WithAttributes(
		AttrChunker.String(o.name),
		AttrTextBytes.Int(len(text)),
	))
	defer span.End()
	start := time.Now()

	chunks, err := o.inner.Chunk(ctx, text)

	o.record(ctx, span, chunks, time.Since(start), err)
	return chunks, err
}

// ChunkBatch implements morsel.Chunker.
func (o *ObservedChunker) ChunkBatch(ctx context.Context, texts []string) ([][]morsel.Chunk, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "chunker.chunk_batch", trace.WithAttributes(
		AttrChunker.String(o.name),
		AttrBatchSize.Int(len(texts)),
	))
	defer span.End()
	start := time.Now()

	results, err := o.inner.ChunkBatch(ctx, texts)

	var flat []morsel.Chunk
	for _, chunks := range results {
		flat = append(flat, chunks...)
	}
	o.record(ctx, span, flat, time.Since(start), err)
	return results, err
}

// ChunkDocument implements morsel.Chunker.
func (o *ObservedChunker) ChunkDocument(ctx context.Context, doc *morsel.Document) (*morsel.Document, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "chunker.chunk_document", trace.WithAttributes(
		AttrChunker.String(o.name),
	))
	defer span.End()
	start := time.Now()

	doc, err := o.inner.ChunkDocument(ctx, doc)

	var chunks []morsel.Chunk
	if doc != nil {
		chunks = doc.Chunks
	}
	o.record(ctx, span, chunks, time.Since(start), err)
	return doc, err
}

func (o *ObservedChunker) record(ctx context.Context, span trace.Span, chunks []morsel.Chunk, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(AttrChunkCount.Int(len(chunks)))

	attrs := metric.WithAttributes(
		AttrChunker.String(o.name),
		attribute.String("status", status),
	)
	o.inst.ChunkCalls.Add(ctx, 1, attrs)
	o.inst.ChunkDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)

	if err == nil {
		tokens := 0
		for _, c := range chunks {
			tokens += c.TokenCount
		}
		chunkAttrs := metric.WithAttributes(AttrChunker.String(o.name))
		o.inst.ChunksProduced.Add(ctx, int64(len(chunks)), chunkAttrs)
		o.inst.TokensChunked.Add(ctx, int64(tokens), chunkAttrs)
	}
}
