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

// ObservedEmbedding wraps a morsel.EmbeddingProvider with OTEL
// instrumentation.
type ObservedEmbedding struct {
	inner morsel.EmbeddingProvider
	inst  *Instruments
}

var _ morsel.EmbeddingProvider = (*ObservedEmbedding)(nil)

// WrapEmbedding returns an instrumented embedding provider.
func WrapEmbedding(inner morsel.EmbeddingProvider, inst *Instruments) *ObservedEmbedding {
	return &ObservedEmbedding{inner: inner, inst: inst}
}

func (o *ObservedEmbedding) Name() string    { return o.inner.Name() }
func (o *ObservedEmbedding) Dimensions() int { return o.inner.Dimensions() }

func (o *ObservedEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "embedding.embed", trace.WithAttributes(
		AttrEmbedProvider.String(o.inner.Name()),
		AttrEmbedTextCount.Int(len(texts)),
		AttrEmbedDimensions.Int(o.inner.Dimensions()),
	))
	defer span.End()
	start := time.Now()

	result, err := o.inner.Embed(ctx, texts)

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	attrs := metric.WithAttributes(
		AttrEmbedProvider.String(o.inner.Name()),
		attribute.String("status", status),
	)
	o.inst.EmbedRequests.Add(ctx, 1, attrs)
	o.inst.EmbedDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

	return result, err
}
