package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for chunking observability spans and metrics.
var (
	AttrChunker    = attribute.Key("chunker.name")
	AttrTextBytes  = attribute.Key("chunker.text_bytes")
	AttrChunkCount = attribute.Key("chunker.chunk_count")
	AttrBatchSize  = attribute.Key("chunker.batch_size")
	AttrStatus     = attribute.Key("status")

	AttrEmbedProvider   = attribute.Key("embedding.provider")
	AttrEmbedTextCount  = attribute.Key("embedding.text_count")
	AttrEmbedDimensions = attribute.Key("embedding.dimensions")
)
