package morsel

import (
	"context"
	"fmt"
)

// LateChunker splits with an internal RecursiveChunker, then embeds the
// resulting chunk texts in one batch and attaches each vector to its chunk.
// Boundaries are identical to RecursiveChunker's; only the Embedding field
// differs. Embeddings are chunk-granular, never per token.
type LateChunker struct {
	recursive *RecursiveChunker
	embedding EmbeddingProvider
}

var _ Chunker = (*LateChunker)(nil)

// NewLateChunker creates a LateChunker.
func NewLateChunker(tok Tokenizer, embedding EmbeddingProvider, opts ...ChunkerOption) (*LateChunker, error) {
	recursive, err := NewRecursiveChunker(tok, opts...)
	if err != nil {
		return nil, err
	}
	return &LateChunker{recursive: recursive, embedding: embedding}, nil
}

// Chunk implements Chunker. Embedding failures propagate; late chunking
// without embeddings is just recursive chunking, which the caller can use
// directly.
func (lc *LateChunker) Chunk(ctx context.Context, text string) ([]Chunk, error) {
	chunks, err := lc.recursive.Chunk(ctx, text)
	if err != nil || len(chunks) == 0 {
		return chunks, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := lc.embedding.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("%s: embedded %d chunks, want %d", lc.embedding.Name(), len(vecs), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vecs[i]
	}
	return chunks, nil
}

// ChunkBatch implements Chunker.
func (lc *LateChunker) ChunkBatch(ctx context.Context, texts []string) ([][]Chunk, error) {
	return chunkBatch(ctx, lc.Chunk, texts)
}

// ChunkDocument implements Chunker.
func (lc *LateChunker) ChunkDocument(ctx context.Context, doc *Document) (*Document, error) {
	return chunkDocument(ctx, lc.Chunk, doc)
}
