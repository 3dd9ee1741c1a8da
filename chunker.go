package morsel

import (
	"context"
	"runtime"
	"strings"
	"sync"
)

// Chunker splits text into ordered, offset-exact chunks.
//
// Chunk is a pure function of the input and the chunker's immutable
// configuration; implementations hold no mutable state across calls, so a
// single chunker may be used from many goroutines as long as its
// collaborators (tokenizer, embedding client, inference session) tolerate
// concurrent use. Empty or whitespace-only input yields an empty result and
// a nil error.
type Chunker interface {
	// Chunk splits text into ordered chunks.
	Chunk(ctx context.Context, text string) ([]Chunk, error)
	// ChunkBatch chunks every text, preserving input order in the result.
	ChunkBatch(ctx context.Context, texts []string) ([][]Chunk, error)
	// ChunkDocument populates doc.Chunks from doc.Content when empty, or
	// re-chunks each existing chunk in place, rebasing offsets so they keep
	// pointing into the original content. Returns the same instance.
	ChunkDocument(ctx context.Context, doc *Document) (*Document, error)
}

// batchWorkerFraction of available cores used by chunkBatch.
const batchWorkerFraction = 0.75

// chunkBatch fans texts out over a bounded worker pool and reassembles
// results keyed by input index, so output order always matches input order.
// Cancellation is cooperative: it is checked before each item, and an
// in-flight item runs to completion once started.
func chunkBatch(ctx context.Context, chunk func(context.Context, string) ([]Chunk, error), texts []string) ([][]Chunk, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * batchWorkerFraction)
	if workers < 1 {
		workers = 1
	}
	if workers > len(texts) {
		workers = len(texts)
	}

	results := make([][]Chunk, len(texts))
	errs := make([]error, len(texts))
	work := make(chan int, len(texts))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					continue
				}
				results[i], errs[i] = chunk(ctx, texts[i])
			}
		}()
	}

	for i := range texts {
		work <- i
	}
	close(work)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// chunkDocument implements the shared ChunkDocument lifecycle.
func chunkDocument(ctx context.Context, chunk func(context.Context, string) ([]Chunk, error), doc *Document) (*Document, error) {
	if doc == nil {
		return nil, nil
	}
	if doc.ID == "" {
		doc.ID = NewID()
	}

	if len(doc.Chunks) == 0 {
		chunks, err := chunk(ctx, doc.Content)
		if err != nil {
			return nil, err
		}
		doc.Chunks = chunks
		return doc, nil
	}

	// Re-chunk each existing chunk independently, rebasing offsets onto the
	// original content through the old chunk's start.
	var rechunked []Chunk
	for _, old := range doc.Chunks {
		sub, err := chunk(ctx, old.Text)
		if err != nil {
			return nil, err
		}
		for _, c := range sub {
			c.StartIndex += old.StartIndex
			c.EndIndex += old.StartIndex
			rechunked = append(rechunked, c)
		}
	}
	doc.Chunks = rechunked
	return doc, nil
}

// spansToChunks materializes spans over text into Chunks, counting tokens in
// one batch call. Empty spans are dropped.
func spansToChunks(text string, spans []span, tok Tokenizer) []Chunk {
	kept := spans[:0:0]
	texts := make([]string, 0, len(spans))
	for _, s := range spans {
		if s.end <= s.start {
			continue
		}
		kept = append(kept, s)
		texts = append(texts, text[s.start:s.end])
	}
	if len(kept) == 0 {
		return nil
	}

	counts := tok.CountTokensBatch(texts)
	chunks := make([]Chunk, len(kept))
	for i, s := range kept {
		chunks[i] = Chunk{
			ID:         NewID(),
			Text:       texts[i],
			StartIndex: s.start,
			EndIndex:   s.end,
			TokenCount: counts[i],
		}
	}
	return chunks
}

// isBlank reports whether text is empty or whitespace-only.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
