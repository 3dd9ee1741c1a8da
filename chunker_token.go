package morsel

import "context"

// TokenChunker slides a fixed window over the token ids of the whole text.
// The window is chunkSize tokens and advances by chunkSize-overlap, so zero
// overlap yields contiguous windows and a positive overlap repeats that many
// trailing tokens at the start of the next chunk. Character spans are
// recovered by tracking cumulative decoded length, then aligned so no
// boundary lands inside a code point or combining sequence.
type TokenChunker struct {
	tokenizer Tokenizer
	chunkSize int
	overlap   int
}

var _ Chunker = (*TokenChunker)(nil)

// NewTokenChunker creates a TokenChunker.
func NewTokenChunker(tok Tokenizer, opts ...ChunkerOption) (*TokenChunker, error) {
	cfg := applyOptions(opts)
	if err := cfg.validateBudget(); err != nil {
		return nil, err
	}
	return &TokenChunker{
		tokenizer: tok,
		chunkSize: cfg.chunkSize,
		overlap:   cfg.overlap,
	}, nil
}

// Chunk implements Chunker.
func (tc *TokenChunker) Chunk(_ context.Context, text string) ([]Chunk, error) {
	if isBlank(text) {
		return nil, nil
	}

	ids := tc.tokenizer.Encode(text)
	if len(ids) == 0 {
		return nil, nil
	}

	step := tc.chunkSize - tc.overlap
	var spans []span
	pos := 0
	for start := 0; start < len(ids); start += step {
		end := start + tc.chunkSize
		if end > len(ids) {
			end = len(ids)
		}

		chunkStart := alignBoundary(text, pos)
		chunkEnd := pos + len(tc.tokenizer.Decode(ids[start:end]))
		if end == len(ids) {
			// Decoded length may drift from the original for lossy
			// tokenizers; the final window always closes the text.
			chunkEnd = len(text)
		}
		chunkEnd = alignBoundary(text, chunkEnd)
		spans = append(spans, span{chunkStart, chunkEnd})

		if end == len(ids) {
			break
		}
		pos += len(tc.tokenizer.Decode(ids[start : start+step]))
	}

	return spansToChunks(text, spans, tc.tokenizer), nil
}

// ChunkBatch implements Chunker.
func (tc *TokenChunker) ChunkBatch(ctx context.Context, texts []string) ([][]Chunk, error) {
	return chunkBatch(ctx, tc.Chunk, texts)
}

// ChunkDocument implements Chunker.
func (tc *TokenChunker) ChunkDocument(ctx context.Context, doc *Document) (*Document, error) {
	return chunkDocument(ctx, tc.Chunk, doc)
}
