package morsel

import "context"

// SentenceChunker accumulates whole sentences into chunks. Sentences come
// from the built-in boundary finder, or from a custom delimiter set given via
// WithDelimiters. Candidate sentences shorter than the per-sentence minimum
// are merged into the following sentence rather than dropped, and a chunk is
// never closed below the minimum sentence count unless input is exhausted.
// Overlap is expressed in sentences repeated at the start of the next chunk.
type SentenceChunker struct {
	tokenizer    Tokenizer
	chunkSize    int
	overlap      int
	minCharsSent int
	minSentences int
	delimiters   []string
	includeDelim IncludeDelim
}

var _ Chunker = (*SentenceChunker)(nil)

// NewSentenceChunker creates a SentenceChunker.
func NewSentenceChunker(tok Tokenizer, opts ...ChunkerOption) (*SentenceChunker, error) {
	cfg := applyOptions(opts)
	if err := cfg.validateBudget(); err != nil {
		return nil, err
	}
	if cfg.minSentencesPerChunk < 1 {
		return nil, configError("min_sentences_per_chunk", "must be at least 1, got %d", cfg.minSentencesPerChunk)
	}
	if cfg.minCharsPerSentence < 0 {
		return nil, configError("min_characters_per_sentence", "must be non-negative, got %d", cfg.minCharsPerSentence)
	}
	return &SentenceChunker{
		tokenizer:    tok,
		chunkSize:    cfg.chunkSize,
		overlap:      cfg.overlap,
		minCharsSent: cfg.minCharsPerSentence,
		minSentences: cfg.minSentencesPerChunk,
		delimiters:   cfg.delimiters,
		includeDelim: cfg.includeDelim,
	}, nil
}

// sentences splits text into sentence values honoring the configured
// delimiter set and the per-sentence minimum.
func (sc *SentenceChunker) sentences(text string) []sentence {
	var spans []span
	if len(sc.delimiters) > 0 {
		spans = splitByDelimiters(text, sc.delimiters, sc.includeDelim)
	} else {
		spans = sentenceSpans(text)
	}
	spans = mergeShortSpans(spans, sc.minCharsSent)
	return buildSentences(text, spans, sc.tokenizer)
}

// Chunk implements Chunker.
func (sc *SentenceChunker) Chunk(_ context.Context, text string) ([]Chunk, error) {
	if isBlank(text) {
		return nil, nil
	}

	sents := sc.sentences(text)
	if len(sents) == 0 {
		return nil, nil
	}

	var spans []span
	i := 0
	for i < len(sents) {
		tokens := 0
		j := i
		for j < len(sents) {
			next := tokens + sents[j].tokenCount
			if j > i && j-i >= sc.minSentences && next > sc.chunkSize {
				break
			}
			tokens = next
			j++
		}
		spans = append(spans, span{sents[i].start, sents[j-1].end})
		if j >= len(sents) {
			break
		}
		// Step back by the configured sentence overlap, keeping progress.
		advance := j - i - sc.overlap
		if advance < 1 {
			advance = 1
		}
		i += advance
	}

	return spansToChunks(text, spans, sc.tokenizer), nil
}

// ChunkBatch implements Chunker.
func (sc *SentenceChunker) ChunkBatch(ctx context.Context, texts []string) ([][]Chunk, error) {
	return chunkBatch(ctx, sc.Chunk, texts)
}

// ChunkDocument implements Chunker.
func (sc *SentenceChunker) ChunkDocument(ctx context.Context, doc *Document) (*Document, error) {
	return chunkDocument(ctx, sc.Chunk, doc)
}
