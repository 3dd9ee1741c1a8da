package morsel

import (
	"context"
	"fmt"
	"math"
)

// SemanticChunker splits where the embedding similarity between adjacent
// sentence windows drops below a threshold. Each window covers
// similarityWindow consecutive sentences and all windows are embedded in one
// batch call. A positive skipWindow suppresses a split when a window up to
// that many positions past the split is still similar — the nearest such
// match wins and farther ones are never consulted. Segments that exceed the
// token budget are subdivided by greedy sentence accumulation.
type SemanticChunker struct {
	tokenizer    Tokenizer
	embedding    EmbeddingProvider
	chunkSize    int
	threshold    float64
	window       int
	skipWindow   int
	minSentences int
	minCharsSent int
}

var _ Chunker = (*SemanticChunker)(nil)

// NewSemanticChunker creates a SemanticChunker.
func NewSemanticChunker(tok Tokenizer, embedding EmbeddingProvider, opts ...ChunkerOption) (*SemanticChunker, error) {
	cfg := applyOptions(opts)
	if err := cfg.validateBudget(); err != nil {
		return nil, err
	}
	if cfg.threshold <= 0 || cfg.threshold >= 1 {
		return nil, configError("threshold", "must be strictly between 0 and 1, got %g", cfg.threshold)
	}
	if cfg.similarityWindow < 1 {
		return nil, configError("similarity_window", "must be positive, got %d", cfg.similarityWindow)
	}
	if cfg.skipWindow < 0 {
		return nil, configError("skip_window", "must be non-negative, got %d", cfg.skipWindow)
	}
	if cfg.minSentencesPerChunk < 1 {
		return nil, configError("min_sentences_per_chunk", "must be positive, got %d", cfg.minSentencesPerChunk)
	}
	return &SemanticChunker{
		tokenizer:    tok,
		embedding:    embedding,
		chunkSize:    cfg.chunkSize,
		threshold:    cfg.threshold,
		window:       cfg.similarityWindow,
		skipWindow:   cfg.skipWindow,
		minSentences: cfg.minSentencesPerChunk,
		minCharsSent: cfg.minCharsPerSentence,
	}, nil
}

// Chunk implements Chunker. Embedding failures propagate: without the
// provider there is no similarity signal to split on.
func (sc *SemanticChunker) Chunk(ctx context.Context, text string) ([]Chunk, error) {
	if isBlank(text) {
		return nil, nil
	}

	spans := mergeShortSpans(sentenceSpans(text), sc.minCharsSent)
	sents := buildSentences(text, spans, sc.tokenizer)
	if len(sents) <= 1 {
		chunks := spansToChunks(text, []span{{0, len(text)}}, sc.tokenizer)
		return sc.attachEmbeddings(ctx, chunks)
	}

	splitAfter, err := sc.splitPoints(ctx, text, sents)
	if err != nil {
		return nil, err
	}

	var out []span
	start := 0
	for i := 0; i <= len(sents)-1; i++ {
		if i < len(splitAfter) && !splitAfter[i] {
			continue
		}
		out = append(out, sc.bound(sents[start:i+1])...)
		start = i + 1
	}
	if start < len(sents) {
		out = append(out, sc.bound(sents[start:])...)
	}

	chunks := spansToChunks(text, out, sc.tokenizer)
	return sc.attachEmbeddings(ctx, chunks)
}

// splitPoints embeds sentence windows and marks a split after sentence i when
// similarity between windows i and i+1 falls below the threshold, unless a
// nearby skip-window match suppresses it.
func (sc *SemanticChunker) splitPoints(ctx context.Context, text string, sents []sentence) ([]bool, error) {
	n := len(sents)
	winTexts := make([]string, n)
	for i := range sents {
		last := i + sc.window
		if last > n {
			last = n
		}
		winTexts[i] = text[sents[i].start:sents[last-1].end]
	}

	embs, err := sc.embedding.Embed(ctx, winTexts)
	if err != nil {
		return nil, err
	}
	if len(embs) != n {
		return nil, fmt.Errorf("%s: embedded %d windows, want %d", sc.embedding.Name(), len(embs), n)
	}

	splitAfter := make([]bool, n-1)
	for i := 0; i < n-1; i++ {
		splitAfter[i] = cosineSim(embs[i], embs[i+1]) < sc.threshold
	}

	if sc.skipWindow > 0 {
		for i := range splitAfter {
			if !splitAfter[i] {
				continue
			}
			// Nearest skip wins: the first similar window past the split
			// suppresses it; farther windows are not consulted.
			for d := 1; d <= sc.skipWindow; d++ {
				j := i + 1 + d
				if j >= n {
					break
				}
				if cosineSim(embs[i], embs[j]) >= sc.threshold {
					splitAfter[i] = false
					break
				}
			}
		}
	}
	return splitAfter, nil
}

// bound turns one semantic segment into spans within the token budget using
// greedy sentence accumulation.
func (sc *SemanticChunker) bound(group []sentence) []span {
	var spans []span
	i := 0
	for i < len(group) {
		tokens := 0
		j := i
		for j < len(group) {
			next := tokens + group[j].tokenCount
			if j > i && j-i >= sc.minSentences && next > sc.chunkSize {
				break
			}
			tokens = next
			j++
		}
		spans = append(spans, span{group[i].start, group[j-1].end})
		i = j
	}
	return spans
}

// attachEmbeddings embeds the final chunk texts in one batch and stores each
// vector on its chunk.
func (sc *SemanticChunker) attachEmbeddings(ctx context.Context, chunks []Chunk) ([]Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := sc.embedding.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("%s: embedded %d chunks, want %d", sc.embedding.Name(), len(vecs), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vecs[i]
	}
	return chunks, nil
}

// cosineSim computes cosine similarity between two vectors.
func cosineSim(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// ChunkBatch implements Chunker.
func (sc *SemanticChunker) ChunkBatch(ctx context.Context, texts []string) ([][]Chunk, error) {
	return chunkBatch(ctx, sc.Chunk, texts)
}

// ChunkDocument implements Chunker.
func (sc *SemanticChunker) ChunkDocument(ctx context.Context, doc *Document) (*Document, error) {
	return chunkDocument(ctx, sc.Chunk, doc)
}
