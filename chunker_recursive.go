package morsel

import "context"

// RecursiveChunker descends an ordered level list: each level splits the
// spans that still exceed the token budget, and the final token level slices
// by raw token windows, so descent depth is bounded by the number of levels.
// Offsets are threaded through the descent as a base offset, so chunks always
// point into the original text rather than an intermediate substring.
type RecursiveChunker struct {
	tokenizer Tokenizer
	chunkSize int
	minChars  int
	rules     RecursiveRules
}

var _ Chunker = (*RecursiveChunker)(nil)

// NewRecursiveChunker creates a RecursiveChunker. Without WithRules it splits
// by paragraphs, lines, sentences, whitespace, then raw tokens.
func NewRecursiveChunker(tok Tokenizer, opts ...ChunkerOption) (*RecursiveChunker, error) {
	cfg := applyOptions(opts)
	if err := cfg.validateBudget(); err != nil {
		return nil, err
	}
	if cfg.minCharsPerChunk < 0 {
		return nil, configError("min_characters_per_chunk", "must be non-negative, got %d", cfg.minCharsPerChunk)
	}
	if err := cfg.rules.validate(); err != nil {
		return nil, err
	}
	return &RecursiveChunker{
		tokenizer: tok,
		chunkSize: cfg.chunkSize,
		minChars:  cfg.minCharsPerChunk,
		rules:     cfg.rules,
	}, nil
}

// Chunk implements Chunker.
func (rc *RecursiveChunker) Chunk(_ context.Context, text string) ([]Chunk, error) {
	if isBlank(text) {
		return nil, nil
	}
	spans := rc.split(text, 0, 0)
	spans = rc.mergeSmall(text, spans)
	return spansToChunks(text, spans, rc.tokenizer), nil
}

// split returns spans with offsets relative to the original text. base is the
// offset of sub within the original; level indexes into the rule list.
func (rc *RecursiveChunker) split(sub string, base, level int) []span {
	if rc.tokenizer.CountTokens(sub) <= rc.chunkSize {
		return []span{{base, base + len(sub)}}
	}
	if level >= len(rc.rules.Levels) {
		return rc.sliceTokens(sub, base)
	}

	rule := rc.rules.Levels[level]
	var pieces []span
	switch {
	case rule.isTokenLevel():
		return rc.sliceTokens(sub, base)
	case rule.Whitespace:
		pieces = splitWhitespace(sub)
	default:
		pieces = splitByDelimiters(sub, rule.Delimiters, rule.IncludeDelim)
	}

	if len(pieces) <= 1 {
		// Level made no progress; descend.
		return rc.split(sub, base, level+1)
	}

	var out []span
	for _, p := range pieces {
		piece := sub[p.start:p.end]
		if rc.tokenizer.CountTokens(piece) <= rc.chunkSize {
			out = append(out, span{base + p.start, base + p.end})
			continue
		}
		out = append(out, rc.split(piece, base+p.start, level+1)...)
	}
	return out
}

// sliceTokens cuts sub into token windows of the chunk size, recovering byte
// spans from cumulative decoded length. The final span always closes sub.
func (rc *RecursiveChunker) sliceTokens(sub string, base int) []span {
	ids := rc.tokenizer.Encode(sub)
	if len(ids) == 0 {
		return []span{{base, base + len(sub)}}
	}
	var spans []span
	pos := 0
	for start := 0; start < len(ids); start += rc.chunkSize {
		end := start + rc.chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		next := pos + len(rc.tokenizer.Decode(ids[start:end]))
		if end == len(ids) || next > len(sub) {
			next = len(sub)
		}
		next = alignBoundary(sub, next)
		if next > pos {
			spans = append(spans, span{base + pos, base + next})
		}
		pos = next
		if pos >= len(sub) {
			break
		}
	}
	if pos < len(sub) {
		spans = append(spans, span{base + pos, base + len(sub)})
	}
	return spans
}

// mergeSmall absorbs spans shorter than the character minimum into the next
// span (or the previous one for a trailing split), but only while the merged
// span stays within the token budget.
func (rc *RecursiveChunker) mergeSmall(text string, spans []span) []span {
	if rc.minChars <= 0 || len(spans) <= 1 {
		return spans
	}
	fits := func(s span) bool {
		return rc.tokenizer.CountTokens(text[s.start:s.end]) <= rc.chunkSize
	}

	var out []span
	i := 0
	for i < len(spans) {
		cur := spans[i]
		for cur.len() < rc.minChars && i+1 < len(spans) {
			merged := span{cur.start, spans[i+1].end}
			if !fits(merged) {
				break
			}
			cur = merged
			i++
		}
		out = append(out, cur)
		i++
	}
	if len(out) > 1 {
		last := out[len(out)-1]
		if last.len() < rc.minChars {
			merged := span{out[len(out)-2].start, last.end}
			if fits(merged) {
				out[len(out)-2] = merged
				out = out[:len(out)-1]
			}
		}
	}
	return out
}

// ChunkBatch implements Chunker.
func (rc *RecursiveChunker) ChunkBatch(ctx context.Context, texts []string) ([][]Chunk, error) {
	return chunkBatch(ctx, rc.Chunk, texts)
}

// ChunkDocument implements Chunker.
func (rc *RecursiveChunker) ChunkDocument(ctx context.Context, doc *Document) (*Document, error) {
	return chunkDocument(ctx, rc.Chunk, doc)
}
