package morsel

import (
	"context"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// MarkdownChunker splits at markdown heading boundaries. Headings are located
// through the goldmark AST, so setext headings and headings inside block
// structure are handled the same way a renderer would see them. A section is
// a heading plus everything up to the next heading; small sections merge up
// to the token budget and oversized ones fall back to recursive splitting.
// Heading markers stay in the chunk text for LLM context.
type MarkdownChunker struct {
	tokenizer Tokenizer
	chunkSize int
	md        goldmark.Markdown
	fallback  *RecursiveChunker
}

var _ Chunker = (*MarkdownChunker)(nil)

// NewMarkdownChunker creates a MarkdownChunker.
func NewMarkdownChunker(tok Tokenizer, opts ...ChunkerOption) (*MarkdownChunker, error) {
	cfg := applyOptions(opts)
	if err := cfg.validateBudget(); err != nil {
		return nil, err
	}
	fallback, err := NewRecursiveChunker(tok, WithChunkSize(cfg.chunkSize), WithMinCharactersPerChunk(cfg.minCharsPerChunk), WithRules(cfg.rules))
	if err != nil {
		return nil, err
	}
	return &MarkdownChunker{
		tokenizer: tok,
		chunkSize: cfg.chunkSize,
		md:        goldmark.New(),
		fallback:  fallback,
	}, nil
}

// Chunk implements Chunker.
func (mc *MarkdownChunker) Chunk(ctx context.Context, text string) ([]Chunk, error) {
	if isBlank(text) {
		return nil, nil
	}

	sections := mc.sections(text)
	sections = mc.mergeSections(text, sections)

	var chunks []Chunk
	for _, s := range sections {
		if mc.tokenizer.CountTokens(text[s.start:s.end]) <= mc.chunkSize {
			chunks = append(chunks, spansToChunks(text, []span{s}, mc.tokenizer)...)
			continue
		}
		sub, err := mc.fallback.Chunk(ctx, text[s.start:s.end])
		if err != nil {
			return nil, err
		}
		for _, c := range sub {
			c.StartIndex += s.start
			c.EndIndex += s.start
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}

// sections partitions text at heading line starts found in the AST.
func (mc *MarkdownChunker) sections(text string) []span {
	src := []byte(text)
	doc := mc.md.Parser().Parse(gmtext.NewReader(src))

	var starts []int
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		off := h.Lines().At(0).Start
		// The segment starts at the heading text; back up to the line start
		// to keep the marker in the section.
		for off > 0 && text[off-1] != '\n' {
			off--
		}
		starts = append(starts, off)
		return ast.WalkSkipChildren, nil
	})

	var spans []span
	prev := 0
	for _, s := range starts {
		if s <= prev {
			continue
		}
		spans = append(spans, span{prev, s})
		prev = s
	}
	if prev < len(text) {
		spans = append(spans, span{prev, len(text)})
	}
	return spans
}

// mergeSections greedily joins adjacent sections while they fit the budget.
func (mc *MarkdownChunker) mergeSections(text string, sections []span) []span {
	if len(sections) <= 1 {
		return sections
	}
	texts := make([]string, len(sections))
	for i, s := range sections {
		texts[i] = text[s.start:s.end]
	}
	counts := mc.tokenizer.CountTokensBatch(texts)

	var out []span
	i := 0
	for i < len(sections) {
		cur := sections[i]
		tokens := counts[i]
		for i+1 < len(sections) && tokens+counts[i+1] <= mc.chunkSize {
			i++
			cur.end = sections[i].end
			tokens += counts[i]
		}
		out = append(out, cur)
		i++
	}
	return out
}

// ChunkBatch implements Chunker.
func (mc *MarkdownChunker) ChunkBatch(ctx context.Context, texts []string) ([][]Chunk, error) {
	return chunkBatch(ctx, mc.Chunk, texts)
}

// ChunkDocument implements Chunker.
func (mc *MarkdownChunker) ChunkDocument(ctx context.Context, doc *Document) (*Document, error) {
	return chunkDocument(ctx, mc.Chunk, doc)
}
