package morsel

import "context"

// CodeChunker accumulates structural units instead of sentences. A unit runs
// from one top-level boundary to the next: boundaries sit at line starts
// where bracket depth is zero outside strings and comments, so a braced or
// bracketed block is never cut in the middle. Units are packed into chunks up
// to the token budget; a single unit over the budget is emitted whole, the
// one case where the budget is a soft ceiling. Concatenating the chunk texts
// reproduces the input exactly, comments and whitespace included.
type CodeChunker struct {
	tokenizer Tokenizer
	chunkSize int
}

var _ Chunker = (*CodeChunker)(nil)

// NewCodeChunker creates a CodeChunker.
func NewCodeChunker(tok Tokenizer, opts ...ChunkerOption) (*CodeChunker, error) {
	cfg := applyOptions(opts)
	if err := cfg.validateBudget(); err != nil {
		return nil, err
	}
	return &CodeChunker{tokenizer: tok, chunkSize: cfg.chunkSize}, nil
}

// Chunk implements Chunker.
func (cc *CodeChunker) Chunk(_ context.Context, text string) ([]Chunk, error) {
	if isBlank(text) {
		return nil, nil
	}

	units := splitStructuralUnits(text)
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = text[u.start:u.end]
	}
	counts := cc.tokenizer.CountTokensBatch(texts)

	var spans []span
	i := 0
	for i < len(units) {
		tokens := counts[i]
		j := i + 1
		for j < len(units) && tokens+counts[j] <= cc.chunkSize {
			tokens += counts[j]
			j++
		}
		spans = append(spans, span{units[i].start, units[j-1].end})
		i = j
	}

	return spansToChunks(text, spans, cc.tokenizer), nil
}

// codeScanner tracks the lexical state needed to recognize top-level
// boundaries: bracket depth, string/char/raw literals, and comments.
type codeScanner struct {
	depth        int
	quote        byte // active quote character, 0 when outside literals
	escaped      bool
	lineComment  bool
	blockComment bool
}

func (s *codeScanner) feed(text string, i int) {
	c := text[i]

	if s.lineComment {
		if c == '\n' {
			s.lineComment = false
		}
		return
	}
	if s.blockComment {
		if c == '/' && i > 0 && text[i-1] == '*' {
			s.blockComment = false
		}
		return
	}
	if s.quote != 0 {
		if s.escaped {
			s.escaped = false
			return
		}
		switch c {
		case '\\':
			if s.quote != '`' {
				s.escaped = true
			}
		case s.quote:
			s.quote = 0
		case '\n':
			// Unterminated single-line literal; recover at the newline.
			if s.quote == '"' || s.quote == '\'' {
				s.quote = 0
			}
		}
		return
	}

	switch c {
	case '"', '\'', '`':
		s.quote = c
	case '#':
		s.lineComment = true
	case '/':
		if i+1 < len(text) {
			switch text[i+1] {
			case '/':
				s.lineComment = true
			case '*':
				s.blockComment = true
			}
		}
	case '{', '[', '(':
		s.depth++
	case '}', ']', ')':
		if s.depth > 0 {
			s.depth--
		}
	}
}

// splitStructuralUnits partitions text at line starts where the scanner is
// back at top level. The spans cover the text exactly.
func splitStructuralUnits(text string) []span {
	var scanner codeScanner
	var spans []span
	start := 0
	for i := 0; i < len(text); i++ {
		scanner.feed(text, i)
		if text[i] != '\n' {
			continue
		}
		atTop := scanner.depth == 0 && scanner.quote == 0 && !scanner.blockComment
		if atTop && i+1 < len(text) {
			spans = append(spans, span{start, i + 1})
			start = i + 1
		}
	}
	if start < len(text) {
		spans = append(spans, span{start, len(text)})
	}
	return spans
}

// ChunkBatch implements Chunker.
func (cc *CodeChunker) ChunkBatch(ctx context.Context, texts []string) ([][]Chunk, error) {
	return chunkBatch(ctx, cc.Chunk, texts)
}

// ChunkDocument implements Chunker.
func (cc *CodeChunker) ChunkDocument(ctx context.Context, doc *Document) (*Document, error) {
	return chunkDocument(ctx, cc.Chunk, doc)
}
