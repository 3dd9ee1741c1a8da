package morsel

import (
	"context"
	"strings"
)

// TableChunker detects markdown tables — a header row immediately followed by
// a separator row — and splits them by data rows instead of cutting through
// cells. Text outside tables is chunked with ordinary recursive splitting. A
// table within the token budget stays one chunk. When headers are repeated,
// every table chunk is prefixed with the header and separator rows; those
// chunks carry more text than their offset range, which keeps pointing at the
// data rows they cover. Without repetition all offsets stay exact and
// contiguous. A pipe line with no separator row, or a header with zero data
// rows, is plain text.
type TableChunker struct {
	tokenizer     Tokenizer
	chunkSize     int
	repeatHeaders bool
	fallback      *RecursiveChunker
}

var _ Chunker = (*TableChunker)(nil)

// NewTableChunker creates a TableChunker.
func NewTableChunker(tok Tokenizer, opts ...ChunkerOption) (*TableChunker, error) {
	cfg := applyOptions(opts)
	if err := cfg.validateBudget(); err != nil {
		return nil, err
	}
	fallback, err := NewRecursiveChunker(tok, WithChunkSize(cfg.chunkSize), WithMinCharactersPerChunk(cfg.minCharsPerChunk), WithRules(cfg.rules))
	if err != nil {
		return nil, err
	}
	return &TableChunker{
		tokenizer:     tok,
		chunkSize:     cfg.chunkSize,
		repeatHeaders: cfg.repeatHeaders,
		fallback:      fallback,
	}, nil
}

// table is one detected table: header and separator lines plus data rows.
type table struct {
	header span   // header + separator lines
	rows   []span // one span per data row line
}

func (t table) bounds() span {
	if len(t.rows) == 0 {
		return t.header
	}
	return span{t.header.start, t.rows[len(t.rows)-1].end}
}

// Chunk implements Chunker.
func (tc *TableChunker) Chunk(ctx context.Context, text string) ([]Chunk, error) {
	if isBlank(text) {
		return nil, nil
	}

	lines := lineSpans(text)
	var chunks []Chunk
	plainStart := -1

	flushPlain := func(end int) error {
		if plainStart < 0 {
			return nil
		}
		sub, err := tc.fallback.Chunk(ctx, text[plainStart:end])
		if err != nil {
			return err
		}
		for _, c := range sub {
			c.StartIndex += plainStart
			c.EndIndex += plainStart
			chunks = append(chunks, c)
		}
		plainStart = -1
		return nil
	}

	i := 0
	for i < len(lines) {
		tbl, next := detectTable(text, lines, i)
		if tbl == nil {
			if plainStart < 0 {
				plainStart = lines[i].start
			}
			i++
			continue
		}
		if err := flushPlain(tbl.header.start); err != nil {
			return nil, err
		}
		chunks = append(chunks, tc.chunkTable(text, *tbl)...)
		i = next
	}
	if err := flushPlain(len(text)); err != nil {
		return nil, err
	}
	return chunks, nil
}

// chunkTable emits one chunk for a table within budget, otherwise groups data
// rows under the token budget.
func (tc *TableChunker) chunkTable(text string, tbl table) []Chunk {
	whole := tbl.bounds()
	if tc.tokenizer.CountTokens(text[whole.start:whole.end]) <= tc.chunkSize {
		return spansToChunks(text, []span{whole}, tc.tokenizer)
	}

	headerText := text[tbl.header.start:tbl.header.end]
	headerTokens := tc.tokenizer.CountTokens(headerText)
	rowTexts := make([]string, len(tbl.rows))
	for i, r := range tbl.rows {
		rowTexts[i] = text[r.start:r.end]
	}
	rowTokens := tc.tokenizer.CountTokensBatch(rowTexts)

	var chunks []Chunk
	i := 0
	first := true
	for i < len(tbl.rows) {
		budget := tc.chunkSize - headerTokens
		if !tc.repeatHeaders && !first {
			budget = tc.chunkSize
		}
		tokens := rowTokens[i]
		j := i + 1
		for j < len(tbl.rows) && tokens+rowTokens[j] <= budget {
			tokens += rowTokens[j]
			j++
		}

		rowSpan := span{tbl.rows[i].start, tbl.rows[j-1].end}
		switch {
		case first:
			// The header is part of the first chunk's contiguous range.
			s := span{tbl.header.start, rowSpan.end}
			chunks = append(chunks, tc.newChunk(text[s.start:s.end], s))
		case tc.repeatHeaders:
			chunks = append(chunks, tc.newChunk(headerText+text[rowSpan.start:rowSpan.end], rowSpan))
		default:
			chunks = append(chunks, tc.newChunk(text[rowSpan.start:rowSpan.end], rowSpan))
		}
		first = false
		i = j
	}
	return chunks
}

func (tc *TableChunker) newChunk(chunkText string, s span) Chunk {
	return Chunk{
		ID:         NewID(),
		Text:       chunkText,
		StartIndex: s.start,
		EndIndex:   s.end,
		TokenCount: tc.tokenizer.CountTokens(chunkText),
	}
}

// detectTable reports the table starting at line i, or nil. next is the first
// line index after the table.
func detectTable(text string, lines []span, i int) (*table, int) {
	if i+1 >= len(lines) {
		return nil, i
	}
	header := text[lines[i].start:lines[i].end]
	sep := text[lines[i+1].start:lines[i+1].end]
	if !isPipeRow(header) || isSeparatorRow(header) || !isSeparatorRow(sep) {
		return nil, i
	}

	j := i + 2
	var rows []span
	for j < len(lines) {
		line := text[lines[j].start:lines[j].end]
		if !isPipeRow(line) || isSeparatorRow(line) {
			break
		}
		rows = append(rows, lines[j])
		j++
	}
	if len(rows) == 0 {
		// Header and separator with no data rows is not a table.
		return nil, i
	}
	return &table{
		header: span{lines[i].start, lines[i+1].end},
		rows:   rows,
	}, j
}

// isPipeRow reports whether the line looks like a table row.
func isPipeRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" && strings.Contains(trimmed, "|")
}

// isSeparatorRow reports whether the line is a header separator like
// | --- | :---: |.
func isSeparatorRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.Contains(trimmed, "|") || !strings.Contains(trimmed, "-") {
		return false
	}
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")
	cells := strings.Split(trimmed, "|")
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		cell = strings.TrimPrefix(cell, ":")
		cell = strings.TrimSuffix(cell, ":")
		if cell == "" || strings.Count(cell, "-") != len(cell) {
			return false
		}
	}
	return true
}

// lineSpans partitions text into lines, each keeping its trailing newline.
func lineSpans(text string) []span {
	var spans []span
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
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
func (tc *TableChunker) ChunkBatch(ctx context.Context, texts []string) ([][]Chunk, error) {
	return chunkBatch(ctx, tc.Chunk, texts)
}

// ChunkDocument implements Chunker.
func (tc *TableChunker) ChunkDocument(ctx context.Context, doc *Document) (*Document, error) {
	return chunkDocument(ctx, tc.Chunk, doc)
}
