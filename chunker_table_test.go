package morsel

import (
	"context"
	"strings"
	"testing"
)

const sampleTable = `| id | name |
| -- | ---- |
| 1 | aa |
| 2 | bb |
| 3 | cc |
| 4 | dd |`

func TestTableChunkerWholeTableWithinBudget(t *testing.T) {
	tok := NewWordTokenizer()
	tc, err := NewTableChunker(tok, WithChunkSize(100))
	if err != nil {
		t.Fatalf("NewTableChunker: %v", err)
	}

	chunks, err := tc.Chunk(context.Background(), sampleTable)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1: %q", len(chunks), chunkTexts(chunks))
	}
	if chunks[0].Text != sampleTable {
		t.Errorf("chunk = %q, want the whole table", chunks[0].Text)
	}
	checkOffsets(t, sampleTable, chunks)
}

func TestTableChunkerRepeatsHeaders(t *testing.T) {
	tok := NewWordTokenizer()
	tc, err := NewTableChunker(tok, WithChunkSize(20), WithRepeatHeaders(true))
	if err != nil {
		t.Fatalf("NewTableChunker: %v", err)
	}

	chunks, err := tc.Chunk(context.Background(), sampleTable)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %q", len(chunks), chunkTexts(chunks))
	}

	header := "| id | name |\n| -- | ---- |\n"

	// First chunk is contiguous: header plus the first row group.
	if got := sampleTable[chunks[0].StartIndex:chunks[0].EndIndex]; got != chunks[0].Text {
		t.Errorf("first chunk offsets do not match its text")
	}
	if !strings.HasPrefix(chunks[0].Text, header) {
		t.Errorf("first chunk missing header: %q", chunks[0].Text)
	}

	// Later chunks carry the header as prefix while their offsets keep
	// pointing at the data rows alone.
	if !strings.HasPrefix(chunks[1].Text, header) {
		t.Errorf("second chunk missing repeated header: %q", chunks[1].Text)
	}
	rowRegion := sampleTable[chunks[1].StartIndex:chunks[1].EndIndex]
	if chunks[1].Text != header+rowRegion {
		t.Errorf("second chunk = %q, want header plus %q", chunks[1].Text, rowRegion)
	}
	if strings.Contains(rowRegion, "--") {
		t.Errorf("offset range includes the separator row: %q", rowRegion)
	}

	// Row regions cover every data row without cutting through a cell.
	if chunks[1].EndIndex != len(sampleTable) {
		t.Errorf("last chunk ends at %d, want %d", chunks[1].EndIndex, len(sampleTable))
	}
}

func TestTableChunkerExactOffsetsWithoutHeaderRepeat(t *testing.T) {
	tok := NewWordTokenizer()
	tc, err := NewTableChunker(tok, WithChunkSize(20), WithRepeatHeaders(false))
	if err != nil {
		t.Fatalf("NewTableChunker: %v", err)
	}

	chunks, err := tc.Chunk(context.Background(), sampleTable)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	checkOffsets(t, sampleTable, chunks)
	checkReconstruction(t, sampleTable, chunks)
}

func TestTableChunkerMixedProseAndTable(t *testing.T) {
	tok := NewCharacterTokenizer()
	tc, err := NewTableChunker(tok, WithChunkSize(500), WithRepeatHeaders(false))
	if err != nil {
		t.Fatalf("NewTableChunker: %v", err)
	}

	text := "Intro paragraph about data.\n\n| a | b |\n| - | - |\n| 1 | 2 |\nOutro text follows here."
	chunks, err := tc.Chunk(context.Background(), text)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	checkOffsets(t, text, chunks)
	checkReconstruction(t, text, chunks)

	found := false
	for _, c := range chunks {
		if strings.HasPrefix(c.Text, "| a | b |") {
			found = true
			if !strings.Contains(c.Text, "| 1 | 2 |") {
				t.Errorf("table chunk split away its data row: %q", c.Text)
			}
		}
	}
	if !found {
		t.Errorf("no chunk starts at the table: %q", chunkTexts(chunks))
	}
}

func TestTableChunkerRejectsFalsePositives(t *testing.T) {
	tok := NewCharacterTokenizer()
	tc, err := NewTableChunker(tok, WithChunkSize(500))
	if err != nil {
		t.Fatalf("NewTableChunker: %v", err)
	}

	cases := []struct {
		name string
		text string
	}{
		{"pipes without separator", "a | b | c\nd | e | f\n"},
		{"header and separator but no rows", "| a | b |\n| - | - |\n\nplain text afterwards"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			chunks, err := tc.Chunk(context.Background(), c.text)
			if err != nil {
				t.Fatalf("Chunk: %v", err)
			}
			checkOffsets(t, c.text, chunks)
			checkReconstruction(t, c.text, chunks)
		})
	}
}

func TestIsSeparatorRow(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"| --- | --- |", true},
		{"| :--- | ---: |", true},
		{"|-|-|", true},
		{"| a | b |", false},
		{"---", false},
		{"| -- | xx |", false},
		{"", false},
	}
	for _, c := range cases {
		if got := isSeparatorRow(c.line); got != c.want {
			t.Errorf("isSeparatorRow(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}
