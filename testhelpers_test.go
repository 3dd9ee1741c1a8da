package morsel

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeEmbedding returns fixed 2-dimensional topic vectors based on keyword
// matching, so similarity structure in tests is fully deterministic.
type fakeEmbedding struct {
	vectors map[string][]float32 // keyword -> vector
	fail    bool
	calls   int
}

func (f *fakeEmbedding) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("embedding backend down")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := []float32{1, 0}
		for keyword, v := range f.vectors {
			if strings.Contains(text, keyword) {
				vec = v
				break
			}
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedding) Dimensions() int { return 2 }
func (f *fakeEmbedding) Name() string    { return "fake" }

// fakeGenerator replays canned responses for SlumberChunker tests.
type fakeGenerator struct {
	jsonResponse string
	textResponse string
	jsonErr      error
	textErr      error
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	return f.textResponse, f.textErr
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, _ string, _ any) (string, error) {
	return f.jsonResponse, f.jsonErr
}

func (f *fakeGenerator) Name() string { return "fake" }

// fakeSplitModel predicts a fixed set of byte offsets.
type fakeSplitModel struct {
	splits []int
	err    error
	closed bool
}

func (f *fakeSplitModel) PredictSplits(_ string) ([]int, error) { return f.splits, f.err }
func (f *fakeSplitModel) Close() error                          { f.closed = true; return nil }

// fakeLoader hands out a prepared model, or an error.
type fakeLoader struct {
	model SplitModel
	err   error
}

func (f *fakeLoader) Load(_ string) (SplitModel, error) { return f.model, f.err }

// --- shared assertions ---

// checkOffsets verifies every chunk's offsets point at its own text.
func checkOffsets(t *testing.T, original string, chunks []Chunk) {
	t.Helper()
	for i, c := range chunks {
		if c.EndIndex <= c.StartIndex {
			t.Errorf("chunk %d: empty range [%d,%d)", i, c.StartIndex, c.EndIndex)
		}
		if c.EndIndex > len(original) {
			t.Errorf("chunk %d: end %d beyond input %d", i, c.EndIndex, len(original))
			continue
		}
		if got := original[c.StartIndex:c.EndIndex]; got != c.Text {
			t.Errorf("chunk %d: offsets [%d,%d) hold %q, text is %q", i, c.StartIndex, c.EndIndex, got, c.Text)
		}
	}
}

// checkReconstruction verifies zero-overlap chunks cover the input exactly.
func checkReconstruction(t *testing.T, original string, chunks []Chunk) {
	t.Helper()
	if len(chunks) == 0 {
		if strings.TrimSpace(original) != "" {
			t.Fatal("no chunks for non-empty input")
		}
		return
	}
	if chunks[0].StartIndex != 0 {
		t.Errorf("first chunk starts at %d, want 0", chunks[0].StartIndex)
	}
	if last := chunks[len(chunks)-1]; last.EndIndex != len(original) {
		t.Errorf("last chunk ends at %d, want %d", last.EndIndex, len(original))
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartIndex != chunks[i-1].EndIndex {
			t.Errorf("gap between chunk %d and %d: %d != %d", i-1, i, chunks[i-1].EndIndex, chunks[i].StartIndex)
		}
	}
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	if b.String() != original {
		t.Errorf("concatenated chunks do not reconstruct input:\ngot  %q\nwant %q", b.String(), original)
	}
}

// checkTokenCounts verifies TokenCount matches re-running the tokenizer.
func checkTokenCounts(t *testing.T, tok Tokenizer, chunks []Chunk) {
	t.Helper()
	for i, c := range chunks {
		if want := tok.CountTokens(c.Text); c.TokenCount != want {
			t.Errorf("chunk %d: token count %d, tokenizer says %d", i, c.TokenCount, want)
		}
	}
}

// chunkTexts extracts the chunk texts for compact comparisons.
func chunkTexts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}
