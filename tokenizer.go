package morsel

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// CharacterTokenizer treats every rune as one token. It is exact, dependency
// free, and round-trips Decode(Encode(text)) == text, which makes it the
// reference backend in tests.
type CharacterTokenizer struct{}

// NewCharacterTokenizer returns a rune-per-token tokenizer.
func NewCharacterTokenizer() *CharacterTokenizer { return &CharacterTokenizer{} }

func (*CharacterTokenizer) Encode(text string) []int {
	ids := make([]int, 0, len(text))
	for _, r := range text {
		ids = append(ids, int(r))
	}
	return ids
}

func (*CharacterTokenizer) Decode(ids []int) string {
	var b strings.Builder
	for _, id := range ids {
		b.WriteRune(rune(id))
	}
	return b.String()
}

func (*CharacterTokenizer) CountTokens(text string) int {
	return utf8.RuneCountInString(text)
}

func (ct *CharacterTokenizer) CountTokensBatch(texts []string) []int {
	counts := make([]int, len(texts))
	for i, t := range texts {
		counts[i] = ct.CountTokens(t)
	}
	return counts
}

// WordTokenizer treats whitespace-separated words as tokens, building its
// vocabulary lazily as it encodes. Decode joins words with single spaces, so
// it does not round-trip arbitrary whitespace.
type WordTokenizer struct {
	mu    sync.Mutex
	vocab map[string]int
	words []string
}

// NewWordTokenizer returns an empty-vocabulary word tokenizer.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{vocab: make(map[string]int)}
}

func (wt *WordTokenizer) Encode(text string) []int {
	fields := strings.Fields(text)
	ids := make([]int, len(fields))
	wt.mu.Lock()
	defer wt.mu.Unlock()
	for i, w := range fields {
		id, ok := wt.vocab[w]
		if !ok {
			id = len(wt.words)
			wt.vocab[w] = id
			wt.words = append(wt.words, w)
		}
		ids[i] = id
	}
	return ids
}

func (wt *WordTokenizer) Decode(ids []int) string {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if id >= 0 && id < len(wt.words) {
			parts = append(parts, wt.words[id])
		}
	}
	return strings.Join(parts, " ")
}

func (*WordTokenizer) CountTokens(text string) int {
	return len(strings.Fields(text))
}

func (wt *WordTokenizer) CountTokensBatch(texts []string) []int {
	counts := make([]int, len(texts))
	for i, t := range texts {
		counts[i] = wt.CountTokens(t)
	}
	return counts
}

var (
	_ Tokenizer = (*CharacterTokenizer)(nil)
	_ Tokenizer = (*WordTokenizer)(nil)
)
