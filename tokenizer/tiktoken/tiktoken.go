// Package tiktoken provides a BPE tokenizer backend built on tiktoken-go.
package tiktoken

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	morsel "github.com/nevindra/morsel"
)

const defaultEncoding = "cl100k_base"

// Tokenizer implements morsel.Tokenizer with a tiktoken BPE encoding. It is
// safe for concurrent use.
type Tokenizer struct {
	encoding string
	tke      *tiktoken.Tiktoken
}

var _ morsel.Tokenizer = (*Tokenizer)(nil)

// New creates a Tokenizer for a model name or encoding name. It first tries
// modelOrEncoding as an encoding, then as a model, then falls back to
// cl100k_base. Empty input selects the default encoding directly.
func New(modelOrEncoding string) (*Tokenizer, error) {
	if modelOrEncoding == "" {
		modelOrEncoding = defaultEncoding
	}

	encoding := modelOrEncoding
	tke, err := tiktoken.GetEncoding(modelOrEncoding)
	if err != nil {
		tke, err = tiktoken.EncodingForModel(modelOrEncoding)
		if err != nil {
			encoding = defaultEncoding
			tke, err = tiktoken.GetEncoding(defaultEncoding)
			if err != nil {
				return nil, fmt.Errorf("get default encoding %q: %w", defaultEncoding, err)
			}
		}
	}

	return &Tokenizer{encoding: encoding, tke: tke}, nil
}

// Encoding returns the name of the encoding in use.
func (t *Tokenizer) Encoding() string { return t.encoding }

func (t *Tokenizer) Encode(text string) []int {
	return t.tke.Encode(text, nil, nil)
}

func (t *Tokenizer) Decode(ids []int) string {
	return t.tke.Decode(ids)
}

func (t *Tokenizer) CountTokens(text string) int {
	return len(t.tke.Encode(text, nil, nil))
}

func (t *Tokenizer) CountTokensBatch(texts []string) []int {
	counts := make([]int, len(texts))
	for i, text := range texts {
		counts[i] = t.CountTokens(text)
	}
	return counts
}
