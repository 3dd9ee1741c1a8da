// Package config loads chunker recipes from TOML files and constructs the
// corresponding chunkers.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	morsel "github.com/nevindra/morsel"
	"github.com/nevindra/morsel/tokenizer/tiktoken"
)

// Recipe describes a chunker declaratively. Zero values fall back to the
// library defaults.
type Recipe struct {
	// Strategy is one of token, sentence, recursive, code, table, markdown.
	// Strategies that need an embedding or generation provider (semantic,
	// late, slumber, neural) cannot be built from a recipe alone.
	Strategy string `toml:"strategy"`

	Tokenizer TokenizerConfig `toml:"tokenizer"`

	ChunkSize             int  `toml:"chunk_size"`
	Overlap               int  `toml:"overlap"`
	MinCharactersPerChunk int  `toml:"min_characters_per_chunk"`
	MinSentencesPerChunk  int  `toml:"min_sentences_per_chunk"`
	RepeatHeaders         bool `toml:"repeat_headers"`
}

// TokenizerConfig selects the token backend. An encoding (or model) name
// selects tiktoken; "word" and "character" select the built-in tokenizers.
// Empty means word.
type TokenizerConfig struct {
	Encoding string `toml:"encoding"`
}

// Load reads a recipe from a TOML file.
func Load(path string) (Recipe, error) {
	var r Recipe
	raw, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := toml.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("parse %s: %w", path, err)
	}
	if r.Strategy == "" {
		return r, fmt.Errorf("%s: missing strategy", path)
	}
	return r, nil
}

// BuildTokenizer constructs the recipe's token backend.
func (r Recipe) BuildTokenizer() (morsel.Tokenizer, error) {
	switch r.Tokenizer.Encoding {
	case "", "word":
		return morsel.NewWordTokenizer(), nil
	case "character":
		return morsel.NewCharacterTokenizer(), nil
	default:
		return tiktoken.New(r.Tokenizer.Encoding)
	}
}

// Build constructs the chunker the recipe describes.
func (r Recipe) Build() (morsel.Chunker, error) {
	tok, err := r.BuildTokenizer()
	if err != nil {
		return nil, err
	}
	return r.BuildWith(tok)
}

// BuildWith constructs the chunker using a caller-provided token backend.
func (r Recipe) BuildWith(tok morsel.Tokenizer) (morsel.Chunker, error) {
	var opts []morsel.ChunkerOption
	if r.ChunkSize > 0 {
		opts = append(opts, morsel.WithChunkSize(r.ChunkSize))
	}
	if r.Overlap > 0 {
		opts = append(opts, morsel.WithOverlap(r.Overlap))
	}
	if r.MinCharactersPerChunk > 0 {
		opts = append(opts, morsel.WithMinCharactersPerChunk(r.MinCharactersPerChunk))
	}
	if r.MinSentencesPerChunk > 0 {
		opts = append(opts, morsel.WithMinSentencesPerChunk(r.MinSentencesPerChunk))
	}

	switch r.Strategy {
	case "token":
		return morsel.NewTokenChunker(tok, opts...)
	case "sentence":
		return morsel.NewSentenceChunker(tok, opts...)
	case "recursive":
		return morsel.NewRecursiveChunker(tok, opts...)
	case "code":
		return morsel.NewCodeChunker(tok, opts...)
	case "table":
		opts = append(opts, morsel.WithRepeatHeaders(r.RepeatHeaders))
		return morsel.NewTableChunker(tok, opts...)
	case "markdown":
		return morsel.NewMarkdownChunker(tok, opts...)
	default:
		return nil, fmt.Errorf("unknown strategy %q", r.Strategy)
	}
}
