package morsel

import "context"

// Tokenizer abstracts the token backend all chunkers budget against.
// CountTokens must agree with len(Encode(text)); Decode(Encode(text)) is not
// required to round-trip byte-for-byte for every backend.
type Tokenizer interface {
	// Encode converts text to token ids.
	Encode(text string) []int
	// Decode converts token ids back to text.
	Decode(ids []int) string
	// CountTokens returns the exact token count of text.
	CountTokens(text string) int
	// CountTokensBatch counts tokens for each text, preserving order.
	CountTokensBatch(texts []string) []int
}

// EmbeddingProvider abstracts text embedding.
type EmbeddingProvider interface {
	// Embed returns embedding vectors for the given texts, preserving order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the embedding vector size.
	Dimensions() int
	// Name returns the provider name.
	Name() string
}

// GenerationProvider abstracts LLM text generation for chunkers that ask a
// model where to split.
type GenerationProvider interface {
	// Generate sends a prompt and returns the raw completion text.
	Generate(ctx context.Context, prompt string) (string, error)
	// GenerateJSON sends a prompt requesting output conforming to schema and
	// returns the raw (ideally JSON) completion text.
	GenerateJSON(ctx context.Context, prompt string, schema any) (string, error)
	// Name returns the provider name.
	Name() string
}

// SplitModel is a loaded split-point predictor session. Implementations that
// are not safe for concurrent calls are serialized by NeuralChunker.
type SplitModel interface {
	// PredictSplits returns ascending byte offsets where text should split.
	PredictSplits(text string) ([]int, error)
	// Close releases the underlying inference session.
	Close() error
}

// ModelLoader opens a SplitModel from a model artifact directory containing a
// weights file, a config file, and a tokenizer file.
type ModelLoader interface {
	Load(dir string) (SplitModel, error)
}
