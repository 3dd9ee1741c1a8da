package morsel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Model artifact file names produced by the conversion tooling.
const (
	modelWeightsFile   = "model.onnx"
	modelConfigFile    = "config.json"
	modelTokenizerFile = "tokenizer.json"
	modelVocabFile     = "vocab.txt"
)

// NeuralChunker predicts split points with a learned token-classification
// model when one is loaded, and otherwise behaves exactly like a
// RecursiveChunker with the same budget. It starts without a model;
// InitializeModel attempts the transition and reports success as a boolean,
// so a missing or broken model never aborts chunking. Predicted splits get
// the same minimum-size merge treatment as recursive splits, and prediction
// calls are serialized because inference sessions are not assumed to be safe
// for concurrent use.
type NeuralChunker struct {
	tokenizer Tokenizer
	chunkSize int
	minChars  int
	loader    ModelLoader
	logger    *slog.Logger
	fallback  *RecursiveChunker

	mu    sync.Mutex
	model SplitModel // nil while in fallback state
}

var _ Chunker = (*NeuralChunker)(nil)

// NewNeuralChunker creates a NeuralChunker in the fallback state. Provide a
// ModelLoader with WithModelLoader and call InitializeModel to enable the
// model.
func NewNeuralChunker(tok Tokenizer, opts ...ChunkerOption) (*NeuralChunker, error) {
	cfg := applyOptions(opts)
	if err := cfg.validateBudget(); err != nil {
		return nil, err
	}
	fallback, err := NewRecursiveChunker(tok, WithChunkSize(cfg.chunkSize), WithMinCharactersPerChunk(cfg.minCharsPerChunk), WithRules(cfg.rules))
	if err != nil {
		return nil, err
	}
	return &NeuralChunker{
		tokenizer: tok,
		chunkSize: cfg.chunkSize,
		minChars:  cfg.minCharsPerChunk,
		loader:    cfg.modelLoader,
		logger:    cfg.logger,
		fallback:  fallback,
	}, nil
}

// WithModelLoader sets the loader used by NeuralChunker.InitializeModel.
func WithModelLoader(l ModelLoader) ChunkerOption {
	return func(c *chunkerConfig) { c.modelLoader = l }
}

// InitializeModel validates the artifact directory, loads the model, and
// transitions the chunker to the model-enabled state. It returns false and
// leaves the chunker in the fallback state on any failure; it may be retried.
func (nc *NeuralChunker) InitializeModel(dir string) bool {
	if err := validateModelDir(dir); err != nil {
		nc.logf("neural model rejected, staying on recursive fallback", "dir", dir, "err", err)
		return false
	}
	if nc.loader == nil {
		nc.logf("no model loader configured, staying on recursive fallback", "dir", dir)
		return false
	}
	model, err := nc.loader.Load(dir)
	if err != nil {
		nc.logf("neural model load failed, staying on recursive fallback", "dir", dir, "err", err)
		return false
	}

	nc.mu.Lock()
	old := nc.model
	nc.model = model
	nc.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return true
}

// Enabled reports whether a model is loaded.
func (nc *NeuralChunker) Enabled() bool {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.model != nil
}

// Close releases the inference session, returning the chunker to the
// fallback state.
func (nc *NeuralChunker) Close() error {
	nc.mu.Lock()
	model := nc.model
	nc.model = nil
	nc.mu.Unlock()
	if model == nil {
		return nil
	}
	return model.Close()
}

// Chunk implements Chunker.
func (nc *NeuralChunker) Chunk(ctx context.Context, text string) ([]Chunk, error) {
	if isBlank(text) {
		return nil, nil
	}

	nc.mu.Lock()
	model := nc.model
	if model == nil {
		nc.mu.Unlock()
		return nc.fallback.Chunk(ctx, text)
	}
	splits, err := model.PredictSplits(text)
	nc.mu.Unlock()

	if err != nil {
		nc.logf("split prediction failed, using recursive fallback", "err", err)
		return nc.fallback.Chunk(ctx, text)
	}

	spans := nc.spansFromSplits(text, splits)
	spans = nc.fallback.mergeSmall(text, spans)

	var chunks []Chunk
	for _, s := range spans {
		if nc.tokenizer.CountTokens(text[s.start:s.end]) <= nc.chunkSize {
			chunks = append(chunks, spansToChunks(text, []span{s}, nc.tokenizer)...)
			continue
		}
		sub, err := nc.fallback.Chunk(ctx, text[s.start:s.end])
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

// spansFromSplits sanitizes predicted byte offsets into a contiguous span
// partition: sorted, deduplicated, clamped inside the text, and aligned off
// code-point and combining-sequence interiors.
func (nc *NeuralChunker) spansFromSplits(text string, splits []int) []span {
	cuts := make([]int, 0, len(splits))
	for _, p := range splits {
		p = alignBoundary(text, p)
		if p > 0 && p < len(text) {
			cuts = append(cuts, p)
		}
	}
	sort.Ints(cuts)

	var spans []span
	start := 0
	for _, c := range cuts {
		if c <= start {
			continue
		}
		spans = append(spans, span{start, c})
		start = c
	}
	if start < len(text) {
		spans = append(spans, span{start, len(text)})
	}
	return spans
}

func (nc *NeuralChunker) logf(msg string, args ...any) {
	if nc.logger != nil {
		nc.logger.Warn(msg, args...)
	}
}

// validateModelDir checks the artifact layout: weights, parseable config,
// and a tokenizer file.
func validateModelDir(dir string) error {
	if _, err := os.Stat(filepath.Join(dir, modelWeightsFile)); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, modelConfigFile))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	var cfg map[string]any
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := os.Stat(filepath.Join(dir, modelTokenizerFile)); err != nil {
		if _, err2 := os.Stat(filepath.Join(dir, modelVocabFile)); err2 != nil {
			return fmt.Errorf("tokenizer: %w", err)
		}
	}
	return nil
}

// ChunkBatch implements Chunker.
func (nc *NeuralChunker) ChunkBatch(ctx context.Context, texts []string) ([][]Chunk, error) {
	return chunkBatch(ctx, nc.Chunk, texts)
}

// ChunkDocument implements Chunker.
func (nc *NeuralChunker) ChunkDocument(ctx context.Context, doc *Document) (*Document, error) {
	return chunkDocument(ctx, nc.Chunk, doc)
}
