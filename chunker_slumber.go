package morsel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// ExtractionMode selects how a split index is extracted from generation
// output.
type ExtractionMode int

const (
	// ExtractionAuto tries JSON first, then free text. Default.
	ExtractionAuto ExtractionMode = iota
	// ExtractionJSON expects a JSON object carrying the split index.
	ExtractionJSON
	// ExtractionText scans free text for the first integer.
	ExtractionText
)

const slumberPrompt = `You are splitting a document into retrieval chunks.
Below are numbered passages. Reply with the number of the last passage that
belongs in the current chunk; the next passage should start a new topic.
Respond as JSON: {"split_index": <number>}

%s`

// splitResponse is the schema the generation provider is asked to fill.
type splitResponse struct {
	SplitIndex int `json:"split_index"`
}

var firstIntRe = regexp.MustCompile(`-?\d+`)

// SlumberChunker asks a generation provider where to split. It slides a
// token-bounded candidate window of sentences over the text, shows the window
// as numbered passages, and cuts after the passage the model names. Any
// provider failure or unparseable reply falls back to splitting at the end of
// the candidate window; generation problems never fail the chunking call.
type SlumberChunker struct {
	tokenizer     Tokenizer
	generator     GenerationProvider
	chunkSize     int
	candidateSize int
	minChars      int
	mode          ExtractionMode
	logger        *slog.Logger
}

var _ Chunker = (*SlumberChunker)(nil)

// NewSlumberChunker creates a SlumberChunker.
func NewSlumberChunker(tok Tokenizer, gen GenerationProvider, opts ...ChunkerOption) (*SlumberChunker, error) {
	cfg := applyOptions(opts)
	if err := cfg.validateBudget(); err != nil {
		return nil, err
	}
	if cfg.candidateSize <= 0 {
		return nil, configError("candidate_size", "must be positive, got %d", cfg.candidateSize)
	}
	switch cfg.mode {
	case ExtractionAuto, ExtractionJSON, ExtractionText:
	default:
		return nil, configError("extraction_mode", "unknown mode %d", cfg.mode)
	}
	return &SlumberChunker{
		tokenizer:     tok,
		generator:     gen,
		chunkSize:     cfg.chunkSize,
		candidateSize: cfg.candidateSize,
		minChars:      cfg.minCharsPerChunk,
		mode:          cfg.mode,
		logger:        cfg.logger,
	}, nil
}

// Chunk implements Chunker.
func (sk *SlumberChunker) Chunk(ctx context.Context, text string) ([]Chunk, error) {
	if isBlank(text) {
		return nil, nil
	}

	sents := buildSentences(text, sentenceSpans(text), sk.tokenizer)
	var spans []span
	i := 0
	for i < len(sents) {
		window := sk.candidateWindow(sents, i)
		take := len(window)
		if take > 1 {
			take = sk.pickSplit(ctx, window)
		}
		spans = append(spans, span{window[0].start, window[take-1].end})
		i += take
	}

	spans = mergeShortSpans(spans, sk.minChars)
	return spansToChunks(text, spans, sk.tokenizer), nil
}

// candidateWindow gathers sentences from position i up to the candidate
// token budget, always at least one.
func (sk *SlumberChunker) candidateWindow(sents []sentence, i int) []sentence {
	tokens := 0
	j := i
	for j < len(sents) {
		tokens += sents[j].tokenCount
		j++
		if tokens >= sk.candidateSize {
			break
		}
	}
	return sents[i:j]
}

// pickSplit asks the generator how many passages belong in the current
// chunk. Out-of-range answers and provider failures use the heuristic
// default: the whole candidate window.
func (sk *SlumberChunker) pickSplit(ctx context.Context, window []sentence) int {
	var b strings.Builder
	for i, s := range window {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(s.text))
	}
	prompt := fmt.Sprintf(slumberPrompt, b.String())

	idx, err := sk.extractIndex(ctx, prompt)
	if err != nil {
		sk.logf("split selection failed, cutting at window end", "err", err)
		return len(window)
	}
	if idx < 1 || idx > len(window) {
		sk.logf("split index out of range, cutting at window end", "index", idx, "window", len(window))
		return len(window)
	}
	return idx
}

// extractIndex runs the configured extraction mode.
func (sk *SlumberChunker) extractIndex(ctx context.Context, prompt string) (int, error) {
	switch sk.mode {
	case ExtractionJSON:
		return sk.extractJSON(ctx, prompt)
	case ExtractionText:
		return sk.extractText(ctx, prompt)
	default: // ExtractionAuto: JSON first, then free text.
		idx, err := sk.extractJSON(ctx, prompt)
		if err == nil {
			return idx, nil
		}
		return sk.extractText(ctx, prompt)
	}
}

func (sk *SlumberChunker) extractJSON(ctx context.Context, prompt string) (int, error) {
	raw, err := sk.generator.GenerateJSON(ctx, prompt, splitResponse{})
	if err != nil {
		return 0, err
	}
	var resp splitResponse
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &resp); err != nil {
		return 0, fmt.Errorf("parse split response: %w", err)
	}
	if resp.SplitIndex == 0 {
		return 0, fmt.Errorf("split response missing split_index")
	}
	return resp.SplitIndex, nil
}

func (sk *SlumberChunker) extractText(ctx context.Context, prompt string) (int, error) {
	raw, err := sk.generator.Generate(ctx, prompt)
	if err != nil {
		return 0, err
	}
	match := firstIntRe.FindString(raw)
	if match == "" {
		return 0, fmt.Errorf("no integer in response %q", raw)
	}
	idx, err := strconv.Atoi(match)
	if err != nil {
		return 0, err
	}
	return idx, nil
}

// extractJSONObject trims fences and surrounding prose around the first
// top-level JSON object, if any.
func extractJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return raw
	}
	return raw[start : end+1]
}

func (sk *SlumberChunker) logf(msg string, args ...any) {
	if sk.logger != nil {
		sk.logger.Warn(msg, args...)
	}
}

// ChunkBatch implements Chunker.
func (sk *SlumberChunker) ChunkBatch(ctx context.Context, texts []string) ([][]Chunk, error) {
	return chunkBatch(ctx, sk.Chunk, texts)
}

// ChunkDocument implements Chunker.
func (sk *SlumberChunker) ChunkDocument(ctx context.Context, doc *Document) (*Document, error) {
	return chunkDocument(ctx, sk.Chunk, doc)
}
