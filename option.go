package morsel

import "log/slog"

// ChunkerOption configures a chunker at construction time. Options shared by
// several chunkers live here; each constructor validates the fields it uses
// and fails fast on invalid values.
type ChunkerOption func(*chunkerConfig)

type chunkerConfig struct {
	chunkSize        int
	overlap          int
	minCharsPerChunk int

	// Sentence handling.
	minCharsPerSentence  int
	minSentencesPerChunk int
	delimiters           []string
	includeDelim         IncludeDelim

	// Semantic splitting.
	threshold        float64
	similarityWindow int
	skipWindow       int

	// Recursive rules.
	rules RecursiveRules

	// Table handling.
	repeatHeaders bool

	// LLM-guided splitting.
	candidateSize int
	mode          ExtractionMode

	// Learned split-point prediction.
	modelLoader ModelLoader

	logger *slog.Logger
}

func defaultChunkerConfig() chunkerConfig {
	return chunkerConfig{
		chunkSize:            512,
		overlap:              0,
		minCharsPerChunk:     24,
		minCharsPerSentence:  12,
		minSentencesPerChunk: 1,
		threshold:            0.8,
		similarityWindow:     1,
		skipWindow:           0,
		rules:                DefaultRules(),
		repeatHeaders:        true,
		candidateSize:        512,
		mode:                 ExtractionAuto,
	}
}

// WithChunkSize sets the maximum tokens per chunk.
func WithChunkSize(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.chunkSize = n }
}

// WithOverlap sets the overlap between consecutive chunks: tokens for
// TokenChunker, sentences for SentenceChunker.
func WithOverlap(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.overlap = n }
}

// WithMinCharactersPerChunk sets the minimum size below which a split is
// merged into a neighbor.
func WithMinCharactersPerChunk(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.minCharsPerChunk = n }
}

// WithMinCharactersPerSentence sets the minimum size below which a detected
// sentence is merged into the following sentence.
func WithMinCharactersPerSentence(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.minCharsPerSentence = n }
}

// WithMinSentencesPerChunk sets the minimum sentence count per chunk. A chunk
// closes below the minimum only when input is exhausted.
func WithMinSentencesPerChunk(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.minSentencesPerChunk = n }
}

// WithDelimiters sets custom sentence delimiters and the policy for which
// side of a split keeps the delimiter text. Without this option sentence
// detection uses the built-in boundary finder (abbreviation, decimal and CJK
// aware).
func WithDelimiters(delims []string, policy IncludeDelim) ChunkerOption {
	return func(c *chunkerConfig) {
		c.delimiters = delims
		c.includeDelim = policy
	}
}

// WithThreshold sets the cosine-similarity split threshold, strictly between
// 0 and 1. Adjacent windows less similar than the threshold become split
// points.
func WithThreshold(t float64) ChunkerOption {
	return func(c *chunkerConfig) { c.threshold = t }
}

// WithSimilarityWindow sets how many consecutive sentences form one embedded
// comparison window.
func WithSimilarityWindow(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.similarityWindow = n }
}

// WithSkipWindow enables skip-and-merge: a split is suppressed when a window
// up to n positions past the split is still similar. Nearest match wins.
func WithSkipWindow(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.skipWindow = n }
}

// WithRules sets the recursive level list.
func WithRules(rules RecursiveRules) ChunkerOption {
	return func(c *chunkerConfig) { c.rules = rules }
}

// WithRepeatHeaders controls whether every table chunk repeats the table's
// header and separator rows (default true).
func WithRepeatHeaders(repeat bool) ChunkerOption {
	return func(c *chunkerConfig) { c.repeatHeaders = repeat }
}

// WithCandidateSize sets the token budget of the candidate window shown to
// the generation provider per split decision.
func WithCandidateSize(n int) ChunkerOption {
	return func(c *chunkerConfig) { c.candidateSize = n }
}

// WithExtractionMode selects how split indices are extracted from generation
// output.
func WithExtractionMode(m ExtractionMode) ChunkerOption {
	return func(c *chunkerConfig) { c.mode = m }
}

// WithLogger sets the logger used to report silent degradations (model
// fallback, unparseable generation output). Nil disables logging.
func WithLogger(l *slog.Logger) ChunkerOption {
	return func(c *chunkerConfig) { c.logger = l }
}

// applyOptions builds a config from defaults plus opts.
func applyOptions(opts []ChunkerOption) chunkerConfig {
	cfg := defaultChunkerConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// validateBudget checks the chunk-size/overlap pair shared by all chunkers.
func (c *chunkerConfig) validateBudget() error {
	if c.chunkSize <= 0 {
		return configError("chunk_size", "must be positive, got %d", c.chunkSize)
	}
	if c.overlap < 0 {
		return configError("overlap", "must be non-negative, got %d", c.overlap)
	}
	if c.overlap >= c.chunkSize {
		return configError("overlap", "%d must be smaller than chunk_size %d", c.overlap, c.chunkSize)
	}
	return nil
}
