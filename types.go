package morsel

// --- Domain types ---

// Chunk is a contiguous segment of input text. StartIndex and EndIndex are
// half-open byte offsets into the original input, so for chunkers that keep
// chunk text verbatim, text == original[StartIndex:EndIndex]. TokenCount is
// always the tokenizer's count of Text, never an estimate.
type Chunk struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	StartIndex int       `json:"start_index"`
	EndIndex   int       `json:"end_index"`
	TokenCount int       `json:"token_count"`
	Context    string    `json:"context,omitempty"`
	Embedding  []float32 `json:"-"`
}

// Document is a caller-owned container binding source text to its chunks.
// Chunkers mutate it in place via ChunkDocument and return the same instance.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Chunks   []Chunk           `json:"chunks"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Source   string            `json:"source,omitempty"`
}

// sentence is an intermediate value produced by sentence-boundary detection.
// It never crosses the chunker boundary except folded into resulting Chunks.
type sentence struct {
	text       string
	start      int
	end        int
	tokenCount int
}

// span is a half-open byte range into some original text.
type span struct {
	start int
	end   int
}

func (s span) len() int { return s.end - s.start }
