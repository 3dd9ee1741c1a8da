// Package morsel splits text into bounded-size, contiguous, provenance-exact
// chunks for embedding and retrieval in RAG pipelines.
//
// Every chunker produces ordered [Chunk] records whose offsets point back into
// the original input, so downstream consumers can always recover exactly where
// a chunk came from. Chunkers that do not overlap reconstruct the input
// exactly when chunk texts are concatenated.
//
// # Quick Start
//
//	tok, err := tiktoken.New("cl100k_base")
//	chunker, err := morsel.NewRecursiveChunker(tok, morsel.WithChunkSize(512))
//	chunks, err := chunker.Chunk(ctx, text)
//
// # Core Interfaces
//
// The root package defines the contracts that all components implement:
//
//   - [Chunker] — splits text into chunks (single, batch, or whole document)
//   - [Tokenizer] — token encode/decode/count backend
//   - [EmbeddingProvider] — text-to-vector embedding
//   - [GenerationProvider] — LLM text generation
//   - [ModelLoader], [SplitModel] — optional learned split-point predictor
//
// # Included Chunkers
//
// TokenChunker (token-id sliding window), SentenceChunker (sentence
// accumulation), RecursiveChunker (hierarchical rule descent), SemanticChunker
// (embedding-similarity boundaries), CodeChunker (structure-preserving),
// TableChunker (markdown-table aware), MarkdownChunker (heading aware),
// NeuralChunker (learned split points with recursive fallback), SlumberChunker
// (LLM-guided split selection), and LateChunker (recursive splitting plus
// chunk-level embeddings).
//
// Tokenizer backends: tokenizer/tiktoken (BPE). Recipe loading: config.
// Instrumentation: observer.
package morsel
