package morsel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeModelDir lays out a minimal valid artifact directory.
func writeModelDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"model.onnx":     "weights",
		"config.json":    `{"hidden_size": 8}`,
		"tokenizer.json": `{}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestNeuralChunkerFallbackMatchesRecursive(t *testing.T) {
	tok := NewCharacterTokenizer()
	nc, err := NewNeuralChunker(tok, WithChunkSize(25))
	if err != nil {
		t.Fatalf("NewNeuralChunker: %v", err)
	}
	rc, err := NewRecursiveChunker(tok, WithChunkSize(25))
	if err != nil {
		t.Fatalf("NewRecursiveChunker: %v", err)
	}
	if nc.Enabled() {
		t.Fatal("chunker should start in the fallback state")
	}

	text := "First paragraph.\n\nSecond paragraph!\n\nShort."
	got, err := nc.Chunk(context.Background(), text)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	want, err := rc.Chunk(context.Background(), text)
	if err != nil {
		t.Fatalf("recursive Chunk: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("fallback produced %d chunks, recursive %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Text != want[i].Text || got[i].StartIndex != want[i].StartIndex || got[i].EndIndex != want[i].EndIndex {
			t.Errorf("chunk %d differs from recursive output: %+v vs %+v", i, got[i], want[i])
		}
	}
}

func TestNeuralChunkerUsesModelSplits(t *testing.T) {
	tok := NewCharacterTokenizer()
	text := "alpha beta gamma delta epsilon zeta"
	model := &fakeSplitModel{splits: []int{17, 5, 17}} // unsorted, duplicated
	nc, err := NewNeuralChunker(tok,
		WithChunkSize(100),
		WithMinCharactersPerChunk(1),
		WithModelLoader(&fakeLoader{model: model}))
	if err != nil {
		t.Fatalf("NewNeuralChunker: %v", err)
	}

	if !nc.InitializeModel(writeModelDir(t)) {
		t.Fatal("InitializeModel failed with a valid directory and loader")
	}
	if !nc.Enabled() {
		t.Fatal("Enabled() false after successful initialization")
	}

	chunks, err := nc.Chunk(context.Background(), text)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	want := []string{"alpha", " beta gamma ", "delta epsilon zeta"}
	got := chunkTexts(chunks)
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
	checkOffsets(t, text, chunks)
	checkReconstruction(t, text, chunks)
}

func TestNeuralChunkerPredictionErrorFallsBack(t *testing.T) {
	tok := NewCharacterTokenizer()
	model := &fakeSplitModel{err: errors.New("session crashed")}
	nc, err := NewNeuralChunker(tok, WithChunkSize(25), WithModelLoader(&fakeLoader{model: model}))
	if err != nil {
		t.Fatalf("NewNeuralChunker: %v", err)
	}
	if !nc.InitializeModel(writeModelDir(t)) {
		t.Fatal("InitializeModel failed")
	}

	text := "First paragraph.\n\nSecond paragraph!\n\nShort."
	got, err := nc.Chunk(context.Background(), text)
	if err != nil {
		t.Fatalf("Chunk should degrade, not fail: %v", err)
	}

	rc, _ := NewRecursiveChunker(tok, WithChunkSize(25))
	want, _ := rc.Chunk(context.Background(), text)
	if len(got) != len(want) {
		t.Fatalf("degraded output %q, want recursive %q", chunkTexts(got), chunkTexts(want))
	}
}

func TestNeuralChunkerInitializeModelFailures(t *testing.T) {
	tok := NewCharacterTokenizer()

	t.Run("missing artifacts", func(t *testing.T) {
		nc, err := NewNeuralChunker(tok, WithModelLoader(&fakeLoader{model: &fakeSplitModel{}}))
		if err != nil {
			t.Fatalf("NewNeuralChunker: %v", err)
		}
		if nc.InitializeModel(t.TempDir()) {
			t.Error("accepted an empty artifact directory")
		}
		if nc.Enabled() {
			t.Error("chunker left the fallback state")
		}
	})

	t.Run("malformed config", func(t *testing.T) {
		dir := t.TempDir()
		os.WriteFile(filepath.Join(dir, "model.onnx"), []byte("w"), 0o644)
		os.WriteFile(filepath.Join(dir, "config.json"), []byte("not json"), 0o644)
		os.WriteFile(filepath.Join(dir, "tokenizer.json"), []byte("{}"), 0o644)

		nc, err := NewNeuralChunker(tok, WithModelLoader(&fakeLoader{model: &fakeSplitModel{}}))
		if err != nil {
			t.Fatalf("NewNeuralChunker: %v", err)
		}
		if nc.InitializeModel(dir) {
			t.Error("accepted a malformed config")
		}
	})

	t.Run("no loader", func(t *testing.T) {
		nc, err := NewNeuralChunker(tok)
		if err != nil {
			t.Fatalf("NewNeuralChunker: %v", err)
		}
		if nc.InitializeModel(writeModelDir(t)) {
			t.Error("initialization succeeded without a loader")
		}
	})

	t.Run("loader error", func(t *testing.T) {
		nc, err := NewNeuralChunker(tok, WithModelLoader(&fakeLoader{err: errors.New("bad weights")}))
		if err != nil {
			t.Fatalf("NewNeuralChunker: %v", err)
		}
		if nc.InitializeModel(writeModelDir(t)) {
			t.Error("initialization succeeded despite loader error")
		}
	})
}

func TestNeuralChunkerCloseReturnsToFallback(t *testing.T) {
	tok := NewCharacterTokenizer()
	model := &fakeSplitModel{splits: []int{5}}
	nc, err := NewNeuralChunker(tok, WithModelLoader(&fakeLoader{model: model}))
	if err != nil {
		t.Fatalf("NewNeuralChunker: %v", err)
	}
	if !nc.InitializeModel(writeModelDir(t)) {
		t.Fatal("InitializeModel failed")
	}
	if err := nc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !model.closed {
		t.Error("Close did not release the model session")
	}
	if nc.Enabled() {
		t.Error("chunker still enabled after Close")
	}
	// Closing twice is harmless.
	if err := nc.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
