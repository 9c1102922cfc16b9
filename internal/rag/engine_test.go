package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder 确定性向量化替身：按关键词映射到固定轴向量
type stubEmbedder struct {
	failEmbed bool
	failBatch bool
}

func (s *stubEmbedder) vectorFor(text string) []float32 {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "cat"):
		return []float32{1, 0, 0}
	case strings.Contains(lower, "dog"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.failEmbed {
		return nil, errors.New("embedding service unavailable")
	}
	return s.vectorFor(text), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.failBatch {
		return nil, errors.New("embedding service unavailable")
	}
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = s.vectorFor(text)
	}
	return results, nil
}

func (s *stubEmbedder) Dimensions() int { return 3 }
func (s *stubEmbedder) Model() string   { return "stub-embedding-v1" }
func (s *stubEmbedder) Ready() bool     { return true }

func newTestEngine(t *testing.T, store VectorStore, extractive, fallback AnswerModel) *Engine {
	t.Helper()
	engine, err := NewEngine(EngineOptions{
		Chunker:    NewChunker(500),
		Embedder:   &stubEmbedder{},
		Store:      store,
		Extractive: extractive,
		Fallback:   fallback,
	})
	require.NoError(t, err)
	return engine
}

func TestEngineIngestTextDocument(t *testing.T) {
	store := NewMemoryVectorStore()
	engine := newTestEngine(t, store, nil, nil)

	chunks, err := engine.Ingest(context.Background(), 1, strings.NewReader("cats purr\ndogs bark"), "animals.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, chunks)
	assert.Equal(t, 1, store.Len())
}

func TestEngineIngestEmptyDocument(t *testing.T) {
	store := NewMemoryVectorStore()
	engine := newTestEngine(t, store, nil, nil)

	// 空文档返回0且不写索引，不算错误
	chunks, err := engine.Ingest(context.Background(), 1, strings.NewReader("   \n  "), "empty.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, chunks)
	assert.Equal(t, 0, store.Len())
}

func TestEngineIngestUnsupportedFormat(t *testing.T) {
	engine := newTestEngine(t, NewMemoryVectorStore(), nil, nil)

	_, err := engine.Ingest(context.Background(), 1, strings.NewReader("x"), "binary.exe")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestEngineIngestEmbeddingFailure(t *testing.T) {
	store := NewMemoryVectorStore()
	engine, err := NewEngine(EngineOptions{
		Embedder: &stubEmbedder{failBatch: true},
		Store:    store,
	})
	require.NoError(t, err)

	_, err = engine.Ingest(context.Background(), 1, strings.NewReader("some text"), "doc.txt")
	require.Error(t, err)

	var embErr *EmbeddingError
	assert.ErrorAs(t, err, &embErr)
	assert.Equal(t, 0, store.Len())
}

func TestEngineIngestEntryIDFormat(t *testing.T) {
	store := NewMemoryVectorStore()
	chunker := NewChunker(12)
	engine, err := NewEngine(EngineOptions{
		Chunker:  chunker,
		Embedder: &stubEmbedder{},
		Store:    store,
	})
	require.NoError(t, err)

	chunks, err := engine.Ingest(context.Background(), 7, strings.NewReader("cat cat cat\ndog dog dog1"), "pets.txt")
	require.NoError(t, err)
	require.Greater(t, chunks, 1)

	matches, err := store.Query(context.Background(), QueryRequest{
		Embedding: []float32{1, 0, 0},
		TopK:      10,
	})
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, m := range matches {
		ids[m.ID] = true
		assert.Equal(t, uint(7), m.DocumentID)
	}
	assert.True(t, ids["7_0"])
	assert.True(t, ids["7_1"])
}

func TestEngineIngestReingestOverwrites(t *testing.T) {
	store := NewMemoryVectorStore()
	engine := newTestEngine(t, store, nil, nil)
	ctx := context.Background()

	_, err := engine.Ingest(ctx, 1, strings.NewReader("cats are great"), "doc.txt")
	require.NoError(t, err)
	_, err = engine.Ingest(ctx, 1, strings.NewReader("cats are wonderful"), "doc.txt")
	require.NoError(t, err)

	// 重复摄取按ID覆盖，不产生重复条目
	assert.Equal(t, 1, store.Len())
}

func TestEngineAnswerEndToEnd(t *testing.T) {
	store := NewMemoryVectorStore()
	extractive := &stubAnswerModel{answer: "they purr", ready: true}
	engine := newTestEngine(t, store, extractive, nil)
	ctx := context.Background()

	_, err := engine.Ingest(ctx, 1, strings.NewReader("cats purr when happy"), "cats.txt")
	require.NoError(t, err)

	docID := uint(1)
	result, err := engine.Answer(ctx, "what do cats do?", &docID, 3)
	require.NoError(t, err)

	assert.Equal(t, "they purr", result.Answer)
	assert.Equal(t, AnswerSourceExtractive, result.Source)
	require.Len(t, result.Chunks, 1)
	assert.Contains(t, result.Chunks[0].Text, "purr")
}

func TestEngineAnswerDocumentScoping(t *testing.T) {
	store := NewMemoryVectorStore()
	extractive := &stubAnswerModel{answer: "ok", ready: true}
	engine := newTestEngine(t, store, extractive, nil)
	ctx := context.Background()

	_, err := engine.Ingest(ctx, 1, strings.NewReader("cats purr"), "cats.txt")
	require.NoError(t, err)
	_, err = engine.Ingest(ctx, 2, strings.NewReader("cats climb"), "more-cats.txt")
	require.NoError(t, err)

	docID := uint(2)
	result, err := engine.Answer(ctx, "cat question", &docID, 10)
	require.NoError(t, err)

	// 限定文档范围时不返回其他文档的块
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, uint(2), result.Chunks[0].DocumentID)
}

func TestEngineAnswerNoContext(t *testing.T) {
	store := NewMemoryVectorStore()
	extractive := &stubAnswerModel{answer: "unused", ready: true}
	engine := newTestEngine(t, store, extractive, nil)

	docID := uint(99)
	result, err := engine.Answer(context.Background(), "anything?", &docID, 3)
	require.NoError(t, err)

	assert.Equal(t, NoContextAnswer, result.Answer)
	assert.Empty(t, result.Chunks)
	assert.Equal(t, 0, extractive.calls)
}

func TestEngineRequiresEmbedderAndStore(t *testing.T) {
	_, err := NewEngine(EngineOptions{Store: NewMemoryVectorStore()})
	assert.Error(t, err)

	_, err = NewEngine(EngineOptions{Embedder: &stubEmbedder{}})
	assert.Error(t, err)
}
