package rag

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// Retriever 文档范围内的相似块检索
type Retriever struct {
	embedder Embedder
	store    VectorStore
}

// NewRetriever 创建检索器
func NewRetriever(embedder Embedder, store VectorStore) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
	}
}

// Retrieve 对问题做一次向量化后检索TopK相似块。
// documentID非nil时限定在该文档范围内；空索引返回空结果而非错误。
func (r *Retriever) Retrieve(ctx context.Context, question string, documentID *uint, topK int) ([]QueryMatch, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.New("question is empty")
	}
	if topK <= 0 {
		topK = 3
	}

	embedding, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, &EmbeddingError{Cause: err}
	}

	var filter map[string]string
	if documentID != nil {
		filter = map[string]string{
			"document_id": strconv.FormatUint(uint64(*documentID), 10),
		}
	}

	matches, err := r.store.Query(ctx, QueryRequest{
		Embedding: embedding,
		TopK:      topK,
		Filter:    filter,
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}
