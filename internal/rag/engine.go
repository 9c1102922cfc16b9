package rag

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docuhub/backend-go/internal/logger"
	"go.uber.org/zap"
)

// EngineOptions 引擎配置
type EngineOptions struct {
	Parsers     *FileParserManager
	Chunker     *Chunker
	Embedder    Embedder
	Store       VectorStore
	Extractive  AnswerModel
	Fallback    AnswerModel
	CallTimeout time.Duration // 单次embedder/store/model调用超时
}

// Engine 文档摄取与问答管线
type Engine struct {
	parsers     *FileParserManager
	chunker     *Chunker
	embedder    Embedder
	store       VectorStore
	retriever   *Retriever
	cascade     *Cascade
	callTimeout time.Duration
}

// NewEngine 创建引擎，依赖显式注入
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Parsers == nil {
		opts.Parsers = NewFileParserManager()
	}
	if opts.Chunker == nil {
		opts.Chunker = NewChunker(500)
	}
	if opts.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}

	return &Engine{
		parsers:     opts.Parsers,
		chunker:     opts.Chunker,
		embedder:    opts.Embedder,
		store:       opts.Store,
		retriever:   NewRetriever(opts.Embedder, opts.Store),
		cascade:     NewCascade(opts.Extractive, opts.Fallback),
		callTimeout: opts.CallTimeout,
	}, nil
}

// Parsers 获取文件解析器管理器
func (e *Engine) Parsers() *FileParserManager {
	return e.parsers
}

// Store 获取向量存储
func (e *Engine) Store() VectorStore {
	return e.store
}

// Ingest 摄取文档：提取 → 分块 → 批量向量化 → 一次Upsert，
// 返回块数。提取不出任何块时返回0且不写索引，不算错误。
func (e *Engine) Ingest(ctx context.Context, documentID uint, reader io.Reader, filename string) (int, error) {
	text, err := e.parsers.ParseFile(reader, filename)
	if err != nil {
		return 0, err
	}

	chunks := e.chunker.Split(text)
	if len(chunks) == 0 {
		logger.Info("文档无可摄取内容", zap.Uint("document_id", documentID))
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embedCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	embeddings, err := e.embedder.EmbedBatch(embedCtx, texts)
	cancel()
	if err != nil {
		return 0, &EmbeddingError{Cause: err}
	}
	if len(embeddings) != len(chunks) {
		return 0, &EmbeddingError{Cause: fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(embeddings))}
	}

	model := e.embedder.Model()
	entries := make([]IndexEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = IndexEntry{
			ID:         fmt.Sprintf("%d_%d", documentID, chunk.Index),
			DocumentID: documentID,
			ChunkIndex: chunk.Index,
			Model:      model,
			Text:       chunk.Text,
			Embedding:  embeddings[i],
		}
	}

	upsertCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	err = e.store.Upsert(upsertCtx, entries)
	cancel()
	if err != nil {
		return 0, err
	}

	logger.Info("文档摄取完成",
		zap.Uint("document_id", documentID),
		zap.Int("chunks", len(chunks)),
		zap.String("model", model))

	return len(chunks), nil
}

// Answer 回答问题：检索 → 级联。仅向量化和索引查询失败返回
// 错误；模型失败体现在答案内容里，不会作为错误返回。
func (e *Engine) Answer(ctx context.Context, question string, documentID *uint, topK int) (AnswerResult, error) {
	retrieveCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	matches, err := e.retriever.Retrieve(retrieveCtx, question, documentID, topK)
	cancel()
	if err != nil {
		return AnswerResult{}, err
	}

	cascadeCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	return e.cascade.Run(cascadeCtx, question, matches), nil
}

// DeleteDocument 从索引中移除文档的全部块
func (e *Engine) DeleteDocument(ctx context.Context, documentID uint) error {
	deleteCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	return e.store.DeleteDocument(deleteCtx, documentID)
}
