package rag

import "context"

// IndexEntry 索引条目，ID形如"{documentID}_{chunkIndex}"
type IndexEntry struct {
	ID         string
	DocumentID uint
	ChunkIndex int
	Model      string // 生成该向量的embedding模型标识
	Text       string
	Embedding  []float32
}

// QueryRequest 向量检索请求。Filter为元数据精确匹配，
// 所有键值对都命中才算匹配；空Filter检索全量索引。
type QueryRequest struct {
	Embedding []float32
	TopK      int
	Filter    map[string]string
}

// QueryMatch 检索命中结果
type QueryMatch struct {
	ID         string
	DocumentID uint
	ChunkIndex int
	Text       string
	Score      float64
}

// VectorStore 向量存储抽象。Upsert按ID覆盖写入，
// Query结果按相似度降序排列，同分按ID升序。
type VectorStore interface {
	Upsert(ctx context.Context, entries []IndexEntry) error
	Query(ctx context.Context, req QueryRequest) ([]QueryMatch, error)
	DeleteDocument(ctx context.Context, documentID uint) error
	Ready() bool
}
