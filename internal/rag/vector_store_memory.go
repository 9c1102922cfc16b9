package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
)

// MemoryVectorStore 进程内暴力余弦检索存储，默认后端兼测试替身
type MemoryVectorStore struct {
	mu      sync.RWMutex
	entries map[string]IndexEntry
}

// NewMemoryVectorStore 创建内存向量存储
func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{
		entries: make(map[string]IndexEntry),
	}
}

// Upsert 按ID覆盖写入，相同ID后写胜出
func (s *MemoryVectorStore) Upsert(ctx context.Context, entries []IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		if entry.ID == "" {
			return &IndexError{Op: "upsert", Cause: fmt.Errorf("entry id is empty")}
		}
		if len(entry.Embedding) == 0 {
			return &IndexError{Op: "upsert", Cause: fmt.Errorf("entry %s embedding is empty", entry.ID)}
		}
		embedding := make([]float32, len(entry.Embedding))
		copy(embedding, entry.Embedding)
		entry.Embedding = embedding
		s.entries[entry.ID] = entry
	}
	return nil
}

func (s *MemoryVectorStore) Query(ctx context.Context, req QueryRequest) ([]QueryMatch, error) {
	if len(req.Embedding) == 0 {
		return nil, &IndexError{Op: "query", Cause: fmt.Errorf("query embedding is empty")}
	}
	if req.TopK <= 0 {
		req.TopK = 3
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]QueryMatch, 0, len(s.entries))
	for _, entry := range s.entries {
		if !entryMatchesFilter(entry, req.Filter) {
			continue
		}
		matches = append(matches, QueryMatch{
			ID:         entry.ID,
			DocumentID: entry.DocumentID,
			ChunkIndex: entry.ChunkIndex,
			Text:       entry.Text,
			Score:      cosineSimilarity(req.Embedding, entry.Embedding),
		})
	}

	// 相似度降序，同分按ID升序保证确定性
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > req.TopK {
		matches = matches[:req.TopK]
	}
	return matches, nil
}

func (s *MemoryVectorStore) DeleteDocument(ctx context.Context, documentID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.entries {
		if entry.DocumentID == documentID {
			delete(s.entries, id)
		}
	}
	return nil
}

func (s *MemoryVectorStore) Ready() bool {
	return s != nil
}

// Len 当前索引条目数
func (s *MemoryVectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func entryMatchesFilter(entry IndexEntry, filter map[string]string) bool {
	for key, want := range filter {
		var got string
		switch key {
		case "document_id":
			got = strconv.FormatUint(uint64(entry.DocumentID), 10)
		case "chunk_index":
			got = strconv.Itoa(entry.ChunkIndex)
		case "model":
			got = entry.Model
		default:
			return false
		}
		if got != want {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
