package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/docuhub/backend-go/internal/logger"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"
)

// MilvusOptions Milvus客户端配置
type MilvusOptions struct {
	Address    string
	Username   string
	Password   string
	Collection string
	VectorSize int
	Distance   string
	Database   string
	UseTLS     bool
	Timeout    time.Duration
}

type milvusVectorStore struct {
	milvusClient client.Client
	collection   string
	vectorSize   int
	distance     string
}

// NewMilvusVectorStore 创建Milvus向量存储
func NewMilvusVectorStore(opts MilvusOptions) (VectorStore, error) {
	if opts.Address == "" {
		opts.Address = "localhost:19530"
	}
	if opts.Collection == "" {
		opts.Collection = "document_chunks"
	}
	if opts.VectorSize == 0 {
		opts.VectorSize = 1536
	}
	if opts.Distance == "" {
		opts.Distance = "COSINE"
	}
	if opts.Database == "" {
		opts.Database = "default"
	}

	milvusClient, err := client.NewClient(
		context.Background(),
		client.Config{
			Address:       opts.Address,
			DBName:        opts.Database,
			Username:      opts.Username,
			Password:      opts.Password,
			EnableTLSAuth: opts.UseTLS,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	return &milvusVectorStore{
		milvusClient: milvusClient,
		collection:   opts.Collection,
		vectorSize:   opts.VectorSize,
		distance:     formatMilvusDistance(opts.Distance),
	}, nil
}

func formatMilvusDistance(value string) string {
	switch strings.ToUpper(value) {
	case "DOT", "IP", "INNER_PRODUCT":
		return "IP"
	case "L2", "EUCLIDEAN":
		return "L2"
	default:
		return "COSINE"
	}
}

func (s *milvusVectorStore) ensureCollection(ctx context.Context) error {
	hasCollection, err := s.milvusClient.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if hasCollection {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: s.collection,
		Description:    "Document chunk vectors",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "128",
				},
			},
			{
				Name:     "document_id",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "chunk_index",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "model",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "128",
				},
			},
			{
				Name:     "content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", s.vectorSize),
				},
			},
		},
	}

	if err := s.milvusClient.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// 创建索引 - HNSW失败时回退IVF_FLAT
	metricType := entity.MetricType(s.distance)
	var index entity.Index
	var indexErr error
	index, indexErr = entity.NewIndexHNSW(metricType, 8, 64)
	if indexErr != nil {
		index, indexErr = entity.NewIndexIvfFlat(metricType, 128)
		if indexErr != nil {
			return fmt.Errorf("failed to create index: %w", indexErr)
		}
	}

	if err := s.milvusClient.CreateIndex(ctx, s.collection, "vector", index, false); err != nil {
		// 索引创建失败不影响使用，只记录警告
		logger.Warn("创建向量索引失败", zap.String("collection", s.collection), zap.Error(err))
	}

	return nil
}

func (s *milvusVectorStore) Upsert(ctx context.Context, entries []IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if err := s.ensureCollection(ctx); err != nil {
		return &IndexError{Op: "upsert", Cause: err}
	}

	ids := make([]string, 0, len(entries))
	documentIDs := make([]int64, 0, len(entries))
	chunkIndexes := make([]int64, 0, len(entries))
	models := make([]string, 0, len(entries))
	contents := make([]string, 0, len(entries))
	vectors := make([][]float32, 0, len(entries))

	for _, e := range entries {
		if len(e.Embedding) == 0 {
			return &IndexError{Op: "upsert", Cause: fmt.Errorf("entry %s embedding is empty", e.ID)}
		}
		embedding := e.Embedding
		if len(embedding) != s.vectorSize {
			// 维度不足用0填充，超出截断
			padded := make([]float32, s.vectorSize)
			copy(padded, embedding)
			embedding = padded
		}
		ids = append(ids, e.ID)
		documentIDs = append(documentIDs, int64(e.DocumentID))
		chunkIndexes = append(chunkIndexes, int64(e.ChunkIndex))
		models = append(models, e.Model)
		contents = append(contents, e.Text)
		vectors = append(vectors, embedding)
	}

	idColumn := entity.NewColumnVarChar("id", ids)
	documentIDColumn := entity.NewColumnInt64("document_id", documentIDs)
	chunkIndexColumn := entity.NewColumnInt64("chunk_index", chunkIndexes)
	modelColumn := entity.NewColumnVarChar("model", models)
	contentColumn := entity.NewColumnVarChar("content", contents)
	vectorColumn := entity.NewColumnFloatVector("vector", s.vectorSize, vectors)

	// Upsert按主键覆盖，重复摄取同一文档不会产生重复条目
	_, err := s.milvusClient.Upsert(ctx, s.collection, "", idColumn, documentIDColumn, chunkIndexColumn, modelColumn, contentColumn, vectorColumn)
	if err != nil {
		return &IndexError{Op: "upsert", Cause: err}
	}

	if err := s.milvusClient.Flush(ctx, s.collection, false); err != nil {
		logger.Warn("刷新集合失败", zap.String("collection", s.collection), zap.Error(err))
	}

	return nil
}

// buildFilterExpr 将元数据过滤条件编译为Milvus布尔表达式
func buildFilterExpr(filter map[string]string) string {
	if len(filter) == 0 {
		return ""
	}

	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	terms := make([]string, 0, len(keys))
	for _, key := range keys {
		value := filter[key]
		switch key {
		case "document_id", "chunk_index":
			terms = append(terms, fmt.Sprintf("%s == %s", key, value))
		default:
			terms = append(terms, fmt.Sprintf(`%s == "%s"`, key, strings.ReplaceAll(value, `"`, `\"`)))
		}
	}
	return strings.Join(terms, " and ")
}

func (s *milvusVectorStore) Query(ctx context.Context, req QueryRequest) ([]QueryMatch, error) {
	if len(req.Embedding) == 0 {
		return nil, &IndexError{Op: "query", Cause: fmt.Errorf("query embedding is empty")}
	}
	if req.TopK <= 0 {
		req.TopK = 3
	}

	if err := s.ensureCollection(ctx); err != nil {
		return nil, &IndexError{Op: "query", Cause: err}
	}

	sp, _ := entity.NewIndexHNSWSearchParam(64)
	queryVector := entity.FloatVector(req.Embedding)
	searchResults, err := s.milvusClient.Search(
		ctx,
		s.collection,
		[]string{},
		buildFilterExpr(req.Filter),
		[]string{"document_id", "chunk_index", "content"},
		[]entity.Vector{queryVector},
		"vector",
		entity.MetricType(s.distance),
		req.TopK,
		sp,
	)
	if err != nil {
		return nil, &IndexError{Op: "query", Cause: err}
	}

	if len(searchResults) == 0 {
		return []QueryMatch{}, nil
	}
	result := searchResults[0]
	if result.Err != nil {
		return nil, &IndexError{Op: "query", Cause: result.Err}
	}
	if result.ResultCount == 0 {
		return []QueryMatch{}, nil
	}

	var ids []string
	if idCol, ok := result.IDs.(*entity.ColumnVarChar); ok {
		ids = idCol.Data()
	}

	var documentIDs []int64
	var chunkIndexes []int64
	var contents []string
	for _, field := range result.Fields {
		switch field.Name() {
		case "document_id":
			if val, ok := field.(*entity.ColumnInt64); ok {
				documentIDs = val.Data()
			}
		case "chunk_index":
			if val, ok := field.(*entity.ColumnInt64); ok {
				chunkIndexes = val.Data()
			}
		case "content":
			if val, ok := field.(*entity.ColumnVarChar); ok {
				contents = val.Data()
			}
		}
	}

	matches := make([]QueryMatch, 0, result.ResultCount)
	for i := 0; i < result.ResultCount; i++ {
		match := QueryMatch{}
		if i < len(ids) {
			match.ID = ids[i]
		}
		if i < len(documentIDs) {
			match.DocumentID = uint(documentIDs[i])
		}
		if i < len(chunkIndexes) {
			match.ChunkIndex = int(chunkIndexes[i])
		}
		if i < len(contents) {
			match.Text = contents[i]
		}
		if i < len(result.Scores) {
			match.Score = float64(result.Scores[i])
		}
		matches = append(matches, match)
	}

	// Milvus按相似度返回，同分时补充按ID升序的确定性排序
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})

	return matches, nil
}

func (s *milvusVectorStore) DeleteDocument(ctx context.Context, documentID uint) error {
	if err := s.ensureCollection(ctx); err != nil {
		return &IndexError{Op: "delete", Cause: err}
	}

	expr := fmt.Sprintf("document_id == %d", documentID)
	if err := s.milvusClient.Delete(ctx, s.collection, "", expr); err != nil {
		return &IndexError{Op: "delete", Cause: err}
	}

	if err := s.milvusClient.Flush(ctx, s.collection, false); err != nil {
		logger.Warn("删除后刷新集合失败", zap.String("collection", s.collection), zap.Error(err))
	}

	return nil
}

func (s *milvusVectorStore) Ready() bool {
	if s == nil || s.milvusClient == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.milvusClient.ListCollections(ctx)
	return err == nil
}
