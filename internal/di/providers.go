package di

import (
	"fmt"
	"time"

	"github.com/docuhub/backend-go/internal/config"
	"github.com/docuhub/backend-go/internal/database"
	"github.com/docuhub/backend-go/internal/logger"
	"github.com/docuhub/backend-go/internal/rag"
	"github.com/docuhub/backend-go/internal/services"
	"github.com/docuhub/backend-go/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterProviders 注册所有依赖提供者
func RegisterProviders() error {
	providers := []interface{}{
		provideConfig,
		provideDB,
		provideRedis,
		provideObjectStore,
		provideEmbedder,
		provideVectorStore,
		provideEngine,
		services.NewDocumentService,
		services.NewQuestionService,
	}

	for _, provider := range providers {
		if err := Provide(provider); err != nil {
			return fmt.Errorf("failed to register provider: %w", err)
		}
	}
	return nil
}

func provideConfig() *config.Config {
	return config.AppConfig
}

func provideDB() *gorm.DB {
	return database.DB
}

func provideRedis() *redis.Client {
	return database.RedisClient
}

func provideObjectStore(cfg *config.Config) (storage.ObjectStore, error) {
	return storage.NewObjectStore(cfg.Document.Storage)
}

func provideEmbedder(cfg *config.Config) rag.Embedder {
	return rag.NewOpenAIEmbedder(cfg.AI.OpenAIAPIKey, cfg.Document.Embedding.Model)
}

func provideVectorStore(cfg *config.Config) (rag.VectorStore, error) {
	switch cfg.Document.VectorStore.Provider {
	case "milvus":
		store, err := rag.NewMilvusVectorStore(rag.MilvusOptions{
			Address:    cfg.Document.VectorStore.Milvus.Address,
			Username:   cfg.Document.VectorStore.Milvus.Username,
			Password:   cfg.Document.VectorStore.Milvus.Password,
			Collection: cfg.Document.VectorStore.Milvus.Collection,
			Database:   cfg.Document.VectorStore.Milvus.Database,
			UseTLS:     cfg.Document.VectorStore.Milvus.TLS,
			VectorSize: cfg.Document.VectorStore.Milvus.VectorSize,
			Distance:   cfg.Document.VectorStore.Milvus.Distance,
		})
		if err != nil {
			// Milvus不可用时降级到内存存储，服务仍可启动
			logger.Warn("Milvus初始化失败，降级到内存向量存储", zap.Error(err))
			return rag.NewMemoryVectorStore(), nil
		}
		return store, nil
	default:
		return rag.NewMemoryVectorStore(), nil
	}
}

func provideEngine(cfg *config.Config, embedder rag.Embedder, store rag.VectorStore) (*rag.Engine, error) {
	timeout := time.Duration(cfg.AI.RequestTimeoutMS) * time.Millisecond

	extractive := rag.NewExtractiveClient(cfg.AI.ExtractiveURL, cfg.AI.ExtractiveModel, timeout)
	fallback := rag.NewOpenAIAnswerModel(cfg.AI.OpenAIAPIKey, cfg.AI.FallbackModel, cfg.AI.MaxTokens, cfg.AI.Temperature)

	var extractiveModel rag.AnswerModel
	if extractive != nil {
		extractiveModel = extractive
	}
	var fallbackModel rag.AnswerModel
	if fallback != nil {
		fallbackModel = fallback
	}

	return rag.NewEngine(rag.EngineOptions{
		Chunker:     rag.NewChunker(cfg.Document.ChunkSize),
		Embedder:    embedder,
		Store:       store,
		Extractive:  extractiveModel,
		Fallback:    fallbackModel,
		CallTimeout: timeout,
	})
}
