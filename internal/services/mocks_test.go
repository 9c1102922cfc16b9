package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/docuhub/backend-go/internal/config"
	"github.com/docuhub/backend-go/internal/rag"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newMockGorm 基于sqlmock构造gorm连接
func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

// fakeEmbedder 固定向量的向量化替身
type fakeEmbedder struct{}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i := range texts {
		results[i] = []float32{1, 0}
	}
	return results, nil
}

func (f *fakeEmbedder) Dimensions() int { return 2 }
func (f *fakeEmbedder) Model() string   { return "fake-model" }
func (f *fakeEmbedder) Ready() bool     { return true }

// fakeAnswerModel 固定答案的问答模型替身
type fakeAnswerModel struct {
	answer string
}

func (f *fakeAnswerModel) Answer(ctx context.Context, question, contextText string) (string, error) {
	return f.answer, nil
}

func (f *fakeAnswerModel) Ready() bool { return true }

// newTestEngine 构造内存索引引擎，extractive可为nil
func newTestEngine(t *testing.T, store *rag.MemoryVectorStore, extractive rag.AnswerModel) *rag.Engine {
	t.Helper()
	engine, err := rag.NewEngine(rag.EngineOptions{
		Embedder:   &fakeEmbedder{},
		Store:      store,
		Extractive: extractive,
	})
	require.NoError(t, err)
	return engine
}

// setTestConfig 注入测试配置（测试内不读配置文件）
func setTestConfig(t *testing.T, maxUploadSize int64) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = &config.Config{
		FileUpload: config.FileUploadConfig{MaxSize: maxUploadSize},
		Redis:      config.RedisConfig{TTL: 300},
	}
	t.Cleanup(func() { config.AppConfig = prev })
}
