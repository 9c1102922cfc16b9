package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docuhub/backend-go/internal/config"
)

// ObjectStore 文档原始文件存储接口
type ObjectStore interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, objectName string) ([]byte, error)
	Remove(ctx context.Context, objectName string) error
	Ready() bool
}

// NewObjectStore 根据配置创建存储实例
func NewObjectStore(cfg config.ObjectStorageConfig) (ObjectStore, error) {
	switch cfg.Provider {
	case "minio", "s3":
		return NewMinIOStore(cfg)
	case "local", "":
		return NewLocalStore(cfg.BasePath)
	default:
		return nil, fmt.Errorf("不支持的存储类型: %s", cfg.Provider)
	}
}

// LocalStore 本地磁盘存储
type LocalStore struct {
	basePath string
}

// NewLocalStore 创建本地存储实例
func NewLocalStore(basePath string) (*LocalStore, error) {
	if basePath == "" {
		basePath = "./uploads/documents"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

func (s *LocalStore) Put(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	path := filepath.Join(s.basePath, objectName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *LocalStore) Get(ctx context.Context, objectName string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.basePath, objectName))
}

func (s *LocalStore) Remove(ctx context.Context, objectName string) error {
	err := os.Remove(filepath.Join(s.basePath, objectName))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *LocalStore) Ready() bool {
	info, err := os.Stat(s.basePath)
	return err == nil && info.IsDir()
}
