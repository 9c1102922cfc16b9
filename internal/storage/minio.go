package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/docuhub/backend-go/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStore MinIO对象存储
type MinIOStore struct {
	client *minio.Client
	config config.ObjectStorageConfig
}

// NewMinIOStore 创建MinIO存储实例
func NewMinIOStore(cfg config.ObjectStorageConfig) (*MinIOStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint not configured")
	}

	if cfg.Bucket == "" {
		cfg.Bucket = "documents"
	}

	// minio.New 不需要协议前缀
	endpoint := cfg.Endpoint
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: "", // MinIO 不需要 region
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	store := &MinIOStore{
		client: client,
		config: cfg,
	}

	if err := store.ensureBucket(cfg.Bucket); err != nil {
		return nil, err
	}

	return store, nil
}

// ensureBucket 确保bucket存在（带重试，MinIO服务可能需要时间启动）
func (s *MinIOStore) ensureBucket(bucket string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var exists bool
	var bucketErr error
	for i := 0; i < 5; i++ {
		exists, bucketErr = s.client.BucketExists(ctx, bucket)
		if bucketErr == nil {
			break
		}
		if i < 4 {
			waitTime := time.Second * time.Duration((i+1)*2)
			log.Printf("⚠️  MinIO connection attempt %d/%d failed, retrying in %v: %v", i+1, 5, waitTime, bucketErr)
			time.Sleep(waitTime)
		}
	}

	if exists {
		return nil
	}

	err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
	if err != nil {
		errStr := err.Error()
		// bucket 可能已被其他实例创建
		if strings.Contains(errStr, "BucketAlreadyExists") ||
			strings.Contains(errStr, "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	log.Printf("✅ Successfully created MinIO bucket: %s", bucket)
	return nil
}

func (s *MinIOStore) Put(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("minio client not initialized")
	}

	_, err := s.client.PutObject(ctx, s.config.Bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s", s.config.Bucket, objectName), nil
}

func (s *MinIOStore) Get(ctx context.Context, objectName string) ([]byte, error) {
	if s.client == nil {
		return nil, fmt.Errorf("minio client not initialized")
	}

	object, err := s.client.GetObject(ctx, s.config.Bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()

	return io.ReadAll(object)
}

func (s *MinIOStore) Remove(ctx context.Context, objectName string) error {
	if s.client == nil {
		return fmt.Errorf("minio client not initialized")
	}

	return s.client.RemoveObject(ctx, s.config.Bucket, objectName, minio.RemoveObjectOptions{})
}

// GetFileURL 获取文件访问URL（预签名）
func (s *MinIOStore) GetFileURL(ctx context.Context, objectName string, expires time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("minio client not initialized")
	}

	if expires == 0 {
		expires = 24 * time.Hour
	}

	url, err := s.client.PresignedGetObject(ctx, s.config.Bucket, objectName, expires, nil)
	if err != nil {
		return "", err
	}

	return url.String(), nil
}

func (s *MinIOStore) Ready() bool {
	if s == nil || s.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.client.ListBuckets(ctx)
	return err == nil
}
