package services

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/docuhub/backend-go/internal/config"
	"github.com/docuhub/backend-go/internal/errors"
	"github.com/docuhub/backend-go/internal/kafka"
	"github.com/docuhub/backend-go/internal/logger"
	"github.com/docuhub/backend-go/internal/metrics"
	"github.com/docuhub/backend-go/internal/models"
	"github.com/docuhub/backend-go/internal/rag"
	"github.com/docuhub/backend-go/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentService 文档服务：上传、摄取、查询、删除
type DocumentService struct {
	db      *gorm.DB
	engine  *rag.Engine
	storage storage.ObjectStore
	redis   *redis.Client
}

// DocumentInfo 文档信息
type DocumentInfo struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	FileType   string `json:"file_type"`
	Size       int64  `json:"size"`
	Pages      int    `json:"pages"`
	Status     string `json:"status"`
	UploadedAt string `json:"uploaded_at"`
}

// NewDocumentService 创建文档服务
func NewDocumentService(db *gorm.DB, engine *rag.Engine, store storage.ObjectStore, redisClient *redis.Client) *DocumentService {
	return &DocumentService{
		db:      db,
		engine:  engine,
		storage: store,
		redis:   redisClient,
	}
}

const docStatusKeyFormat = "docuhub:doc:status:%d"

// setStatusCache 写入Redis处理状态缓存（Redis未配置时跳过）
func (s *DocumentService) setStatusCache(ctx context.Context, docID uint, status string) {
	if s.redis == nil {
		return
	}
	ttl := time.Duration(config.AppConfig.Redis.TTL) * time.Second
	key := fmt.Sprintf(docStatusKeyFormat, docID)
	if err := s.redis.Set(ctx, key, status, ttl).Err(); err != nil {
		logger.Warn("写入文档状态缓存失败", zap.Error(err), zap.Uint("document_id", docID))
	}
}

// UploadDocument 上传并同步摄取文档。摄取失败时状态记为
// "error: <原因>"，不重试；上传本身仍然成功。
func (s *DocumentService) UploadDocument(ctx context.Context, filename string, data []byte) (*DocumentInfo, error) {
	start := time.Now()

	if !s.engine.Parsers().Supports(filename) {
		return nil, errors.NewBusinessError(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported file format: %s", filepath.Ext(filename)))
	}

	maxSize := config.AppConfig.FileUpload.MaxSize
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, errors.NewBusinessError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("file exceeds maximum size of %d bytes", maxSize))
	}

	doc := &models.Document{
		Title:    filename,
		FileType: strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."),
		Size:     int64(len(data)),
		Status:   models.DocumentStatusProcessing,
	}
	if err := s.db.Create(doc).Error; err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "failed to create document record").WithCause(err)
	}
	metrics.DocumentsUploaded.Inc()
	s.setStatusCache(ctx, doc.ID, doc.Status)

	objectName := fmt.Sprintf("%d/%s", doc.ID, filename)
	path, err := s.storage.Put(ctx, objectName, data, contentTypeFor(filename))
	if err != nil {
		logger.Error("保存文件失败", zap.Error(err), zap.Uint("document_id", doc.ID))
		s.markError(ctx, doc, fmt.Errorf("failed to store file: %w", err))
		return s.toInfo(doc), nil
	}
	doc.FilePath = path
	s.db.Model(doc).Update("file_path", path)

	kafka.SendDocumentEvent(kafka.EventDocumentUploaded, doc.ID, doc.Title, doc.Status, 0, "")

	// 同步摄取：提取、分块、向量化并写入索引
	chunks, err := s.engine.Ingest(ctx, doc.ID, bytes.NewReader(data), filename)
	if err != nil {
		s.markError(ctx, doc, err)
		metrics.DocumentsProcessed.WithLabelValues("error").Inc()
		kafka.SendDocumentEvent(kafka.EventDocumentFailed, doc.ID, doc.Title, doc.Status, 0, err.Error())
		return s.toInfo(doc), nil
	}

	doc.Status = fmt.Sprintf("processed (%d chunks)", chunks)
	doc.Pages = chunks
	if err := s.db.Model(doc).Updates(map[string]interface{}{
		"status": doc.Status,
		"pages":  doc.Pages,
	}).Error; err != nil {
		logger.Error("更新文档状态失败", zap.Error(err), zap.Uint("document_id", doc.ID))
	}
	s.setStatusCache(ctx, doc.ID, doc.Status)

	metrics.DocumentsProcessed.WithLabelValues("success").Inc()
	metrics.ChunksIndexed.Add(float64(chunks))
	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	kafka.SendDocumentEvent(kafka.EventDocumentProcessed, doc.ID, doc.Title, doc.Status, chunks, "")

	logger.Info("文档上传并摄取完成",
		zap.Uint("document_id", doc.ID),
		zap.String("title", doc.Title),
		zap.Int("chunks", chunks))

	return s.toInfo(doc), nil
}

// markError 记录摄取失败状态，错误被记录而不重试
func (s *DocumentService) markError(ctx context.Context, doc *models.Document, cause error) {
	doc.Status = fmt.Sprintf("error: %s", cause.Error())
	if err := s.db.Model(doc).Update("status", doc.Status).Error; err != nil {
		logger.Error("更新错误状态失败", zap.Error(err), zap.Uint("document_id", doc.ID))
	}
	s.setStatusCache(ctx, doc.ID, doc.Status)
}

// GetDocument 获取文档详情
func (s *DocumentService) GetDocument(ctx context.Context, docID uint) (*DocumentInfo, error) {
	var doc models.Document
	if err := s.db.First(&doc, docID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("document")
		}
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "failed to retrieve document").WithCause(err)
	}
	return s.toInfo(&doc), nil
}

// ListDocuments 分页获取文档列表
func (s *DocumentService) ListDocuments(ctx context.Context, page, limit int) ([]*DocumentInfo, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&models.Document{}).Count(&total).Error; err != nil {
		return nil, 0, errors.NewSystemError(errors.ErrCodeDatabaseError, "failed to count documents").WithCause(err)
	}

	var docs []models.Document
	err := s.db.Order("uploaded_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, 0, errors.NewSystemError(errors.ErrCodeDatabaseError, "failed to retrieve documents").WithCause(err)
	}

	result := make([]*DocumentInfo, 0, len(docs))
	for i := range docs {
		result = append(result, s.toInfo(&docs[i]))
	}
	return result, total, nil
}

// DeleteDocument 删除文档：索引条目、存储文件、数据库记录
func (s *DocumentService) DeleteDocument(ctx context.Context, docID uint) error {
	var doc models.Document
	if err := s.db.First(&doc, docID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.NewNotFoundError("document")
		}
		return errors.NewSystemError(errors.ErrCodeDatabaseError, "failed to retrieve document").WithCause(err)
	}

	if err := s.engine.DeleteDocument(ctx, docID); err != nil {
		logger.Warn("删除向量索引条目失败", zap.Error(err), zap.Uint("document_id", docID))
	}

	objectName := fmt.Sprintf("%d/%s", doc.ID, doc.Title)
	if err := s.storage.Remove(ctx, objectName); err != nil {
		logger.Warn("删除存储文件失败", zap.Error(err), zap.Uint("document_id", docID))
	}

	if err := s.db.Delete(&models.Document{}, docID).Error; err != nil {
		return errors.NewSystemError(errors.ErrCodeDatabaseError, "failed to delete document").WithCause(err)
	}

	if s.redis != nil {
		s.redis.Del(ctx, fmt.Sprintf(docStatusKeyFormat, docID))
	}
	kafka.SendDocumentEvent(kafka.EventDocumentDeleted, docID, doc.Title, "", 0, "")

	logger.Info("文档删除成功", zap.Uint("document_id", docID))
	return nil
}

func (s *DocumentService) toInfo(doc *models.Document) *DocumentInfo {
	return &DocumentInfo{
		ID:         doc.ID,
		Title:      doc.Title,
		FileType:   doc.FileType,
		Size:       doc.Size,
		Pages:      doc.Pages,
		Status:     doc.Status,
		UploadedAt: doc.UploadedAt.Format(time.RFC3339),
	}
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".txt":
		return "text/plain"
	case ".md", ".markdown":
		return "text/markdown"
	default:
		return "application/octet-stream"
	}
}
