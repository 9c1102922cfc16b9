package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/docuhub/backend-go/internal/errors"
	"github.com/docuhub/backend-go/internal/kafka"
	"github.com/docuhub/backend-go/internal/logger"
	"github.com/docuhub/backend-go/internal/metrics"
	"github.com/docuhub/backend-go/internal/models"
	"github.com/docuhub/backend-go/internal/rag"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuestionService 问答服务
type QuestionService struct {
	db       *gorm.DB
	engine   *rag.Engine
	validate *validator.Validate
}

// AskRequest 提问请求
type AskRequest struct {
	DocumentID uint   `json:"document_id" validate:"required"`
	Question   string `json:"question" validate:"required"`
	TopK       int    `json:"top_k" validate:"omitempty,gte=1,lte=50"`
}

// AskResponse 提问响应
type AskResponse struct {
	DocumentID uint     `json:"document_id"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Source     string   `json:"source"`
	Chunks     []string `json:"chunks"`
}

// NewQuestionService 创建问答服务
func NewQuestionService(db *gorm.DB, engine *rag.Engine) *QuestionService {
	return &QuestionService{
		db:       db,
		engine:   engine,
		validate: validator.New(),
	}
}

// Ask 回答针对某文档的问题。校验失败返回验证错误；
// 模型失败不报错，体现为固定答案内容。
func (s *QuestionService) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if req.TopK == 0 {
		req.TopK = 3
	}

	var doc models.Document
	if err := s.db.First(&doc, req.DocumentID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("document")
		}
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "failed to retrieve document").WithCause(err)
	}

	start := time.Now()
	docID := req.DocumentID
	result, err := s.engine.Answer(ctx, req.Question, &docID, req.TopK)
	if err != nil {
		logger.Error("问答失败", zap.Error(err), zap.Uint("document_id", req.DocumentID))
		return nil, errors.NewExternalError(errors.ErrCodeExternalService,
			fmt.Sprintf("failed to answer question: %v", err))
	}
	metrics.AnswerDuration.Observe(time.Since(start).Seconds())
	metrics.QuestionsAnswered.WithLabelValues(result.Source).Inc()

	record := &models.QuestionRecord{
		DocumentID: req.DocumentID,
		Question:   req.Question,
		Answer:     result.Answer,
		Source:     result.Source,
		ChunksUsed: len(result.Chunks),
	}
	if err := s.db.Create(record).Error; err != nil {
		// 问答历史不是主流程，写入失败只记录
		logger.Warn("保存问答记录失败", zap.Error(err), zap.Uint("document_id", req.DocumentID))
	}

	kafka.SendDocumentEvent(kafka.EventQuestionAnswered, req.DocumentID, doc.Title, result.Source, len(result.Chunks), "")

	chunks := make([]string, 0, len(result.Chunks))
	for _, m := range result.Chunks {
		chunks = append(chunks, m.Text)
	}

	return &AskResponse{
		DocumentID: req.DocumentID,
		Question:   req.Question,
		Answer:     result.Answer,
		Source:     result.Source,
		Chunks:     chunks,
	}, nil
}

// History 获取某文档的问答历史
func (s *QuestionService) History(ctx context.Context, docID uint, limit int) ([]models.QuestionRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var records []models.QuestionRecord
	err := s.db.Where("document_id = ?", docID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "failed to retrieve question history").WithCause(err)
	}
	return records, nil
}
