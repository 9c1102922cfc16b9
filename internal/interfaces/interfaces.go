package interfaces

import (
	"context"

	"github.com/docuhub/backend-go/internal/models"
	"github.com/docuhub/backend-go/internal/services"
)

// DocumentService 文档服务接口
type DocumentService interface {
	UploadDocument(ctx context.Context, filename string, data []byte) (*services.DocumentInfo, error)
	GetDocument(ctx context.Context, docID uint) (*services.DocumentInfo, error)
	ListDocuments(ctx context.Context, page, limit int) ([]*services.DocumentInfo, int64, error)
	DeleteDocument(ctx context.Context, docID uint) error
}

// QuestionService 问答服务接口
type QuestionService interface {
	Ask(ctx context.Context, req services.AskRequest) (*services.AskResponse, error)
	History(ctx context.Context, docID uint, limit int) ([]models.QuestionRecord, error)
}
