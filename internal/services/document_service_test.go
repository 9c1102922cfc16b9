package services

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/docuhub/backend-go/internal/errors"
	"github.com/docuhub/backend-go/internal/rag"
	"github.com/docuhub/backend-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocumentService(t *testing.T, mockDB func(sqlmock.Sqlmock)) (*DocumentService, sqlmock.Sqlmock, *rag.MemoryVectorStore) {
	t.Helper()
	setTestConfig(t, 10*1024*1024)

	db, mock := newMockGorm(t)
	if mockDB != nil {
		mockDB(mock)
	}

	store := rag.NewMemoryVectorStore()
	local, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	service := NewDocumentService(db, newTestEngine(t, store, nil), local, nil)
	return service, mock, store
}

func TestUploadDocumentUnsupportedFormat(t *testing.T) {
	service, mock, _ := newTestDocumentService(t, nil)

	_, err := service.UploadDocument(context.Background(), "archive.zip", []byte("data"))
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeUnsupportedFormat, appErr.Code)
	// 格式校验在任何持久化之前
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadDocumentFileTooLarge(t *testing.T) {
	setTestConfig(t, 10)
	db, mock := newMockGorm(t)
	local, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	service := NewDocumentService(db, newTestEngine(t, rag.NewMemoryVectorStore(), nil), local, nil)

	_, err = service.UploadDocument(context.Background(), "big.txt", []byte("this is more than ten bytes"))
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeFileTooLarge, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadDocumentSuccess(t *testing.T) {
	service, mock, store := newTestDocumentService(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "documents"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "documents"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "documents"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	})

	info, err := service.UploadDocument(context.Background(), "notes.txt", []byte("hello world"))
	require.NoError(t, err)

	assert.Equal(t, "processed (1 chunks)", info.Status)
	assert.Equal(t, 1, info.Pages)
	assert.Equal(t, "txt", info.FileType)
	assert.Equal(t, 1, store.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadDocumentIngestFailure(t *testing.T) {
	service, mock, store := newTestDocumentService(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "documents"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "documents"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "documents"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	})

	// 无效的PDF字节：上传成功但状态记为错误，不重试
	info, err := service.UploadDocument(context.Background(), "broken.pdf", []byte("not a pdf"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(info.Status, "error:"), "status=%s", info.Status)
	assert.Equal(t, 0, store.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDocumentNotFound(t *testing.T) {
	service, mock, _ := newTestDocumentService(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery(`SELECT \* FROM "documents"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
	})

	_, err := service.GetDocument(context.Background(), 99)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeResourceNotFound, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDocuments(t *testing.T) {
	service, mock, _ := newTestDocumentService(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery(`SELECT count\(\*\) FROM "documents"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery(`SELECT \* FROM "documents"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status"}).
				AddRow(2, "second.txt", "processed (1 chunks)").
				AddRow(1, "first.txt", "processed (2 chunks)"))
	})

	docs, total, err := service.ListDocuments(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, docs, 2)
	assert.Equal(t, "second.txt", docs[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteDocument(t *testing.T) {
	service, mock, store := newTestDocumentService(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery(`SELECT \* FROM "documents"`).
			WillReturnRows(documentRow(1, "doc.txt", "processed (1 chunks)"))
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "documents"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	})

	require.NoError(t, store.Upsert(context.Background(), []rag.IndexEntry{{
		ID: "1_0", DocumentID: 1, Text: "chunk", Embedding: []float32{1, 0},
	}}))

	err := service.DeleteDocument(context.Background(), 1)
	require.NoError(t, err)
	// 索引条目随文档一起清除
	assert.Equal(t, 0, store.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/pdf", contentTypeFor("a.pdf"))
	assert.Equal(t, "text/plain", contentTypeFor("a.txt"))
	assert.Equal(t, "text/markdown", contentTypeFor("a.md"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("a.bin"))
}
