package services

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/docuhub/backend-go/internal/errors"
	"github.com/docuhub/backend-go/internal/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func documentRow(id uint, title, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "file_type", "size", "pages", "status"}).
		AddRow(id, title, "txt", 100, 1, status)
}

func TestQuestionServiceAskValidation(t *testing.T) {
	db, _ := newMockGorm(t)
	service := NewQuestionService(db, newTestEngine(t, rag.NewMemoryVectorStore(), nil))

	cases := []struct {
		name string
		req  AskRequest
	}{
		{"缺少document_id", AskRequest{Question: "q"}},
		{"缺少question", AskRequest{DocumentID: 1}},
		{"top_k超出上限", AskRequest{DocumentID: 1, Question: "q", TopK: 51}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Ask(context.Background(), tc.req)
			require.Error(t, err)

			var appErr *errors.AppError
			require.True(t, stderrors.As(err, &appErr))
			assert.Equal(t, errors.ErrCodeValidationFailed, appErr.Code)
		})
	}
}

func TestQuestionServiceAskDocumentNotFound(t *testing.T) {
	db, mock := newMockGorm(t)
	service := NewQuestionService(db, newTestEngine(t, rag.NewMemoryVectorStore(), nil))

	mock.ExpectQuery(`SELECT \* FROM "documents"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := service.Ask(context.Background(), AskRequest{DocumentID: 42, Question: "q"})
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeResourceNotFound, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionServiceAskNoContext(t *testing.T) {
	db, mock := newMockGorm(t)
	service := NewQuestionService(db, newTestEngine(t, rag.NewMemoryVectorStore(), nil))

	mock.ExpectQuery(`SELECT \* FROM "documents"`).
		WillReturnRows(documentRow(1, "empty.txt", "processed (0 chunks)"))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "question_records"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	resp, err := service.Ask(context.Background(), AskRequest{DocumentID: 1, Question: "anything?"})
	require.NoError(t, err)

	// 无命中时返回哨兵答案，块列表为空
	assert.Equal(t, rag.NoContextAnswer, resp.Answer)
	assert.Equal(t, rag.AnswerSourceNoContext, resp.Source)
	assert.Empty(t, resp.Chunks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionServiceAskExtractiveAnswer(t *testing.T) {
	db, mock := newMockGorm(t)

	store := rag.NewMemoryVectorStore()
	require.NoError(t, store.Upsert(context.Background(), []rag.IndexEntry{{
		ID:         "1_0",
		DocumentID: 1,
		ChunkIndex: 0,
		Model:      "fake-model",
		Text:       "the answer lives here",
		Embedding:  []float32{1, 0},
	}}))
	service := NewQuestionService(db, newTestEngine(t, store, &fakeAnswerModel{answer: "42"}))

	mock.ExpectQuery(`SELECT \* FROM "documents"`).
		WillReturnRows(documentRow(1, "doc.txt", "processed (1 chunks)"))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "question_records"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	resp, err := service.Ask(context.Background(), AskRequest{DocumentID: 1, Question: "what is it?"})
	require.NoError(t, err)

	assert.Equal(t, "42", resp.Answer)
	assert.Equal(t, rag.AnswerSourceExtractive, resp.Source)
	require.Len(t, resp.Chunks, 1)
	assert.Equal(t, "the answer lives here", resp.Chunks[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionServiceAskRecordWriteFailureIgnored(t *testing.T) {
	db, mock := newMockGorm(t)
	service := NewQuestionService(db, newTestEngine(t, rag.NewMemoryVectorStore(), nil))

	mock.ExpectQuery(`SELECT \* FROM "documents"`).
		WillReturnRows(documentRow(1, "doc.txt", "processed (1 chunks)"))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "question_records"`).
		WillReturnError(stderrors.New("disk full"))
	mock.ExpectRollback()

	// 历史写入失败不影响问答结果
	resp, err := service.Ask(context.Background(), AskRequest{DocumentID: 1, Question: "q"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Answer)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionServiceHistory(t *testing.T) {
	db, mock := newMockGorm(t)
	service := NewQuestionService(db, newTestEngine(t, rag.NewMemoryVectorStore(), nil))

	mock.ExpectQuery(`SELECT \* FROM "question_records"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "question", "answer", "source", "chunks_used"}).
			AddRow(2, 1, "second?", "b", "extractive", 2).
			AddRow(1, 1, "first?", "a", "fallback", 3))

	records, err := service.History(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "second?", records[0].Question)
	assert.NoError(t, mock.ExpectationsWereMet())
}
