package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/docuhub/backend-go/app/bootstrap"
	"github.com/docuhub/backend-go/internal/services"
)

// QuestionController 问答控制器
type QuestionController struct {
	BaseController
}

// Ask 针对文档提问
// POST /api/ask {"document_id": 1, "question": "...", "top_k": 3}
func (c *QuestionController) Ask() {
	app := bootstrap.GetApp()
	if app == nil || app.GetQuestionService() == nil {
		c.JSONError(http.StatusServiceUnavailable, "question service not available")
		return
	}

	var req services.AskRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := app.GetQuestionService().Ask(c.Ctx.Request.Context(), req)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(resp)
}

// History 获取文档的问答历史
// GET /api/documents/:id/questions?limit=20
func (c *QuestionController) History() {
	app := bootstrap.GetApp()
	if app == nil || app.GetQuestionService() == nil {
		c.JSONError(http.StatusServiceUnavailable, "question service not available")
		return
	}

	idStr := c.Ctx.Input.Param(":id")
	docID, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSONError(http.StatusBadRequest, "invalid document id")
		return
	}

	limit, _ := c.GetInt("limit", 20)
	records, err := app.GetQuestionService().History(c.Ctx.Request.Context(), uint(docID), limit)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(records)
}
