package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/docuhub/backend-go/app/bootstrap"
	"github.com/docuhub/backend-go/internal/logger"
	"go.uber.org/zap"
)

// DocumentController 文档控制器
type DocumentController struct {
	BaseController
}

// Upload 上传文档并同步摄取
// POST /api/documents/upload (multipart form, field "file")
func (c *DocumentController) Upload() {
	app := bootstrap.GetApp()
	if app == nil || app.GetDocumentService() == nil {
		c.JSONError(http.StatusServiceUnavailable, "document service not available")
		return
	}

	file, header, err := c.GetFile("file")
	if err != nil {
		c.JSONError(http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSONError(http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	info, err := app.GetDocumentService().UploadDocument(c.Ctx.Request.Context(), header.Filename, data)
	if err != nil {
		logger.Warn("文档上传被拒绝",
			zap.String("filename", header.Filename),
			zap.String("ip", c.getClientIP()),
			zap.Error(err))
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(info)
}

// List 获取文档列表
// GET /api/documents?page=1&limit=20
func (c *DocumentController) List() {
	app := bootstrap.GetApp()
	if app == nil || app.GetDocumentService() == nil {
		c.JSONError(http.StatusServiceUnavailable, "document service not available")
		return
	}

	page, _ := c.GetInt("page", 1)
	limit, _ := c.GetInt("limit", 20)

	docs, total, err := app.GetDocumentService().ListDocuments(c.Ctx.Request.Context(), page, limit)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"documents": docs,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// Get 获取文档详情
// GET /api/documents/:id
func (c *DocumentController) Get() {
	app := bootstrap.GetApp()
	if app == nil || app.GetDocumentService() == nil {
		c.JSONError(http.StatusServiceUnavailable, "document service not available")
		return
	}

	docID, err := c.parseDocumentID()
	if err != nil {
		c.JSONError(http.StatusBadRequest, "invalid document id")
		return
	}

	info, err := app.GetDocumentService().GetDocument(c.Ctx.Request.Context(), docID)
	if err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(info)
}

// Delete 删除文档
// DELETE /api/documents/:id
func (c *DocumentController) Delete() {
	app := bootstrap.GetApp()
	if app == nil || app.GetDocumentService() == nil {
		c.JSONError(http.StatusServiceUnavailable, "document service not available")
		return
	}

	docID, err := c.parseDocumentID()
	if err != nil {
		c.JSONError(http.StatusBadRequest, "invalid document id")
		return
	}

	if err := app.GetDocumentService().DeleteDocument(c.Ctx.Request.Context(), docID); err != nil {
		c.JSONAppError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{"deleted": docID})
}

func (c *DocumentController) parseDocumentID() (uint, error) {
	idStr := c.Ctx.Input.Param(":id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
