package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/ludora-app/ludora-back-sub000/internal/dto"
	"github.com/ludora-app/ludora-back-sub000/internal/service"
	"github.com/ludora-app/ludora-back-sub000/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc   service.ExportService
	calendarSvc service.CalendarService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService, calendarSvc service.CalendarService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, calendarSvc: calendarSvc}
}

// ExportFieldSessions 导出场地场次
// GET /api/v1/fields/:id/sessions/export?from=&to=
func (h *ExportHandler) ExportFieldSessions(c *gin.Context) {
	fieldID, ok := mustParamUUID(c, "id")
	if !ok {
		return
	}
	var q dto.FieldSessionsQuery
	if err := c.ShouldBindQuery(&q); err != nil || q.From.IsZero() || q.To.IsZero() {
		response.BadRequest(c, 10001, "from 与 to 不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportFieldSessions(c.Request.Context(), fieldID, q.From, q.To)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.PathEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// Calendar 当前用户的场次日历
// GET /api/v1/me/calendar.ics
func (h *ExportHandler) Calendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	content, err := h.calendarSvc.ExportICS(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", "inline; filename=ludora.ics")
	c.Data(http.StatusOK, contentTypeICS, []byte(content))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFieldNotFound):
		response.NotFound(c, 20001, err.Error())
	case errors.Is(err, service.ErrInvalidInterval):
		response.BadRequest(c, 20006, err.Error())
	case errors.Is(err, service.ErrExportNoSessions):
		response.NotFound(c, 22001, err.Error())
	default:
		response.InternalError(c)
	}
}
