package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ludora-app/ludora-back-sub000/internal/dto"
	"github.com/ludora-app/ludora-back-sub000/internal/service"
	"github.com/ludora-app/ludora-back-sub000/pkg/response"
)

// SessionHandler 场次模块 HTTP 处理器
type SessionHandler struct {
	sessionSvc service.SessionService
	teamSvc    service.TeamService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.SessionService, teamSvc service.TeamService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc, teamSvc: teamSvc}
}

// Create 创建场次
// POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.sessionSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.Created(c, session)
}

// Get 获取场次详情（含队伍）
// GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := mustParamUUID(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, session)
}

// Update 部分更新场次
// PUT /api/v1/sessions/:id
func (h *SessionHandler) Update(c *gin.Context) {
	id, ok := mustParamUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.sessionSvc.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, session)
}

// ListTeams 场次队伍及成员
// GET /api/v1/sessions/:id/teams
func (h *SessionHandler) ListTeams(c *gin.Context) {
	id, ok := mustParamUUID(c, "id")
	if !ok {
		return
	}

	teams, err := h.teamSvc.ListTeams(c.Request.Context(), id)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, teams)
}

// ListByField 场地场次
// GET /api/v1/fields/:id/sessions?from=&to=
func (h *SessionHandler) ListByField(c *gin.Context) {
	fieldID, ok := mustParamUUID(c, "id")
	if !ok {
		return
	}
	var q dto.FieldSessionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	sessions, err := h.sessionSvc.ListByField(c.Request.Context(), fieldID, q.From, q.To)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, sessions)
}

func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFieldNotFound):
		response.NotFound(c, 20001, err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 20002, err.Error())
	case errors.Is(err, service.ErrFieldClosed):
		response.BadRequest(c, 20003, err.Error())
	case errors.Is(err, service.ErrOutsideOpeningHours):
		response.BadRequest(c, 20004, err.Error())
	case errors.Is(err, service.ErrSessionInPast):
		response.BadRequest(c, 20005, err.Error())
	case errors.Is(err, service.ErrInvalidInterval):
		response.BadRequest(c, 20006, err.Error())
	case errors.Is(err, service.ErrTimeConflict):
		response.BadRequest(c, 20007, err.Error())
	case errors.Is(err, service.ErrSessionSpansMidnight):
		response.BadRequest(c, 20008, err.Error())
	case errors.Is(err, service.ErrSessionModified):
		response.Conflict(c, 20009, err.Error())
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Conflict(c, 21011, err.Error())
	default:
		response.InternalError(c)
	}
}
