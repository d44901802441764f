package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ludora-app/ludora-back-sub000/internal/dto"
	"github.com/ludora-app/ludora-back-sub000/internal/service"
	"github.com/ludora-app/ludora-back-sub000/pkg/response"
)

// InvitationHandler 邀请模块 HTTP 处理器
type InvitationHandler struct {
	invitationSvc service.InvitationService
}

// NewInvitationHandler 创建 InvitationHandler
func NewInvitationHandler(invitationSvc service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationSvc: invitationSvc}
}

// Create 发送邀请
// POST /api/v1/invitations
func (h *InvitationHandler) Create(c *gin.Context) {
	var req dto.CreateInvitationRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	invitation, err := h.invitationSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleInvitationError(c, err)
		return
	}

	response.Created(c, invitation)
}

// ListReceived 当前用户收到的邀请
// GET /api/v1/invitations/received?limit=&cursor=&scope=
func (h *InvitationHandler) ListReceived(c *gin.Context) {
	var q dto.InvitationListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	page, err := h.invitationSvc.ListByReceiver(c.Request.Context(), userID, &q)
	if err != nil {
		h.handleInvitationError(c, err)
		return
	}

	response.OK(c, page)
}

// ListBySession 场次内的邀请
// GET /api/v1/sessions/:id/invitations?limit=&cursor=&scope=
func (h *InvitationHandler) ListBySession(c *gin.Context) {
	sessionID, ok := mustParamUUID(c, "id")
	if !ok {
		return
	}
	var q dto.InvitationListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	page, err := h.invitationSvc.ListBySession(c.Request.Context(), sessionID, &q)
	if err != nil {
		h.handleInvitationError(c, err)
		return
	}

	response.OK(c, page)
}

// UpdateStatus 接受 / 拒绝 / 取消邀请
// PUT /api/v1/invitations/status
func (h *InvitationHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateInvitationStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	invitation, err := h.invitationSvc.UpdateStatus(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleInvitationError(c, err)
		return
	}

	response.OK(c, invitation)
}

func (h *InvitationHandler) handleInvitationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 20002, err.Error())
	case errors.Is(err, service.ErrReceiverNotFound):
		response.NotFound(c, 21001, err.Error())
	case errors.Is(err, service.ErrSenderNotInSession):
		response.NotFound(c, 21002, err.Error())
	case errors.Is(err, service.ErrCannotInviteSelf):
		response.BadRequest(c, 21003, err.Error())
	case errors.Is(err, service.ErrAlreadyInvited):
		response.Conflict(c, 21004, err.Error())
	case errors.Is(err, service.ErrInvitationNotFound):
		response.NotFound(c, 21005, err.Error())
	case errors.Is(err, service.ErrNoStatusChange):
		response.BadRequest(c, 21006, err.Error())
	case errors.Is(err, service.ErrIllegalReceiverTransition):
		response.BadRequest(c, 21007, err.Error())
	case errors.Is(err, service.ErrIllegalSenderTransition):
		response.BadRequest(c, 21008, err.Error())
	case errors.Is(err, service.ErrInvitationClosed):
		response.BadRequest(c, 21009, err.Error())
	case errors.Is(err, service.ErrSessionFull):
		response.Conflict(c, 21010, err.Error())
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Conflict(c, 21011, err.Error())
	case errors.Is(err, service.ErrInvalidCursor):
		response.BadRequest(c, 21012, err.Error())
	default:
		response.InternalError(c)
	}
}
