package handler

import "github.com/ludora-app/ludora-back-sub000/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Session    *SessionHandler
	Invitation *InvitationHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Session:    NewSessionHandler(svc.Session, svc.Team),
		Invitation: NewInvitationHandler(svc.Invitation),
		Export:     NewExportHandler(svc.Export, svc.Calendar),
	}
}
