package service

import "context"

// 通知事件
const (
	EventInvitationCreated  = "invitation.created"
	EventInvitationAccepted = "invitation.accepted"
	EventInvitationRejected = "invitation.rejected"
	EventInvitationCanceled = "invitation.canceled"
)

// Notifier 通知投递边界
// 实现必须立即返回且不返回错误，失败由实现自行记录
type Notifier interface {
	Notify(ctx context.Context, event string, payload interface{}, targetUserID string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, interface{}, string) {}
