package dto

// ── 邀请模块 DTO ──

// CreateInvitationRequest 创建邀请请求（发送者取自登录身份）
type CreateInvitationRequest struct {
	SessionID  string `json:"session_id"  binding:"required,uuid"`
	ReceiverID string `json:"receiver_id" binding:"required,uuid"`
}

// UpdateInvitationStatusRequest 更新邀请状态请求
// 发送者在同一场次发出多条邀请时，通过 receiver_id 指定目标
type UpdateInvitationStatusRequest struct {
	SessionID  string `json:"session_id"  binding:"required,uuid"`
	Status     string `json:"status"      binding:"required,oneof=PENDING ACCEPTED REJECTED CANCELED"`
	ReceiverID string `json:"receiver_id" binding:"omitempty,uuid"`
}

// InvitationListQuery 邀请列表查询参数
type InvitationListQuery struct {
	Limit  int    `form:"limit"  binding:"omitempty,min=1,max=100"`
	Cursor string `form:"cursor" binding:"omitempty,max=200"`
	Scope  string `form:"scope"  binding:"omitempty,oneof=PENDING ACCEPTED REJECTED"`
}

// GetLimit 获取每页数量（含默认值）
func (q *InvitationListQuery) GetLimit() int {
	if q.Limit <= 0 {
		return 20
	}
	return q.Limit
}

// InvitationResponse 邀请信息响应
type InvitationResponse struct {
	ID         string `json:"id"`
	SessionID  string `json:"session_id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// InvitationPage 游标分页结果
type InvitationPage struct {
	Items      []InvitationResponse `json:"items"`
	NextCursor *string              `json:"next_cursor"`
	TotalCount int64                `json:"total_count"`
}
