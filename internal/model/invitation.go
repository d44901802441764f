package model

// InvitationStatus 邀请状态
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRejected InvitationStatus = "REJECTED"
	InvitationCanceled InvitationStatus = "CANCELED"
)

// Valid 是否为已知状态
func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationRejected, InvitationCanceled:
		return true
	}
	return false
}

// IsTerminal 终态不再允许任何迁移
func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationAccepted || s == InvitationRejected || s == InvitationCanceled
}

// BlocksNewInvitation PENDING / ACCEPTED 的邀请阻止对同一接收者再次邀请
func (s InvitationStatus) BlocksNewInvitation() bool {
	return s == InvitationPending || s == InvitationAccepted
}

// Invitation 邀请表，对应 invitations
// 同一 (session, receiver) 可存在多条历史记录，以 seq 最大的一条为准
type Invitation struct {
	InvitationID string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"invitation_id"`
	SessionID    string           `gorm:"type:uuid;not null"                             json:"session_id"`
	SenderID     string           `gorm:"type:uuid;not null"                             json:"sender_id"`
	ReceiverID   string           `gorm:"type:uuid;not null"                             json:"receiver_id"`
	Status       InvitationStatus `gorm:"type:varchar(10);not null;default:'PENDING'"    json:"status"`
	Seq          int64            `gorm:"->"                                             json:"-"` // 数据库生成的插入顺序号
	BaseModel
}

// TableName 指定表名
func (Invitation) TableName() string { return "invitations" }

// WithStatus 返回状态已变更的副本，不修改原值
func (i Invitation) WithStatus(status InvitationStatus) Invitation {
	i.Status = status
	return i
}
