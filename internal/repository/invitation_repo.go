package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ludora-app/ludora-back-sub000/internal/model"
)

// InvitationCursor 邀请列表游标，即 (session_id, receiver_id) 复合键
type InvitationCursor struct {
	SessionID  string
	ReceiverID string
}

// InvitationFilter 邀请列表查询条件
// SessionID / ReceiverID 至少提供一个；Status 为空表示不过滤
type InvitationFilter struct {
	SessionID  string
	ReceiverID string
	Status     model.InvitationStatus
	After      *InvitationCursor
	Limit      int
}

// InvitationRepository 邀请数据访问接口
type InvitationRepository interface {
	Create(ctx context.Context, invitation *model.Invitation) error
	GetByID(ctx context.Context, id string) (*model.Invitation, error)
	// GetLatest 查询 (session, receiver) 的最新一条邀请
	GetLatest(ctx context.Context, sessionID, receiverID string) (*model.Invitation, error)
	// GetLatestSent 查询发送者在场次内最新发出的一条邀请
	GetLatestSent(ctx context.Context, sessionID, senderID string) (*model.Invitation, error)
	// UpdateStatus 条件更新：仅当当前状态为 from 时改为 to，返回是否更新成功
	UpdateStatus(ctx context.Context, id string, from, to model.InvitationStatus, at time.Time) (bool, error)
	// List 按 (session_id, receiver_id) 升序分页，每对只取最新一条；total 不受游标影响
	List(ctx context.Context, filter InvitationFilter) ([]model.Invitation, int64, error)
}

type invitationRepo struct {
	db *gorm.DB
}

// NewInvitationRepo 创建 InvitationRepository 实例
func NewInvitationRepo(db *gorm.DB) InvitationRepository {
	return &invitationRepo{db: db}
}

func (r *invitationRepo) Create(ctx context.Context, invitation *model.Invitation) error {
	return r.db.WithContext(ctx).Create(invitation).Error
}

func (r *invitationRepo) GetByID(ctx context.Context, id string) (*model.Invitation, error) {
	var invitation model.Invitation
	err := r.db.WithContext(ctx).
		Where("invitation_id = ?", id).
		First(&invitation).Error
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *invitationRepo) GetLatest(ctx context.Context, sessionID, receiverID string) (*model.Invitation, error) {
	var invitation model.Invitation
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND receiver_id = ?", sessionID, receiverID).
		Order("seq DESC").
		First(&invitation).Error
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *invitationRepo) GetLatestSent(ctx context.Context, sessionID, senderID string) (*model.Invitation, error) {
	var invitation model.Invitation
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND sender_id = ?", sessionID, senderID).
		Order("seq DESC").
		First(&invitation).Error
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *invitationRepo) UpdateStatus(ctx context.Context, id string, from, to model.InvitationStatus, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Invitation{}).
		Where("invitation_id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *invitationRepo) List(ctx context.Context, filter InvitationFilter) ([]model.Invitation, int64, error) {
	latest := r.db.Model(&model.Invitation{}).
		Select("DISTINCT ON (session_id, receiver_id) invitation_id").
		Order("session_id, receiver_id, seq DESC")
	if filter.SessionID != "" {
		latest = latest.Where("session_id = ?", filter.SessionID)
	}
	if filter.ReceiverID != "" {
		latest = latest.Where("receiver_id = ?", filter.ReceiverID)
	}

	query := r.db.WithContext(ctx).
		Model(&model.Invitation{}).
		Where("invitation_id IN (?)", latest)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.After != nil {
		query = query.Where("(session_id, receiver_id) > (?, ?)", filter.After.SessionID, filter.After.ReceiverID)
	}

	var invitations []model.Invitation
	err := query.
		Order("session_id ASC, receiver_id ASC").
		Limit(filter.Limit).
		Find(&invitations).Error
	return invitations, total, err
}
