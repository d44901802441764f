package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ludora-app/ludora-back-sub000/internal/model"
	pkgerrors "github.com/ludora-app/ludora-back-sub000/pkg/errors"
)

// SessionRepository 场次数据访问接口
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	// Update 基于 version 的乐观锁更新，冲突时返回 ErrOptimisticLock
	Update(ctx context.Context, session *model.Session) error
	// ListOverlapping 查询场地上与 [start, end) 重叠的场次，excludeID 非空时排除该场次
	ListOverlapping(ctx context.Context, fieldID string, start, end time.Time, excludeID string) ([]model.Session, error)
	// ListByField 查询场地在 [from, to) 内的场次，按开始时间排序
	ListByField(ctx context.Context, fieldID string, from, to time.Time) ([]model.Session, error)
	// ListByPlayer 查询用户参与的、结束时间晚于 from 的场次（含场地信息）
	ListByPlayer(ctx context.Context, userID string, from time.Time) ([]model.Session, error)
}

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo 创建 SessionRepository 实例
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Where("session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Update(ctx context.Context, session *model.Session) error {
	oldVersion := session.Version
	result := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("session_id = ? AND version = ?", session.SessionID, oldVersion).
		Updates(map[string]interface{}{
			"title":                session.Title,
			"description":          session.Description,
			"game_mode":            session.GameMode,
			"start_date":           session.StartDate,
			"end_date":             session.EndDate,
			"max_players_per_team": session.MaxPlayersPerTeam,
			"min_players_per_team": session.MinPlayersPerTeam,
			"teams_per_game":       session.TeamsPerGame,
			"updated_at":           session.UpdatedAt,
			"version":              oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	session.Version = oldVersion + 1
	return nil
}

func (r *sessionRepo) ListOverlapping(ctx context.Context, fieldID string, start, end time.Time, excludeID string) ([]model.Session, error) {
	var sessions []model.Session
	db := r.db.WithContext(ctx).
		Where("field_id = ? AND start_date < ? AND end_date > ?", fieldID, end, start)
	if excludeID != "" {
		db = db.Where("session_id <> ?", excludeID)
	}
	err := db.Order("start_date ASC").Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) ListByField(ctx context.Context, fieldID string, from, to time.Time) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.WithContext(ctx).
		Where("field_id = ? AND start_date < ? AND end_date > ?", fieldID, to, from).
		Order("start_date ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) ListByPlayer(ctx context.Context, userID string, from time.Time) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.WithContext(ctx).
		Preload("Field").
		Joins("JOIN session_players sp ON sp.session_id = sessions.session_id").
		Where("sp.user_id = ? AND sessions.end_date > ?", userID, from).
		Order("sessions.start_date ASC").
		Find(&sessions).Error
	return sessions, err
}
