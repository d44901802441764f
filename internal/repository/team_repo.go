package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ludora-app/ludora-back-sub000/internal/model"
)

// TeamRepository 队伍数据访问接口
type TeamRepository interface {
	BatchCreate(ctx context.Context, teams []model.Team) error
	// ListBySession 按 label 排序返回场次的队伍（含成员）
	ListBySession(ctx context.Context, sessionID string) ([]model.Team, error)
	// LockBySession 锁定场次的全部队伍行，串行化同一场次的入队操作
	LockBySession(ctx context.Context, sessionID string) ([]model.Team, error)
}

// SessionPlayerRepository 场次成员数据访问接口
type SessionPlayerRepository interface {
	Create(ctx context.Context, player *model.SessionPlayer) error
	Exists(ctx context.Context, sessionID, userID string) (bool, error)
	// CountByTeam 统计场次内各队伍人数，key 为 team_id
	CountByTeam(ctx context.Context, sessionID string) (map[string]int64, error)
}

// ── Team Repository 实现 ──

type teamRepo struct {
	db *gorm.DB
}

// NewTeamRepo 创建 TeamRepository 实例
func NewTeamRepo(db *gorm.DB) TeamRepository {
	return &teamRepo{db: db}
}

func (r *teamRepo) BatchCreate(ctx context.Context, teams []model.Team) error {
	if len(teams) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&teams).Error
}

func (r *teamRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Team, error) {
	var teams []model.Team
	err := r.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Players.User").
		Where("session_id = ?", sessionID).
		Order("label ASC").
		Find(&teams).Error
	return teams, err
}

func (r *teamRepo) LockBySession(ctx context.Context, sessionID string) ([]model.Team, error) {
	var teams []model.Team
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_id = ?", sessionID).
		Order("label ASC").
		Find(&teams).Error
	return teams, err
}

// ── SessionPlayer Repository 实现 ──

type sessionPlayerRepo struct {
	db *gorm.DB
}

// NewSessionPlayerRepo 创建 SessionPlayerRepository 实例
func NewSessionPlayerRepo(db *gorm.DB) SessionPlayerRepository {
	return &sessionPlayerRepo{db: db}
}

func (r *sessionPlayerRepo) Create(ctx context.Context, player *model.SessionPlayer) error {
	return r.db.WithContext(ctx).Create(player).Error
}

func (r *sessionPlayerRepo) Exists(ctx context.Context, sessionID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.SessionPlayer{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *sessionPlayerRepo) CountByTeam(ctx context.Context, sessionID string) (map[string]int64, error) {
	var rows []struct {
		TeamID string
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.SessionPlayer{}).
		Select("team_id, COUNT(*) AS total").
		Where("session_id = ?", sessionID).
		Group("team_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.TeamID] = row.Total
	}
	return counts, nil
}
