package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User          UserRepository
	Field         FieldRepository
	OpeningHours  OpeningHoursRepository
	Session       SessionRepository
	Team          TeamRepository
	SessionPlayer SessionPlayerRepository
	Invitation    InvitationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		User:          NewUserRepo(db),
		Field:         NewFieldRepo(db),
		OpeningHours:  NewOpeningHoursRepo(db),
		Session:       NewSessionRepo(db),
		Team:          NewTeamRepo(db),
		SessionPlayer: NewSessionPlayerRepo(db),
		Invitation:    NewInvitationRepo(db),
	}
}

// BeginTx 开启事务
// db 为 nil（单元测试中直接构造的聚合）时返回 nil，调用方需判空
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务连接的 Repository 聚合
// 营业时间为只读目录数据，沿用原实例（可能带缓存）
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{
		db:            tx,
		User:          NewUserRepo(tx),
		Field:         NewFieldRepo(tx),
		OpeningHours:  r.OpeningHours,
		Session:       NewSessionRepo(tx),
		Team:          NewTeamRepo(tx),
		SessionPlayer: NewSessionPlayerRepo(tx),
		Invitation:    NewInvitationRepo(tx),
	}
}
