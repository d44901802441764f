package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ludora-app/ludora-back-sub000/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Count(&count).Error
	return count > 0, err
}
