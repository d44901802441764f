package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ludora-app/ludora-back-sub000/internal/model"
)

// FieldRepository 场地数据访问接口（只读）
type FieldRepository interface {
	GetByID(ctx context.Context, id string) (*model.Field, error)
	// GetByIDForUpdate 使用 SELECT ... FOR UPDATE 锁定场地行
	// 同一场地的场次写入因此串行化，必须在事务连接上调用
	GetByIDForUpdate(ctx context.Context, id string) (*model.Field, error)
}

type fieldRepo struct {
	db *gorm.DB
}

// NewFieldRepo 创建 FieldRepository 实例
func NewFieldRepo(db *gorm.DB) FieldRepository {
	return &fieldRepo{db: db}
}

func (r *fieldRepo) GetByID(ctx context.Context, id string) (*model.Field, error) {
	var field model.Field
	err := r.db.WithContext(ctx).
		Where("field_id = ?", id).
		First(&field).Error
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *fieldRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Field, error) {
	var field model.Field
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("field_id = ?", id).
		First(&field).Error
	if err != nil {
		return nil, err
	}
	return &field, nil
}
