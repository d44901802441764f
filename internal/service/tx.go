package service

import (
	"context"

	"github.com/ludora-app/ludora-back-sub000/internal/repository"
)

// runInTx 在单个事务中执行 fn，fn 返回错误或 panic 时回滚
// repo 未绑定数据库（单元测试）时 tx 为 nil，fn 直接使用原聚合
func runInTx(ctx context.Context, repo *repository.Repository, fn func(txRepo *repository.Repository) error) error {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		return tx.Commit().Error
	}
	return nil
}
