package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ludora-app/ludora-back-sub000/internal/model"
	"github.com/ludora-app/ludora-back-sub000/pkg/redis"
)

// OpeningHoursRepository 营业时间数据访问接口（只读）
type OpeningHoursRepository interface {
	// GetByPartnerAndWeekday 查询合作方某一天的营业时间，weekday 0=周日
	GetByPartnerAndWeekday(ctx context.Context, partnerID string, weekday int) (*model.OpeningHours, error)
}

type openingHoursRepo struct {
	db *gorm.DB
}

// NewOpeningHoursRepo 创建 OpeningHoursRepository 实例
func NewOpeningHoursRepo(db *gorm.DB) OpeningHoursRepository {
	return &openingHoursRepo{db: db}
}

func (r *openingHoursRepo) GetByPartnerAndWeekday(ctx context.Context, partnerID string, weekday int) (*model.OpeningHours, error) {
	var hours model.OpeningHours
	err := r.db.WithContext(ctx).
		Where("partner_id = ? AND day_of_week = ?", partnerID, weekday).
		First(&hours).Error
	if err != nil {
		return nil, err
	}
	return &hours, nil
}

// ── Redis 读穿缓存 ──

const openingHoursCachePrefix = "opening_hours:"

// bytesCache 缓存读写，由 *redis.Client 实现
type bytesCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// openingHoursCache 营业时间缓存
// 缓存未命中或 Redis 出错时回源数据库；记录不存在不缓存
type openingHoursCache struct {
	next   OpeningHoursRepository
	cache  bytesCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedOpeningHoursRepo 为营业时间查询包装 Redis 缓存
// cache 为 nil 或 ttl<=0 时直接返回原实例
func NewCachedOpeningHoursRepo(next OpeningHoursRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) OpeningHoursRepository {
	if cache == nil || ttl <= 0 {
		return next
	}
	return newOpeningHoursCache(next, cache, ttl, logger)
}

func newOpeningHoursCache(next OpeningHoursRepository, cache bytesCache, ttl time.Duration, logger *zap.Logger) *openingHoursCache {
	return &openingHoursCache{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (r *openingHoursCache) GetByPartnerAndWeekday(ctx context.Context, partnerID string, weekday int) (*model.OpeningHours, error) {
	key := fmt.Sprintf("%s%s:%d", openingHoursCachePrefix, partnerID, weekday)

	b, ok, err := r.cache.GetBytes(ctx, key)
	if err != nil {
		r.logger.Warn("读取营业时间缓存失败", zap.String("key", key), zap.Error(err))
	}
	if ok {
		var hours model.OpeningHours
		if err := json.Unmarshal(b, &hours); err == nil {
			return &hours, nil
		}
	}

	hours, err := r.next.GetByPartnerAndWeekday(ctx, partnerID, weekday)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Error("查询营业时间失败", zap.String("partner_id", partnerID), zap.Error(err))
		}
		return nil, err
	}

	if b, err := json.Marshal(hours); err == nil {
		if err := r.cache.SetBytes(ctx, key, b, r.ttl); err != nil {
			r.logger.Warn("写入营业时间缓存失败", zap.String("key", key), zap.Error(err))
		}
	}
	return hours, nil
}
