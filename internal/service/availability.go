package service

import (
	"errors"
	"time"

	"github.com/ludora-app/ludora-back-sub000/internal/model"
)

// ── 场地可用性校验错误 ──

var (
	ErrFieldClosed          = errors.New("场地当天不营业")
	ErrOutsideOpeningHours  = errors.New("预约时间超出场地营业时间")
	ErrSessionSpansMidnight = errors.New("场次不能跨越午夜")
	ErrSessionInPast        = errors.New("场次开始时间不能早于当前时间")
	ErrInvalidInterval      = errors.New("场次结束时间必须晚于开始时间")
	ErrTimeConflict         = errors.New("该时间段与场地已有场次冲突")
)

// AvailabilityInput 可用性校验输入，数据由调用方预先查询
type AvailabilityInput struct {
	Hours *model.OpeningHours // 当天营业时间，nil 表示未配置
	Start time.Time
	End   time.Time
	Now   time.Time
	// Existing 场地上与 [Start, End) 可能重叠的场次
	Existing []model.Session
	// ExcludeSessionID 更新场次时排除自身
	ExcludeSessionID string
	// Location 营业时间所在时区，nil 时按 UTC
	Location *time.Location
}

// ValidateAvailability 按固定顺序校验场次时间，返回第一个不满足的规则对应的错误
//
//  1. 当天有营业时间且未闭店            → ErrFieldClosed
//  2. 同一天内且落在营业时间内          → ErrSessionSpansMidnight / ErrOutsideOpeningHours
//  3. 开始时间不早于 now                → ErrSessionInPast
//  4. 结束时间晚于开始时间              → ErrInvalidInterval
//  5. 与其他场次不重叠（半开区间）      → ErrTimeConflict
func ValidateAvailability(in AvailabilityInput) error {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	if in.Hours == nil || in.Hours.IsClosed {
		return ErrFieldClosed
	}

	start := in.Start.In(loc)
	end := in.End.In(loc)
	if end.After(start) && !sameDay(start, end) {
		return ErrSessionSpansMidnight
	}
	if offsetOfDay(start) < in.Hours.OpenOffset() || offsetOfDay(end) > in.Hours.CloseOffset() {
		return ErrOutsideOpeningHours
	}

	if in.Start.Before(in.Now) {
		return ErrSessionInPast
	}

	if !in.End.After(in.Start) {
		return ErrInvalidInterval
	}

	for i := range in.Existing {
		existing := &in.Existing[i]
		if in.ExcludeSessionID != "" && existing.SessionID == in.ExcludeSessionID {
			continue
		}
		if existing.Overlaps(in.Start, in.End) {
			return ErrTimeConflict
		}
	}

	return nil
}

// weekdayIn 返回 t 在 loc 中的星期，0=周日
func weekdayIn(t time.Time, loc *time.Location) int {
	return int(t.In(loc).Weekday())
}

// offsetOfDay 墙上时间距当天零点的时长，秒及以下不舍弃
func offsetOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
