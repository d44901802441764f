package model

import (
	"time"

	"gorm.io/datatypes"
)

// OpeningHours 营业时间表，对应 opening_hours
// 每个 (partner, day_of_week) 至多一条；day_of_week 0=周日
type OpeningHours struct {
	OpeningHoursID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"opening_hours_id"`
	PartnerID      string         `gorm:"type:uuid;not null"                             json:"partner_id"`
	DayOfWeek      int            `gorm:"type:smallint;not null"                         json:"day_of_week"`
	OpenTime       datatypes.Time `gorm:"not null"                                       json:"open_time"`
	CloseTime      datatypes.Time `gorm:"not null"                                       json:"close_time"`
	IsClosed       bool           `gorm:"not null;default:false"                         json:"is_closed"`
	BaseModel
}

// TableName 指定表名
func (OpeningHours) TableName() string { return "opening_hours" }

// OpenMinute 开门时间距当天零点的分钟数
func (h *OpeningHours) OpenMinute() int {
	return int(time.Duration(h.OpenTime) / time.Minute)
}

// CloseMinute 关门时间距当天零点的分钟数
func (h *OpeningHours) CloseMinute() int {
	return int(time.Duration(h.CloseTime) / time.Minute)
}

// OpenOffset 开门时间距当天零点的时长（精确到秒）
func (h *OpeningHours) OpenOffset() time.Duration {
	return time.Duration(h.OpenTime)
}

// CloseOffset 关门时间距当天零点的时长（精确到秒）
func (h *OpeningHours) CloseOffset() time.Duration {
	return time.Duration(h.CloseTime)
}
