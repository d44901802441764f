package model

import "time"

// Session 场次表，对应 sessions
// 同一场地的 [start_date, end_date) 由数据库排他约束保证不重叠
type Session struct {
	SessionID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	FieldID           string    `gorm:"type:uuid;not null"                             json:"field_id"` // 创建后不可变
	CreatorID         string    `gorm:"type:uuid;not null"                             json:"creator_id"`
	Sport             string    `gorm:"type:varchar(30);not null"                      json:"sport"` // 创建时从场地复制，不可变
	GameMode          string    `gorm:"type:varchar(30);not null"                      json:"game_mode"`
	Title             string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Description       string    `gorm:"type:text;not null;default:''"                  json:"description"`
	StartDate         time.Time `gorm:"type:timestamptz;not null"                      json:"start_date"`
	EndDate           time.Time `gorm:"type:timestamptz;not null"                      json:"end_date"`
	MaxPlayersPerTeam int       `gorm:"type:smallint;not null;default:0"               json:"max_players_per_team"` // 0 表示不限
	MinPlayersPerTeam int       `gorm:"type:smallint;not null;default:0"               json:"min_players_per_team"`
	TeamsPerGame      int       `gorm:"type:smallint;not null;default:2"               json:"teams_per_game"`
	VersionedModel

	// 关联
	Field *Field `gorm:"foreignKey:FieldID;references:FieldID" json:"field,omitempty"`
	Teams []Team `gorm:"foreignKey:SessionID"                   json:"teams,omitempty"`
}

// TableName 指定表名
func (Session) TableName() string { return "sessions" }

// Overlaps 半开区间重叠判断：s.start < end && s.end > start
func (s *Session) Overlaps(start, end time.Time) bool {
	return s.StartDate.Before(end) && s.EndDate.After(start)
}
