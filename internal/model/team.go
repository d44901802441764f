package model

import "time"

// 默认队伍
const (
	TeamLabelA = "A"
	TeamLabelB = "B"
)

// Team 队伍表，对应 teams
// 每个场次创建时生成 A、B 两队，随场次级联删除
type Team struct {
	TeamID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"team_id"`
	SessionID string `gorm:"type:uuid;not null"                             json:"session_id"`
	Label     string `gorm:"type:varchar(1);not null"                       json:"label"`
	Name      string `gorm:"type:varchar(50);not null"                      json:"name"`
	BaseModel

	// 关联
	Players []SessionPlayer `gorm:"foreignKey:TeamID" json:"players,omitempty"`
}

// TableName 指定表名
func (Team) TableName() string { return "teams" }

// SessionPlayer 场次成员表，对应 session_players
// (session_id, user_id) 唯一，防止重复入队
type SessionPlayer struct {
	SessionPlayerID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_player_id"`
	SessionID       string    `gorm:"type:uuid;not null"                             json:"session_id"`
	TeamID          string    `gorm:"type:uuid;not null"                             json:"team_id"`
	UserID          string    `gorm:"type:uuid;not null"                             json:"user_id"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (SessionPlayer) TableName() string { return "session_players" }
