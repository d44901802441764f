package dto

import "time"

// ── 场次模块 DTO ──

// CreateSessionRequest 创建场次请求
type CreateSessionRequest struct {
	Title             string    `json:"title"                binding:"omitempty,max=200"`
	Description       string    `json:"description"          binding:"omitempty,max=2000"`
	FieldID           string    `json:"field_id"             binding:"required,uuid"`
	GameMode          string    `json:"game_mode"            binding:"omitempty,max=30"` // 为空时使用场地默认赛制
	StartDate         time.Time `json:"start_date"           binding:"required"`
	EndDate           time.Time `json:"end_date"             binding:"required"`
	MaxPlayersPerTeam int       `json:"max_players_per_team" binding:"omitempty,min=0,max=50"`
	MinPlayersPerTeam int       `json:"min_players_per_team" binding:"omitempty,min=0,max=50"`
	TeamsPerGame      int       `json:"teams_per_game"       binding:"omitempty,min=1,max=10"`
}

// UpdateSessionRequest 更新场次请求（字段均可选；field_id 与 sport 不可修改）
type UpdateSessionRequest struct {
	Title             *string    `json:"title"                binding:"omitempty,min=1,max=200"`
	Description       *string    `json:"description"          binding:"omitempty,max=2000"`
	GameMode          *string    `json:"game_mode"            binding:"omitempty,min=1,max=30"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	MaxPlayersPerTeam *int       `json:"max_players_per_team" binding:"omitempty,min=0,max=50"`
	MinPlayersPerTeam *int       `json:"min_players_per_team" binding:"omitempty,min=0,max=50"`
	TeamsPerGame      *int       `json:"teams_per_game"       binding:"omitempty,min=1,max=10"`
}

// FieldSessionsQuery 场地场次查询参数（RFC3339），缺省为当前时间起 7 天
type FieldSessionsQuery struct {
	From time.Time `form:"from"`
	To   time.Time `form:"to"`
}

// SessionResponse 场次信息响应
type SessionResponse struct {
	ID                string         `json:"id"`
	FieldID           string         `json:"field_id"`
	CreatorID         string         `json:"creator_id"`
	Sport             string         `json:"sport"`
	GameMode          string         `json:"game_mode"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	StartDate         string         `json:"start_date"`
	EndDate           string         `json:"end_date"`
	MaxPlayersPerTeam int            `json:"max_players_per_team"`
	MinPlayersPerTeam int            `json:"min_players_per_team"`
	TeamsPerGame      int            `json:"teams_per_game"`
	Teams             []TeamResponse `json:"teams,omitempty"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
}

// ── 队伍 ──

// TeamResponse 队伍信息响应
type TeamResponse struct {
	ID      string           `json:"id"`
	Label   string           `json:"label"`
	Name    string           `json:"name"`
	Players []PlayerResponse `json:"players"`
}

// PlayerResponse 队伍成员
type PlayerResponse struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name,omitempty"`
	JoinedAt string `json:"joined_at"`
}
