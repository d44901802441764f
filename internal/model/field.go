package model

// Field 场地表，对应 fields
// 由合作方场地管理维护，本服务只读
type Field struct {
	FieldID   string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"field_id"`
	PartnerID string   `gorm:"type:uuid;not null"                             json:"partner_id"`
	Name      string   `gorm:"type:varchar(100);not null"                     json:"name"`
	Sport     string   `gorm:"type:varchar(30);not null"                      json:"sport"`
	GameMode  string   `gorm:"type:varchar(30);not null"                      json:"game_mode"` // 默认赛制，如 5v5
	Address   string   `gorm:"type:varchar(255);not null;default:''"          json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Field) TableName() string { return "fields" }
