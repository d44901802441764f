package model

// User 用户表，对应 users
// 由账号服务维护，本服务只读取其存在性
type User struct {
	UserID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name   string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email  string `gorm:"type:varchar(255);not null"                     json:"email"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
