package entities

import (
	"time"
)

// User 用户实体
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null;size:80"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null;size:120"`
	PasswordHash string    `json:"-" gorm:"not null;size:255;column:password_hash"` // 密码哈希，不在JSON中返回
	IsAdmin      bool      `json:"is_admin" gorm:"not null;default:false"`
	IsBanned     bool      `json:"is_banned" gorm:"not null;default:false"`
	AvatarURL    *string   `json:"avatar_url,omitempty" gorm:"size:500"` // 用户头像URL
	Bio          *string   `json:"bio,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null;autoUpdateTime"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// CanLogin 检查用户是否可以登录
func (u *User) CanLogin() bool {
	return !u.IsBanned
}

// CanBeModerated 管理员账号不能被封禁或删除
func (u *User) CanBeModerated() bool {
	return !u.IsAdmin
}
