package entities

import (
	"time"
)

// InviteCode 邀请码实体
type InviteCode struct {
	ID        int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Code      string     `json:"code" gorm:"uniqueIndex;not null;size:20"`
	CreatorID int64      `json:"creator_id" gorm:"not null;index"`
	IsUsed    bool       `json:"is_used" gorm:"not null;default:false"`
	UsedBy    *int64     `json:"used_by,omitempty" gorm:"index"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" gorm:"not null;autoCreateTime"`

	// 列表查询时填充
	CreatorUsername string `json:"creator_username,omitempty" gorm:"->;-:migration"`
	UsedByUsername  string `json:"used_by_username,omitempty" gorm:"->;-:migration"`
}

// TableName 指定表名
func (InviteCode) TableName() string {
	return "invite_codes"
}

// MarkUsed 标记邀请码已被使用
func (c *InviteCode) MarkUsed(userID int64, at time.Time) {
	c.IsUsed = true
	c.UsedBy = &userID
	c.UsedAt = &at
}
