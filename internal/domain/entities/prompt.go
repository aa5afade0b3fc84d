package entities

import (
	"time"
)

// DefaultPromptVersion 提示词默认版本号
const DefaultPromptVersion = "1.0"

// Prompt 提示词实体
type Prompt struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string    `json:"title" gorm:"not null;size:200"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Version     string    `json:"version" gorm:"not null;size:20;default:'1.0'"`
	CoverImage  *string   `json:"cover_image,omitempty" gorm:"size:500"`
	IsPublic    bool      `json:"is_public" gorm:"not null;default:false;index"`
	ViewCount   int64     `json:"view_count" gorm:"not null;default:0"`
	ShareCount  int64     `json:"share_count" gorm:"not null;default:0"`
	UserID      int64     `json:"user_id" gorm:"not null;index"`
	User        *User     `json:"author,omitempty" gorm:"foreignKey:UserID"`
	Tags        []Tag     `json:"tags" gorm:"many2many:tags_prompts;"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null;autoUpdateTime"`
}

// TableName 指定表名
func (Prompt) TableName() string {
	return "prompts"
}

// IsVisibleTo 私有提示词仅作者可见
func (p *Prompt) IsVisibleTo(userID int64) bool {
	return p.IsPublic || (userID != 0 && p.UserID == userID)
}

// IsOwnedBy 检查提示词是否属于指定用户
func (p *Prompt) IsOwnedBy(userID int64) bool {
	return p.UserID == userID
}

// TagNames 返回标签名称列表
func (p *Prompt) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// Tag 标签实体
type Tag struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"uniqueIndex;not null;size:50"`
	PromptCount int64  `json:"prompt_count,omitempty" gorm:"->;-:migration"`
}

// TableName 指定表名
func (Tag) TableName() string {
	return "tags"
}

// Favorite 收藏实体
type Favorite struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_favorites_user_prompt"`
	PromptID  int64     `json:"prompt_id" gorm:"not null;uniqueIndex:idx_favorites_user_prompt;index"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
}

// TableName 指定表名
func (Favorite) TableName() string {
	return "favorites"
}
