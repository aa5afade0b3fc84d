package entities

import (
	"time"
)

// AI提供商标识
const (
	AIProviderOpenAI    = "openai"
	AIProviderCustom    = "custom"
	AIProviderAnthropic = "anthropic"
)

// AIConfig 用户AI配置实体（每个用户一条）
type AIConfig struct {
	ID                   int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID               int64     `json:"user_id" gorm:"uniqueIndex;not null"`
	Provider             string    `json:"provider" gorm:"not null;size:50;default:openai"`
	APIKey               string    `json:"-" gorm:"type:text;not null;column:api_key"` // 加密后的密文
	BaseURL              *string   `json:"base_url,omitempty" gorm:"size:500"`
	Model                string    `json:"model" gorm:"not null;size:100;default:gpt-3.5-turbo"`
	Temperature          float64   `json:"temperature" gorm:"not null"`
	MaxTokens            int       `json:"max_tokens" gorm:"not null;default:500"`
	Enabled              bool      `json:"enabled" gorm:"not null;default:false"`
	TitleMaxLength       int       `json:"title_max_length" gorm:"not null;default:30"`
	DescriptionMaxLength int       `json:"description_max_length" gorm:"not null;default:150"`
	TagCount             int       `json:"tag_count" gorm:"not null;default:5"`
	TagTwoCharCount      int       `json:"tag_two_char_count" gorm:"not null;default:0"`
	TagFourCharCount     int       `json:"tag_four_char_count" gorm:"not null;default:0"`
	CreatedAt            time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt            time.Time `json:"updated_at" gorm:"not null;autoUpdateTime"`
}

// TableName 指定表名
func (AIConfig) TableName() string {
	return "ai_configs"
}

// HasAPIKey 是否已保存API Key
func (c *AIConfig) HasAPIKey() bool {
	return c.APIKey != ""
}

// BaseURLValue 获取BaseURL
func (c *AIConfig) BaseURLValue() string {
	if c.BaseURL == nil {
		return ""
	}
	return *c.BaseURL
}
