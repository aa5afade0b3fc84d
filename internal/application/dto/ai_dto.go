package dto

import "time"

// AIConfigResponse AI配置（不含API Key）
type AIConfigResponse struct {
	Provider             string     `json:"provider"`
	BaseURL              string     `json:"base_url,omitempty"`
	Model                string     `json:"model"`
	Temperature          float64    `json:"temperature"`
	MaxTokens            int        `json:"max_tokens"`
	Enabled              bool       `json:"enabled"`
	HasAPIKey            bool       `json:"has_api_key"`
	TitleMaxLength       int        `json:"title_max_length"`
	DescriptionMaxLength int        `json:"description_max_length"`
	TagCount             int        `json:"tag_count"`
	TagTwoCharCount      int        `json:"tag_two_char_count"`
	TagFourCharCount     int        `json:"tag_four_char_count"`
	SupportedProviders   []string   `json:"supported_providers"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
}

// UpdateAIConfigRequest 保存AI配置请求
type UpdateAIConfigRequest struct {
	Provider         string   `json:"provider"`
	APIKey           string   `json:"api_key"`
	BaseURL          string   `json:"base_url"`
	Model            string   `json:"model"`
	Temperature      *float64 `json:"temperature"`
	MaxTokens        int      `json:"max_tokens"`
	Enabled          bool     `json:"enabled"`
	TitleMaxLength   *int     `json:"title_max_length"`
	TagCount         *int     `json:"tag_count"`
	TagTwoCharCount  *int     `json:"tag_two_char_count"`
	TagFourCharCount *int     `json:"tag_four_char_count"`
}

// GenerateMetadataRequest 生成元数据请求
type GenerateMetadataRequest struct {
	Content string `json:"content"`
}

// GeneratedMetadata 生成的提示词元数据
type GeneratedMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// TestConnectionRequest 测试连接请求
type TestConnectionRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`
	Model    string `json:"model"`
}

// TestConnectionResponse 测试连接结果
type TestConnectionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
