package dto

import "time"

// CreatePromptRequest 创建提示词请求
type CreatePromptRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	IsPublic    bool     `json:"is_public"`
	Tags        []string `json:"tags"`
}

// UpdatePromptRequest 更新提示词请求
type UpdatePromptRequest = CreatePromptRequest

// AuthorInfo 作者信息
type AuthorInfo struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// PromptResponse 提示词
type PromptResponse struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	CoverImage  *string     `json:"cover_image,omitempty"`
	IsPublic    bool        `json:"is_public"`
	ViewCount   int64       `json:"view_count"`
	ShareCount  int64       `json:"share_count"`
	Tags        []string    `json:"tags"`
	Author      *AuthorInfo `json:"author,omitempty"`
	IsFavorited bool        `json:"is_favorited"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// PromptListResponse 提示词分页列表
type PromptListResponse = PaginatedResponse[PromptResponse]

// FavoriteResponse 收藏切换结果
type FavoriteResponse struct {
	Favorited bool `json:"favorited"`
}

// ShareResponse 分享结果
type ShareResponse struct {
	ShareCount int64 `json:"share_count"`
}

// TagResponse 标签及公开提示词数量
type TagResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PromptCount int64  `json:"prompt_count"`
}

// StatsResponse 站点统计
type StatsResponse struct {
	PromptCount int64 `json:"prompt_count"`
	UserCount   int64 `json:"user_count"`
}
