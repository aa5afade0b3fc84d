package dto

import "time"

// UserResponse 用户信息
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	IsBanned  bool      `json:"is_banned"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProfileResponse 当前用户资料（含统计）
type UserProfileResponse struct {
	UserResponse
	PromptCount   int64 `json:"prompt_count"`
	FavoriteCount int64 `json:"favorite_count"`
	TotalViews    int64 `json:"total_views"`
}

// PublicProfileResponse 公开用户主页
type PublicProfileResponse struct {
	ID            int64            `json:"id"`
	Username      string           `json:"username"`
	AvatarURL     *string          `json:"avatar_url,omitempty"`
	Bio           *string          `json:"bio,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	PromptCount   int64            `json:"prompt_count"`
	FavoriteCount int64            `json:"favorite_count"`
	TotalViews    int64            `json:"total_views"`
	Favorites     []PromptResponse `json:"favorites"`
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" binding:"omitempty,min=2,max=80"`
	Bio      *string `json:"bio,omitempty"`
}

// UploadResponse 上传结果
type UploadResponse struct {
	URL string `json:"url"`
}
