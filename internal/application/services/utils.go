package services

import (
	"errors"
	"strings"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/domain/entities"
)

// 服务层错误
var (
	ErrInvalidQuantity      = errors.New("quantity must be between 1 and 10")
	ErrInvalidFileType      = errors.New("file type not allowed")
	ErrCredentialUnreadable = errors.New("stored api key cannot be decrypted, please re-configure")
	ErrAlreadyInitialized   = errors.New("database already has users")
)

// toUserResponse 转换用户信息
func toUserResponse(user *entities.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		IsBanned:  user.IsBanned,
		AvatarURL: user.AvatarURL,
		Bio:       user.Bio,
		CreatedAt: user.CreatedAt,
	}
}

// toPromptResponse 转换提示词
func toPromptResponse(prompt *entities.Prompt) dto.PromptResponse {
	resp := dto.PromptResponse{
		ID:          prompt.ID,
		Title:       prompt.Title,
		Content:     prompt.Content,
		Description: prompt.Description,
		Version:     prompt.Version,
		CoverImage:  prompt.CoverImage,
		IsPublic:    prompt.IsPublic,
		ViewCount:   prompt.ViewCount,
		ShareCount:  prompt.ShareCount,
		Tags:        prompt.TagNames(),
		CreatedAt:   prompt.CreatedAt,
		UpdatedAt:   prompt.UpdatedAt,
	}
	if prompt.User != nil {
		resp.Author = &dto.AuthorInfo{
			ID:        prompt.User.ID,
			Username:  prompt.User.Username,
			AvatarURL: prompt.User.AvatarURL,
		}
	}
	return resp
}

// toPromptResponses 批量转换提示词
func toPromptResponses(prompts []entities.Prompt) []dto.PromptResponse {
	items := make([]dto.PromptResponse, 0, len(prompts))
	for i := range prompts {
		items = append(items, toPromptResponse(&prompts[i]))
	}
	return items
}

// stringPtr 返回去除首尾空白后的字符串指针，空字符串返回nil
func stringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// intValue 获取int指针的值，nil时返回默认值
func intValue(i *int, fallback int) int {
	if i == nil {
		return fallback
	}
	return *i
}
