package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/domain/repositories"
	"prompt-manager/internal/infrastructure/logger"
	"prompt-manager/internal/infrastructure/storage"
	"prompt-manager/internal/utils"
)

// UserService 用户服务接口
type UserService interface {
	// GetProfile 获取当前用户资料和统计
	GetProfile(ctx context.Context, userID int64) (*dto.UserProfileResponse, error)

	// UpdateProfile 更新用户名和简介
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)

	// UploadAvatar 上传头像
	UploadAvatar(ctx context.Context, userID int64, filename, contentType string, content io.Reader) (*dto.UploadResponse, error)

	// GetPublicProfile 获取公开主页（含收藏列表）
	GetPublicProfile(ctx context.Context, userID, viewerID int64) (*dto.PublicProfileResponse, error)
}

// userServiceImpl 用户服务实现
type userServiceImpl struct {
	userRepo   repositories.UserRepository
	promptRepo repositories.PromptRepository
	storage    storage.Storage
	logger     logger.Logger
}

// NewUserService 创建用户服务
func NewUserService(userRepo repositories.UserRepository, promptRepo repositories.PromptRepository, store storage.Storage, log logger.Logger) UserService {
	return &userServiceImpl{
		userRepo:   userRepo,
		promptRepo: promptRepo,
		storage:    store,
		logger:     log,
	}
}

// GetProfile 获取当前用户资料和统计
func (s *userServiceImpl) GetProfile(ctx context.Context, userID int64) (*dto.UserProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.userRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.UserProfileResponse{
		UserResponse:  toUserResponse(user),
		PromptCount:   stats.PromptCount,
		FavoriteCount: stats.FavoriteCount,
		TotalViews:    stats.TotalViews,
	}, nil
}

// UpdateProfile 更新用户名和简介
func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username != "" && username != user.Username {
			taken, err := s.userRepo.UsernameExists(ctx, username, userID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, entities.ErrUsernameTaken
			}
			user.Username = username
		}
	}

	if req.Bio != nil {
		user.Bio = stringPtr(*req.Bio)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// UploadAvatar 上传头像并更新用户头像地址
func (s *userServiceImpl) UploadAvatar(ctx context.Context, userID int64, filename, contentType string, content io.Reader) (*dto.UploadResponse, error) {
	if !utils.IsAllowedImageExtension(filename) {
		return nil, ErrInvalidFileType
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.storage.Save(ctx, storage.FolderAvatars, filename, contentType, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store avatar: %w", err)
	}

	user.AvatarURL = &result.URL
	if err := s.userRepo.Update(ctx, user); err != nil {
		// 数据库更新失败时清理已上传的文件
		if delErr := s.storage.Delete(ctx, result.Key); delErr != nil {
			s.logger.WithFields(map[string]interface{}{
				"key":   result.Key,
				"error": delErr.Error(),
			}).Warn("Failed to clean up avatar upload")
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"url":     result.URL,
		"backend": s.storage.Name(),
	}).Info("Avatar updated")

	return &dto.UploadResponse{URL: result.URL}, nil
}

// GetPublicProfile 获取公开主页，收藏按收藏时间倒序
func (s *userServiceImpl) GetPublicProfile(ctx context.Context, userID, viewerID int64) (*dto.PublicProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.userRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	favorites, err := s.promptRepo.ListFavoritedBy(ctx, userID, viewerID)
	if err != nil {
		return nil, err
	}

	items := toPromptResponses(favorites)
	if viewerID == userID {
		for i := range items {
			items[i].IsFavorited = true
		}
	}

	return &dto.PublicProfileResponse{
		ID:            user.ID,
		Username:      user.Username,
		AvatarURL:     user.AvatarURL,
		Bio:           user.Bio,
		CreatedAt:     user.CreatedAt,
		PromptCount:   stats.PromptCount,
		FavoriteCount: stats.FavoriteCount,
		TotalViews:    stats.TotalViews,
		Favorites:     items,
	}, nil
}
