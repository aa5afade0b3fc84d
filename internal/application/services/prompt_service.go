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

// 每页数量
const (
	MyPromptsPerPage     = 9
	PublicPromptsPerPage = 12
)

// PromptService 提示词服务接口
type PromptService interface {
	// Create 创建提示词
	Create(ctx context.Context, userID int64, req *dto.CreatePromptRequest) (*dto.PromptResponse, error)

	// Get 查看提示词并增加浏览数，私有提示词仅作者可见
	Get(ctx context.Context, id, viewerID int64) (*dto.PromptResponse, error)

	// Update 更新提示词，仅作者可操作
	Update(ctx context.Context, id, userID int64, req *dto.UpdatePromptRequest) (*dto.PromptResponse, error)

	// Delete 删除提示词，作者或管理员可操作
	Delete(ctx context.Context, id, userID int64, isAdmin bool) error

	// ListMine 我的提示词
	ListMine(ctx context.Context, userID int64, page int) (*dto.PromptListResponse, error)

	// ListPublic 公开提示词
	ListPublic(ctx context.Context, page int, query, tag string) (*dto.PromptListResponse, error)

	// ToggleFavorite 切换收藏
	ToggleFavorite(ctx context.Context, id, userID int64) (bool, error)

	// Share 增加分享数
	Share(ctx context.Context, id, viewerID int64) (*dto.ShareResponse, error)

	// UploadCover 上传封面，仅作者可操作
	UploadCover(ctx context.Context, id, userID int64, filename, contentType string, content io.Reader) (*dto.UploadResponse, error)

	// Stats 站点统计
	Stats(ctx context.Context) (*dto.StatsResponse, error)
}

// promptServiceImpl 提示词服务实现
type promptServiceImpl struct {
	promptRepo   repositories.PromptRepository
	tagRepo      repositories.TagRepository
	favoriteRepo repositories.FavoriteRepository
	userRepo     repositories.UserRepository
	storage      storage.Storage
	logger       logger.Logger
}

// NewPromptService 创建提示词服务
func NewPromptService(
	promptRepo repositories.PromptRepository,
	tagRepo repositories.TagRepository,
	favoriteRepo repositories.FavoriteRepository,
	userRepo repositories.UserRepository,
	store storage.Storage,
	log logger.Logger,
) PromptService {
	return &promptServiceImpl{
		promptRepo:   promptRepo,
		tagRepo:      tagRepo,
		favoriteRepo: favoriteRepo,
		userRepo:     userRepo,
		storage:      store,
		logger:       log,
	}
}

// Create 创建提示词
func (s *promptServiceImpl) Create(ctx context.Context, userID int64, req *dto.CreatePromptRequest) (*dto.PromptResponse, error) {
	prompt, err := s.buildPrompt(ctx, req)
	if err != nil {
		return nil, err
	}
	prompt.UserID = userID

	if err := s.promptRepo.Create(ctx, prompt); err != nil {
		return nil, err
	}

	created, err := s.promptRepo.GetByID(ctx, prompt.ID)
	if err != nil {
		return nil, err
	}

	resp := toPromptResponse(created)
	return &resp, nil
}

// buildPrompt 校验请求并解析标签
func (s *promptServiceImpl) buildPrompt(ctx context.Context, req *dto.CreatePromptRequest) (*entities.Prompt, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, entities.ErrInvalidPrompt
	}

	version := strings.TrimSpace(req.Version)
	if version == "" {
		version = entities.DefaultPromptVersion
	}

	var tags []entities.Tag
	if names := ParseTags(req.Tags); len(names) > 0 {
		var err error
		tags, err = s.tagRepo.GetOrCreate(ctx, names)
		if err != nil {
			return nil, err
		}
	}

	return &entities.Prompt{
		Title:       truncateRunes(title, 200),
		Content:     content,
		Description: strings.TrimSpace(req.Description),
		Version:     truncateRunes(version, 20),
		IsPublic:    req.IsPublic,
		Tags:        tags,
	}, nil
}

// Get 查看提示词并增加浏览数
func (s *promptServiceImpl) Get(ctx context.Context, id, viewerID int64) (*dto.PromptResponse, error) {
	prompt, err := s.promptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !prompt.IsVisibleTo(viewerID) {
		return nil, entities.ErrPromptNotFound
	}

	if err := s.promptRepo.IncrementViewCount(ctx, id); err != nil {
		return nil, err
	}
	prompt.ViewCount++

	resp := toPromptResponse(prompt)
	if viewerID != 0 {
		favorited, err := s.favoriteRepo.Exists(ctx, viewerID, id)
		if err != nil {
			return nil, err
		}
		resp.IsFavorited = favorited
	}
	return &resp, nil
}

// Update 更新提示词
func (s *promptServiceImpl) Update(ctx context.Context, id, userID int64, req *dto.UpdatePromptRequest) (*dto.PromptResponse, error) {
	existing, err := s.promptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsOwnedBy(userID) {
		return nil, entities.ErrPermissionDenied
	}

	prompt, err := s.buildPrompt(ctx, req)
	if err != nil {
		return nil, err
	}
	prompt.ID = id
	prompt.UserID = userID

	if err := s.promptRepo.Update(ctx, prompt); err != nil {
		return nil, err
	}

	updated, err := s.promptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toPromptResponse(updated)
	return &resp, nil
}

// Delete 删除提示词
func (s *promptServiceImpl) Delete(ctx context.Context, id, userID int64, isAdmin bool) error {
	prompt, err := s.promptRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && !prompt.IsOwnedBy(userID) {
		return entities.ErrPermissionDenied
	}

	if err := s.promptRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"prompt_id": id,
		"user_id":   userID,
		"is_admin":  isAdmin,
	}).Info("Prompt deleted")
	return nil
}

// ListMine 我的提示词，每页9条
func (s *promptServiceImpl) ListMine(ctx context.Context, userID int64, page int) (*dto.PromptListResponse, error) {
	total, err := s.promptRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := dto.NewPagination(page, MyPromptsPerPage, total)
	prompts, err := s.promptRepo.ListByUser(ctx, userID, p.Offset(), p.PerPage)
	if err != nil {
		return nil, err
	}

	return &dto.PromptListResponse{
		Items:       toPromptResponses(prompts),
		CurrentPage: p.Page,
		TotalPages:  p.TotalPages,
		TotalCount:  p.TotalCount,
	}, nil
}

// ListPublic 公开提示词，每页12条
func (s *promptServiceImpl) ListPublic(ctx context.Context, page int, query, tag string) (*dto.PromptListResponse, error) {
	filter := repositories.PublicPromptFilter{
		Query: strings.TrimSpace(query),
		Tag:   strings.TrimSpace(tag),
	}

	total, err := s.promptRepo.CountPublic(ctx, filter)
	if err != nil {
		return nil, err
	}

	p := dto.NewPagination(page, PublicPromptsPerPage, total)
	prompts, err := s.promptRepo.ListPublic(ctx, filter, p.Offset(), p.PerPage)
	if err != nil {
		return nil, err
	}

	return &dto.PromptListResponse{
		Items:       toPromptResponses(prompts),
		CurrentPage: p.Page,
		TotalPages:  p.TotalPages,
		TotalCount:  p.TotalCount,
	}, nil
}

// ToggleFavorite 切换收藏，提示词必须对用户可见
func (s *promptServiceImpl) ToggleFavorite(ctx context.Context, id, userID int64) (bool, error) {
	prompt, err := s.promptRepo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !prompt.IsVisibleTo(userID) {
		return false, entities.ErrPromptNotFound
	}
	return s.favoriteRepo.Toggle(ctx, userID, id)
}

// Share 增加分享数
func (s *promptServiceImpl) Share(ctx context.Context, id, viewerID int64) (*dto.ShareResponse, error) {
	prompt, err := s.promptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !prompt.IsVisibleTo(viewerID) {
		return nil, entities.ErrPromptNotFound
	}

	if err := s.promptRepo.IncrementShareCount(ctx, id); err != nil {
		return nil, err
	}
	return &dto.ShareResponse{ShareCount: prompt.ShareCount + 1}, nil
}

// UploadCover 上传封面
func (s *promptServiceImpl) UploadCover(ctx context.Context, id, userID int64, filename, contentType string, content io.Reader) (*dto.UploadResponse, error) {
	if !utils.IsAllowedImageExtension(filename) {
		return nil, ErrInvalidFileType
	}

	prompt, err := s.promptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !prompt.IsOwnedBy(userID) {
		return nil, entities.ErrPermissionDenied
	}

	result, err := s.storage.Save(ctx, storage.FolderCovers, filename, contentType, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store cover: %w", err)
	}

	if err := s.promptRepo.UpdateCover(ctx, id, result.URL); err != nil {
		if delErr := s.storage.Delete(ctx, result.Key); delErr != nil {
			s.logger.WithFields(map[string]interface{}{
				"key":   result.Key,
				"error": delErr.Error(),
			}).Warn("Failed to clean up cover upload")
		}
		return nil, err
	}

	return &dto.UploadResponse{URL: result.URL}, nil
}

// Stats 站点统计
func (s *promptServiceImpl) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	promptCount, err := s.promptRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	userCount, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.StatsResponse{PromptCount: promptCount, UserCount: userCount}, nil
}
