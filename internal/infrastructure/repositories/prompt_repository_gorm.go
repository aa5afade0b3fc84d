package repositories

import (
	"context"
	"errors"
	"fmt"

	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/domain/repositories"
	"prompt-manager/internal/infrastructure/redis"

	"gorm.io/gorm"
)

// promptRepositoryGorm GORM提示词仓储实现
type promptRepositoryGorm struct {
	db    *gorm.DB
	cache *redis.CacheService
}

// NewPromptRepositoryGorm 创建GORM提示词仓储
func NewPromptRepositoryGorm(db *gorm.DB, cacheService *redis.CacheService) repositories.PromptRepository {
	return &promptRepositoryGorm{
		db:    db,
		cache: cacheService,
	}
}

// Create 创建提示词（含标签关联）
func (r *promptRepositoryGorm) Create(ctx context.Context, prompt *entities.Prompt) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "User").Create(prompt).Error; err != nil {
			return fmt.Errorf("failed to create prompt: %w", err)
		}
		return linkTags(tx, prompt.ID, prompt.Tags)
	})
	if err != nil {
		return err
	}

	r.invalidateTags(ctx)
	return nil
}

// GetByID 根据ID获取提示词（预加载作者和标签）
func (r *promptRepositoryGorm) GetByID(ctx context.Context, id int64) (*entities.Prompt, error) {
	var prompt entities.Prompt
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tags").
		First(&prompt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrPromptNotFound
		}
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	return &prompt, nil
}

// Update 更新提示词字段并替换标签关联
func (r *promptRepositoryGorm) Update(ctx context.Context, prompt *entities.Prompt) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Prompt{}).
			Where("id = ?", prompt.ID).
			Updates(map[string]interface{}{
				"title":       prompt.Title,
				"content":     prompt.Content,
				"description": prompt.Description,
				"version":     prompt.Version,
				"is_public":   prompt.IsPublic,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update prompt: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return entities.ErrPromptNotFound
		}

		if err := tx.Exec("DELETE FROM tags_prompts WHERE prompt_id = ?", prompt.ID).Error; err != nil {
			return fmt.Errorf("failed to clear prompt tags: %w", err)
		}
		return linkTags(tx, prompt.ID, prompt.Tags)
	})
	if err != nil {
		return err
	}

	r.invalidateTags(ctx)
	return nil
}

// linkTags 写入提示词与标签的关联
func linkTags(tx *gorm.DB, promptID int64, tags []entities.Tag) error {
	for _, tag := range tags {
		if err := tx.Exec("INSERT INTO tags_prompts (prompt_id, tag_id) VALUES (?, ?)", promptID, tag.ID).Error; err != nil {
			return fmt.Errorf("failed to link tag %s: %w", tag.Name, err)
		}
	}
	return nil
}

// UpdateCover 更新封面图
func (r *promptRepositoryGorm) UpdateCover(ctx context.Context, id int64, coverURL string) error {
	result := r.db.WithContext(ctx).Model(&entities.Prompt{}).Where("id = ?", id).Update("cover_image", coverURL)
	if result.Error != nil {
		return fmt.Errorf("failed to update cover: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return entities.ErrPromptNotFound
	}
	return nil
}

// Delete 删除提示词及其标签关联和收藏
func (r *promptRepositoryGorm) Delete(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM tags_prompts WHERE prompt_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete prompt tags: %w", err)
		}
		if err := tx.Where("prompt_id = ?", id).Delete(&entities.Favorite{}).Error; err != nil {
			return fmt.Errorf("failed to delete prompt favorites: %w", err)
		}

		result := tx.Delete(&entities.Prompt{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete prompt: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return entities.ErrPromptNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.invalidateTags(ctx)
	return nil
}

// IncrementViewCount 浏览数加一
func (r *promptRepositoryGorm) IncrementViewCount(ctx context.Context, id int64) error {
	return r.increment(ctx, id, "view_count")
}

// IncrementShareCount 分享数加一
func (r *promptRepositoryGorm) IncrementShareCount(ctx context.Context, id int64) error {
	return r.increment(ctx, id, "share_count")
}

func (r *promptRepositoryGorm) increment(ctx context.Context, id int64, column string) error {
	result := r.db.WithContext(ctx).Model(&entities.Prompt{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return entities.ErrPromptNotFound
	}
	return nil
}

// Count 提示词总数
func (r *promptRepositoryGorm) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Prompt{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count prompts: %w", err)
	}
	return count, nil
}

// CountByUser 用户提示词数量
func (r *promptRepositoryGorm) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Prompt{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count user prompts: %w", err)
	}
	return count, nil
}

// ListByUser 用户提示词，按创建时间倒序
func (r *promptRepositoryGorm) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]entities.Prompt, error) {
	var prompts []entities.Prompt
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&prompts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user prompts: %w", err)
	}
	return prompts, nil
}

// publicQuery 公开提示词查询条件
func (r *promptRepositoryGorm) publicQuery(ctx context.Context, filter repositories.PublicPromptFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entities.Prompt{}).Where("prompts.is_public = ?", true)

	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		query = query.Where("(prompts.title LIKE ? OR prompts.description LIKE ?)", pattern, pattern)
	}

	if filter.Tag != "" {
		sub := r.db.Table("tags_prompts AS tp").
			Select("tp.prompt_id").
			Joins("JOIN tags AS t ON t.id = tp.tag_id").
			Where("t.name = ?", filter.Tag)
		query = query.Where("prompts.id IN (?)", sub)
	}

	return query
}

// CountPublic 公开提示词数量
func (r *promptRepositoryGorm) CountPublic(ctx context.Context, filter repositories.PublicPromptFilter) (int64, error) {
	var count int64
	if err := r.publicQuery(ctx, filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count public prompts: %w", err)
	}
	return count, nil
}

// ListPublic 公开提示词，按浏览量和创建时间倒序
func (r *promptRepositoryGorm) ListPublic(ctx context.Context, filter repositories.PublicPromptFilter, offset, limit int) ([]entities.Prompt, error) {
	var prompts []entities.Prompt
	err := r.publicQuery(ctx, filter).
		Preload("User").
		Preload("Tags").
		Order("prompts.view_count DESC, prompts.created_at DESC, prompts.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&prompts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list public prompts: %w", err)
	}
	return prompts, nil
}

// ListFavoritedBy 用户收藏且对viewerID可见的提示词，按收藏时间倒序
func (r *promptRepositoryGorm) ListFavoritedBy(ctx context.Context, userID, viewerID int64) ([]entities.Prompt, error) {
	var prompts []entities.Prompt
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tags").
		Joins("JOIN favorites AS f ON f.prompt_id = prompts.id").
		Where("f.user_id = ?", userID).
		Where("(prompts.is_public = ? OR prompts.user_id = ?)", true, viewerID).
		Order("f.created_at DESC, f.id DESC").
		Find(&prompts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorited prompts: %w", err)
	}
	return prompts, nil
}

// invalidateTags 提示词变化后清除标签列表缓存
func (r *promptRepositoryGorm) invalidateTags(ctx context.Context) {
	if r.cache != nil {
		_ = r.cache.Delete(ctx, GetPublicTagsCacheKey())
	}
}
