package repositories

import (
	"context"
	"errors"
	"fmt"

	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/domain/repositories"
	"prompt-manager/internal/infrastructure/cache"
	"prompt-manager/internal/infrastructure/redis"

	"gorm.io/gorm"
)

// tagRepositoryGorm GORM标签仓储实现
type tagRepositoryGorm struct {
	db    *gorm.DB
	cache *redis.CacheService
	ttl   *cache.CacheTTLManager
}

// NewTagRepositoryGorm 创建GORM标签仓储
func NewTagRepositoryGorm(db *gorm.DB, cacheService *redis.CacheService, ttl *cache.CacheTTLManager) repositories.TagRepository {
	return &tagRepositoryGorm{
		db:    db,
		cache: cacheService,
		ttl:   ttl,
	}
}

// GetOrCreate 按名称获取标签，不存在则创建，保持输入顺序
func (r *tagRepositoryGorm) GetOrCreate(ctx context.Context, names []string) ([]entities.Tag, error) {
	tags := make([]entities.Tag, 0, len(names))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			tag, err := getOrCreateTag(tx, name)
			if err != nil {
				return err
			}
			tags = append(tags, *tag)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// getOrCreateTag 在给定事务中获取或创建单个标签
func getOrCreateTag(tx *gorm.DB, name string) (*entities.Tag, error) {
	var tag entities.Tag
	err := tx.Where("name = ?", name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get tag %s: %w", name, err)
	}

	tag = entities.Tag{Name: name}
	if err := tx.Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	return &tag, nil
}

// ListWithPublicCounts 获取有公开提示词的标签及数量，按数量倒序
func (r *tagRepositoryGorm) ListWithPublicCounts(ctx context.Context) ([]entities.Tag, error) {
	if r.cache != nil {
		var cached []entities.Tag
		if err := r.cache.Get(ctx, GetPublicTagsCacheKey(), &cached); err == nil {
			return cached, nil
		}
	}

	var tags []entities.Tag
	err := r.db.WithContext(ctx).
		Table("tags").
		Select("tags.id, tags.name, COUNT(tp.prompt_id) AS prompt_count").
		Joins("JOIN tags_prompts AS tp ON tp.tag_id = tags.id").
		Joins("JOIN prompts AS p ON p.id = tp.prompt_id").
		Where("p.is_public = ?", true).
		Group("tags.id, tags.name").
		Order("prompt_count DESC, tags.name ASC").
		Scan(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, GetPublicTagsCacheKey(), tags, r.ttl.GetTagListTTL())
	}
	return tags, nil
}
