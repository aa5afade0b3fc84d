package repositories

import (
	"context"
	"fmt"

	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/domain/repositories"

	"gorm.io/gorm"
)

// favoriteRepositoryGorm GORM收藏仓储实现
type favoriteRepositoryGorm struct {
	db *gorm.DB
}

// NewFavoriteRepositoryGorm 创建GORM收藏仓储
func NewFavoriteRepositoryGorm(db *gorm.DB) repositories.FavoriteRepository {
	return &favoriteRepositoryGorm{db: db}
}

// Exists 是否已收藏
func (r *favoriteRepositoryGorm) Exists(ctx context.Context, userID, promptID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Favorite{}).
		Where("user_id = ? AND prompt_id = ?", userID, promptID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}

// Toggle 切换收藏状态，返回切换后的状态
func (r *favoriteRepositoryGorm) Toggle(ctx context.Context, userID, promptID int64) (bool, error) {
	var favorited bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND prompt_id = ?", userID, promptID).Delete(&entities.Favorite{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove favorite: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			favorited = false
			return nil
		}

		if err := tx.Create(&entities.Favorite{UserID: userID, PromptID: promptID}).Error; err != nil {
			return fmt.Errorf("failed to add favorite: %w", err)
		}
		favorited = true
		return nil
	})
	return favorited, err
}
