package repositories

import (
	"context"
	"errors"
	"fmt"

	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/domain/repositories"

	"gorm.io/gorm"
)

// aiConfigRepositoryGorm GORM AI配置仓储实现
type aiConfigRepositoryGorm struct {
	db *gorm.DB
}

// NewAIConfigRepositoryGorm 创建GORM AI配置仓储
func NewAIConfigRepositoryGorm(db *gorm.DB) repositories.AIConfigRepository {
	return &aiConfigRepositoryGorm{db: db}
}

// GetByUserID 获取用户AI配置
func (r *aiConfigRepositoryGorm) GetByUserID(ctx context.Context, userID int64) (*entities.AIConfig, error) {
	var cfg entities.AIConfig
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrAIConfigNotFound
		}
		return nil, fmt.Errorf("failed to get ai config: %w", err)
	}
	return &cfg, nil
}

// Save 创建或更新AI配置，零值字段同样写入
func (r *aiConfigRepositoryGorm) Save(ctx context.Context, cfg *entities.AIConfig) error {
	if err := r.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return fmt.Errorf("failed to save ai config: %w", err)
	}
	return nil
}
