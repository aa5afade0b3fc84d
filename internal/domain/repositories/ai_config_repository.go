package repositories

import (
	"context"

	"prompt-manager/internal/domain/entities"
)

// AIConfigRepository 用户AI配置仓储接口
type AIConfigRepository interface {
	// GetByUserID 获取用户AI配置
	GetByUserID(ctx context.Context, userID int64) (*entities.AIConfig, error)

	// Save 创建或更新AI配置
	Save(ctx context.Context, cfg *entities.AIConfig) error
}
