package repositories

import (
	"context"

	"prompt-manager/internal/domain/entities"
)

// TagRepository 标签仓储接口
type TagRepository interface {
	// GetOrCreate 按名称获取标签，不存在则创建，保持输入顺序
	GetOrCreate(ctx context.Context, names []string) ([]entities.Tag, error)

	// ListWithPublicCounts 获取所有标签及其公开提示词数量
	ListWithPublicCounts(ctx context.Context) ([]entities.Tag, error)
}
