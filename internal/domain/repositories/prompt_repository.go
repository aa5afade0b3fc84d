package repositories

import (
	"context"

	"prompt-manager/internal/domain/entities"
)

// PublicPromptFilter 公开提示词查询条件
type PublicPromptFilter struct {
	Query string // 标题或描述模糊匹配
	Tag   string // 标签名精确匹配
}

// PromptRepository 提示词仓储接口
type PromptRepository interface {
	// Create 创建提示词（含标签关联）
	Create(ctx context.Context, prompt *entities.Prompt) error

	// GetByID 根据ID获取提示词（预加载作者和标签）
	GetByID(ctx context.Context, id int64) (*entities.Prompt, error)

	// Update 更新提示词字段并替换标签关联
	Update(ctx context.Context, prompt *entities.Prompt) error

	// UpdateCover 更新封面图
	UpdateCover(ctx context.Context, id int64, coverURL string) error

	// Delete 删除提示词及其标签关联和收藏
	Delete(ctx context.Context, id int64) error

	// IncrementViewCount 浏览数加一
	IncrementViewCount(ctx context.Context, id int64) error

	// IncrementShareCount 分享数加一
	IncrementShareCount(ctx context.Context, id int64) error

	// Count 提示词总数
	Count(ctx context.Context) (int64, error)

	// CountByUser 用户提示词数量
	CountByUser(ctx context.Context, userID int64) (int64, error)

	// ListByUser 用户提示词，按创建时间倒序
	ListByUser(ctx context.Context, userID int64, offset, limit int) ([]entities.Prompt, error)

	// CountPublic 公开提示词数量
	CountPublic(ctx context.Context, filter PublicPromptFilter) (int64, error)

	// ListPublic 公开提示词，按浏览量和创建时间倒序
	ListPublic(ctx context.Context, filter PublicPromptFilter, offset, limit int) ([]entities.Prompt, error)

	// ListFavoritedBy 用户收藏且对viewerID可见的提示词，按收藏时间倒序
	ListFavoritedBy(ctx context.Context, userID, viewerID int64) ([]entities.Prompt, error)
}
