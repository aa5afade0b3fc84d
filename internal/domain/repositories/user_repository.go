package repositories

import (
	"context"

	"prompt-manager/internal/domain/entities"
)

// UserStats 用户统计信息
type UserStats struct {
	PromptCount   int64 `json:"prompt_count"`
	FavoriteCount int64 `json:"favorite_count"`
	TotalViews    int64 `json:"total_views"`
}

// UserRepository 用户仓储接口
type UserRepository interface {
	// Create 创建用户
	Create(ctx context.Context, user *entities.User) error

	// RegisterWithInviteCode 在同一事务中消费邀请码并创建用户，首个用户成为管理员
	RegisterWithInviteCode(ctx context.Context, user *entities.User, code string) error

	// GetByID 根据ID获取用户
	GetByID(ctx context.Context, id int64) (*entities.User, error)

	// GetByUsername 根据用户名获取用户
	GetByUsername(ctx context.Context, username string) (*entities.User, error)

	// GetByEmail 根据邮箱获取用户
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// UsernameExists 检查用户名是否被其他用户占用
	UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error)

	// EmailExists 检查邮箱是否已注册
	EmailExists(ctx context.Context, email string) (bool, error)

	// Update 更新用户
	Update(ctx context.Context, user *entities.User) error

	// SetBanned 设置封禁状态
	SetBanned(ctx context.Context, id int64, banned bool) error

	// Delete 删除用户及其提示词、收藏、AI配置
	Delete(ctx context.Context, id int64) error

	// List 按ID顺序获取全部用户
	List(ctx context.Context) ([]entities.User, error)

	// Count 用户总数
	Count(ctx context.Context) (int64, error)

	// GetStats 获取用户统计
	GetStats(ctx context.Context, id int64) (*UserStats, error)
}
