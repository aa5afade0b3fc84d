package repositories

import (
	"context"
)

// FavoriteRepository 收藏仓储接口
type FavoriteRepository interface {
	// Exists 是否已收藏
	Exists(ctx context.Context, userID, promptID int64) (bool, error)

	// Toggle 切换收藏状态，返回切换后的状态
	Toggle(ctx context.Context, userID, promptID int64) (bool, error)
}
