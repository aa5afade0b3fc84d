package repositories

import (
	"context"

	"prompt-manager/internal/domain/entities"
)

// InviteCodeRepository 邀请码仓储接口
type InviteCodeRepository interface {
	// CreateBatch 批量创建邀请码
	CreateBatch(ctx context.Context, codes []*entities.InviteCode) error

	// GetByCode 根据邀请码获取
	GetByCode(ctx context.Context, code string) (*entities.InviteCode, error)

	// List 获取全部邀请码（含创建者和使用者用户名），按创建时间倒序
	List(ctx context.Context) ([]entities.InviteCode, error)

	// DeleteByCodes 删除邀请码，返回删除数量
	DeleteByCodes(ctx context.Context, codes []string) (int64, error)
}
