package repositories

import (
	"context"
	"errors"
	"fmt"

	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/domain/repositories"

	"gorm.io/gorm"
)

// inviteCodeRepositoryGorm GORM邀请码仓储实现
type inviteCodeRepositoryGorm struct {
	db *gorm.DB
}

// NewInviteCodeRepositoryGorm 创建GORM邀请码仓储
func NewInviteCodeRepositoryGorm(db *gorm.DB) repositories.InviteCodeRepository {
	return &inviteCodeRepositoryGorm{db: db}
}

// CreateBatch 批量创建邀请码
func (r *inviteCodeRepositoryGorm) CreateBatch(ctx context.Context, codes []*entities.InviteCode) error {
	if len(codes) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(codes).Error; err != nil {
		return fmt.Errorf("failed to create invite codes: %w", err)
	}
	return nil
}

// GetByCode 根据邀请码获取
func (r *inviteCodeRepositoryGorm) GetByCode(ctx context.Context, code string) (*entities.InviteCode, error) {
	var invite entities.InviteCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to get invite code: %w", err)
	}
	return &invite, nil
}

// List 获取全部邀请码，按创建时间倒序
func (r *inviteCodeRepositoryGorm) List(ctx context.Context) ([]entities.InviteCode, error) {
	var codes []entities.InviteCode
	err := r.db.WithContext(ctx).
		Table("invite_codes AS ic").
		Select("ic.*, creator.username AS creator_username, used.username AS used_by_username").
		Joins("LEFT JOIN users AS creator ON creator.id = ic.creator_id").
		Joins("LEFT JOIN users AS used ON used.id = ic.used_by").
		Order("ic.created_at DESC, ic.id DESC").
		Scan(&codes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invite codes: %w", err)
	}
	return codes, nil
}

// DeleteByCodes 删除邀请码，返回删除数量
func (r *inviteCodeRepositoryGorm) DeleteByCodes(ctx context.Context, codes []string) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("code IN ?", codes).Delete(&entities.InviteCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete invite codes: %w", result.Error)
	}
	return result.RowsAffected, nil
}
