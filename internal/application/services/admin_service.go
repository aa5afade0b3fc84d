package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/domain/repositories"
	"prompt-manager/internal/infrastructure/logger"
)

const (
	inviteCodeLength   = 8
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	maxInviteQuantity  = 10
)

// AdminService 管理服务接口
type AdminService interface {
	// GenerateInviteCodes 批量生成邀请码
	GenerateInviteCodes(ctx context.Context, creatorID int64, quantity int) ([]string, error)

	// ListInviteCodes 邀请码列表，按创建时间倒序
	ListInviteCodes(ctx context.Context) ([]dto.InviteCodeResponse, error)

	// DeleteInviteCodes 删除邀请码
	DeleteInviteCodes(ctx context.Context, codes []string) (int64, error)

	// ListUsers 用户列表，按ID排序
	ListUsers(ctx context.Context) ([]dto.UserResponse, error)

	// SetBanned 封禁或解封用户，管理员不可封禁
	SetBanned(ctx context.Context, userID int64, banned bool) error

	// DeleteUser 删除用户及其数据，管理员不可删除
	DeleteUser(ctx context.Context, userID int64) error
}

// adminServiceImpl 管理服务实现
type adminServiceImpl struct {
	userRepo   repositories.UserRepository
	inviteRepo repositories.InviteCodeRepository
	logger     logger.Logger
}

// NewAdminService 创建管理服务
func NewAdminService(userRepo repositories.UserRepository, inviteRepo repositories.InviteCodeRepository, log logger.Logger) AdminService {
	return &adminServiceImpl{
		userRepo:   userRepo,
		inviteRepo: inviteRepo,
		logger:     log,
	}
}

// GenerateInviteCodes 批量生成邀请码，跳过已存在的码
func (s *adminServiceImpl) GenerateInviteCodes(ctx context.Context, creatorID int64, quantity int) ([]string, error) {
	if quantity < 1 || quantity > maxInviteQuantity {
		return nil, ErrInvalidQuantity
	}

	seen := make(map[string]bool, quantity)
	codes := make([]string, 0, quantity)
	records := make([]*entities.InviteCode, 0, quantity)

	for len(codes) < quantity {
		code, err := GenerateInviteCode()
		if err != nil {
			return nil, err
		}
		if seen[code] {
			continue
		}
		seen[code] = true

		_, err = s.inviteRepo.GetByCode(ctx, code)
		if err == nil {
			continue
		}
		if !errors.Is(err, entities.ErrInvalidInviteCode) {
			return nil, err
		}

		codes = append(codes, code)
		records = append(records, &entities.InviteCode{Code: code, CreatorID: creatorID})
	}

	if err := s.inviteRepo.CreateBatch(ctx, records); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"creator_id": creatorID,
		"quantity":   quantity,
	}).Info("Invite codes generated")

	return codes, nil
}

// GenerateInviteCode 生成一个8位字母数字邀请码
func GenerateInviteCode() (string, error) {
	buf := make([]byte, inviteCodeLength)
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}
		buf[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// ListInviteCodes 邀请码列表，按创建时间倒序
func (s *adminServiceImpl) ListInviteCodes(ctx context.Context) ([]dto.InviteCodeResponse, error) {
	codes, err := s.inviteRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]dto.InviteCodeResponse, 0, len(codes))
	for _, c := range codes {
		items = append(items, dto.InviteCodeResponse{
			Code:            c.Code,
			IsUsed:          c.IsUsed,
			CreatorUsername: c.CreatorUsername,
			UsedByUsername:  c.UsedByUsername,
			UsedAt:          c.UsedAt,
			CreatedAt:       c.CreatedAt,
		})
	}
	return items, nil
}

// DeleteInviteCodes 删除邀请码，空列表返回0
func (s *adminServiceImpl) DeleteInviteCodes(ctx context.Context, codes []string) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	return s.inviteRepo.DeleteByCodes(ctx, codes)
}

// ListUsers 用户列表，按ID排序
func (s *adminServiceImpl) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}
	return items, nil
}

// SetBanned 封禁或解封用户
func (s *adminServiceImpl) SetBanned(ctx context.Context, userID int64, banned bool) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CanBeModerated() {
		return entities.ErrAdminProtected
	}

	if err := s.userRepo.SetBanned(ctx, userID, banned); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"banned":  banned,
	}).Info("User ban status changed")
	return nil
}

// DeleteUser 删除用户及其数据
func (s *adminServiceImpl) DeleteUser(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CanBeModerated() {
		return entities.ErrAdminProtected
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"username": user.Username,
	}).Info("User deleted")
	return nil
}
