package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"prompt-manager/internal/application/dto"
	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/domain/repositories"
	"prompt-manager/internal/infrastructure/logger"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength 密码最小长度
const MinPasswordLength = 8

// AuthService 认证服务接口
type AuthService interface {
	// Register 使用邀请码注册
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)

	// Login 邮箱密码登录
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)

	// RefreshToken 刷新令牌
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.RefreshTokenResponse, error)

	// ChangePassword 修改密码
	ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error

	// CreateAdmin 在空库中创建首个管理员
	CreateAdmin(ctx context.Context, username, email, password string) (*dto.UserInfo, error)
}

// authServiceImpl 认证服务实现
type authServiceImpl struct {
	userRepo   repositories.UserRepository
	jwtService JWTService
	logger     logger.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo repositories.UserRepository, jwtService JWTService, log logger.Logger) AuthService {
	return &authServiceImpl{
		userRepo:   userRepo,
		jwtService: jwtService,
		logger:     log,
	}
}

// Register 使用邀请码注册，第一个用户成为管理员
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	code := strings.TrimSpace(req.InviteCode)

	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	taken, err := s.userRepo.UsernameExists(ctx, username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, entities.ErrUsernameTaken
	}

	taken, err = s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, entities.ErrEmailTaken
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.RegisterWithInviteCode(ctx, user, code); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
		"is_admin": user.IsAdmin,
	}).Info("User registered")

	return &dto.RegisterResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		Message:   "User registered successfully",
		CreatedAt: user.CreatedAt,
	}, nil
}

// Login 邮箱密码登录
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, entities.ErrInvalidCredentials
		}
		return nil, err
	}

	if !checkPassword(user.PasswordHash, req.Password) {
		return nil, entities.ErrInvalidCredentials
	}

	if !user.CanLogin() {
		return nil, entities.ErrUserBanned
	}

	accessToken, refreshToken, err := s.jwtService.GenerateTokens(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtService.AccessTokenTTL().Seconds()),
		User: dto.UserInfo{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			IsAdmin:   user.IsAdmin,
			AvatarURL: user.AvatarURL,
		},
	}, nil
}

// RefreshToken 刷新令牌
func (s *authServiceImpl) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.RefreshTokenResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, err
	}

	// 重新读取用户，使管理员标记和封禁状态生效
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.CanLogin() {
		return nil, entities.ErrUserBanned
	}

	accessToken, refreshToken, err := s.jwtService.GenerateTokens(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh tokens: %w", err)
	}

	return &dto.RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtService.AccessTokenTTL().Seconds()),
	}, nil
}

// ChangePassword 修改密码
func (s *authServiceImpl) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !checkPassword(user.PasswordHash, req.OldPassword) {
		return entities.ErrInvalidCredentials
	}

	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	newHash, err := hashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	user.PasswordHash = newHash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// CreateAdmin 在空库中创建首个管理员，已有用户时返回ErrAlreadyInitialized
func (s *authServiceImpl) CreateAdmin(ctx context.Context, username, email, password string) (*dto.UserInfo, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" {
		return nil, fmt.Errorf("admin username and email are required")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyInitialized
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		IsAdmin:      true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("Admin user created")

	return &dto.UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
	}, nil
}

// validatePassword 校验密码强度
func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return entities.ErrWeakPassword
	}
	return nil
}

// hashPassword 哈希密码
func hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// checkPassword 校验密码
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
