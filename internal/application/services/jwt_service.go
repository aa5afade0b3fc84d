package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"prompt-manager/internal/domain/entities"
	"prompt-manager/internal/infrastructure/config"

	"github.com/golang-jwt/jwt/v5"
)

// 令牌类型
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrInvalidToken 令牌无效或已过期
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenClaims JWT声明
type TokenClaims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"is_admin"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTService JWT服务接口
type JWTService interface {
	// GenerateTokens 生成访问令牌和刷新令牌
	GenerateTokens(ctx context.Context, user *entities.User) (accessToken, refreshToken string, err error)

	// ValidateAccessToken 校验访问令牌
	ValidateAccessToken(tokenString string) (*TokenClaims, error)

	// ValidateRefreshToken 校验刷新令牌
	ValidateRefreshToken(tokenString string) (*TokenClaims, error)

	// AccessTokenTTL 访问令牌有效期
	AccessTokenTTL() time.Duration
}

// jwtServiceImpl JWT服务实现
type jwtServiceImpl struct {
	cfg *config.JWTConfig
	now func() time.Time
}

// NewJWTService 创建JWT服务
func NewJWTService(cfg *config.JWTConfig) JWTService {
	return &jwtServiceImpl{cfg: cfg, now: time.Now}
}

// GenerateTokens 生成访问令牌和刷新令牌
func (s *jwtServiceImpl) GenerateTokens(ctx context.Context, user *entities.User) (string, string, error) {
	accessToken, err := s.sign(user, TokenTypeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.sign(user, TokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (s *jwtServiceImpl) sign(user *entities.User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &TokenClaims{
		UserID:    user.ID,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ValidateAccessToken 校验访问令牌
func (s *jwtServiceImpl) ValidateAccessToken(tokenString string) (*TokenClaims, error) {
	return s.parse(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken 校验刷新令牌
func (s *jwtServiceImpl) ValidateRefreshToken(tokenString string) (*TokenClaims, error) {
	return s.parse(tokenString, TokenTypeRefresh)
}

func (s *jwtServiceImpl) parse(tokenString, tokenType string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, tokenType)
	}
	return claims, nil
}

// AccessTokenTTL 访问令牌有效期
func (s *jwtServiceImpl) AccessTokenTTL() time.Duration {
	return s.cfg.AccessTokenTTL
}
